package queue

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"

	"github.com/assetlease/assetlease/internal/config"
	"github.com/assetlease/assetlease/internal/database"
	"github.com/assetlease/assetlease/internal/queue/handlers"
	"github.com/assetlease/assetlease/internal/usecase"
)

// TaskCheckExpiringRentals scans for rentals about to lapse and
// notifies their users. Enqueued hourly by the scheduler.
const TaskCheckExpiringRentals = "rentals:check-expiring"

func redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr: fmt.Sprintf("%s:%s",
			os.Getenv(config.ENV_KEY_REDIS_HOST),
			os.Getenv(config.ENV_KEY_REDIS_PORT),
		),
		Password: os.Getenv(config.ENV_KEY_REDIS_PASSWORD),
	}
}

// pingRedis fails fast on a bad redis config instead of letting asynq
// retry forever in the background.
func pingRedis(ctx context.Context, opt asynq.RedisClientOpt) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Worker processes background tasks.
type Worker struct {
	asynqServer *asynq.Server
	mux         *asynq.ServeMux
	repo        interface{ Close() error }
	logger      *slog.Logger
}

func NewWorker(logger *slog.Logger) (*Worker, error) {
	opt := redisOpt()
	if err := pingRedis(context.Background(), opt); err != nil {
		return nil, err
	}

	repo, err := database.New(logger, nil)
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}

	uc := usecase.New(repo)

	workerConcurrency := 10
	if wc := os.Getenv(config.ENV_KEY_WORKER_CONCURRENCY); wc != "" {
		var n int
		if _, err := fmt.Sscanf(wc, "%d", &n); err == nil && n > 0 {
			workerConcurrency = n
		}
	}

	asynqServer := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: workerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: handlers.NewAsynqLogger(logger),
		},
	)

	mux := asynq.NewServeMux()

	h := handlers.NewHandlers(uc, logger)

	mux.HandleFunc(TaskCheckExpiringRentals, h.HandleCheckExpiringRentals)

	logger.Info("worker registered handlers",
		slog.String("tasks", TaskCheckExpiringRentals))

	return &Worker{
		asynqServer: asynqServer,
		mux:         mux,
		repo:        repo,
		logger:      logger,
	}, nil
}

func (w *Worker) Start() error {
	return w.asynqServer.Start(w.mux)
}

func (w *Worker) Stop() {
	w.asynqServer.Shutdown()

	if err := w.repo.Close(); err != nil {
		w.logger.Error("closing repository", slog.String("err", err.Error()))
	}
}

// Scheduler enqueues the periodic tasks the worker consumes.
type Scheduler struct {
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	opt := redisOpt()
	if err := pingRedis(context.Background(), opt); err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Logger: handlers.NewAsynqLogger(logger),
	})

	task := asynq.NewTask(TaskCheckExpiringRentals, nil)
	entryID, err := scheduler.Register("@every 1h", task, asynq.Queue("low"))
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", TaskCheckExpiringRentals, err)
	}
	logger.Info("scheduler registered task",
		slog.String("task", TaskCheckExpiringRentals),
		slog.String("entry_id", entryID))

	return &Scheduler{
		scheduler: scheduler,
		logger:    logger,
	}, nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Stop() {
	s.scheduler.Shutdown()
}
