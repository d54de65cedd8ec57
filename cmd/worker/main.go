package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/assetlease/assetlease/internal/config"
	"github.com/assetlease/assetlease/internal/queue"
	"github.com/assetlease/assetlease/internal/telemetry"
)

func main() {
	var mode = flag.String("mode", "worker", "Mode to run: 'worker', 'scheduler'")
	flag.Parse()

	level := slog.LevelInfo
	switch os.Getenv(config.ENV_KEY_LOG_LEVEL) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}

	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(telemetry.NewTraceHandler(jsonHandler))
	slog.SetDefault(logger)

	switch *mode {
	case "worker":
		runWorker(logger)
	case "scheduler":
		runScheduler(logger)
	default:
		logger.Error("invalid mode, use 'worker' or 'scheduler'", slog.String("mode", *mode))
		os.Exit(1)
	}
}

func runWorker(logger *slog.Logger) {
	logger.Info("starting in WORKER mode")

	worker, err := queue.NewWorker(logger)
	if err != nil {
		logger.Error("failed to create worker", slog.String("err", err.Error()))
		os.Exit(1)
	}

	go func() {
		if err := worker.Start(); err != nil {
			logger.Error("worker error", slog.String("err", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker")
	worker.Stop()
	logger.Info("worker exited properly")
}

func runScheduler(logger *slog.Logger) {
	logger.Info("starting in SCHEDULER mode")

	scheduler, err := queue.NewScheduler(logger)
	if err != nil {
		logger.Error("failed to create scheduler", slog.String("err", err.Error()))
		os.Exit(1)
	}

	go func() {
		if err := scheduler.Start(); err != nil {
			logger.Error("scheduler error", slog.String("err", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down scheduler")
	scheduler.Stop()
	logger.Info("scheduler exited properly")
}
