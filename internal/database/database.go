package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/assetlease/assetlease/internal/config"
)

// service implements usecase.Repository on Postgres.
type service struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	noti   *notificationHub
	logger *slog.Logger
}

// ConnString builds the Postgres connection string from env.
func ConnString() string {
	var (
		dbname = os.Getenv(config.ENV_KEY_DB_DATABASE)
		dbpass = os.Getenv(config.ENV_KEY_DB_PASSWORD)
		dbuser = os.Getenv(config.ENV_KEY_DB_USER)
		dbport = os.Getenv(config.ENV_KEY_DB_PORT)
		dbhost = os.Getenv(config.ENV_KEY_DB_HOST)
	)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", dbuser, dbpass, dbhost, dbport, dbname)
}

// New opens the database, migrates the schema and starts the
// notification hub. listenConn may be nil for processes that do not
// stream notifications (the queue worker).
func New(logger *slog.Logger, listenConn *pgx.Conn) (*service, error) {
	connStr := ConnString()

	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{
		Logger: NewSlogGormLogger(logger),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open gorm database connection: %w", err)
	}

	if err := gormDB.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("register otel gorm plugin: %w", err)
	}

	if m, err := strconv.Atoi(os.Getenv(config.ENV_KEY_DB_MAX_OPEN_CONNECTIONS)); err == nil {
		sqlDB.SetMaxOpenConns(m)
	}

	if err := migrate(gormDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	s := &service{
		db:     gormDB,
		sqlDB:  sqlDB,
		logger: logger,
	}
	if listenConn != nil {
		s.noti = newNotificationHub(listenConn, logger)
	}
	return s, nil
}

func migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return fmt.Errorf("create uuid extension: %w", err)
	}

	err := db.AutoMigrate(
		Account{},
		Allowance{},
		LedgerEntry{},
		Asset{},
		Rental{},
		Proposal{},
		Session{},
		AssetEvent{},
		Notification{},
		Settings{},
	)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	// One open custody session per asset.
	if err := db.Exec(`
        CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_open_session_per_asset
        ON sessions (asset_id)
        WHERE resolved_at IS NULL;
    `).Error; err != nil {
		return fmt.Errorf("create session index: %w", err)
	}

	// Seed the singleton settings row.
	if err := db.Exec(`
        INSERT INTO settings (id, base_uri, updated_at)
        VALUES (1, ?, now())
        ON CONFLICT (id) DO NOTHING;
    `, os.Getenv(config.ENV_KEY_ASSET_BASE_URI)).Error; err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	return nil
}

// Health reports connectivity and pool statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := s.sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := s.sqlDB.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()

	if dbStats.WaitCount > 1000 {
		stats["message"] = "The database has a high number of wait events, indicating potential bottlenecks."
	}

	return stats
}

func (s *service) Close() error {
	s.logger.Info("disconnecting from database",
		slog.String("database", os.Getenv(config.ENV_KEY_DB_DATABASE)))
	return s.sqlDB.Close()
}
