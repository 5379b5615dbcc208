package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/helppanel/backend/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Manager owns the Postgres and (optional) Redis connections.
type Manager struct {
	DB     *gorm.DB
	Redis  *redis.Client
	logger *logrus.Logger
}

type Config struct {
	DatabaseURL string
	RedisURL    string
	LogLevel    string
}

// NewGormLogger routes GORM's SQL log through logrus.
func NewGormLogger(logger *logrus.Logger, level string) gormlogger.Interface {
	var mode gormlogger.LogLevel
	switch level {
	case "debug", "info":
		mode = gormlogger.Info
	case "warn":
		mode = gormlogger.Warn
	case "error":
		mode = gormlogger.Error
	default:
		mode = gormlogger.Silent
	}

	return gormlogger.New(logger, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  mode,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// NewManager connects to Postgres with pooling and, when cfg.RedisURL is
// set, to Redis.
func NewManager(cfg *Config, logger *logrus.Logger) (*Manager, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:                 NewGormLogger(logger, cfg.LogLevel),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// The catalog is tiny; a small pool is plenty.
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	m := &Manager{DB: db, logger: logger}

	if cfg.RedisURL != "" {
		client, err := NewRedisClient(cfg.RedisURL)
		if err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		m.Redis = client
	}

	logger.WithField("redis", m.Redis != nil).Info("Database connections established")
	return m, nil
}

// NewRedisClient parses url, configures the pool and verifies the server
// answers.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxConnAge = time.Hour
	opts.IdleTimeout = 30 * time.Minute
	opts.IdleCheckFrequency = 30 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Migrate creates or updates the help tables from the GORM models.
func (m *Manager) Migrate() error {
	m.logger.Info("Running database migrations...")
	return m.DB.AutoMigrate(
		&models.HelpArticle{},
		&models.HelpAnalyticsEvent{},
	)
}

func (m *Manager) Close() error {
	if m.Redis != nil {
		if err := m.Redis.Close(); err != nil {
			m.logger.WithError(err).Error("Failed to close Redis connection")
		}
	}

	if m.DB != nil {
		sqlDB, err := m.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

func (m *Manager) PingDatabase(ctx context.Context) error {
	sqlDB, err := m.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (m *Manager) PingRedis(ctx context.Context) error {
	if m.Redis == nil {
		return fmt.Errorf("redis not configured")
	}
	return m.Redis.Ping(ctx).Err()
}
