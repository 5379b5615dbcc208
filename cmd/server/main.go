package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/helppanel/backend/internal/api"
	"github.com/helppanel/backend/internal/config"
	"github.com/helppanel/backend/internal/database"
	"github.com/helppanel/backend/internal/health"
	"github.com/helppanel/backend/internal/middleware"
	"github.com/helppanel/backend/internal/migration"
	"github.com/helppanel/backend/internal/models"
	"github.com/helppanel/backend/internal/repository"
	"github.com/helppanel/backend/internal/seeder"
	"github.com/helppanel/backend/internal/services"
	"github.com/helppanel/backend/internal/tasks"
	"github.com/helppanel/backend/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.InitLogger(cfg.Log.Level)
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cache, probes, cleanup := openStore(cfg, logger)
	defer cleanup()

	dispatcher := tasks.NewDispatcher(tasks.Config{
		Workers:     cfg.Analytics.Workers,
		QueueSize:   cfg.Analytics.QueueSize,
		TaskTimeout: cfg.Analytics.TaskTimeout,
	}, logger)

	help := services.NewHelpService(store, dispatcher, logger)
	checker := health.NewHealthChecker(logger, probes...)
	if cfg.Health.Interval > 0 {
		go checker.PeriodicHealthCheck(ctx, cfg.Health.Interval)
	}

	server := api.NewServer(help, checker, dispatcher.Stats, api.Options{
		Port: cfg.Server.Port,
		Security: middleware.SecurityConfig{
			RateLimitPerSecond: cfg.Security.RateLimitPerSecond,
			RateLimitBurst:     cfg.Security.RateLimitBurst,
			AllowedOrigins:     cfg.Security.AllowedOrigins,
		},
		Cache:    cache,
		CacheTTL: cfg.Cache.TTL,
	}, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(ctx) }()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down...")
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Pending analytics tasks were dropped")
	}

	stats := dispatcher.Stats()
	logger.WithFields(logrus.Fields{
		"completed": stats.Completed,
		"failed":    stats.Failed,
		"dropped":   stats.Dropped,
	}).Info("Server stopped")
}

// openStore builds the configured content store, response cache and health
// probes. The returned cleanup closes every connection.
func openStore(cfg *config.Config, logger *logrus.Logger) (models.ContentStore, database.Cache, []health.Probe, func()) {
	var (
		cache   database.Cache
		probes  []health.Probe
		closers []func()
	)

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var store models.ContentStore
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		articles, err := seeder.DefaultArticles()
		if err != nil {
			logger.WithError(err).Fatal("Failed to load built-in help catalog")
		}
		mem, err := repository.NewMemoryStoreWith(articles...)
		if err != nil {
			logger.WithError(err).Fatal("Failed to seed memory store")
		}
		store = mem
		probes = append(probes, health.Probe{Name: "store", Critical: true, Ping: mem.Ping})
		logger.WithField("articles", len(articles)).Info("Using in-memory content store")

	default:
		dbManager, err := database.NewManager(&database.Config{
			DatabaseURL: cfg.Database.URL,
			RedisURL:    cfg.Redis.URL,
			LogLevel:    cfg.Database.LogLevel,
		}, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize database manager")
		}
		closers = append(closers, func() {
			if err := dbManager.Close(); err != nil {
				logger.WithError(err).Error("Failed to close database connections")
			}
		})

		runner := migration.NewRunner(dbManager.DB, dbManager.Migrate, logger)
		if err := runner.RunMigrations(cfg.Database.MigrationsPath); err != nil {
			cleanup()
			logger.WithError(err).Fatal("Failed to run migrations")
		}

		store = repository.NewContentStore(dbManager.DB)
		probes = append(probes, health.Probe{Name: "postgresql", Critical: true, Ping: dbManager.PingDatabase})

		if dbManager.Redis != nil {
			cache = database.NewRedisCache(dbManager.Redis, logger)
			probes = append(probes, health.Probe{Name: "redis", Ping: dbManager.PingRedis})
		}
	}

	if cache == nil && cfg.Cache.TTL > 0 {
		cache = database.NewMemoryCache(cfg.Cache.TTL)
	}
	return store, cache, probes, cleanup
}
