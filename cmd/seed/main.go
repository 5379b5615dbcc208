package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/helppanel/backend/internal/config"
	"github.com/helppanel/backend/internal/database"
	"github.com/helppanel/backend/internal/migration"
	"github.com/helppanel/backend/internal/models"
	"github.com/helppanel/backend/internal/repository"
	"github.com/helppanel/backend/internal/seeder"
	"github.com/helppanel/backend/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	dryRun  = flag.Bool("dry-run", false, "Validate and print the catalog without writing to the database")
	verbose = flag.Bool("verbose", false, "Enable verbose logging")
	file    = flag.String("file", "", "YAML catalog to import (default: built-in catalog)")
	migrate = flag.Bool("migrate", true, "Run migrations before seeding")
	timeout = flag.Duration("timeout", time.Minute, "Overall seeding timeout")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.InitLogger(cfg.Log.Level)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	articles, err := loadCatalog(*file)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load help catalog")
	}
	logger.WithFields(logrus.Fields{
		"articles": len(articles),
		"file":     *file,
	}).Info("Help catalog loaded")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var writer models.ArticleWriter
	if !*dryRun {
		dbManager, err := database.NewManager(&database.Config{
			DatabaseURL: cfg.Database.URL,
			LogLevel:    cfg.Database.LogLevel,
		}, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize database manager")
		}
		defer dbManager.Close()

		if *migrate {
			runner := migration.NewRunner(dbManager.DB, dbManager.Migrate, logger)
			if err := runner.RunMigrations(cfg.Database.MigrationsPath); err != nil {
				logger.WithError(err).Fatal("Failed to run migrations")
			}
		}
		writer = repository.NewContentStore(dbManager.DB)
	}

	report, err := seeder.NewSeeder(writer, logger).Seed(ctx, articles, *dryRun)
	if err != nil {
		logger.WithError(err).Fatal("Help catalog seeding failed")
	}

	if *dryRun {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logger.WithError(err).Error("Failed to print report")
		}
	}
}

func loadCatalog(path string) ([]models.HelpArticle, error) {
	if path == "" {
		return seeder.DefaultArticles()
	}
	return seeder.LoadFile(path)
}
