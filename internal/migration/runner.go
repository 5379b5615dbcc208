// Package migration applies the GORM schema and the ordered SQL files that
// GORM tags cannot express (GIN indexes, partial indexes).
package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// appliedMigration records one executed SQL file.
type appliedMigration struct {
	Name      string    `gorm:"primaryKey;size:255"`
	AppliedAt time.Time `gorm:"not null"`
}

func (appliedMigration) TableName() string {
	return "schema_migrations"
}

type Runner struct {
	db          *gorm.DB
	autoMigrate func() error
	logger      *logrus.Logger
}

// NewRunner builds a runner. autoMigrate runs before the SQL files.
func NewRunner(db *gorm.DB, autoMigrate func() error, logger *logrus.Logger) *Runner {
	return &Runner{
		db:          db,
		autoMigrate: autoMigrate,
		logger:      logger,
	}
}

// RunMigrations applies the GORM schema and every SQL file in
// migrationsPath not yet recorded in schema_migrations.
func (r *Runner) RunMigrations(migrationsPath string) error {
	r.logger.Info("Starting database migrations...")

	if r.autoMigrate != nil {
		if err := r.autoMigrate(); err != nil {
			return fmt.Errorf("GORM auto-migration failed: %w", err)
		}
	}

	if err := r.db.AutoMigrate(&appliedMigration{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	if err := r.runSQLMigrations(migrationsPath); err != nil {
		return fmt.Errorf("SQL migrations failed: %w", err)
	}

	r.logger.Info("Database migrations completed successfully")
	return nil
}

func (r *Runner) runSQLMigrations(migrationsPath string) error {
	files, err := listSQLFiles(migrationsPath)
	if err != nil {
		return err
	}

	var applied []appliedMigration
	if err := r.db.Find(&applied).Error; err != nil {
		return fmt.Errorf("failed to load applied migrations: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, m := range applied {
		done[m.Name] = true
	}

	for _, name := range files {
		if done[name] {
			r.logger.WithField("file", name).Debug("Migration already applied")
			continue
		}
		if err := r.runSQLFile(filepath.Join(migrationsPath, name), name); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", name, err)
		}
		r.logger.WithField("file", name).Info("Migration executed successfully")
	}
	return nil
}

func (r *Runner) runSQLFile(path, name string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range splitSQLStatements(string(content)) {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return tx.Create(&appliedMigration{Name: name, AppliedAt: time.Now().UTC()}).Error
	})
}

// listSQLFiles returns the .sql file names in dir, sorted.
func listSQLFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// splitSQLStatements splits a script on semicolons outside quotes and
// drops "--" comments. Dollar-quoted bodies are not supported.
func splitSQLStatements(script string) []string {
	var (
		stmts   []string
		current strings.Builder
		inQuote bool
	)

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			stmts = append(stmts, s)
		}
		current.Reset()
	}

	for i := 0; i < len(script); i++ {
		ch := script[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			current.WriteByte(ch)
		case !inQuote && ch == '-' && i+1 < len(script) && script[i+1] == '-':
			for i < len(script) && script[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
		case !inQuote && ch == ';':
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return stmts
}
