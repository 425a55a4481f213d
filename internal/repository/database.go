package repository

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"jobtracker/internal/config"
	"jobtracker/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func IsPostgres(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "postgres")
}

func InitDB(cfg config.Config) (*gorm.DB, error) {
	var dialer gorm.Dialector
	if IsPostgres(cfg.DatabaseURL) {
		dialer = postgres.Open(cfg.DatabaseURL)
	} else if strings.HasPrefix(cfg.DatabaseURL, "sqlite") {
		dialer = sqlite.Open(strings.TrimPrefix(cfg.DatabaseURL, "sqlite://"))
	} else {
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DatabaseURL)
	}

	// SQL echo in development only.
	logLevel := logger.Warn
	if cfg.AppEnv == config.EnvDevelopment {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialer, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if !IsPostgres(cfg.DatabaseURL) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access connection pool: %w", err)
		}
		// An in-memory database only lives as long as its single connection.
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate brings the schema up to date: versioned SQL files for Postgres,
// AutoMigrate for SQLite.
func Migrate(db *gorm.DB, cfg config.Config, logger *slog.Logger) error {
	if IsPostgres(cfg.DatabaseURL) {
		logger.Info("Running database migrations...", "source", cfg.MigrationsPath)
		return RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath)
	}
	logger.Info("Auto-migrating SQLite schema")
	return AutoMigrate(db)
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.JobApplication{})
}

func RunMigrations(databaseURL string, sourcePath string) error {
	if sourcePath == "" {
		sourcePath = "file://migration"
	}
	m, err := migrate.New(
		sourcePath,
		databaseURL,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run up migrations: %w", err)
	}

	return nil
}
