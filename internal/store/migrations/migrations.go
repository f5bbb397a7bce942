// Package migrations carries the PostgreSQL schema and applies it with golang-migrate.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	sourceName   = "iofs"
	databaseName = "postgres"
	sqlDirectory = "sql"
)

//go:embed sql/*.sql
var files embed.FS

// Source exposes the embedded migration files as a golang-migrate source driver.
func Source() (source.Driver, error) {
	return iofs.New(files, sqlDirectory)
}

// Up applies every pending migration against databaseURL.
func Up(ctx context.Context, databaseURL string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	database, err := sql.Open(databaseName, databaseURL)
	if err != nil {
		return fmt.Errorf("migrations: open: %w", err)
	}
	defer database.Close()
	if err := database.PingContext(ctx); err != nil {
		return fmt.Errorf("migrations: ping: %w", err)
	}

	driver, err := postgres.WithInstance(database, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migrations: database driver: %w", err)
	}
	sourceDriver, err := Source()
	if err != nil {
		return fmt.Errorf("migrations: source: %w", err)
	}
	migrator, err := migrate.NewWithInstance(sourceName, sourceDriver, databaseName, driver)
	if err != nil {
		return fmt.Errorf("migrations: init: %w", err)
	}
	defer func() {
		sourceErr, databaseErr := migrator.Close()
		if sourceErr != nil || databaseErr != nil {
			logger.Warn("migrations close failed",
				zap.NamedError("source_error", sourceErr),
				zap.NamedError("database_error", databaseErr),
			)
		}
	}()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: up: %w", err)
	}
	version, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migrations: version: %w", err)
	}
	logger.Info("schema migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
