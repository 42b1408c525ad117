// Package migrations applies the embedded baseline retail schema. The
// guardian audit compares the live catalog against the declared spec, so the
// migrations are the only place the schema is created or changed.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed postgres/*.sql
var migrationsFS embed.FS

func RunMigrations(databaseURL string) error {
	slog.Info("Running database migrations from embedded files")

	sourceInstance, err := iofs.New(migrationsFS, "postgres")
	if err != nil {
		return fmt.Errorf("failed to create iofs source driver: %w", err)
	}
	defer func() {
		if cerr := sourceInstance.Close(); cerr != nil {
			slog.Warn("Error closing migration source instance", "error", cerr)
		}
	}()

	migrateDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection for migration: %w", err)
	}
	defer func() {
		if cerr := migrateDB.Close(); cerr != nil {
			slog.Warn("Error closing migration db connection", "error", cerr)
		}
	}()

	if err = migrateDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database for migration: %w", err)
	}

	dbDriver, err := postgres.WithInstance(migrateDB, &postgres.Config{
		MigrationsTable: postgres.DefaultMigrationsTable,
	})
	if err != nil {
		return fmt.Errorf("could not create postgres driver instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceInstance, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	srcErr, dbErr := m.Close()

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	if srcErr != nil {
		slog.Warn("Error closing migration source", "error", srcErr)
	}
	if dbErr != nil {
		slog.Warn("Error closing migration database connection", "error", dbErr)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("No database schema changes to apply")
	} else {
		slog.Info("Database migrations completed successfully")
	}
	return nil
}
