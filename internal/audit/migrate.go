package audit

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"pcaplink/internal/config"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// Migrate brings the command_logs schema up to date on db. The handle stays
// open: closing the migrate instance would close db as well.
func Migrate(db *sql.DB, backend string) error {
	var (
		driver database.Driver
		err    error
	)
	switch backend {
	case config.BackendSQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case config.BackendPostgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		return fmt.Errorf("no SQL migrations for backend %q", backend)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s migration driver: %w", backend, err)
	}

	source, err := iofs.New(migrationFS, "migrations/"+backend)
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, backend, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
