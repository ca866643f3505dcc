package repository

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // database/sql driver used by the migration runner
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationStatus describes the schema version after a migration run.
type MigrationStatus struct {
	Version uint
	Dirty   bool
	Changed bool
}

// MigrateUp applies all pending migrations.
func MigrateUp(databaseURL string) (*MigrationStatus, error) {
	return runMigration(databaseURL, func(m *migrate.Migrate) error {
		return m.Up()
	})
}

// MigrateDown rolls back steps migrations. steps <= 0 rolls back everything.
func MigrateDown(databaseURL string, steps int) (*MigrationStatus, error) {
	return runMigration(databaseURL, func(m *migrate.Migrate) error {
		if steps <= 0 {
			return m.Down()
		}
		return m.Steps(-steps)
	})
}

// MigrationVersion reports the currently applied schema version.
// Version 0 means no migration has been applied.
func MigrationVersion(databaseURL string) (*MigrationStatus, error) {
	return runMigration(databaseURL, func(*migrate.Migrate) error {
		return migrate.ErrNoChange
	})
}

func runMigration(databaseURL string, apply func(*migrate.Migrate) error) (status *MigrationStatus, err error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open migration connection: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize migrations: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err == nil {
			err = errors.Join(srcErr, dbErr)
		}
	}()

	changed := true
	if err := apply(m); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		changed = false
	}

	version, dirty, err := m.Version()
	if err != nil {
		if !errors.Is(err, migrate.ErrNilVersion) {
			return nil, fmt.Errorf("read migration version: %w", err)
		}
		version, dirty = 0, false
	}

	return &MigrationStatus{Version: version, Dirty: dirty, Changed: changed}, nil
}
