package persistence

import (
	"errors"
	"fmt"

	"github.com/finance-ledger/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationStatus describes the schema version recorded by golang-migrate
type MigrationStatus struct {
	Version uint
	Dirty   bool
}

// Migrator drives golang-migrate over the SQL files in Dir. Each call opens and
// closes its own connection.
type Migrator struct {
	DatabaseURL string
	Dir         string
}

func NewMigrator(cfg *config.PostgresConfig) *Migrator {
	return &Migrator{DatabaseURL: cfg.URL, Dir: cfg.MigrationsPath}
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (m *Migrator) Up() error {
	return m.session(func(mg *migrate.Migrate) error {
		if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		return nil
	})
}

// Down reverts the last steps migrations
func (m *Migrator) Down(steps int) error {
	if steps < 1 {
		return fmt.Errorf("rollback needs at least one step, got %d", steps)
	}
	return m.session(func(mg *migrate.Migrate) error {
		if err := mg.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to roll back migrations: %w", err)
		}
		return nil
	})
}

// Status reports the applied version; zero means an empty schema
func (m *Migrator) Status() (MigrationStatus, error) {
	var status MigrationStatus
	err := m.session(func(mg *migrate.Migrate) error {
		version, dirty, err := mg.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		status = MigrationStatus{Version: version, Dirty: dirty}
		return nil
	})
	return status, err
}

func (m *Migrator) session(fn func(mg *migrate.Migrate) error) (err error) {
	switch {
	case m.Dir == "":
		return errors.New("no migrations directory configured")
	case m.DatabaseURL == "":
		return errors.New("no database URL configured")
	}

	mg, err := migrate.New("file://"+m.Dir, m.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	defer func() {
		srcErr, dbErr := mg.Close()
		if err == nil {
			err = errors.Join(srcErr, dbErr)
		}
	}()

	return fn(mg)
}
