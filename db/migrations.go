package db

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
)

//go:embed migrations
var Migrations embed.FS

// driverDirs maps a configured database driver to its migrations directory.
var driverDirs = map[string]string{
	"postgres": "postgres",
	"mysql":    "mysql",
	"sqlite":   "sqlite3",
}

// New returns a migrator over the embedded migrations for driver.
// Callers must Close it.
func New(driver, databaseURL string) (*migrate.Migrate, error) {
	dir, ok := driverDirs[driver]
	if !ok {
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}

	migrationsFS, err := fs.Sub(Migrations, "migrations/"+dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get embedded migrations: %w", err)
	}

	d, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs driver: %w", err)
	}

	return migrate.NewWithSourceInstance("iofs", d, databaseURL)
}

// Up applies all pending migrations. An up-to-date schema is not an error.
func Up(driver, databaseURL string) error {
	return run(driver, databaseURL, func(m *migrate.Migrate) error {
		return m.Up()
	})
}

// Down rolls back steps migrations.
func Down(driver, databaseURL string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be greater than 0 (got %d)", steps)
	}
	return run(driver, databaseURL, func(m *migrate.Migrate) error {
		return m.Steps(-steps)
	})
}

// Version reports the applied schema version. A database with no applied
// migrations returns version 0.
func Version(driver, databaseURL string) (version uint, dirty bool, err error) {
	err = run(driver, databaseURL, func(m *migrate.Migrate) error {
		var verr error
		version, dirty, verr = m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return nil
		}
		return verr
	})
	return version, dirty, err
}

func run(driver, databaseURL string, fn func(*migrate.Migrate) error) (err error) {
	m, err := New(driver, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err == nil {
			err = errors.Join(srcErr, dbErr)
		}
	}()

	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
