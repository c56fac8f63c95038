package postgres

import (
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // file source driver
	"github.com/turtacn/geometax/pkg/errors"
)

// RunMigrations applies all pending migrations from the given source (e.g.
// "file://migrations") against dbURL.  A schema already at the latest version
// is not an error.
func RunMigrations(dbURL, migrationsPath string) error {
	m, err := migrate.New(migrationsPath, dbURL)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to run migrations")
	}
	return nil
}

// RollbackMigration rolls the schema back by the given number of steps.
func RollbackMigration(dbURL, migrationsPath string, steps int) error {
	if steps <= 0 {
		return errors.New(errors.ErrCodeBadRequest, "rollback steps must be positive")
	}

	m, err := migrate.New(migrationsPath, dbURL)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil {
		if err == migrate.ErrNoChange {
			return errors.New(errors.ErrCodeDatabaseError, "no migrations to roll back")
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to roll back migrations")
	}
	return nil
}

// MigrationStatus reports the current schema version and whether a failed
// migration left it dirty.
func MigrationStatus(dbURL, migrationsPath string) (version uint, dirty bool, err error) {
	m, err := migrate.New(migrationsPath, dbURL)
	if err != nil {
		return 0, false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	defer m.Close()

	version, dirty, err = m.Version()
	if err == migrate.ErrNilVersion {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read migration version")
	}
	return version, dirty, nil
}
