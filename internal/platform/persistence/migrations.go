package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationState is the schema version left behind by RunMigrations
type MigrationState struct {
	Version uint
	Applied bool // false when the schema was already current
}

// RunMigrations applies pending up migrations from migrationsPath. A dirty schema
// from an earlier failed run is reported instead of being migrated over.
func RunMigrations(databaseURL string, migrationsPath string) (state MigrationState, err error) {
	switch {
	case migrationsPath == "":
		return state, errors.New("migrations path cannot be empty")
	case databaseURL == "":
		return state, errors.New("database URL cannot be empty")
	}

	m, err := migrate.New(migrationsSourceURL(migrationsPath), databaseURL)
	if err != nil {
		return state, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		sourceErr, dbErr := m.Close()
		if err == nil {
			err = errors.Join(sourceErr, dbErr)
		}
	}()

	if version, dirty, verr := m.Version(); verr == nil && dirty {
		return state, fmt.Errorf("schema is dirty at version %d, fix it manually before migrating", version)
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
	case err != nil:
		return state, fmt.Errorf("failed to apply migrations: %w", err)
	default:
		state.Applied = true
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return state, fmt.Errorf("failed to read schema version: %w", err)
	}
	state.Version = version
	return state, nil
}

// migrationsSourceURL accepts either a plain directory or a file:// URL
func migrationsSourceURL(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	return "file://" + path
}
