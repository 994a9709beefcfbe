package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"tahuri-backend/migrations"
)

const (
	MigrationUp   = "up"
	MigrationDown = "down"
)

// Migrate applies (up) or reverts (down) the embedded schema.
// It reports whether anything changed.
func Migrate(dbURL, direction, table string) (bool, error) {
	const op = "database.Migrate"

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return false, fmt.Errorf("%s: open source: %w", op, err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(dbURL, table))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer m.Close()

	switch direction {
	case MigrationUp:
		err = m.Up()
	case MigrationDown:
		err = m.Down()
	default:
		return false, fmt.Errorf("%s: unknown direction %q", op, direction)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// migrateURL rewrites a postgres:// URL for the pgx/v5 migrate driver.
func migrateURL(dbURL, table string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dbURL, scheme) {
			dbURL = "pgx5://" + strings.TrimPrefix(dbURL, scheme)
			break
		}
	}
	if table == "" {
		return dbURL
	}
	sep := "?"
	if strings.Contains(dbURL, "?") {
		sep = "&"
	}
	return dbURL + sep + "x-migrations-table=" + table
}
