// Package dbtest opens migrated SQLite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/database"
)

// DSN returns a foreign-key enforcing SQLite DSN inside the test's temp dir.
func DSN(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on&_busy_timeout=5000"
}

// Open migrates a fresh SQLite database and returns it. The connection is
// closed when the test finishes.
func Open(t *testing.T) *database.Database {
	t.Helper()
	dsn := DSN(t)
	require.NoError(t, database.Migrate(database.DriverSQLite, dsn))

	db, err := database.NewDatabase(database.Options{
		Driver:   database.DriverSQLite,
		DSN:      dsn,
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// New is Open for callers that only need the gorm handle.
func New(t *testing.T) *gorm.DB {
	t.Helper()
	return Open(t).DB
}
