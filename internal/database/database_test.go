package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookstore/internal/entities"
)

// setupTestDB creates a migrated database in a temp dir
func setupTestDB(t *testing.T) (*Database, string) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on"
	require.NoError(t, Migrate(DriverSQLite, dsn))

	db, err := NewDatabase(Options{Driver: DriverSQLite, DSN: dsn, LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, dsn
}

func TestMigrate(t *testing.T) {
	db, dsn := setupTestDB(t)

	t.Run("creates tables", func(t *testing.T) {
		for _, table := range []string{"books", "bills", "audit_events", "sessions"} {
			assert.True(t, db.DB.Migrator().HasTable(table), table)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		assert.NoError(t, Migrate(DriverSQLite, dsn))
	})

	t.Run("down drops tables", func(t *testing.T) {
		require.NoError(t, MigrateDown(DriverSQLite, dsn))
		assert.False(t, db.DB.Migrator().HasTable("books"))
		require.NoError(t, Migrate(DriverSQLite, dsn))
		assert.True(t, db.DB.Migrator().HasTable("books"))
	})

	t.Run("unknown driver", func(t *testing.T) {
		assert.Error(t, Migrate("oracle", dsn))
	})
}

func TestSeed(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	created, err := Seed(ctx, db.DB)
	require.NoError(t, err)
	assert.Equal(t, 5, created)

	var books []entities.Book
	require.NoError(t, db.DB.Order("title ASC").Find(&books).Error)
	require.Len(t, books, 5)
	assert.Equal(t, "1984", books[0].Title)
	for _, b := range books {
		assert.Greater(t, b.Price, 0.0)
		assert.NotNil(t, b.Genre)
	}

	t.Run("second run is a no-op", func(t *testing.T) {
		created, err := Seed(ctx, db.DB)
		require.NoError(t, err)
		assert.Zero(t, created)

		var count int64
		require.NoError(t, db.DB.Model(&entities.Book{}).Count(&count).Error)
		assert.Equal(t, int64(5), count)
	})
}

func TestNewDatabase(t *testing.T) {
	t.Run("unsupported driver", func(t *testing.T) {
		_, err := NewDatabase(Options{Driver: "mysql", DSN: "whatever"})
		assert.Error(t, err)
	})

	t.Run("ping", func(t *testing.T) {
		db, _ := setupTestDB(t)
		assert.NoError(t, db.Ping(context.Background()))
		assert.Equal(t, DriverSQLite, db.Driver)
	})
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, ParseLogLevel("silent"))
	assert.Equal(t, logger.Error, ParseLogLevel("ERROR"))
	assert.Equal(t, logger.Info, ParseLogLevel("info"))
	assert.Equal(t, logger.Warn, ParseLogLevel(""))
	assert.Equal(t, logger.Warn, ParseLogLevel("verbose"))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.False(t, IsForeignKeyViolation(nil))
	assert.False(t, IsForeignKeyViolation(errors.New("boom")))
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
}
