package entrypoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/entities"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.Database{
			Driver:   database.DriverSQLite,
			DSN:      filepath.Join(t.TempDir(), "app.db") + "?_foreign_keys=on",
			LogLevel: "silent",
		},
		Bootstrap: config.Bootstrap{AutoMigrate: true},
	}
}

func TestOpenDatabase(t *testing.T) {
	t.Run("migrates without seeding by default", func(t *testing.T) {
		db, err := OpenDatabase(testConfig(t))
		require.NoError(t, err)
		defer db.Close()

		var count int64
		require.NoError(t, db.DB.Model(&entities.Book{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("seeds once when asked", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Bootstrap.SeedOnStart = true

		db, err := OpenDatabase(cfg)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		db, err = OpenDatabase(cfg)
		require.NoError(t, err)
		defer db.Close()

		var count int64
		require.NoError(t, db.DB.Model(&entities.Book{}).Count(&count).Error)
		assert.EqualValues(t, 5, count)
	})

	t.Run("fails for unknown driver", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Database.Driver = "oracle"
		_, err := OpenDatabase(cfg)
		assert.Error(t, err)
	})
}

func TestCSRFKey(t *testing.T) {
	a, err := csrfKey(config.Session{Secret: "s3cret"})
	require.NoError(t, err)
	b, err := csrfKey(config.Session{Secret: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	generated, err := csrfKey(config.Session{})
	require.NoError(t, err)
	assert.Len(t, generated, 32)
	assert.NotEqual(t, a, generated)
}
