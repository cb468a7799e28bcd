package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mrlokans/bookstore/internal/database/migrations"
)

// Migrate brings the schema up to the latest embedded version. It opens its
// own connection because golang-migrate closes it when done.
func Migrate(driver, dsn string) error {
	m, err := newMigrator(driver, dsn)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("reading schema version: %w", err)
	}
	log.Printf("Database schema at version %d (dirty: %v)", version, dirty)
	return nil
}

// MigrateDown rolls back every migration. Used by tests and the migrate command.
func MigrateDown(driver, dsn string) error {
	m, err := newMigrator(driver, dsn)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating down: %w", err)
	}
	return nil
}

func newMigrator(driver, dsn string) (*migrate.Migrate, error) {
	var (
		sqlDriverName string
		sourceDir     string
	)
	switch normalizeDriver(driver) {
	case DriverSQLite:
		sqlDriverName, sourceDir = "sqlite3", "sqlite"
	case DriverPostgres:
		sqlDriverName, sourceDir = "postgres", "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	sqlDB, err := sql.Open(sqlDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening migration connection: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging migration connection: %w", err)
	}

	var dbDriver migratedb.Driver
	if sourceDir == "sqlite" {
		dbDriver, err = migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	} else {
		dbDriver, err = migratepg.WithInstance(sqlDB, &migratepg.Config{})
	}
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("creating migration driver: %w", err)
	}

	src, err := iofs.New(migrations.FS, sourceDir)
	if err != nil {
		dbDriver.Close()
		return nil, fmt.Errorf("loading embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, sqlDriverName, dbDriver)
	if err != nil {
		dbDriver.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		log.Printf("Warning: failed to close migration source: %v", srcErr)
	}
	if dbErr != nil {
		log.Printf("Warning: failed to close migration connection: %v", dbErr)
	}
}
