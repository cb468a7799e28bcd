package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options describes how to reach the store.
type Options struct {
	Driver   string
	DSN      string
	LogLevel string // silent, error, warn or info
}

type Database struct {
	DB     *gorm.DB
	Driver string
}

// NewDatabase opens the store. The schema is not touched here; run Migrate
// first (the migrate command or AUTO_MIGRATE).
func NewDatabase(opts Options) (*Database, error) {
	dialector, err := dialectorFor(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(ParseLogLevel(opts.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Printf("Database connection opened (driver: %s)", normalizeDriver(opts.Driver))

	return &Database{DB: db, Driver: normalizeDriver(opts.Driver)}, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch normalizeDriver(driver) {
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func normalizeDriver(driver string) string {
	driver = strings.ToLower(strings.TrimSpace(driver))
	switch driver {
	case "", "sqlite3":
		return DriverSQLite
	case "postgresql", "pgx":
		return DriverPostgres
	}
	return driver
}

// ParseLogLevel maps a config value to a gorm log level, defaulting to warn.
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// SQLDB exposes the pooled connection, e.g. for the session store.
func (d *Database) SQLDB() (*sql.DB, error) {
	return d.DB.DB()
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
