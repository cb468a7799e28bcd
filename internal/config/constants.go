package config

// Default connection settings
const (
	// DefaultDatabaseDSN points at a local SQLite file with foreign keys enforced
	DefaultDatabaseDSN = "./bookstore.db?_foreign_keys=on&_busy_timeout=5000"

	// DefaultTasksDatabasePath is the dedicated SQLite file used by the task queue
	DefaultTasksDatabasePath = "./bookstore-tasks.db"
)
