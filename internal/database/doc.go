// Package database provides the data access layer for the application.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup for SQLite and PostgreSQL
//	├── migrate.go       # golang-migrate runner over the embedded schema
//	├── seed.go          # Starter catalog
//	├── errors.go        # Driver error classification
//	├── migrations/      # Versioned SQL, one directory per driver
//	├── books/           # Book catalog queries
//	├── bills/           # Bill queries
//	├── audit/           # Audit event storage
//	└── dbtest/          # Migrated SQLite databases for tests
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type bound to a *gorm.DB. Bind it
// to a request context or a transaction before use:
//
//	db, err := database.NewDatabase(database.Options{Driver: "sqlite", DSN: dsn})
//
//	booksRepo := books.NewRepository(db.DB.WithContext(ctx))
//	err = db.DB.Transaction(func(tx *gorm.DB) error {
//		return bills.NewRepository(tx).Create(bill)
//	})
//
// The schema is owned by the migrations; NewDatabase never alters it.
package database
