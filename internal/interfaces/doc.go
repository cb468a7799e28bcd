// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Domain Services
//
//   - Catalog: list, read, add, edit and delete books (internal/http/stores.go)
//   - Billing: create, list and delete bills (internal/http/stores.go)
//
// Both are implemented by the services package, which runs every write
// through one validate, transact, audit template (internal/services/mutation.go).
//
// ## Audit Log
//
//   - Auditor: records the outcome of a mutation (internal/services/interfaces.go)
//   - AuditReader: paginated reads for the JSON API (internal/http/stores.go)
//   - AuditEventCleaner: retention cleanup (internal/tasks/cleanup_audit.go)
//
// ## Infrastructure
//
//   - Pinger: store health (internal/http/stores.go)
//   - Flasher: one-shot messages kept in the session (internal/http/stores.go)
//   - AuditCleanupEnqueuer: hands cleanup runs to the task queue or runs them
//     inline (internal/scheduler/audit_cleanup.go)
//
// # Adding a New Entity
//
//  1. Add the model to internal/entities and a migration pair for each driver
//     under internal/database/migrations/.
//
//  2. Create a repository sub-package:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Add a service whose writes go through mutate with an operation
//     describing the action, the transaction body and the audit text.
//
//  4. Declare the interface the controller needs in internal/http/stores.go
//     and add a compile-time check here.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the current list.
package interfaces
