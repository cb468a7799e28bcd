package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/bookstore/internal/audit"
	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/http"
	"github.com/mrlokans/bookstore/internal/middleware"
	"github.com/mrlokans/bookstore/internal/scheduler"
	"github.com/mrlokans/bookstore/internal/services"
	"github.com/mrlokans/bookstore/internal/tasks"
)

// =============================================================================
// Domain Services
// =============================================================================

var _ http.Catalog = (*services.CatalogService)(nil)
var _ http.Billing = (*services.BillingService)(nil)

// =============================================================================
// Audit Log
// =============================================================================

var _ services.Auditor = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

// =============================================================================
// Infrastructure
// =============================================================================

var _ http.Pinger = (*database.Database)(nil)
var _ http.Flasher = (*middleware.SessionManager)(nil)

// AuditCleanupEnqueuer implementations
var _ scheduler.AuditCleanupEnqueuer = (*tasks.Client)(nil)
var _ scheduler.AuditCleanupEnqueuer = scheduler.InlineCleanup{}
var _ http.CleanupStatus = (*scheduler.AuditCleanupScheduler)(nil)
