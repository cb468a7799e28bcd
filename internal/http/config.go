package http

import (
	"github.com/mrlokans/bookstore/internal/middleware"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Catalog Catalog
	Billing Billing
	Audit   AuditReader
	DB      Pinger

	// AuditCleanup is reported by /health when set.
	AuditCleanup CleanupStatus

	// Sessions hold flash messages. Nil disables flashes.
	Sessions *middleware.SessionManager

	// CSRFKey enables CSRF protection on forms when non-empty.
	CSRFKey       []byte
	SecureCookies bool

	// UI paths
	TemplatesPath string
	StaticPath    string

	// TrustedProxies may set the client IP through X-Forwarded-For. Nil
	// trusts none, so rate limiting keys on the connection address.
	TrustedProxies []string

	// RateLimiter throttles mutating requests per client IP. Nil disables it.
	RateLimiter *middleware.IPRateLimiter

	// Origins allowed to call /api. Empty disables CORS headers.
	CORSAllowedOrigins []string

	// Application info
	Version string
}
