// Package middleware holds the gin middleware shared by the HTML and JSON
// surfaces: cookie sessions carrying flash messages, CSRF protection for
// forms, security headers, per-IP rate limiting of writes and request ids.
//
// Order matters when installing them:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.SecurityHeaders())
//	router.Use(sessions.LoadAndSave())
//	router.Use(middleware.CSRF(key, secure))
package middleware
