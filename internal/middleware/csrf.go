package middleware

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"golang.org/x/crypto/hkdf"
)

// csrfFieldKey holds the hidden form input set by CSRF.
const csrfFieldKey = "csrf_field"

const csrfKeyInfo = "bookstore csrf v1"

// DeriveCSRFKey stretches the session secret into the 32-byte key gorilla/csrf needs.
func DeriveCSRFKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("empty session secret")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(csrfKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive csrf key: %w", err)
	}
	return key, nil
}

// GenerateSecret returns a random hex secret for when none is configured.
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// CSRF protects unsafe methods with gorilla/csrf. secure=false marks
// requests as plaintext HTTP so local development works without TLS.
func CSRF(key []byte, secure bool) gin.HandlerFunc {
	protect := csrf.Protect(
		key,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		if !secure {
			c.Request = csrf.PlaintextHTTPRequest(c.Request)
		}

		passed := false
		handler := protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Set(csrfFieldKey, csrf.TemplateField(r))
			c.Request = r
			c.Next()
		}))

		handler.ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"CSRF token invalid or missing"}`))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Form expired</title></head>
<body>
<h1>Form expired</h1>
<p>The form was missing its security token or has expired. Go back, reload the page and try again.</p>
</body>
</html>`))
}

// CSRFField returns the hidden input carrying the token, or "" when CSRF
// protection is off.
func CSRFField(c *gin.Context) template.HTML {
	if v, ok := c.Get(csrfFieldKey); ok {
		if field, ok := v.(template.HTML); ok {
			return field
		}
	}
	return ""
}
