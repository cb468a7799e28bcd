package middleware

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/bookstore/internal/config"
)

// Flash kinds
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Session data keys
const (
	sessionKeyFlashKind    = "flash_kind"
	sessionKeyFlashMessage = "flash_message"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

// SessionManager wraps scs.SessionManager with flash message helpers.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager. Sessions are kept
// in the sessions table when sqlDB is a SQLite connection and in memory when
// sqlDB is nil.
func NewSessionManager(sqlDB *sql.DB, cfg config.Session) *SessionManager {
	sm := scs.New()

	if sqlDB != nil {
		sm.Store = sqlite3store.New(sqlDB)
	}

	if cfg.Lifetime > 0 {
		sm.Lifetime = cfg.Lifetime
		sm.IdleTimeout = cfg.Lifetime / 2
	}

	sm.Cookie.Name = "bookstore_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}
}

// PutFlash replaces any pending flash message.
func (sm *SessionManager) PutFlash(ctx context.Context, kind, message string) {
	sm.Put(ctx, sessionKeyFlashKind, kind)
	sm.Put(ctx, sessionKeyFlashMessage, message)
}

// PopFlash returns the pending flash message and clears it, or nil.
func (sm *SessionManager) PopFlash(ctx context.Context) *Flash {
	message := sm.PopString(ctx, sessionKeyFlashMessage)
	kind := sm.PopString(ctx, sessionKeyFlashKind)
	if message == "" {
		return nil
	}
	if kind == "" {
		kind = FlashSuccess
	}
	return &Flash{Kind: kind, Message: message}
}
