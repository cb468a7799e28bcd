package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookstore/internal/database/dbtest"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error {
	return errors.New("connection refused")
}

func healthRequest(t *testing.T, controller *HealthController) (int, HealthResponse) {
	t.Helper()

	router := gin.New()
	router.GET("/health", controller.Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w.Code, response
}

func TestHealthController_Status(t *testing.T) {
	t.Run("returns healthy when database is connected", func(t *testing.T) {
		db := dbtest.Open(t)

		code, response := healthRequest(t, NewHealthController(db, "1.0.0"))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.NotEmpty(t, response.Time)
	})

	t.Run("returns unhealthy when ping fails", func(t *testing.T) {
		code, response := healthRequest(t, NewHealthController(failingPinger{}, ""))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Equal(t, "error: connection refused", response.Checks["database"])
	})

	t.Run("reports missing database", func(t *testing.T) {
		code, response := healthRequest(t, NewHealthController(nil, ""))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "not configured", response.Checks["database"])
	})
}

type fakeCleanupStatus struct {
	running bool
	next    *time.Time
}

func (f fakeCleanupStatus) IsRunning() bool        { return f.running }
func (f fakeCleanupStatus) NextRunTime() *time.Time { return f.next }

func TestHealthController_AuditCleanup(t *testing.T) {
	t.Run("reports the next scheduled run", func(t *testing.T) {
		next := time.Date(2030, 1, 2, 3, 0, 0, 0, time.UTC)
		controller := NewHealthController(nil, "").WithAuditCleanup(fakeCleanupStatus{running: true, next: &next})

		code, response := healthRequest(t, controller)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "scheduled", response.Checks["audit_cleanup"])
		assert.Equal(t, "2030-01-02T03:00:00Z", response.NextAuditCleanup)
	})

	t.Run("stopped scheduler stays healthy", func(t *testing.T) {
		controller := NewHealthController(dbtest.Open(t), "").WithAuditCleanup(fakeCleanupStatus{})

		code, response := healthRequest(t, controller)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "stopped", response.Checks["audit_cleanup"])
		assert.Empty(t, response.NextAuditCleanup)
	})
}

func TestHealthController_Ping(t *testing.T) {
	router := gin.New()
	router.GET("/ping", NewHealthController(nil, "").Ping)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}
