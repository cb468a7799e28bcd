package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

type HealthResponse struct {
	Status           string            `json:"status"`
	Time             string            `json:"time"`
	Version          string            `json:"version,omitempty"`
	Checks           map[string]string `json:"checks"`
	NextAuditCleanup string            `json:"next_audit_cleanup,omitempty"`
}

type HealthController struct {
	db      Pinger
	cleanup CleanupStatus
	version string
}

func NewHealthController(db Pinger, version string) *HealthController {
	return &HealthController{
		db:      db,
		version: version,
	}
}

// WithAuditCleanup adds the retention scheduler to the report. A stopped
// scheduler is reported but does not make the service unhealthy.
func (h *HealthController) WithAuditCleanup(cleanup CleanupStatus) *HealthController {
	h.cleanup = cleanup
	return h
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	if h.cleanup != nil {
		checks["audit_cleanup"] = "stopped"
		if h.cleanup.IsRunning() {
			checks["audit_cleanup"] = "scheduled"
			if next := h.cleanup.NextRunTime(); next != nil {
				health.NextAuditCleanup = next.Format(time.RFC3339)
			}
		}
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

func (h *HealthController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}
