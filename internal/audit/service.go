package audit

import (
	"context"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mrlokans/bookstore/internal/database/audit"
	"github.com/mrlokans/bookstore/internal/entities"
)

const maxTextLen = 500

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records an audit event synchronously.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Record stamps the event with the request id from ctx and stores it in the
// background. The write does not use ctx, so it survives the request.
func (s *Service) Record(ctx context.Context, event entities.AuditEvent) {
	event.RequestID = RequestID(ctx)
	event.Description = truncate(event.Description, maxTextLen)
	event.ErrorMsg = truncate(event.ErrorMsg, maxTextLen)
	if event.Status == "" {
		event.Status = entities.AuditStatusSuccess
	}
	s.LogAsync(&event)
}

// Flush waits for pending background writes.
func (s *Service) Flush() {
	s.pending.Wait()
}

// GetEvents retrieves paginated audit events, optionally for one entity type.
func (s *Service) GetEvents(entityType string, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(entityType, limit, offset)
}

// GetEventsForEntity returns the history of one book or bill.
func (s *Service) GetEventsForEntity(entityType string, entityID uint) ([]entities.AuditEvent, error) {
	return s.repo.GetEventsForEntity(entityType, entityID)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
