package services

import (
	"context"

	"github.com/mrlokans/bookstore/internal/entities"
)

// Auditor records the outcome of a mutation. Implementations must not block
// the caller; audit.Service writes asynchronously.
type Auditor interface {
	Record(ctx context.Context, event entities.AuditEvent)
}
