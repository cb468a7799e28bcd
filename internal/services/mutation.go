package services

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/entities"
)

// operation describes one mutating use case: check the input, change the
// store inside a transaction, then describe the result for the audit log.
type operation[T any] struct {
	action   string // e.g. "book_create"
	event    entities.AuditEventType
	entity   string
	validate func() error
	apply    func(tx *gorm.DB) (T, error)
	describe func(result T) (entityID uint, description string)
}

// mutate runs op. Validation happens before the transaction opens; any error
// from apply rolls the transaction back. Domain errors are returned as is and
// everything else becomes a *StoreError, which is also audited as failed.
func mutate[T any](ctx context.Context, db *gorm.DB, auditor Auditor, op operation[T]) (T, error) {
	var zero T

	if op.validate != nil {
		if err := op.validate(); err != nil {
			return zero, err
		}
	}

	var result T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = op.apply(tx)
		return err
	})
	if err != nil {
		if isDomainError(err) {
			return zero, err
		}
		if errors.Is(err, context.Canceled) {
			log.Printf("%s cancelled: %v", op.action, err)
		} else {
			log.Printf("Error: %s failed, transaction rolled back: %v", op.action, err)
		}
		if auditor != nil {
			auditor.Record(ctx, entities.AuditEvent{
				EventType:  op.event,
				Action:     op.action,
				EntityType: op.entity,
				Status:     entities.AuditStatusFailed,
				ErrorMsg:   err.Error(),
			})
		}
		return zero, &StoreError{Op: op.action, Err: err}
	}

	if auditor != nil && op.describe != nil {
		entityID, description := op.describe(result)
		auditor.Record(ctx, entities.AuditEvent{
			EventType:   op.event,
			Action:      op.action,
			Description: description,
			EntityType:  op.entity,
			EntityID:    &entityID,
			Status:      entities.AuditStatusSuccess,
		})
	}

	return result, nil
}

// notFound maps gorm's missing-row error to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
