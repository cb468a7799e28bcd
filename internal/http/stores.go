package http

import (
	"context"
	"time"

	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/middleware"
	"github.com/mrlokans/bookstore/internal/services"
)

// This file collects the dependencies controllers need. Each is satisfied by
// a concrete service so tests can swap in fakes.

// Catalog is the book side of the store, implemented by services.CatalogService.
type Catalog interface {
	ListBooks(ctx context.Context, search, sortBy string) ([]entities.Book, error)
	CountBooks(ctx context.Context) (int64, error)
	GetBook(ctx context.Context, id uint) (*entities.Book, error)
	AddBook(ctx context.Context, in services.BookInput) (*entities.Book, error)
	EditBook(ctx context.Context, id uint, in services.BookInput) (*entities.Book, error)
	DeleteBook(ctx context.Context, id uint) error
}

// Billing is implemented by services.BillingService.
type Billing interface {
	ListBooksForBilling(ctx context.Context) ([]entities.Book, error)
	CreateBill(ctx context.Context, bookID uint, quantity int) (*entities.Bill, error)
	GetBill(ctx context.Context, id uint) (*entities.Bill, error)
	ListBills(ctx context.Context) ([]entities.Bill, error)
	DeleteBill(ctx context.Context, id uint) error
}

// AuditReader provides paginated access to audit events.
type AuditReader interface {
	GetEvents(entityType string, limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventsForEntity(entityType string, entityID uint) ([]entities.AuditEvent, error)
}

// CleanupStatus is implemented by scheduler.AuditCleanupScheduler.
type CleanupStatus interface {
	IsRunning() bool
	NextRunTime() *time.Time
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Flasher stores one-shot messages between a redirect and the next page.
type Flasher interface {
	PutFlash(ctx context.Context, kind, message string)
	PopFlash(ctx context.Context) *middleware.Flash
}
