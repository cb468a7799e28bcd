package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/database/bills"
	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/entities"
)

// BillingService creates and lists bills.
type BillingService struct {
	db      *gorm.DB
	auditor Auditor
	now     func() time.Time
}

// NewBillingService creates a billing service. auditor may be nil.
func NewBillingService(db *gorm.DB, auditor Auditor) *BillingService {
	return &BillingService{db: db, auditor: auditor, now: time.Now}
}

// ListBooksForBilling returns every book ordered by title.
func (s *BillingService) ListBooksForBilling(ctx context.Context) ([]entities.Book, error) {
	return books.NewRepository(s.db.WithContext(ctx)).ListByTitle()
}

// CreateBill records the sale of quantity copies of a book. The total is
// computed from the book's current price and never recomputed afterwards.
func (s *BillingService) CreateBill(ctx context.Context, bookID uint, quantity int) (*entities.Bill, error) {
	in := BillInput{BookID: bookID, Quantity: quantity}

	return mutate(ctx, s.db, s.auditor, operation[*entities.Bill]{
		action:   "bill_create",
		event:    entities.AuditEventCreate,
		entity:   entities.EntityBill,
		validate: in.Validate,
		apply: func(tx *gorm.DB) (*entities.Bill, error) {
			book, err := books.NewRepository(tx).GetByID(in.BookID)
			if err != nil {
				return nil, fmt.Errorf("book %d: %w", in.BookID, notFound(err))
			}

			bill := &entities.Bill{
				BookID:     book.ID,
				Quantity:   in.Quantity,
				UnitPrice:  book.Price,
				TotalPrice: float64(in.Quantity) * book.Price,
				CreatedAt:  s.now(),
			}
			if err := bills.NewRepository(tx).Create(bill); err != nil {
				if database.IsForeignKeyViolation(err) {
					return nil, fmt.Errorf("book %d: %w", in.BookID, ErrNotFound)
				}
				return nil, err
			}
			bill.Book = *book
			return bill, nil
		},
		describe: func(b *entities.Bill) (uint, string) {
			return b.ID, fmt.Sprintf("Billed %d x %q for %.2f", b.Quantity, b.Book.Title, b.TotalPrice)
		},
	})
}

func (s *BillingService) GetBill(ctx context.Context, id uint) (*entities.Bill, error) {
	bill, err := bills.NewRepository(s.db.WithContext(ctx)).GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("bill %d: %w", id, notFound(err))
	}
	return bill, nil
}

// ListBills returns every bill, most recent first.
func (s *BillingService) ListBills(ctx context.Context) ([]entities.Bill, error) {
	return bills.NewRepository(s.db.WithContext(ctx)).List()
}

func (s *BillingService) DeleteBill(ctx context.Context, id uint) error {
	_, err := mutate(ctx, s.db, s.auditor, operation[uint]{
		action: "bill_delete",
		event:  entities.AuditEventDelete,
		entity: entities.EntityBill,
		apply: func(tx *gorm.DB) (uint, error) {
			deleted, err := bills.NewRepository(tx).Delete(id)
			if err != nil {
				return 0, err
			}
			if deleted == 0 {
				return 0, fmt.Errorf("bill %d: %w", id, ErrNotFound)
			}
			return id, nil
		},
		describe: func(id uint) (uint, string) {
			return id, fmt.Sprintf("Deleted bill #%d", id)
		},
	})
	return err
}
