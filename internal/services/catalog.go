package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/database/bills"
	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/entities"
)

// CatalogService lists, searches and edits books.
type CatalogService struct {
	db      *gorm.DB
	auditor Auditor
}

// NewCatalogService creates a catalog service. auditor may be nil.
func NewCatalogService(db *gorm.DB, auditor Auditor) *CatalogService {
	return &CatalogService{db: db, auditor: auditor}
}

// ListBooks returns books whose title or author contains search, ignoring
// case, sorted ascending by sortBy (id, title or year; anything else means id).
func (s *CatalogService) ListBooks(ctx context.Context, search, sortBy string) ([]entities.Book, error) {
	return books.NewRepository(s.db.WithContext(ctx)).List(strings.TrimSpace(search), books.NormalizeSort(sortBy))
}

// CountBooks returns the size of the whole catalog.
func (s *CatalogService) CountBooks(ctx context.Context) (int64, error) {
	return books.NewRepository(s.db.WithContext(ctx)).Count()
}

func (s *CatalogService) GetBook(ctx context.Context, id uint) (*entities.Book, error) {
	book, err := books.NewRepository(s.db.WithContext(ctx)).GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("book %d: %w", id, notFound(err))
	}
	return book, nil
}

func (s *CatalogService) AddBook(ctx context.Context, in BookInput) (*entities.Book, error) {
	return mutate(ctx, s.db, s.auditor, operation[*entities.Book]{
		action:   "book_create",
		event:    entities.AuditEventCreate,
		entity:   entities.EntityBook,
		validate: in.Validate,
		apply: func(tx *gorm.DB) (*entities.Book, error) {
			book := &entities.Book{}
			applyBookInput(book, in)
			if err := books.NewRepository(tx).Create(book); err != nil {
				return nil, err
			}
			return book, nil
		},
		describe: func(b *entities.Book) (uint, string) {
			return b.ID, fmt.Sprintf("Added book %q by %s", b.Title, b.Author)
		},
	})
}

// EditBook overwrites the mutable fields of an existing book. Bills already
// issued for it keep their totals.
func (s *CatalogService) EditBook(ctx context.Context, id uint, in BookInput) (*entities.Book, error) {
	if _, err := s.GetBook(ctx, id); err != nil {
		return nil, err
	}

	return mutate(ctx, s.db, s.auditor, operation[*entities.Book]{
		action:   "book_update",
		event:    entities.AuditEventUpdate,
		entity:   entities.EntityBook,
		validate: in.Validate,
		apply: func(tx *gorm.DB) (*entities.Book, error) {
			repo := books.NewRepository(tx)
			book, err := repo.GetByID(id)
			if err != nil {
				return nil, fmt.Errorf("book %d: %w", id, notFound(err))
			}
			applyBookInput(book, in)
			if err := repo.Update(book); err != nil {
				return nil, err
			}
			return book, nil
		},
		describe: func(b *entities.Book) (uint, string) {
			return b.ID, fmt.Sprintf("Updated book %q", b.Title)
		},
	})
}

// DeleteBook removes a book. It fails with ErrBookHasBills while any bill
// references the book.
func (s *CatalogService) DeleteBook(ctx context.Context, id uint) error {
	_, err := mutate(ctx, s.db, s.auditor, operation[*entities.Book]{
		action: "book_delete",
		event:  entities.AuditEventDelete,
		entity: entities.EntityBook,
		apply: func(tx *gorm.DB) (*entities.Book, error) {
			repo := books.NewRepository(tx)
			book, err := repo.GetByID(id)
			if err != nil {
				return nil, fmt.Errorf("book %d: %w", id, notFound(err))
			}

			count, err := bills.NewRepository(tx).CountForBook(id)
			if err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, fmt.Errorf("book %q has %d bill(s): %w", book.Title, count, ErrBookHasBills)
			}

			deleted, err := repo.Delete(id)
			if err != nil {
				if database.IsForeignKeyViolation(err) {
					return nil, fmt.Errorf("book %q: %w", book.Title, ErrBookHasBills)
				}
				return nil, err
			}
			if deleted == 0 {
				return nil, fmt.Errorf("book %d: %w", id, ErrNotFound)
			}
			return book, nil
		},
		describe: func(b *entities.Book) (uint, string) {
			return b.ID, fmt.Sprintf("Deleted book %q", b.Title)
		},
	})
	return err
}

// applyBookInput copies validated input onto book. An empty genre is stored as NULL.
func applyBookInput(book *entities.Book, in BookInput) {
	book.Title = in.Title
	book.Author = in.Author
	if in.Year != nil {
		book.Year = *in.Year
	}
	if in.Price != nil {
		book.Price = *in.Price
	}
	book.Genre = nil
	if in.Genre != "" {
		genre := in.Genre
		book.Genre = &genre
	}
}
