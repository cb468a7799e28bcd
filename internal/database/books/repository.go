// Package books provides database operations for the book catalog.
//
// # Usage
//
//	repo := books.NewRepository(db.WithContext(ctx))
//	list, err := repo.List("orwell", books.SortByTitle)
//
// Pass a transaction handle to NewRepository to run the operations inside it.
package books

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/entities"
)

// Sort keys accepted by List.
const (
	SortByID    = "id"
	SortByTitle = "title"
	SortByYear  = "year"
)

var sortColumns = map[string]string{
	SortByID:    "id ASC",
	SortByTitle: "LOWER(title) ASC, id ASC",
	SortByYear:  "year ASC",
}

// NormalizeSort maps any unknown sort key to SortByID.
func NormalizeSort(sortBy string) string {
	if _, ok := sortColumns[sortBy]; ok {
		return sortBy
	}
	return SortByID
}

// Repository handles book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns books whose title or author contains search (case-insensitive),
// ordered ascending by sortBy. An empty search returns every book. Ties on
// year keep whatever order the store returns.
func (r *Repository) List(search, sortBy string) ([]entities.Book, error) {
	var books []entities.Book
	query := r.db.Model(&entities.Book{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", pattern, pattern)
	}
	err := query.Order(sortColumns[NormalizeSort(sortBy)]).Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// ListByTitle returns every book ordered by title, for the billing form.
func (r *Repository) ListByTitle() ([]entities.Book, error) {
	var books []entities.Book
	if err := r.db.Order("title ASC").Order("id ASC").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// GetByID returns gorm.ErrRecordNotFound when the book does not exist.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *Repository) Create(book *entities.Book) error {
	return r.db.Create(book).Error
}

// Update saves every mutable column of an existing book.
func (r *Repository) Update(book *entities.Book) error {
	return r.db.Model(book).Select("title", "author", "year", "genre", "price", "updated_at").Updates(book).Error
}

// Delete removes the book and reports how many rows were deleted.
func (r *Repository) Delete(id uint) (int64, error) {
	result := r.db.Delete(&entities.Book{}, id)
	return result.RowsAffected, result.Error
}

func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}
