// Package bills provides database operations for sale records.
package bills

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the bill without touching the referenced book row.
func (r *Repository) Create(bill *entities.Bill) error {
	return r.db.Omit("Book").Create(bill).Error
}

// GetByID returns the bill with its book, or gorm.ErrRecordNotFound.
func (r *Repository) GetByID(id uint) (*entities.Bill, error) {
	var bill entities.Bill
	if err := r.db.Preload("Book").First(&bill, id).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

// List returns every bill, most recent first.
func (r *Repository) List() ([]entities.Bill, error) {
	var bills []entities.Bill
	err := r.db.Preload("Book").Order("created_at DESC").Order("id DESC").Find(&bills).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	return bills, nil
}

// Delete removes the bill and reports how many rows were deleted.
func (r *Repository) Delete(id uint) (int64, error) {
	result := r.db.Delete(&entities.Bill{}, id)
	return result.RowsAffected, result.Error
}

// CountForBook returns how many bills reference the book.
func (r *Repository) CountForBook(bookID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Bill{}).Where("book_id = ?", bookID).Count(&count).Error
	return count, err
}
