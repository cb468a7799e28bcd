package database

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/entities"
)

func genre(name string) *string { return &name }

var defaultBooks = []entities.Book{
	{Title: "To Kill a Mockingbird", Author: "Harper Lee", Year: 1960, Genre: genre("Fiction"), Price: 450},
	{Title: "1984", Author: "George Orwell", Year: 1949, Genre: genre("Dystopian"), Price: 399},
	{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Year: 1925, Genre: genre("Classic"), Price: 350},
	{Title: "Pride and Prejudice", Author: "Jane Austen", Year: 1813, Genre: genre("Romance"), Price: 299},
	{Title: "The Hobbit", Author: "J.R.R. Tolkien", Year: 1937, Genre: genre("Fantasy"), Price: 520},
}

// Seed inserts the starter catalog when the books table is empty and returns
// how many books were created. Running it again is a no-op.
func Seed(ctx context.Context, db *gorm.DB) (int, error) {
	created := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Book{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count books: %w", err)
		}
		if count > 0 {
			return nil
		}

		for _, b := range defaultBooks {
			book := b
			if err := tx.Create(&book).Error; err != nil {
				return fmt.Errorf("failed to create book %s: %w", book.Title, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created > 0 {
		log.Printf("Seeded %d books", created)
	}
	return created, nil
}
