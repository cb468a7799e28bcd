// Command generate_demo creates a demo database with public domain books and a
// few weeks of sales.
// Usage: go run ./cmd/generate_demo [-db path/to/demo.db]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mrlokans/bookstore/internal/audit"
	"github.com/mrlokans/bookstore/internal/database"
	dbaudit "github.com/mrlokans/bookstore/internal/database/audit"
	"github.com/mrlokans/bookstore/internal/services"
)

const defaultDemoDatabasePath = "./demo/demo.db"

type demoBook struct {
	Title  string
	Author string
	Year   int
	Genre  string
	Price  float64
	Sold   []int // quantities of each bill
}

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		log.Fatalf("Failed to create demo directory: %v", err)
	}

	dsn := *dbPath + "?_foreign_keys=on"
	if err := database.Migrate(database.DriverSQLite, dsn); err != nil {
		log.Fatalf("Failed to migrate demo database: %v", err)
	}

	db, err := database.NewDatabase(database.Options{Driver: database.DriverSQLite, DSN: dsn, LogLevel: "error"})
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	auditService := audit.NewService(dbaudit.NewRepository(db.DB))
	defer auditService.Flush()

	catalog := services.NewCatalogService(db.DB, auditService)
	billing := services.NewBillingService(db.DB, auditService)
	ctx := context.Background()

	bills := 0
	for _, b := range getPublicDomainBooks() {
		year, price := b.Year, b.Price
		book, err := catalog.AddBook(ctx, services.BookInput{
			Title:  b.Title,
			Author: b.Author,
			Year:   &year,
			Genre:  b.Genre,
			Price:  &price,
		})
		if err != nil {
			log.Printf("Failed to save book %s: %v", b.Title, err)
			continue
		}

		for _, quantity := range b.Sold {
			if _, err := billing.CreateBill(ctx, book.ID, quantity); err != nil {
				log.Printf("Failed to bill %s: %v", b.Title, err)
				continue
			}
			bills++
		}
		log.Printf("Saved: %s by %s (%d bills)", b.Title, b.Author, len(b.Sold))
	}

	fmt.Printf("Demo database generated successfully: %d bills\n", bills)
}

func getPublicDomainBooks() []demoBook {
	return []demoBook{
		{Title: "Meditations", Author: "Marcus Aurelius", Year: 180, Genre: "Philosophy", Price: 12.5, Sold: []int{2, 1}},
		{Title: "The Art of War", Author: "Sun Tzu", Year: 500, Genre: "Strategy", Price: 9.99, Sold: []int{3}},
		{Title: "Pride and Prejudice", Author: "Jane Austen", Year: 1813, Genre: "Romance", Price: 14, Sold: []int{1, 1, 2}},
		{Title: "Frankenstein", Author: "Mary Shelley", Year: 1818, Genre: "Gothic", Price: 11.25},
		{Title: "Moby-Dick", Author: "Herman Melville", Year: 1851, Genre: "Adventure", Price: 16.75, Sold: []int{1}},
		{Title: "Walden", Author: "Henry David Thoreau", Year: 1854, Genre: "Essays", Price: 10},
		{Title: "Crime and Punishment", Author: "Fyodor Dostoevsky", Year: 1866, Genre: "Fiction", Price: 15.5, Sold: []int{4}},
		{Title: "On the Origin of Species", Author: "Charles Darwin", Year: 1859, Genre: "Science", Price: 18, Sold: []int{1}},
		{Title: "The Adventures of Sherlock Holmes", Author: "Arthur Conan Doyle", Year: 1892, Genre: "Mystery", Price: 13.4, Sold: []int{2, 5}},
		{Title: "The Time Machine", Author: "H. G. Wells", Year: 1895, Genre: "Science Fiction", Price: 8.9},
	}
}
