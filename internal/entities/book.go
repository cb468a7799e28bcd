package entities

import "time"

// Book is a catalog entry. Genre is optional and stored as NULL when empty.
type Book struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:200;not null;index" json:"title"`
	Author    string    `gorm:"size:150;not null" json:"author"`
	Year      int       `gorm:"not null" json:"year"`
	Genre     *string   `gorm:"size:100" json:"genre,omitempty"`
	Price     float64   `gorm:"not null" json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

// GenreOrEmpty returns the genre for display, or "" when unset.
func (b Book) GenreOrEmpty() string {
	if b.Genre == nil {
		return ""
	}
	return *b.Genre
}
