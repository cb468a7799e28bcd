package entities

import "time"

// Bill records the sale of a quantity of one book. UnitPrice is the book's
// price when the bill was created and TotalPrice is never recomputed.
type Bill struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BookID     uint      `gorm:"not null;index" json:"book_id"`
	Book       Book      `gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT" json:"book"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	UnitPrice  float64   `gorm:"not null" json:"unit_price"`
	TotalPrice float64   `gorm:"not null" json:"total_price"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (Bill) TableName() string {
	return "bills"
}
