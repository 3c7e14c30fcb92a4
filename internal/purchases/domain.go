package purchases

import "time"

// Record is one purchased product.
type Record struct {
	ID        string
	ProductID string
	UserID    string
	Date      time.Time
}

// Entry is a ledger line joined with buyer and product details. Email and
// Title read "N/A" and Price is nil when the referenced row no longer exists.
type Entry struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"userEmail"`
	Price     *float64  `json:"price"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
}

// CreateInput describes a purchase batch.
type CreateInput struct {
	UserID         string
	ProductIDs     []string
	Date           time.Time
	IdempotencyKey string
}

// Missing is rendered for joins whose target was deleted.
const Missing = "N/A"
