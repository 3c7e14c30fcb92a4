package catalog

import "time"

// Product is a catalog entry. The image is stored as a JPEG data URI.
type Product struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	ProductImage string    `json:"productImage"`
	AuthorID     string    `json:"author,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CategoryGroup holds the first products of one category.
type CategoryGroup struct {
	Category string    `json:"_id"`
	Products []Product `json:"products"`
}

// CreateInput carries the fields of a new product.
type CreateInput struct {
	Title       string
	Category    string
	Description string
	Price       float64
	AuthorID    string
}

// UpdateInput carries a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Title       *string
	Category    *string
	Description *string
	Price       *float64
}

// MaxPrice is the largest value the products.price column can hold.
const MaxPrice = 9999999999.99

// GroupLimit caps the number of products per category in grouped listings.
const GroupLimit = 8
