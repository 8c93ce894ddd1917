package book

import "time"

// Book is a catalog entry. Price is in cents. StockQuantity is persisted but
// not yet consumed by the order flow.
type Book struct {
	ID            string    `json:"id" db:"book_id"`
	Title         string    `json:"title" db:"title"`
	Author        string    `json:"author" db:"author"`
	Description   string    `json:"description" db:"description"`
	Price         int64     `json:"price" db:"price"`
	StockQuantity int       `json:"stockQuantity" db:"stock_quantity"`
	IsActive      bool      `json:"isActive" db:"is_active"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

type BookNew struct {
	Title         string `json:"title" validate:"required"`
	Author        string `json:"author" validate:"required"`
	Description   string `json:"description"`
	Price         int64  `json:"price" validate:"gte=0"`
	StockQuantity int    `json:"stockQuantity" validate:"gte=0"`
}

type BookUp struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	Description   *string `json:"description"`
	Price         *int64  `json:"price" validate:"omitempty,gte=0"`
	StockQuantity *int    `json:"stockQuantity" validate:"omitempty,gte=0"`
	IsActive      *bool   `json:"isActive"`
}
