package order

import "time"

// Order is immutable once created, except for its status and updated_at.
type Order struct {
	ID          string    `json:"id" db:"order_id"`
	UserID      string    `json:"userId" db:"user_id"`
	Status      Status    `json:"status" db:"status"`
	TotalAmount int64     `json:"totalAmount" db:"total_amount"`
	Items       []Item    `json:"items" db:"-"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Item carries the unit price frozen at order creation. Catalog price changes
// never reach persisted order items.
type Item struct {
	ID         string    `json:"id" db:"item_id"`
	OrderID    string    `json:"-" db:"order_id"`
	BookID     string    `json:"bookId" db:"book_id"`
	BookTitle  string    `json:"bookTitle" db:"title"`
	Quantity   int       `json:"quantity" db:"quantity"`
	UnitPrice  int64     `json:"unitPrice" db:"unit_price"`
	TotalPrice int64     `json:"totalPrice" db:"total_price"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

type StatusUp struct {
	ID        string    `db:"order_id"`
	Status    Status    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

// StatusNew is the admin request body for a status change.
type StatusNew struct {
	Status string `json:"status" validate:"required"`
}

// Page is the offset-paged listing shape shared by user and admin listings.
type Page struct {
	Content       []Order `json:"content"`
	Page          int     `json:"page"`
	Size          int     `json:"size"`
	TotalElements int64   `json:"totalElements"`
	TotalPages    int     `json:"totalPages"`
	First         bool    `json:"first"`
	Last          bool    `json:"last"`
}
