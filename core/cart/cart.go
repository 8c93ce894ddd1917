package cart

import (
	"time"
)

// Cart is a user's mutable pre-order basket. One per user, created lazily.
type Cart struct {
	UserID      string    `json:"-" db:"user_id"`
	Items       []Item    `json:"items" db:"-"`
	TotalItems  int       `json:"totalItems" db:"-"`
	TotalAmount int64     `json:"totalAmount" db:"-"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Item is one (book, quantity) line. The price carried here is the book's
// current catalog price resolved by a join, not a snapshot; snapshotting
// happens at order creation.
type Item struct {
	ID        string    `json:"id" db:"item_id"`
	UserID    string    `json:"-" db:"user_id"`
	BookID    string    `json:"bookId" db:"book_id"`
	BookTitle string    `json:"bookTitle" db:"title"`
	UnitPrice int64     `json:"unitPrice" db:"price"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Subtotal  int64     `json:"subtotal" db:"-"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type ItemNew struct {
	BookID   string `json:"bookId" validate:"required,uuid4"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
}

type ItemUp struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// Recalculate fills the derived totals from the item lines.
func (c *Cart) Recalculate() {
	c.TotalItems = 0
	c.TotalAmount = 0
	for i := range c.Items {
		c.Items[i].Subtotal = c.Items[i].UnitPrice * int64(c.Items[i].Quantity)
		c.TotalItems += c.Items[i].Quantity
		c.TotalAmount += c.Items[i].Subtotal
	}
}
