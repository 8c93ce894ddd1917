package order

import "fmt"

type Status string

const (
	Created   Status = "CREATED"
	Paid      Status = "PAID"
	Shipped   Status = "SHIPPED"
	Delivered Status = "DELIVERED"
	Cancelled Status = "CANCELLED"
)

// ParseStatus rejects anything outside the enumeration.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case Created, Paid, Shipped, Delivered, Cancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// CanTransition is the single source of truth for administrative status
// changes. DELIVERED and CANCELLED are terminal.
func CanTransition(current, next Status) bool {
	switch current {
	case Created:
		return next == Paid || next == Cancelled
	case Paid:
		return next == Shipped || next == Cancelled
	case Shipped:
		return next == Delivered
	case Delivered, Cancelled:
		return false
	}
	return false
}
