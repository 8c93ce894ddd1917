package order

import "testing"

func TestCanTransition(t *testing.T) {
	statuses := []Status{Created, Paid, Shipped, Delivered, Cancelled}

	legal := map[Status]map[Status]bool{
		Created: {Paid: true, Cancelled: true},
		Paid:    {Shipped: true, Cancelled: true},
		Shipped: {Delivered: true},
	}

	// Every pair of the status product must agree with the table; anything
	// absent from it is an illegal transition.
	for _, current := range statuses {
		for _, next := range statuses {
			want := legal[current][next]
			if got := CanTransition(current, next); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", current, next, got, want)
			}
		}
	}
}

func TestTerminalStatesHaveNoExit(t *testing.T) {
	statuses := []Status{Created, Paid, Shipped, Delivered, Cancelled}

	for _, terminal := range []Status{Delivered, Cancelled} {
		for _, next := range statuses {
			if CanTransition(terminal, next) {
				t.Errorf("terminal status %s allows transition to %s", terminal, next)
			}
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"CREATED", "PAID", "SHIPPED", "DELIVERED", "CANCELLED"} {
		if _, err := ParseStatus(s); err != nil {
			t.Errorf("ParseStatus(%q) failed: %v", s, err)
		}
	}

	for _, s := range []string{"", "created", "PAYED", "REFUNDED", "paid "} {
		if _, err := ParseStatus(s); err == nil {
			t.Errorf("ParseStatus(%q) should fail", s)
		}
	}
}
