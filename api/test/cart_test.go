package test

import (
	"net/http"
	"testing"

	"github.com/polyakovam/bookstore/api/weberr"
	"github.com/polyakovam/bookstore/core/book"
	"github.com/polyakovam/bookstore/core/cart"
	"github.com/polyakovam/bookstore/validate"
)

type cartTest struct {
	*TestEnv
}

func (ct *cartTest) createBookOK(t *testing.T, title string, price int64) book.Book {
	t.Helper()

	if err := ct.Login(ct.AdminEmail, ct.AdminPass); err != nil {
		t.Fatal(err)
	}
	defer ct.Logout()

	var bk book.Book
	in := map[string]any{"title": title, "author": "Test Author", "price": price, "stockQuantity": 10}
	if status := ct.Do(t, http.MethodPost, "/books", in, &bk); status != http.StatusCreated {
		t.Fatalf("creating book %q: status code %d", title, status)
	}

	return bk
}

func (ct *cartTest) deactivateBookOK(t *testing.T, bookID string) {
	t.Helper()

	if err := ct.Login(ct.AdminEmail, ct.AdminPass); err != nil {
		t.Fatal(err)
	}
	defer ct.Logout()

	inactive := false
	in := map[string]any{"isActive": &inactive}
	if status := ct.Do(t, http.MethodPut, "/books/"+bookID, in, nil); status != http.StatusOK {
		t.Fatalf("deactivating book[%s]: status code %d", bookID, status)
	}
}

func (ct *cartTest) fetchCartOK(t *testing.T) cart.Cart {
	t.Helper()

	var crt cart.Cart
	if status := ct.Do(t, http.MethodGet, "/cart", nil, &crt); status != http.StatusOK {
		t.Fatalf("fetching cart: status code %d", status)
	}
	return crt
}

func TestCart(t *testing.T) {
	env, err := NewTestEnv(t, "cart_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &cartTest{env}

	b1 := ct.createBookOK(t, "The Go Programming Language", 1000)
	b2 := ct.createBookOK(t, "Designing Data-Intensive Applications", 500)

	if err := ct.Login(ct.UserEmail, ct.UserPass); err != nil {
		t.Fatal(err)
	}

	crt := ct.fetchCartOK(t)
	if len(crt.Items) != 0 || crt.TotalAmount != 0 {
		t.Fatalf("expected a lazily created empty cart, got %d items and total %d", len(crt.Items), crt.TotalAmount)
	}

	if status := ct.Do(t, http.MethodPost, "/cart/items", map[string]any{"bookId": b1.ID, "quantity": 2}, &crt); status != http.StatusCreated {
		t.Fatalf("adding first item: status code %d", status)
	}
	if len(crt.Items) != 1 || crt.Items[0].Quantity != 2 {
		t.Fatalf("expected one line with quantity 2, got %+v", crt.Items)
	}

	// Adding the same book merges into the existing line.
	if status := ct.Do(t, http.MethodPost, "/cart/items", map[string]any{"bookId": b1.ID, "quantity": 1}, &crt); status != http.StatusCreated {
		t.Fatalf("adding duplicate book: status code %d", status)
	}
	if len(crt.Items) != 1 || crt.Items[0].Quantity != 3 {
		t.Fatalf("expected merged line with quantity 3, got %+v", crt.Items)
	}

	if status := ct.Do(t, http.MethodPost, "/cart/items", map[string]any{"bookId": b2.ID, "quantity": 1}, &crt); status != http.StatusCreated {
		t.Fatalf("adding second book: status code %d", status)
	}

	if crt.TotalItems != 4 || crt.TotalAmount != 3*1000+500 {
		t.Fatalf("expected 4 units totalling 3500, got %d units totalling %d", crt.TotalItems, crt.TotalAmount)
	}

	itemB1 := crt.Items[0]
	if status := ct.Do(t, http.MethodPut, "/cart/items/"+itemB1.ID, map[string]any{"quantity": 5}, &crt); status != http.StatusOK {
		t.Fatalf("updating quantity: status code %d", status)
	}
	if crt.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5 after update, got %d", crt.Items[0].Quantity)
	}

	if status := ct.Do(t, http.MethodPut, "/cart/items/"+itemB1.ID, map[string]any{"quantity": 0}, nil); status != http.StatusBadRequest {
		t.Fatalf("zero quantity must fail validation, got status code %d", status)
	}

	var er weberr.ErrorResponse
	if status := ct.Do(t, http.MethodPost, "/cart/items", map[string]any{"bookId": validate.GenerateID(), "quantity": 1}, &er); status != http.StatusNotFound {
		t.Fatalf("unknown book must 404, got status code %d", status)
	}
	if er.Code != weberr.CodeResourceNotFound {
		t.Fatalf("unknown book error code = %q, want %q", er.Code, weberr.CodeResourceNotFound)
	}

	ct.deactivateBookOK(t, b2.ID)
	if err := ct.Login(ct.UserEmail, ct.UserPass); err != nil {
		t.Fatal(err)
	}
	if status := ct.Do(t, http.MethodPost, "/cart/items", map[string]any{"bookId": b2.ID, "quantity": 1}, nil); status != http.StatusNotFound {
		t.Fatalf("inactive book must 404, got status code %d", status)
	}

	if status := ct.Do(t, http.MethodDelete, "/cart/items/"+crt.Items[1].ID, nil, &crt); status != http.StatusOK {
		t.Fatalf("removing item: status code %d", status)
	}
	if len(crt.Items) != 1 {
		t.Fatalf("expected one line after removal, got %d", len(crt.Items))
	}

	// A different user cannot touch this cart's lines through their own cart.
	signup := map[string]any{"username": "stranger", "email": "stranger@example.com", "password": "gophers12345"}
	if status := ct.Do(t, http.MethodPost, "/auth/signup", signup, nil); status != http.StatusCreated {
		t.Fatalf("signing up second user: status code %d", status)
	}
	if status := ct.Do(t, http.MethodPut, "/cart/items/"+itemB1.ID, map[string]any{"quantity": 9}, nil); status != http.StatusNotFound {
		t.Fatalf("foreign cart item must be invisible, got status code %d", status)
	}

	if err := ct.Login(ct.UserEmail, ct.UserPass); err != nil {
		t.Fatal(err)
	}
	if status := ct.Do(t, http.MethodDelete, "/cart", nil, nil); status != http.StatusNoContent {
		t.Fatalf("clearing cart: status code %d", status)
	}
	crt = ct.fetchCartOK(t)
	if len(crt.Items) != 0 {
		t.Fatalf("expected empty cart after clear, got %d items", len(crt.Items))
	}
}
