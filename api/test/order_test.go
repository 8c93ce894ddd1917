package test

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/polyakovam/bookstore/api/weberr"
	"github.com/polyakovam/bookstore/core/book"
	"github.com/polyakovam/bookstore/core/order"
)

type orderTest struct {
	*TestEnv
}

func (ot *orderTest) createBookOK(t *testing.T, title string, price int64) book.Book {
	t.Helper()

	if err := ot.Login(ot.AdminEmail, ot.AdminPass); err != nil {
		t.Fatal(err)
	}
	defer ot.Logout()

	var bk book.Book
	in := map[string]any{"title": title, "author": "Test Author", "price": price, "stockQuantity": 10}
	if status := ot.Do(t, http.MethodPost, "/books", in, &bk); status != http.StatusCreated {
		t.Fatalf("creating book %q: status code %d", title, status)
	}

	return bk
}

func (ot *orderTest) setPriceOK(t *testing.T, bookID string, price int64) {
	t.Helper()

	if err := ot.Login(ot.AdminEmail, ot.AdminPass); err != nil {
		t.Fatal(err)
	}
	defer ot.Logout()

	in := map[string]any{"price": price}
	if status := ot.Do(t, http.MethodPut, "/books/"+bookID, in, nil); status != http.StatusOK {
		t.Fatalf("changing price of book[%s]: status code %d", bookID, status)
	}
}

func (ot *orderTest) addItemOK(t *testing.T, bookID string, quantity int) {
	t.Helper()

	in := map[string]any{"bookId": bookID, "quantity": quantity}
	if status := ot.Do(t, http.MethodPost, "/cart/items", in, nil); status != http.StatusCreated {
		t.Fatalf("adding book[%s] to cart: status code %d", bookID, status)
	}
}

func (ot *orderTest) createOrderOK(t *testing.T) order.Order {
	t.Helper()

	var ord order.Order
	if status := ot.Do(t, http.MethodPost, "/orders", nil, &ord); status != http.StatusCreated {
		t.Fatalf("creating order: status code %d", status)
	}
	return ord
}

func (ot *orderTest) changeStatus(t *testing.T, orderID string, next string, out any) int {
	t.Helper()

	if err := ot.Login(ot.AdminEmail, ot.AdminPass); err != nil {
		t.Fatal(err)
	}
	defer ot.Logout()

	return ot.Do(t, http.MethodPatch, "/admin/orders/"+orderID+"/status", map[string]any{"status": next}, out)
}

func TestOrders(t *testing.T) {
	env, err := NewTestEnv(t, "order_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ot := &orderTest{env}

	b1 := ot.createBookOK(t, "The Go Programming Language", 1000)
	b2 := ot.createBookOK(t, "Designing Data-Intensive Applications", 500)

	if err := ot.Login(ot.UserEmail, ot.UserPass); err != nil {
		t.Fatal(err)
	}

	var er weberr.ErrorResponse
	if status := ot.Do(t, http.MethodPost, "/orders", nil, &er); status != http.StatusBadRequest {
		t.Fatalf("ordering an empty cart must 400, got status code %d", status)
	}
	if er.Code != weberr.CodeBadRequest || er.Message != "cart is empty" {
		t.Fatalf("empty cart error = %q %q, want %q %q", er.Code, er.Message, weberr.CodeBadRequest, "cart is empty")
	}

	ot.addItemOK(t, b1.ID, 2)
	ot.addItemOK(t, b2.ID, 1)

	ord := ot.createOrderOK(t)
	if ord.Status != order.Created {
		t.Fatalf("new order status = %s, want %s", ord.Status, order.Created)
	}
	if ord.TotalAmount != 2*1000+500 {
		t.Fatalf("new order total = %d, want 2500", ord.TotalAmount)
	}

	wantItems := []order.Item{
		{BookID: b1.ID, BookTitle: b1.Title, Quantity: 2, UnitPrice: 1000, TotalPrice: 2000},
		{BookID: b2.ID, BookTitle: b2.Title, Quantity: 1, UnitPrice: 500, TotalPrice: 500},
	}
	ignore := cmpopts.IgnoreFields(order.Item{}, "ID", "OrderID", "CreatedAt")
	if diff := cmp.Diff(wantItems, ord.Items, ignore); diff != "" {
		t.Fatalf("order items mismatch (-want +got):\n%s", diff)
	}

	// Conversion clears the cart atomically.
	var crt struct {
		Items []any `json:"items"`
	}
	if status := ot.Do(t, http.MethodGet, "/cart", nil, &crt); status != http.StatusOK {
		t.Fatalf("fetching cart after ordering: status code %d", status)
	}
	if len(crt.Items) != 0 {
		t.Fatalf("expected cart cleared after ordering, got %d items", len(crt.Items))
	}

	// A later catalog price change must not reach the persisted snapshot.
	ot.setPriceOK(t, b1.ID, 9999)
	if err := ot.Login(ot.UserEmail, ot.UserPass); err != nil {
		t.Fatal(err)
	}

	var fetched order.Order
	if status := ot.Do(t, http.MethodGet, "/orders/"+ord.ID, nil, &fetched); status != http.StatusOK {
		t.Fatalf("fetching order: status code %d", status)
	}
	if fetched.TotalAmount != 2500 {
		t.Fatalf("snapshot drifted after price change: total %d, want 2500", fetched.TotalAmount)
	}
	for _, it := range fetched.Items {
		if it.BookID == b1.ID && it.UnitPrice != 1000 {
			t.Fatalf("snapshot drifted after price change: unit price %d, want 1000", it.UnitPrice)
		}
	}

	var page order.Page
	if status := ot.Do(t, http.MethodGet, "/orders", nil, &page); status != http.StatusOK {
		t.Fatalf("listing own orders: status code %d", status)
	}
	if page.TotalElements != 1 || len(page.Content) != 1 || page.Content[0].ID != ord.ID {
		t.Fatalf("expected a single-page listing with order[%s], got %+v", ord.ID, page)
	}
	if !page.First || !page.Last {
		t.Fatalf("single page must be both first and last, got first=%v last=%v", page.First, page.Last)
	}

	// CREATED cannot skip ahead to SHIPPED.
	if status := ot.changeStatus(t, ord.ID, "SHIPPED", &er); status != http.StatusConflict {
		t.Fatalf("CREATED to SHIPPED must 409, got status code %d", status)
	}
	if er.Code != weberr.CodeStateConflict {
		t.Fatalf("transition error code = %q, want %q", er.Code, weberr.CodeStateConflict)
	}

	var upd order.Order
	if status := ot.changeStatus(t, ord.ID, "PAID", &upd); status != http.StatusOK {
		t.Fatalf("CREATED to PAID must succeed, got status code %d", status)
	}
	if upd.Status != order.Paid {
		t.Fatalf("order status after payment = %s, want %s", upd.Status, order.Paid)
	}

	// The owner may only cancel while the order is still CREATED.
	if err := ot.Login(ot.UserEmail, ot.UserPass); err != nil {
		t.Fatal(err)
	}
	if status := ot.Do(t, http.MethodPatch, "/orders/"+ord.ID+"/cancel", nil, &er); status != http.StatusConflict {
		t.Fatalf("cancelling a PAID order must 409, got status code %d", status)
	}
	if er.Code != weberr.CodeStateConflict {
		t.Fatalf("cancel error code = %q, want %q", er.Code, weberr.CodeStateConflict)
	}

	// The admin table allows a refund-style PAID to CANCELLED.
	if status := ot.changeStatus(t, ord.ID, "CANCELLED", &upd); status != http.StatusOK {
		t.Fatalf("PAID to CANCELLED must succeed, got status code %d", status)
	}

	if status := ot.changeStatus(t, ord.ID, "SHIPPED", nil); status != http.StatusConflict {
		t.Fatalf("CANCELLED is terminal, got status code %d", status)
	}
	if status := ot.changeStatus(t, ord.ID, "REFUNDED", &er); status != http.StatusBadRequest {
		t.Fatalf("unknown status must 400, got status code %d", status)
	}
	if er.Code != weberr.CodeBadRequest {
		t.Fatalf("unknown status error code = %q, want %q", er.Code, weberr.CodeBadRequest)
	}
	if status := ot.changeStatus(t, ord.ID, "", &er); status != http.StatusBadRequest {
		t.Fatalf("blank status must fail validation, got status code %d", status)
	}

	// A second order the owner cancels while still CREATED.
	if err := ot.Login(ot.UserEmail, ot.UserPass); err != nil {
		t.Fatal(err)
	}
	ot.addItemOK(t, b2.ID, 2)
	ord2 := ot.createOrderOK(t)

	var cancelled order.Order
	if status := ot.Do(t, http.MethodPatch, "/orders/"+ord2.ID+"/cancel", nil, &cancelled); status != http.StatusOK {
		t.Fatalf("cancelling a CREATED order: status code %d", status)
	}
	if cancelled.Status != order.Cancelled {
		t.Fatalf("order status after cancel = %s, want %s", cancelled.Status, order.Cancelled)
	}
	if status := ot.Do(t, http.MethodPatch, "/orders/"+ord2.ID+"/cancel", nil, nil); status != http.StatusConflict {
		t.Fatalf("cancelling twice must 409, got status code %d", status)
	}

	// A third order left in CREATED, priced at the new catalog value.
	ot.addItemOK(t, b1.ID, 1)
	ord3 := ot.createOrderOK(t)
	if ord3.TotalAmount != 9999 {
		t.Fatalf("third order total = %d, want the updated price 9999", ord3.TotalAmount)
	}

	// Ownership: a fresh account sees 403 on someone else's order.
	signup := map[string]any{"username": "stranger", "email": "stranger@example.com", "password": "gophers12345"}
	if status := ot.Do(t, http.MethodPost, "/auth/signup", signup, nil); status != http.StatusCreated {
		t.Fatalf("signing up second user: status code %d", status)
	}
	if status := ot.Do(t, http.MethodGet, "/orders/"+ord3.ID, nil, &er); status != http.StatusForbidden {
		t.Fatalf("foreign order fetch must 403, got status code %d", status)
	}
	if er.Code != weberr.CodeForbidden {
		t.Fatalf("ownership error code = %q, want %q", er.Code, weberr.CodeForbidden)
	}
	if status := ot.Do(t, http.MethodPatch, "/orders/"+ord3.ID+"/cancel", nil, nil); status != http.StatusForbidden {
		t.Fatalf("foreign order cancel must 403, got status code %d", status)
	}
	if status := ot.Do(t, http.MethodGet, "/admin/orders", nil, nil); status != http.StatusForbidden {
		t.Fatalf("admin listing as plain user must 403, got status code %d", status)
	}

	if err := ot.Logout(); err != nil {
		t.Fatal(err)
	}
	if status := ot.Do(t, http.MethodGet, "/orders", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("listing orders unauthenticated must 401, got status code %d", status)
	}

	// Admin listings and the sales dashboard over the three orders above.
	if err := ot.Login(ot.AdminEmail, ot.AdminPass); err != nil {
		t.Fatal(err)
	}
	if status := ot.Do(t, http.MethodGet, "/admin/orders", nil, &page); status != http.StatusOK {
		t.Fatalf("admin listing: status code %d", status)
	}
	if page.TotalElements != 3 {
		t.Fatalf("admin listing totalElements = %d, want 3", page.TotalElements)
	}

	if status := ot.Do(t, http.MethodGet, "/admin/orders?status=CANCELLED", nil, &page); status != http.StatusOK {
		t.Fatalf("admin listing by status: status code %d", status)
	}
	if page.TotalElements != 2 {
		t.Fatalf("cancelled listing totalElements = %d, want 2", page.TotalElements)
	}

	if status := ot.Do(t, http.MethodGet, "/admin/orders?status=CREATED", nil, &page); status != http.StatusOK {
		t.Fatalf("admin listing by status: status code %d", status)
	}
	if page.TotalElements != 1 || page.Content[0].ID != ord3.ID {
		t.Fatalf("expected only order[%s] in CREATED listing, got %+v", ord3.ID, page)
	}

	if status := ot.Do(t, http.MethodGet, "/admin/orders?status=BOGUS", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("bogus status filter must 400, got status code %d", status)
	}

	var stats order.Stats
	if status := ot.Do(t, http.MethodGet, "/admin/stats", nil, &stats); status != http.StatusOK {
		t.Fatalf("fetching stats: status code %d", status)
	}
	if stats.TotalSales != 9999 {
		t.Fatalf("totalSales = %d, want 9999 with cancelled orders excluded", stats.TotalSales)
	}
	if stats.TodayOrders != 3 {
		t.Fatalf("todayOrders = %d, want 3", stats.TodayOrders)
	}
	if stats.ByStatus[order.Created] != 1 || stats.ByStatus[order.Cancelled] != 2 || stats.ByStatus[order.Paid] != 0 {
		t.Fatalf("byStatus breakdown = %+v", stats.ByStatus)
	}
}
