package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/polyakovam/bookstore/database"
)

func Create(ctx context.Context, ext sqlx.ExtContext, ord Order) error {
	const q = `
	INSERT INTO orders (order_id, user_id, status, total_amount, created_at, updated_at)
	VALUES (:order_id, :user_id, :status, :total_amount, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, ext, q, ord); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	return nil
}

func CreateItem(ctx context.Context, ext sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_items (item_id, order_id, book_id, quantity, unit_price, total_price, created_at)
	VALUES (:item_id, :order_id, :book_id, :quantity, :unit_price, :total_price, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, ext, q, it); err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, ext sqlx.ExtContext, orderID string) (Order, error) {
	const q = `SELECT * FROM orders WHERE order_id = $1`

	var ord Order
	if err := sqlx.GetContext(ctx, ext, &ord, q, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, database.ErrNotFound
		}
		return Order{}, fmt.Errorf("selecting order[%s]: %w", orderID, err)
	}

	return ord, nil
}

// FetchForUpdate locks the order row so concurrent status writes against the
// same order serialize instead of applying against a stale read.
func FetchForUpdate(ctx context.Context, tx sqlx.ExtContext, orderID string) (Order, error) {
	const q = `SELECT * FROM orders WHERE order_id = $1 FOR UPDATE`

	var ord Order
	if err := sqlx.GetContext(ctx, tx, &ord, q, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, database.ErrNotFound
		}
		return Order{}, fmt.Errorf("locking order[%s]: %w", orderID, err)
	}

	return ord, nil
}

func FetchItems(ctx context.Context, ext sqlx.ExtContext, orderID string) ([]Item, error) {
	const q = `
	SELECT oi.item_id, oi.order_id, oi.book_id, b.title, oi.quantity, oi.unit_price, oi.total_price, oi.created_at
	FROM order_items oi
	JOIN books b ON b.book_id = oi.book_id
	WHERE oi.order_id = $1
	ORDER BY oi.created_at`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, ext, &items, q, orderID); err != nil {
		return nil, fmt.Errorf("selecting items of order[%s]: %w", orderID, err)
	}

	return items, nil
}

func UpdateStatus(ctx context.Context, ext sqlx.ExtContext, up StatusUp) error {
	const q = `UPDATE orders SET status = :status, updated_at = :updated_at WHERE order_id = :order_id`

	if _, err := sqlx.NamedExecContext(ctx, ext, q, up); err != nil {
		return fmt.Errorf("updating status of order[%s]: %w", up.ID, err)
	}

	return nil
}

func listPage(ctx context.Context, ext sqlx.ExtContext, pager database.Pager, countQ string, listQ string, args ...interface{}) (Page, error) {
	var total int64
	if err := sqlx.GetContext(ctx, ext, &total, countQ, args...); err != nil {
		return Page{}, fmt.Errorf("counting orders: %w", err)
	}

	orders := []Order{}
	listArgs := append(args, pager.Size, pager.Offset())
	if err := sqlx.SelectContext(ctx, ext, &orders, listQ, listArgs...); err != nil {
		return Page{}, fmt.Errorf("selecting orders: %w", err)
	}

	totalPages := pager.TotalPages(total)
	return Page{
		Content:       orders,
		Page:          pager.Page,
		Size:          pager.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         pager.Page == 0,
		Last:          pager.Page >= totalPages-1,
	}, nil
}

func ListByUser(ctx context.Context, ext sqlx.ExtContext, userID string, pager database.Pager) (Page, error) {
	const countQ = `SELECT COUNT(*) FROM orders WHERE user_id = $1`
	const listQ = `
	SELECT * FROM orders WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3`

	return listPage(ctx, ext, pager, countQ, listQ, userID)
}

func List(ctx context.Context, ext sqlx.ExtContext, pager database.Pager) (Page, error) {
	const countQ = `SELECT COUNT(*) FROM orders`
	const listQ = `
	SELECT * FROM orders
	ORDER BY created_at DESC
	LIMIT $1 OFFSET $2`

	return listPage(ctx, ext, pager, countQ, listQ)
}

func ListByStatus(ctx context.Context, ext sqlx.ExtContext, status Status, pager database.Pager) (Page, error) {
	const countQ = `SELECT COUNT(*) FROM orders WHERE status = $1`
	const listQ = `
	SELECT * FROM orders WHERE status = $1
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3`

	return listPage(ctx, ext, pager, countQ, listQ, status)
}

// TotalSales sums the total amount of every non-cancelled order.
func TotalSales(ctx context.Context, ext sqlx.ExtContext) (int64, error) {
	const q = `SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status <> $1`

	var total int64
	if err := sqlx.GetContext(ctx, ext, &total, q, Cancelled); err != nil {
		return 0, fmt.Errorf("summing sales: %w", err)
	}

	return total, nil
}

func SalesBetween(ctx context.Context, ext sqlx.ExtContext, from, to time.Time) (int64, error) {
	const q = `
	SELECT COALESCE(SUM(total_amount), 0) FROM orders
	WHERE status <> $1 AND created_at >= $2 AND created_at < $3`

	var total int64
	if err := sqlx.GetContext(ctx, ext, &total, q, Cancelled, from, to); err != nil {
		return 0, fmt.Errorf("summing sales between %s and %s: %w", from, to, err)
	}

	return total, nil
}

func CountByStatus(ctx context.Context, ext sqlx.ExtContext, status Status) (int64, error) {
	const q = `SELECT COUNT(*) FROM orders WHERE status = $1`

	var count int64
	if err := sqlx.GetContext(ctx, ext, &count, q, status); err != nil {
		return 0, fmt.Errorf("counting orders with status[%s]: %w", status, err)
	}

	return count, nil
}

func CountCreatedBetween(ctx context.Context, ext sqlx.ExtContext, from, to time.Time) (int64, error) {
	const q = `SELECT COUNT(*) FROM orders WHERE created_at >= $1 AND created_at < $2`

	var count int64
	if err := sqlx.GetContext(ctx, ext, &count, q, from, to); err != nil {
		return 0, fmt.Errorf("counting orders between %s and %s: %w", from, to, err)
	}

	return count, nil
}
