package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/polyakovam/bookstore/database"
)

func Fetch(ctx context.Context, ext sqlx.ExtContext, userID string) (Cart, error) {
	const q = `SELECT * FROM carts WHERE user_id = $1`

	var crt Cart
	if err := sqlx.GetContext(ctx, ext, &crt, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, database.ErrNotFound
		}
		return Cart{}, fmt.Errorf("selecting cart of user[%s]: %w", userID, err)
	}

	return crt, nil
}

// FetchForUpdate locks the user's cart row for the rest of the enclosing
// transaction. Concurrent order creations for the same user serialize here.
func FetchForUpdate(ctx context.Context, tx sqlx.ExtContext, userID string) (Cart, error) {
	const q = `SELECT * FROM carts WHERE user_id = $1 FOR UPDATE`

	var crt Cart
	if err := sqlx.GetContext(ctx, tx, &crt, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Cart{}, database.ErrNotFound
		}
		return Cart{}, fmt.Errorf("locking cart of user[%s]: %w", userID, err)
	}

	return crt, nil
}

// FetchOrCreate returns the user's cart, lazily creating an empty one. A
// foreign key failure on the insert means the user itself does not exist.
func FetchOrCreate(ctx context.Context, ext sqlx.ExtContext, userID string) (Cart, error) {
	crt, err := Fetch(ctx, ext, userID)
	if err == nil {
		return crt, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return Cart{}, err
	}

	now := time.Now().UTC()
	crt = Cart{UserID: userID, CreatedAt: now, UpdatedAt: now}

	const q = `
	INSERT INTO carts (user_id, created_at, updated_at)
	VALUES (:user_id, :created_at, :updated_at)
	ON CONFLICT (user_id) DO NOTHING`

	if _, err := sqlx.NamedExecContext(ctx, ext, q, crt); err != nil {
		if database.IsForeignKeyViolation(err) {
			return Cart{}, database.ErrNotFound
		}
		return Cart{}, fmt.Errorf("creating cart for user[%s]: %w", userID, err)
	}

	return Fetch(ctx, ext, userID)
}

// FetchItems returns the cart lines joined with the current catalog data.
func FetchItems(ctx context.Context, ext sqlx.ExtContext, userID string) ([]Item, error) {
	const q = `
	SELECT ci.item_id, ci.user_id, ci.book_id, b.title, b.price, ci.quantity, ci.created_at, ci.updated_at
	FROM cart_items ci
	JOIN books b ON b.book_id = ci.book_id
	WHERE ci.user_id = $1
	ORDER BY ci.created_at, ci.item_id`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, ext, &items, q, userID); err != nil {
		return nil, fmt.Errorf("selecting cart items of user[%s]: %w", userID, err)
	}

	return items, nil
}

// UpsertItem inserts a new line or, when the book is already in the cart,
// adds the requested quantity to the existing line.
func UpsertItem(ctx context.Context, ext sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO cart_items (item_id, user_id, book_id, quantity, created_at, updated_at)
	VALUES (:item_id, :user_id, :book_id, :quantity, :created_at, :updated_at)
	ON CONFLICT (user_id, book_id) DO UPDATE
	SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`

	if _, err := sqlx.NamedExecContext(ctx, ext, q, it); err != nil {
		return fmt.Errorf("upserting cart item: %w", err)
	}

	return nil
}

// UpdateItemQuantity sets the quantity of one line. The user id predicate is
// the ownership check: a line of another user's cart counts as not found.
func UpdateItemQuantity(ctx context.Context, ext sqlx.ExtContext, userID string, itemID string, quantity int) error {
	const q = `
	UPDATE cart_items SET quantity = $3, updated_at = $4
	WHERE item_id = $2 AND user_id = $1`

	res, err := ext.ExecContext(ctx, q, userID, itemID, quantity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("updating cart item[%s]: %w", itemID, err)
	}

	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("checking updated cart item[%s]: %w", itemID, err)
	} else if n == 0 {
		return database.ErrNotFound
	}

	return nil
}

func RemoveItem(ctx context.Context, ext sqlx.ExtContext, userID string, itemID string) error {
	const q = `DELETE FROM cart_items WHERE item_id = $2 AND user_id = $1`

	res, err := ext.ExecContext(ctx, q, userID, itemID)
	if err != nil {
		return fmt.Errorf("deleting cart item[%s]: %w", itemID, err)
	}

	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("checking deleted cart item[%s]: %w", itemID, err)
	} else if n == 0 {
		return database.ErrNotFound
	}

	return nil
}

// Delete removes every line of the user's cart in one statement.
func Delete(ctx context.Context, ext sqlx.ExtContext, userID string) error {
	const q = `DELETE FROM cart_items WHERE user_id = $1`

	if _, err := ext.ExecContext(ctx, q, userID); err != nil {
		return fmt.Errorf("flushing cart of user[%s]: %w", userID, err)
	}

	return nil
}

// Touch bumps the cart's updated_at after a line mutation.
func Touch(ctx context.Context, ext sqlx.ExtContext, userID string) error {
	const q = `UPDATE carts SET updated_at = $2 WHERE user_id = $1`

	if _, err := ext.ExecContext(ctx, q, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("touching cart of user[%s]: %w", userID, err)
	}

	return nil
}
