package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/polyakovam/bookstore/database"
)

func Create(ctx context.Context, ext sqlx.ExtContext, bk Book) error {
	const q = `
	INSERT INTO books (book_id, title, author, description, price, stock_quantity, is_active, created_at, updated_at)
	VALUES (:book_id, :title, :author, :description, :price, :stock_quantity, :is_active, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, ext, q, bk); err != nil {
		return fmt.Errorf("inserting book: %w", err)
	}

	return nil
}

func Update(ctx context.Context, ext sqlx.ExtContext, bk Book) error {
	const q = `
	UPDATE books SET
		title = :title,
		author = :author,
		description = :description,
		price = :price,
		stock_quantity = :stock_quantity,
		is_active = :is_active,
		updated_at = :updated_at
	WHERE book_id = :book_id`

	if _, err := sqlx.NamedExecContext(ctx, ext, q, bk); err != nil {
		return fmt.Errorf("updating book[%s]: %w", bk.ID, err)
	}

	return nil
}

func Fetch(ctx context.Context, ext sqlx.ExtContext, bookID string) (Book, error) {
	const q = `SELECT * FROM books WHERE book_id = $1`

	var bk Book
	if err := sqlx.GetContext(ctx, ext, &bk, q, bookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, database.ErrNotFound
		}
		return Book{}, fmt.Errorf("selecting book[%s]: %w", bookID, err)
	}

	return bk, nil
}

// FetchActive returns the book only if it is still purchasable.
func FetchActive(ctx context.Context, ext sqlx.ExtContext, bookID string) (Book, error) {
	const q = `SELECT * FROM books WHERE book_id = $1 AND is_active`

	var bk Book
	if err := sqlx.GetContext(ctx, ext, &bk, q, bookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, database.ErrNotFound
		}
		return Book{}, fmt.Errorf("selecting active book[%s]: %w", bookID, err)
	}

	return bk, nil
}

func ListActive(ctx context.Context, ext sqlx.ExtContext) ([]Book, error) {
	const q = `SELECT * FROM books WHERE is_active ORDER BY created_at DESC`

	books := []Book{}
	if err := sqlx.SelectContext(ctx, ext, &books, q); err != nil {
		return nil, fmt.Errorf("selecting active books: %w", err)
	}

	return books, nil
}
