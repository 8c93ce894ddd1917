package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/polyakovam/bookstore/database"
)

func Create(ctx context.Context, ext sqlx.ExtContext, usr User) error {
	const q = `
	INSERT INTO users (user_id, username, email, role, password_hash, created_at, updated_at)
	VALUES (:user_id, :username, :email, :role, :password_hash, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, ext, q, usr); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, ext sqlx.ExtContext, userID string) (User, error) {
	const q = `SELECT * FROM users WHERE user_id = $1`

	var usr User
	if err := sqlx.GetContext(ctx, ext, &usr, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, database.ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user[%s]: %w", userID, err)
	}

	return usr, nil
}

func FetchByEmail(ctx context.Context, ext sqlx.ExtContext, email string) (User, error) {
	const q = `SELECT * FROM users WHERE email = $1`

	var usr User
	if err := sqlx.GetContext(ctx, ext, &usr, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, database.ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user by email: %w", err)
	}

	return usr, nil
}
