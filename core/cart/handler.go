package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/polyakovam/bookstore/api/web"
	"github.com/polyakovam/bookstore/api/weberr"
	"github.com/polyakovam/bookstore/core/book"
	"github.com/polyakovam/bookstore/core/claims"
	"github.com/polyakovam/bookstore/database"
	"github.com/polyakovam/bookstore/validate"
)

func load(ctx context.Context, ext sqlx.ExtContext, userID string) (Cart, error) {
	crt, err := FetchOrCreate(ctx, ext, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return Cart{}, weberr.NotFound(fmt.Errorf("unknown user[%s]: %w", userID, err))
		}
		return Cart{}, err
	}

	items, err := FetchItems(ctx, ext, userID)
	if err != nil {
		return Cart{}, err
	}

	crt.Items = items
	crt.Recalculate()
	return crt, nil
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		crt, err := load(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, crt, http.StatusOK)
	}
}

func HandleCreateItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err, "request body is missing or malformed")
		}

		if err := validate.Check(in); err != nil {
			return weberr.Validation(err, validate.Details(err))
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if _, err := FetchOrCreate(ctx, tx, clm.UserID); err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return weberr.NotFound(fmt.Errorf("unknown user[%s]: %w", clm.UserID, err))
				}
				return err
			}

			if _, err := book.FetchActive(ctx, tx, in.BookID); err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return weberr.NotFound(fmt.Errorf("book[%s] missing or inactive: %w", in.BookID, err))
				}
				return err
			}

			now := time.Now().UTC()
			it := Item{
				ID:        validate.GenerateID(),
				UserID:    clm.UserID,
				BookID:    in.BookID,
				Quantity:  in.Quantity,
				CreatedAt: now,
				UpdatedAt: now,
			}

			if err := UpsertItem(ctx, tx, it); err != nil {
				return err
			}

			return Touch(ctx, tx, clm.UserID)
		})
		if err != nil {
			return err
		}

		crt, err := load(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, crt, http.StatusCreated)
	}
}

func HandleUpdateItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		itemID := web.Param(r, "item_id")
		if err := validate.CheckID(itemID); err != nil {
			return weberr.NotFound(err)
		}

		var up ItemUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(err, "request body is missing or malformed")
		}

		if err := validate.Check(up); err != nil {
			return weberr.Validation(err, validate.Details(err))
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if _, err := Fetch(ctx, tx, clm.UserID); err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return weberr.NotFound(err)
				}
				return err
			}

			if err := UpdateItemQuantity(ctx, tx, clm.UserID, itemID, up.Quantity); err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return weberr.NotFound(err)
				}
				return err
			}

			return Touch(ctx, tx, clm.UserID)
		})
		if err != nil {
			return err
		}

		crt, err := load(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, crt, http.StatusOK)
	}
}

func HandleDeleteItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		itemID := web.Param(r, "item_id")
		if err := validate.CheckID(itemID); err != nil {
			return weberr.NotFound(err)
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if _, err := Fetch(ctx, tx, clm.UserID); err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return weberr.NotFound(err)
				}
				return err
			}

			if err := RemoveItem(ctx, tx, clm.UserID, itemID); err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return weberr.NotFound(err)
				}
				return err
			}

			return Touch(ctx, tx, clm.UserID)
		})
		if err != nil {
			return err
		}

		crt, err := load(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, crt, http.StatusOK)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if _, err := Fetch(ctx, tx, clm.UserID); err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return weberr.NotFound(err)
				}
				return err
			}

			if err := Delete(ctx, tx, clm.UserID); err != nil {
				return err
			}

			return Touch(ctx, tx, clm.UserID)
		})
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
