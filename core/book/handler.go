package book

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/polyakovam/bookstore/api/web"
	"github.com/polyakovam/bookstore/api/weberr"
	"github.com/polyakovam/bookstore/database"
	"github.com/polyakovam/bookstore/validate"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		books, err := ListActive(ctx, db)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, books, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		bookID := web.Param(r, "id")
		if err := validate.CheckID(bookID); err != nil {
			return weberr.NotFound(err)
		}

		bk, err := FetchActive(ctx, db, bookID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, bk, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var bn BookNew
		if err := web.Decode(w, r, &bn); err != nil {
			return weberr.BadRequest(err, "request body is missing or malformed")
		}

		if err := validate.Check(bn); err != nil {
			return weberr.Validation(err, validate.Details(err))
		}

		now := time.Now().UTC()
		bk := Book{
			ID:            validate.GenerateID(),
			Title:         bn.Title,
			Author:        bn.Author,
			Description:   bn.Description,
			Price:         bn.Price,
			StockQuantity: bn.StockQuantity,
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := Create(ctx, db, bk); err != nil {
			return err
		}

		return web.Respond(ctx, w, bk, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		bookID := web.Param(r, "id")
		if err := validate.CheckID(bookID); err != nil {
			return weberr.NotFound(err)
		}

		var bu BookUp
		if err := web.Decode(w, r, &bu); err != nil {
			return weberr.BadRequest(err, "request body is missing or malformed")
		}

		if err := validate.Check(bu); err != nil {
			return weberr.Validation(err, validate.Details(err))
		}

		bk, err := Fetch(ctx, db, bookID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if bu.Title != nil {
			bk.Title = *bu.Title
		}
		if bu.Author != nil {
			bk.Author = *bu.Author
		}
		if bu.Description != nil {
			bk.Description = *bu.Description
		}
		if bu.Price != nil {
			bk.Price = *bu.Price
		}
		if bu.StockQuantity != nil {
			bk.StockQuantity = *bu.StockQuantity
		}
		if bu.IsActive != nil {
			bk.IsActive = *bu.IsActive
		}
		bk.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, bk); err != nil {
			return err
		}

		return web.Respond(ctx, w, bk, http.StatusOK)
	}
}
