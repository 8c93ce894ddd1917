package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/polyakovam/bookstore/api/web"
	"github.com/polyakovam/bookstore/api/weberr"
	"github.com/polyakovam/bookstore/core/claims"
	"github.com/polyakovam/bookstore/database"
	"github.com/polyakovam/bookstore/validate"
)

// Stats is the admin sales dashboard payload.
type Stats struct {
	TotalSales  int64            `json:"totalSales"`
	TodaySales  int64            `json:"todaySales"`
	TodayOrders int64            `json:"todayOrders"`
	ByStatus    map[Status]int64 `json:"byStatus"`
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		ord, err := CreateFromCart(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, ord, http.StatusCreated)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		page, err := ListByUser(ctx, db, clm.UserID, database.PagerFromRequest(r))
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, page, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		orderID := web.Param(r, "id")
		if err := validate.CheckID(orderID); err != nil {
			return weberr.NotFound(err)
		}

		ord, err := Fetch(ctx, db, orderID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if ord.UserID != clm.UserID {
			return weberr.Forbidden(fmt.Errorf("user[%s] does not own order[%s]", clm.UserID, orderID))
		}

		ord.Items, err = FetchItems(ctx, db, ord.ID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

func HandleCancel(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		orderID := web.Param(r, "id")
		if err := validate.CheckID(orderID); err != nil {
			return weberr.NotFound(err)
		}

		ord, err := Cancel(ctx, db, clm.UserID, orderID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

func HandleAdminList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		pager := database.PagerFromRequest(r)

		if raw := web.Query(r, "status"); raw != "" {
			status, err := ParseStatus(raw)
			if err != nil {
				return weberr.BadRequest(err, "unknown order status")
			}

			page, err := ListByStatus(ctx, db, status, pager)
			if err != nil {
				return err
			}
			return web.Respond(ctx, w, page, http.StatusOK)
		}

		page, err := List(ctx, db, pager)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, page, http.StatusOK)
	}
}

func HandleAdminShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		orderID := web.Param(r, "id")
		if err := validate.CheckID(orderID); err != nil {
			return weberr.NotFound(err)
		}

		ord, err := Fetch(ctx, db, orderID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		ord.Items, err = FetchItems(ctx, db, ord.ID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

func HandleAdminUpdateStatus(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		orderID := web.Param(r, "id")
		if err := validate.CheckID(orderID); err != nil {
			return weberr.NotFound(err)
		}

		var sn StatusNew
		if err := web.Decode(w, r, &sn); err != nil {
			return weberr.BadRequest(err, "request body is missing or malformed")
		}

		if err := validate.Check(sn); err != nil {
			return weberr.Validation(err, validate.Details(err))
		}

		status, err := ParseStatus(sn.Status)
		if err != nil {
			return weberr.BadRequest(err, "unknown order status")
		}

		ord, err := ChangeStatus(ctx, db, orderID, status)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

func HandleStats(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var stats Stats
		var err error

		if stats.TotalSales, err = TotalSales(ctx, db); err != nil {
			return err
		}

		now := time.Now().UTC()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		endOfDay := startOfDay.Add(24 * time.Hour)

		if stats.TodaySales, err = SalesBetween(ctx, db, startOfDay, endOfDay); err != nil {
			return err
		}
		if stats.TodayOrders, err = CountCreatedBetween(ctx, db, startOfDay, endOfDay); err != nil {
			return err
		}

		stats.ByStatus = make(map[Status]int64)
		for _, status := range []Status{Created, Paid, Shipped, Delivered, Cancelled} {
			count, err := CountByStatus(ctx, db, status)
			if err != nil {
				return err
			}
			stats.ByStatus[status] = count
		}

		return web.Respond(ctx, w, stats, http.StatusOK)
	}
}
