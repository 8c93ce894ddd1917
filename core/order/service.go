package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/polyakovam/bookstore/api/weberr"
	"github.com/polyakovam/bookstore/core/cart"
	"github.com/polyakovam/bookstore/core/user"
	"github.com/polyakovam/bookstore/database"
	"github.com/polyakovam/bookstore/validate"
)

// CreateFromCart converts the user's cart into an immutable order. The cart
// row is locked for the whole read-build-clear sequence, so two concurrent
// calls for the same user cannot both consume one cart snapshot: the loser
// waits, sees an empty cart and fails with a 400.
//
// Unit prices are snapshotted from the catalog at order-creation time, inside
// the same transaction that persists the order and clears the cart.
func CreateFromCart(ctx context.Context, db *sqlx.DB, userID string) (Order, error) {
	var ord Order

	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		if _, err := cart.FetchForUpdate(ctx, tx, userID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.BadRequest(err, "cart is empty")
			}
			return err
		}

		if _, err := user.Fetch(ctx, tx, userID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(fmt.Errorf("unknown user[%s]: %w", userID, err))
			}
			return err
		}

		lines, err := cart.FetchItems(ctx, tx, userID)
		if err != nil {
			return err
		}

		if len(lines) == 0 {
			return weberr.BadRequest(errors.New("no cart items to order"), "cart is empty")
		}

		now := time.Now().UTC()
		ord = Order{
			ID:        validate.GenerateID(),
			UserID:    userID,
			Status:    Created,
			CreatedAt: now,
			UpdatedAt: now,
		}

		for _, line := range lines {
			it := Item{
				ID:         validate.GenerateID(),
				OrderID:    ord.ID,
				BookID:     line.BookID,
				BookTitle:  line.BookTitle,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
				TotalPrice: line.UnitPrice * int64(line.Quantity),
				CreatedAt:  now,
			}
			ord.Items = append(ord.Items, it)
			ord.TotalAmount += it.TotalPrice
		}

		if err := Create(ctx, tx, ord); err != nil {
			return err
		}

		for _, it := range ord.Items {
			if err := CreateItem(ctx, tx, it); err != nil {
				return err
			}
		}

		return cart.Delete(ctx, tx, userID)
	})
	if err != nil {
		return Order{}, err
	}

	return ord, nil
}

// ChangeStatus is the administrative transition. Legality comes from the
// transition table alone, which also permits PAID -> CANCELLED.
func ChangeStatus(ctx context.Context, db *sqlx.DB, orderID string, next Status) (Order, error) {
	var ord Order

	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		var err error
		ord, err = FetchForUpdate(ctx, tx, orderID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if !CanTransition(ord.Status, next) {
			err := fmt.Errorf("illegal transition from %s to %s on order[%s]", ord.Status, next, orderID)
			return weberr.StateConflict(err, fmt.Sprintf("invalid status transition from %s to %s", ord.Status, next))
		}

		up := StatusUp{ID: ord.ID, Status: next, UpdatedAt: time.Now().UTC()}
		if err := UpdateStatus(ctx, tx, up); err != nil {
			return err
		}

		ord.Status = up.Status
		ord.UpdatedAt = up.UpdatedAt
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	items, err := FetchItems(ctx, db, ord.ID)
	if err != nil {
		return Order{}, err
	}
	ord.Items = items

	return ord, nil
}

// Cancel is the owner-facing cancellation. Stricter than the transition
// table on purpose: a user may only cancel while the order is still CREATED.
func Cancel(ctx context.Context, db *sqlx.DB, userID string, orderID string) (Order, error) {
	var ord Order

	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		var err error
		ord, err = FetchForUpdate(ctx, tx, orderID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if ord.UserID != userID {
			return weberr.Forbidden(fmt.Errorf("user[%s] does not own order[%s]", userID, orderID))
		}

		if ord.Status != Created {
			err := fmt.Errorf("cancelling order[%s] with status %s", orderID, ord.Status)
			return weberr.StateConflict(err, fmt.Sprintf("cannot cancel order with status: %s", ord.Status))
		}

		up := StatusUp{ID: ord.ID, Status: Cancelled, UpdatedAt: time.Now().UTC()}
		if err := UpdateStatus(ctx, tx, up); err != nil {
			return err
		}

		ord.Status = up.Status
		ord.UpdatedAt = up.UpdatedAt
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	items, err := FetchItems(ctx, db, ord.ID)
	if err != nil {
		return Order{}, err
	}
	ord.Items = items

	return ord, nil
}
