// Package jobs contains the asynq task handlers run by the worker binary.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-sewa/internal/db"
	"github.com/noah-isme/backend-sewa/internal/lock"
	"github.com/noah-isme/backend-sewa/internal/obs"
	"github.com/noah-isme/backend-sewa/internal/order"
)

// Task type identifiers registered with the asynq mux.
const (
	TypeActivateDueOrders = "orders:activate_due"
	TypeSweepExpiredCarts = "carts:sweep_expired"
	TypeExpireDiscounts   = "discounts:expire"
)

// NewActivateDueOrdersTask builds the periodic activation task.
func NewActivateDueOrdersTask() *asynq.Task {
	return asynq.NewTask(TypeActivateDueOrders, nil)
}

// NewSweepExpiredCartsTask builds the periodic cart expiry task.
func NewSweepExpiredCartsTask() *asynq.Task {
	return asynq.NewTask(TypeSweepExpiredCarts, nil)
}

// NewExpireDiscountsTask builds the periodic discount expiry task.
func NewExpireDiscountsTask() *asynq.Task {
	return asynq.NewTask(TypeExpireDiscounts, nil)
}

// Handler executes scheduled maintenance work. Sweeps take a Redis lock so
// only one worker instance runs them at a time.
type Handler struct {
	Q      *db.Queries
	Orders *order.Service
	Locker lock.Locker
	Log    zerolog.Logger
	Now    func() time.Time
}

// Register attaches all task handlers to the mux.
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeActivateDueOrders, h.HandleActivateDueOrders)
	mux.HandleFunc(TypeSweepExpiredCarts, h.HandleSweepExpiredCarts)
	mux.HandleFunc(TypeExpireDiscounts, h.HandleExpireDiscounts)
}

// HandleActivateDueOrders flips approved orders whose start date has arrived
// to active.
func (h *Handler) HandleActivateDueOrders(ctx context.Context, _ *asynq.Task) error {
	if h == nil || h.Q == nil || h.Orders == nil {
		return errors.New("jobs: activation handler not configured")
	}
	return h.Locker.WithLock(ctx, "jobs:activate_due", time.Minute, func(ctx context.Context) error {
		today := pgtype.Date{Time: h.now(), Valid: true}
		due, err := h.Q.ListOrdersDueForActivation(ctx, today)
		if err != nil {
			return err
		}
		for _, ord := range due {
			if err := h.Orders.Activate(ctx, ord.ID); err != nil {
				h.Log.Error().Err(err).Int64("order_id", ord.ID).Msg("activate order")
				continue
			}
			if obs.OrderActivationsTotal != nil {
				obs.OrderActivationsTotal.Inc()
			}
		}
		if len(due) > 0 {
			h.Log.Info().Int("count", len(due)).Msg("activated due orders")
		}
		return nil
	})
}

// HandleSweepExpiredCarts removes carts past their expiry timestamp.
func (h *Handler) HandleSweepExpiredCarts(ctx context.Context, _ *asynq.Task) error {
	if h == nil || h.Q == nil {
		return errors.New("jobs: cart sweep handler not configured")
	}
	return h.Locker.WithLock(ctx, "jobs:sweep_carts", time.Minute, func(ctx context.Context) error {
		removed, err := h.Q.DeleteExpiredCarts(ctx)
		if err != nil {
			return err
		}
		if removed > 0 {
			if obs.CartsExpiredTotal != nil {
				obs.CartsExpiredTotal.Add(float64(removed))
			}
			h.Log.Info().Int64("count", removed).Msg("expired carts removed")
		}
		return nil
	})
}

// HandleExpireDiscounts deactivates period discounts whose window has closed.
func (h *Handler) HandleExpireDiscounts(ctx context.Context, _ *asynq.Task) error {
	if h == nil || h.Q == nil {
		return errors.New("jobs: discount expiry handler not configured")
	}
	return h.Locker.WithLock(ctx, "jobs:expire_discounts", time.Minute, func(ctx context.Context) error {
		expired, err := h.Q.DeactivateExpiredDiscounts(ctx, pgtype.Timestamptz{Time: h.now(), Valid: true})
		if err != nil {
			return err
		}
		if expired > 0 {
			h.Log.Info().Int64("count", expired).Msg("expired discounts deactivated")
		}
		return nil
	})
}

func (h *Handler) now() time.Time {
	if h != nil && h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
