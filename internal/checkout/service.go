package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-sewa/internal/cart"
	"github.com/noah-isme/backend-sewa/internal/db"
	"github.com/noah-isme/backend-sewa/internal/discount"
	"github.com/noah-isme/backend-sewa/internal/events"
	"github.com/noah-isme/backend-sewa/internal/obs"
	"github.com/noah-isme/backend-sewa/internal/order"
	"github.com/noah-isme/backend-sewa/internal/pricing"
)

var (
	// ErrClientNotFound is returned when the submitting client does not exist.
	ErrClientNotFound = errors.New("client not found")
	// ErrInsufficientStock is returned when an item lacks availability over
	// the requested window.
	ErrInsufficientStock = errors.New("insufficient stock for requested window")
	// ErrCartNotReady is returned when the cart is empty or has no rental window.
	ErrCartNotReady = errors.New("cart has no rental window or no lines")
)

// Input is the order submission request.
type Input struct {
	CartID   int64 `json:"cartId"`
	ClientID int64 `json:"clientId"`
	Payment  int64 `json:"payment"`
}

// Output describes the created order.
type Output struct {
	Code     string `json:"code"`
	Status   string `json:"status"`
	Days     int    `json:"days"`
	Subtotal int64  `json:"subtotal"`
	Discount int64  `json:"discount"`
	Total    int64  `json:"total"`
	Paid     int64  `json:"paid"`
}

// Service turns a cart into a pending order inside one transaction: stock is
// checked under row locks, any discount is re-validated authoritatively, and
// the redemption is recorded atomically with the order.
type Service struct {
	Q      *db.Queries
	Pool   *pgxpool.Pool
	Events *events.Bus
	Codec  order.Codec
	Now    func() time.Time
}

// Submit creates a pending order from the cart.
func (s *Service) Submit(ctx context.Context, in Input) (Output, error) {
	if s == nil || s.Q == nil || s.Pool == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if in.Payment < 0 {
		return Output{}, pricing.ErrNegativePayment
	}
	now := s.now()
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Output{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	qtx := s.Q.WithTx(tx)

	cartRow, err := qtx.GetCart(ctx, in.CartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Output{}, cart.ErrNotFound
		}
		return Output{}, err
	}
	if !cartRow.StartDate.Valid || !cartRow.EndDate.Valid {
		return Output{}, ErrCartNotReady
	}
	start, end := cartRow.StartDate.Time, cartRow.EndDate.Time
	if end.Before(start) {
		return Output{}, cart.ErrInvalidDateRange
	}
	lines, err := qtx.ListCartLines(ctx, cartRow.ID)
	if err != nil {
		return Output{}, err
	}
	if len(lines) == 0 {
		return Output{}, ErrCartNotReady
	}
	client, err := qtx.GetClient(ctx, in.ClientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Output{}, ErrClientNotFound
		}
		return Output{}, err
	}

	// Lock each inventory row, then verify availability over the window.
	// Other submissions for overlapping windows serialize on these locks.
	replacementCosts := make(map[int64]int64, len(lines))
	pricingLines := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		item, err := qtx.GetInventoryItemForUpdate(ctx, line.ItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Output{}, fmt.Errorf("item %d: %w", line.ItemID, ErrInsufficientStock)
			}
			return Output{}, err
		}
		committed, err := qtx.CommittedQty(ctx, db.CommittedQtyParams{
			ItemID:    line.ItemID,
			StartDate: cartRow.StartDate,
			EndDate:   cartRow.EndDate,
		})
		if err != nil {
			return Output{}, err
		}
		if int64(item.Stock)-committed < int64(line.Qty) {
			return Output{}, fmt.Errorf("item %q: %w", item.Name, ErrInsufficientStock)
		}
		replacementCosts[line.ItemID] = item.ReplacementCost
		pricingLines = append(pricingLines, pricing.Line{Qty: int(line.Qty), UnitPrice: line.UnitPrice})
	}

	// Re-validate any attached discount under its row lock. A code that went
	// invalid since the preview aborts the submission rather than silently
	// dropping the discount the client was promised.
	var applied *pricing.Discount
	var appliedMeta *discount.Result
	discountSvc := &discount.Service{Q: qtx, Now: s.Now}
	if cartRow.DiscountCode.Valid && cartRow.DiscountCode.String != "" {
		subtotal := pricing.Compute(pricingLines, start, end, nil, 0).Subtotal
		clientID := client.ID
		res, err := discountSvc.ValidateForUpdate(ctx, cartRow.DiscountCode.String, &clientID, subtotal)
		if err != nil {
			return Output{}, fmt.Errorf("discount %s: %w", cartRow.DiscountCode.String, err)
		}
		applied = &pricing.Discount{Kind: res.Kind, Value: res.Value}
		appliedMeta = &res
	}

	summary := pricing.Compute(pricingLines, start, end, applied, 0)

	params := db.InsertOrderParams{
		ClientID:    client.ID,
		ClientName:  clientDisplayName(client),
		ClientPhone: client.Phone,
		ClientEmail: client.Email,
		Status:      db.OrderStatusPending,
		StartDate:   cartRow.StartDate,
		EndDate:     cartRow.EndDate,
		Total:       summary.Total,
		Paid:        in.Payment,
	}
	if appliedMeta != nil {
		params.DiscountCode = pgtype.Text{String: appliedMeta.Code, Valid: true}
		params.DiscountName = pgtype.Text{String: appliedMeta.Name, Valid: true}
		params.DiscountKind = db.NullDiscountKind{DiscountKind: db.DiscountKind(appliedMeta.Kind), Valid: true}
		params.DiscountValue = pgtype.Int8{Int64: appliedMeta.Value, Valid: true}
	}
	ord, err := qtx.InsertOrder(ctx, params)
	if err != nil {
		return Output{}, err
	}
	for _, line := range lines {
		if err := qtx.InsertOrderItem(ctx, db.InsertOrderItemParams{
			OrderID:         ord.ID,
			ItemID:          line.ItemID,
			Name:            line.Name,
			Qty:             line.Qty,
			UnitPrice:       line.UnitPrice,
			ReplacementCost: replacementCosts[line.ItemID],
		}); err != nil {
			return Output{}, err
		}
	}
	if appliedMeta != nil {
		if err := discountSvc.Redeem(ctx, appliedMeta.DiscountID, ord.ID, client.ID, summary.Discount); err != nil {
			return Output{}, err
		}
	}
	if err := qtx.RecordClientOrder(ctx, db.RecordClientOrderParams{
		ID:          client.ID,
		Amount:      in.Payment,
		LastOrderAt: pgtype.Timestamptz{Time: now, Valid: true},
	}); err != nil {
		return Output{}, err
	}
	if err := qtx.DeleteCart(ctx, cartRow.ID); err != nil {
		return Output{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Output{}, err
	}
	if obs.OrdersSubmittedTotal != nil {
		obs.OrdersSubmittedTotal.WithLabelValues("ok").Inc()
	}

	out := Output{
		Code:     s.Codec.Encode(ord.ID),
		Status:   string(ord.Status),
		Days:     summary.Days,
		Subtotal: summary.Subtotal,
		Discount: summary.Discount,
		Total:    summary.Total,
		Paid:     in.Payment,
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicOrderSubmitted, ord.ID, map[string]any{
			"code":     out.Code,
			"clientId": client.ID,
			"total":    out.Total,
		})
		if appliedMeta != nil {
			_, _ = s.Events.Emit(ctx, events.TopicDiscountRedeemed, ord.ID, map[string]any{
				"code":   appliedMeta.Code,
				"amount": summary.Discount,
			})
		}
	}
	return out, nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func clientDisplayName(c db.Client) string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
