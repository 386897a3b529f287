package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-sewa/internal/db"
	"github.com/noah-isme/backend-sewa/internal/events"
	"github.com/noah-isme/backend-sewa/internal/obs"
	"github.com/noah-isme/backend-sewa/internal/pricing"
)

var (
	// ErrNotFound is returned when the order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrNotReturnable is returned when a return is processed against an
	// order that is not out with a client.
	ErrNotReturnable = errors.New("order cannot be returned in its current status")
	// ErrNotInSettlement is returned when a balance payment targets an order
	// that has no outstanding settlement.
	ErrNotInSettlement = errors.New("order has no outstanding settlement")
)

// Service owns the order lifecycle: approval, activation, returns and
// settlement payments.
type Service struct {
	Pool              *pgxpool.Pool
	Q                 *db.Queries
	Events            *events.Bus
	Codec             Codec
	Now               func() time.Time
	LatePenaltyPerDay int64
}

// ReturnItem is the audited condition of one order line at return time.
type ReturnItem struct {
	OrderItemID int64 `json:"orderItemId"`
	ReturnedQty int32 `json:"returnedQty"`
	LostQty     int32 `json:"lostQty"`
	DamagedQty  int32 `json:"damagedQty"`
}

// ReturnInput carries the return audit and the payment taken at the counter.
type ReturnInput struct {
	ActualReturnDate time.Time    `json:"actualReturnDate"`
	Payment          int64        `json:"payment"`
	Items            []ReturnItem `json:"items"`
}

// ReturnOutput reports the settlement derived from a processed return.
type ReturnOutput struct {
	Code         string `json:"code"`
	Status       string `json:"status"`
	DaysLate     int    `json:"daysLate"`
	LateFee      int64  `json:"lateFee"`
	LossFee      int64  `json:"lossFee"`
	DamageFee    int64  `json:"damageFee"`
	RevisedTotal int64  `json:"revisedTotal"`
	Paid         int64  `json:"paid"`
	Balance      int64  `json:"balance"`
}

// ProcessReturn settles an active order: it re-derives the rental total over
// the actual duration, adds late, loss and damage fees, applies the payment
// and flips the order to COMPLETED or SETTLEMENT depending on the balance.
func (s *Service) ProcessReturn(ctx context.Context, id int64, in ReturnInput) (ReturnOutput, error) {
	if s == nil || s.Q == nil || s.Pool == nil {
		return ReturnOutput{}, errors.New("order service not configured")
	}
	now := s.now()
	actual := in.ActualReturnDate
	if actual.IsZero() {
		actual = now
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ReturnOutput{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	qtx := s.Q.WithTx(tx)
	ord, err := qtx.GetOrderForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReturnOutput{}, ErrNotFound
		}
		return ReturnOutput{}, err
	}
	if EffectiveStatus(ord.Status, ord.StartDate.Time, now) != db.OrderStatusActive {
		return ReturnOutput{}, ErrNotReturnable
	}
	items, err := qtx.ListOrderItems(ctx, ord.ID)
	if err != nil {
		return ReturnOutput{}, err
	}
	audited := make(map[int64]ReturnItem, len(in.Items))
	for _, it := range in.Items {
		audited[it.OrderItemID] = it
	}
	auditInput := make([]pricing.ItemAudit, 0, len(items))
	for _, it := range items {
		a := audited[it.ID]
		auditInput = append(auditInput, pricing.ItemAudit{
			Qty:             int(it.Qty),
			UnitPrice:       it.UnitPrice,
			ReplacementCost: it.ReplacementCost,
			ReturnedQty:     int(a.ReturnedQty),
			LostQty:         int(a.LostQty),
			DamagedQty:      int(a.DamagedQty),
		})
	}
	settlement, err := pricing.ComputeSettlement(pricing.SettlementInput{
		StartDate:         ord.StartDate.Time,
		PlannedEndDate:    ord.EndDate.Time,
		ActualReturnDate:  actual,
		Items:             auditInput,
		Discount:          orderDiscount(ord),
		LatePenaltyPerDay: s.LatePenaltyPerDay,
		AmountPaid:        ord.Paid,
		Payment:           in.Payment,
	})
	if err != nil {
		return ReturnOutput{}, err
	}
	for _, it := range items {
		a := audited[it.ID]
		if err := qtx.UpdateOrderItemAudit(ctx, db.UpdateOrderItemAuditParams{
			ID:          it.ID,
			ReturnedQty: a.ReturnedQty,
			LostQty:     a.LostQty,
			DamagedQty:  a.DamagedQty,
		}); err != nil {
			return ReturnOutput{}, err
		}
	}
	status := db.OrderStatus(settlement.Status)
	closedAt := pgtype.Timestamptz{}
	if status == db.OrderStatusCompleted {
		closedAt = pgtype.Timestamptz{Time: now, Valid: true}
	}
	paid := ord.Paid + in.Payment
	if err := qtx.SettleOrder(ctx, db.SettleOrderParams{
		ID:       ord.ID,
		Status:   status,
		ClosedAt: closedAt,
		Total:    settlement.RevisedTotal,
		Paid:     paid,
		Penalty:  settlement.LateFee + settlement.LossFee + settlement.DamageFee,
	}); err != nil {
		return ReturnOutput{}, err
	}
	if err := qtx.AddClientSpend(ctx, ord.ClientID, in.Payment); err != nil {
		return ReturnOutput{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ReturnOutput{}, err
	}
	out := ReturnOutput{
		Code:         s.Codec.Encode(ord.ID),
		Status:       string(status),
		DaysLate:     settlement.DaysLate,
		LateFee:      settlement.LateFee,
		LossFee:      settlement.LossFee,
		DamageFee:    settlement.DamageFee,
		RevisedTotal: settlement.RevisedTotal,
		Paid:         paid,
		Balance:      settlement.Balance,
	}
	if obs.ReturnsProcessedTotal != nil {
		obs.ReturnsProcessedTotal.WithLabelValues(string(status)).Inc()
	}
	if obs.SettlementBalance != nil {
		obs.SettlementBalance.WithLabelValues(string(status)).Observe(float64(settlement.Balance))
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicOrderReturned, ord.ID, out)
		if status == db.OrderStatusCompleted {
			_, _ = s.Events.Emit(ctx, events.TopicOrderCompleted, ord.ID, map[string]any{"code": out.Code})
		} else {
			_, _ = s.Events.Emit(ctx, events.TopicSettlementPending, ord.ID, map[string]any{"code": out.Code, "balance": out.Balance})
		}
	}
	return out, nil
}

// RecordPayment applies a balance payment to an order in settlement. Once the
// balance reaches zero the order completes.
func (s *Service) RecordPayment(ctx context.Context, id int64, amount int64) (ReturnOutput, error) {
	if s == nil || s.Q == nil || s.Pool == nil {
		return ReturnOutput{}, errors.New("order service not configured")
	}
	if amount < 0 {
		return ReturnOutput{}, pricing.ErrNegativePayment
	}
	if amount == 0 {
		return ReturnOutput{}, pricing.ErrInsufficientPayment
	}
	now := s.now()
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ReturnOutput{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	qtx := s.Q.WithTx(tx)
	ord, err := qtx.GetOrderForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReturnOutput{}, ErrNotFound
		}
		return ReturnOutput{}, err
	}
	if ord.Status != db.OrderStatusSettlement {
		return ReturnOutput{}, ErrNotInSettlement
	}
	paid := ord.Paid + amount
	status := db.OrderStatusSettlement
	closedAt := pgtype.Timestamptz{}
	if paid >= ord.Total {
		status = db.OrderStatusCompleted
		closedAt = pgtype.Timestamptz{Time: now, Valid: true}
	}
	if err := qtx.SettleOrder(ctx, db.SettleOrderParams{
		ID:       ord.ID,
		Status:   status,
		ClosedAt: closedAt,
		Total:    ord.Total,
		Paid:     paid,
		Penalty:  ord.Penalty,
	}); err != nil {
		return ReturnOutput{}, err
	}
	if err := qtx.AddClientSpend(ctx, ord.ClientID, amount); err != nil {
		return ReturnOutput{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ReturnOutput{}, err
	}
	out := ReturnOutput{
		Code:         s.Codec.Encode(ord.ID),
		Status:       string(status),
		RevisedTotal: ord.Total,
		Paid:         paid,
		Balance:      ord.Total - paid,
	}
	if s.Events != nil && status == db.OrderStatusCompleted {
		_, _ = s.Events.Emit(ctx, events.TopicOrderCompleted, ord.ID, map[string]any{"code": out.Code})
	}
	return out, nil
}

// UpdateStatus moves an order through its lifecycle. With force set the
// state machine is bypassed; every change is written to the admin audit log.
func (s *Service) UpdateStatus(ctx context.Context, id int64, target db.OrderStatus, actor, reason string, force bool) error {
	if s == nil || s.Q == nil || s.Pool == nil {
		return errors.New("order service not configured")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	qtx := s.Q.WithTx(tx)
	ord, err := qtx.GetOrderForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if ord.Status == target {
		return ErrInvalidTransition
	}
	action := "status_change"
	if force {
		action = "status_override"
	} else if err := Transition(ord.Status, target); err != nil {
		return err
	}
	if err := qtx.UpdateOrderStatus(ctx, db.UpdateOrderStatusParams{ID: ord.ID, Status: target}); err != nil {
		return err
	}
	if err := qtx.InsertAdminAudit(ctx, db.InsertAdminAuditParams{
		Actor:      actor,
		Action:     action,
		OrderID:    pgtype.Int8{Int64: ord.ID, Valid: true},
		FromStatus: db.NullOrderStatus{OrderStatus: ord.Status, Valid: true},
		ToStatus:   db.NullOrderStatus{OrderStatus: target, Valid: true},
		Reason:     reason,
	}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	if s.Events != nil {
		if topic := topicForStatus(target); topic != "" {
			_, _ = s.Events.Emit(ctx, topic, ord.ID, map[string]any{
				"code": s.Codec.Encode(ord.ID),
				"from": string(ord.Status),
				"to":   string(target),
			})
		}
	}
	return nil
}

// Activate flips an approved order to ACTIVE once its rental window opens.
// Called by the background worker; a no-op when the order moved on already.
func (s *Service) Activate(ctx context.Context, id int64) error {
	if s == nil || s.Q == nil || s.Pool == nil {
		return errors.New("order service not configured")
	}
	now := s.now()
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	qtx := s.Q.WithTx(tx)
	ord, err := qtx.GetOrderForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if ord.Status != db.OrderStatusApproved || now.Before(ord.StartDate.Time) {
		return nil
	}
	if err := qtx.UpdateOrderStatus(ctx, db.UpdateOrderStatusParams{ID: ord.ID, Status: db.OrderStatusActive}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicOrderActivated, ord.ID, map[string]any{"code": s.Codec.Encode(ord.ID)})
	}
	return nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func orderDiscount(ord db.Order) *pricing.Discount {
	if !ord.DiscountKind.Valid || !ord.DiscountValue.Valid {
		return nil
	}
	return &pricing.Discount{
		Kind:  string(ord.DiscountKind.DiscountKind),
		Value: ord.DiscountValue.Int64,
	}
}

func topicForStatus(status db.OrderStatus) string {
	switch status {
	case db.OrderStatusApproved:
		return events.TopicOrderApproved
	case db.OrderStatusRejected:
		return events.TopicOrderRejected
	case db.OrderStatusActive:
		return events.TopicOrderActivated
	case db.OrderStatusCompleted:
		return events.TopicOrderCompleted
	case db.OrderStatusCanceled:
		return events.TopicOrderCanceled
	default:
		return ""
	}
}
