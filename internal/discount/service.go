package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-sewa/internal/db"
)

// Querier captures the database methods required by the discount service.
type Querier interface {
	GetDiscountByCode(ctx context.Context, code string) (db.Discount, error)
	GetDiscountByCodeForUpdate(ctx context.Context, code string) (db.Discount, error)
	CountRedemptionsByClient(ctx context.Context, arg db.CountRedemptionsByClientParams) (int64, error)
	GetRedemptionByOrder(ctx context.Context, arg db.GetRedemptionByOrderParams) (db.DiscountRedemption, error)
	InsertRedemption(ctx context.Context, arg db.InsertRedemptionParams) error
	IncreaseDiscountUsedCount(ctx context.Context, id int64) error
}

// Result describes the outcome of evaluating a discount code against a subtotal.
type Result struct {
	DiscountID int64  `json:"-"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Value      int64  `json:"value"`
	Amount     int64  `json:"amount"`
}

// Service encapsulates discount evaluation and redemption behaviour.
type Service struct {
	Q   Querier
	Now func() time.Time
}

// Validate performs a dry-run evaluation for the given subtotal. It reads the
// discount without locking, so the answer is advisory; order submission
// re-validates under a row lock.
func (s *Service) Validate(ctx context.Context, code string, clientID *int64, subtotal int64) (Result, error) {
	return s.evaluate(ctx, code, clientID, subtotal, false)
}

// ValidateForUpdate evaluates the discount with its row locked. Intended for
// use inside the order submission transaction so concurrent redemptions of a
// one-time code serialize.
func (s *Service) ValidateForUpdate(ctx context.Context, code string, clientID *int64, subtotal int64) (Result, error) {
	return s.evaluate(ctx, code, clientID, subtotal, true)
}

func (s *Service) evaluate(ctx context.Context, code string, clientID *int64, subtotal int64, lock bool) (Result, error) {
	if s == nil || s.Q == nil {
		return Result{}, errors.New("discount service not configured")
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return Result{}, fmt.Errorf("code is required: %w", ErrNotFound)
	}
	get := s.Q.GetDiscountByCode
	if lock {
		get = s.Q.GetDiscountByCodeForUpdate
	}
	row, err := get(ctx, trimmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Result{}, ErrNotFound
		}
		return Result{}, err
	}
	rule := RuleFromModel(row)
	if rule.Duration == DurationOneTime && clientID != nil {
		used, err := s.Q.CountRedemptionsByClient(ctx, db.CountRedemptionsByClientParams{
			DiscountID: row.ID,
			ClientID:   *clientID,
		})
		if err != nil {
			return Result{}, err
		}
		rule.ClientUses = used
	}
	if err := rule.Validate(s.now()); err != nil {
		return Result{}, err
	}
	return Result{
		DiscountID: row.ID,
		Code:       row.Code,
		Name:       row.Name,
		Kind:       string(row.Kind),
		Value:      row.Value,
		Amount:     Compute(subtotal, rule),
	}, nil
}

// Redeem records discount usage at order submission time. The insert is
// idempotent per (discount, order) so retried submissions do not double-count.
func (s *Service) Redeem(ctx context.Context, discountID, orderID, clientID int64, amount int64) error {
	if s == nil || s.Q == nil {
		return errors.New("discount service not configured")
	}
	if amount < 0 {
		amount = 0
	}
	_, err := s.Q.GetRedemptionByOrder(ctx, db.GetRedemptionByOrderParams{
		DiscountID: discountID,
		OrderID:    orderID,
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if err := s.Q.InsertRedemption(ctx, db.InsertRedemptionParams{
		DiscountID: discountID,
		OrderID:    orderID,
		ClientID:   clientID,
		Amount:     amount,
	}); err != nil {
		return err
	}
	return s.Q.IncreaseDiscountUsedCount(ctx, discountID)
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RuleFromModel converts a discount row into a Rule used for evaluation.
func RuleFromModel(d db.Discount) Rule {
	rule := Rule{
		Code:      d.Code,
		Name:      d.Name,
		Kind:      string(d.Kind),
		Value:     d.Value,
		Duration:  string(d.Duration),
		Active:    d.Active,
		UsedCount: d.UsedCount,
	}
	if d.StartsAt.Valid {
		rule.StartsAt = &d.StartsAt.Time
	}
	if d.EndsAt.Valid {
		rule.EndsAt = &d.EndsAt.Time
	}
	return rule
}
