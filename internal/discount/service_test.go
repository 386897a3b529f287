package discount

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-sewa/internal/db"
)

type stubQueries struct {
	discount   db.Discount
	clientUses int64
	redeemed   bool
	inserted   int
	bumped     int
}

func (s *stubQueries) GetDiscountByCode(ctx context.Context, code string) (db.Discount, error) {
	if s.discount.Code == "" {
		return db.Discount{}, pgx.ErrNoRows
	}
	return s.discount, nil
}

func (s *stubQueries) GetDiscountByCodeForUpdate(ctx context.Context, code string) (db.Discount, error) {
	return s.GetDiscountByCode(ctx, code)
}

func (s *stubQueries) CountRedemptionsByClient(ctx context.Context, arg db.CountRedemptionsByClientParams) (int64, error) {
	return s.clientUses, nil
}

func (s *stubQueries) GetRedemptionByOrder(ctx context.Context, arg db.GetRedemptionByOrderParams) (db.DiscountRedemption, error) {
	if s.redeemed {
		return db.DiscountRedemption{ID: 1, DiscountID: arg.DiscountID, OrderID: arg.OrderID}, nil
	}
	return db.DiscountRedemption{}, pgx.ErrNoRows
}

func (s *stubQueries) InsertRedemption(ctx context.Context, arg db.InsertRedemptionParams) error {
	s.inserted++
	return nil
}

func (s *stubQueries) IncreaseDiscountUsedCount(ctx context.Context, id int64) error {
	s.bumped++
	return nil
}

func newDiscount(kind db.DiscountKind, value int64, duration db.DiscountDuration) db.Discount {
	return db.Discount{
		ID:       7,
		Name:     "Grand Opening",
		Code:     "OPENING",
		Kind:     kind,
		Value:    value,
		Duration: duration,
		Active:   true,
	}
}

func TestValidateUnknownCode(t *testing.T) {
	svc := &Service{Q: &stubQueries{}}
	_, err := svc.Validate(context.Background(), "NOPE", nil, 1000)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateBlankCode(t *testing.T) {
	svc := &Service{Q: &stubQueries{}}
	_, err := svc.Validate(context.Background(), "   ", nil, 1000)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateComputesAmount(t *testing.T) {
	svc := &Service{Q: &stubQueries{discount: newDiscount(db.DiscountKindPercentage, 10, db.DiscountDurationUnlimited)}}
	res, err := svc.Validate(context.Background(), "OPENING", nil, 600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Amount != 60 {
		t.Fatalf("expected amount 60, got %d", res.Amount)
	}
	if res.DiscountID != 7 || res.Code != "OPENING" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestValidateOneTimeAlreadyUsed(t *testing.T) {
	stub := &stubQueries{
		discount:   newDiscount(db.DiscountKindFixed, 100, db.DiscountDurationOneTime),
		clientUses: 1,
	}
	svc := &Service{Q: stub}
	clientID := int64(42)
	_, err := svc.Validate(context.Background(), "OPENING", &clientID, 600)
	if !errors.Is(err, ErrAlreadyUsed) {
		t.Fatalf("expected ErrAlreadyUsed, got %v", err)
	}
}

func TestValidateExpiredPeriod(t *testing.T) {
	d := newDiscount(db.DiscountKindFixed, 100, db.DiscountDurationPeriod)
	d.StartsAt = pgtype.Timestamptz{Time: time.Now().Add(-48 * time.Hour), Valid: true}
	d.EndsAt = pgtype.Timestamptz{Time: time.Now().Add(-24 * time.Hour), Valid: true}
	svc := &Service{Q: &stubQueries{discount: d}}
	_, err := svc.Validate(context.Background(), "OPENING", nil, 600)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestRedeemIdempotent(t *testing.T) {
	stub := &stubQueries{redeemed: true}
	svc := &Service{Q: stub}
	if err := svc.Redeem(context.Background(), 7, 9, 42, 60); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.inserted != 0 || stub.bumped != 0 {
		t.Fatal("expected no writes for an already-recorded redemption")
	}
}

func TestRedeemRecordsUsage(t *testing.T) {
	stub := &stubQueries{}
	svc := &Service{Q: stub}
	if err := svc.Redeem(context.Background(), 7, 9, 42, 60); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.inserted != 1 || stub.bumped != 1 {
		t.Fatalf("expected one insert and one counter bump, got %d/%d", stub.inserted, stub.bumped)
	}
}
