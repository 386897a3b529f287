package order

import (
	"errors"
	"testing"
	"time"

	"github.com/noah-isme/backend-sewa/internal/db"
)

func TestTransitionLifecycle(t *testing.T) {
	allowed := []struct {
		from db.OrderStatus
		to   db.OrderStatus
	}{
		{db.OrderStatusPending, db.OrderStatusApproved},
		{db.OrderStatusPending, db.OrderStatusRejected},
		{db.OrderStatusPending, db.OrderStatusCanceled},
		{db.OrderStatusApproved, db.OrderStatusActive},
		// Pull-back: an approval can be withdrawn before the rental starts.
		{db.OrderStatusApproved, db.OrderStatusPending},
		{db.OrderStatusApproved, db.OrderStatusCanceled},
		{db.OrderStatusActive, db.OrderStatusSettlement},
		{db.OrderStatusActive, db.OrderStatusCompleted},
		{db.OrderStatusSettlement, db.OrderStatusCompleted},
	}
	for _, tc := range allowed {
		if err := Transition(tc.from, tc.to); err != nil {
			t.Fatalf("%s -> %s should be allowed, got %v", tc.from, tc.to, err)
		}
	}
}

func TestTransitionRejectsBackwards(t *testing.T) {
	denied := []struct {
		from db.OrderStatus
		to   db.OrderStatus
	}{
		{db.OrderStatusActive, db.OrderStatusApproved},
		{db.OrderStatusCompleted, db.OrderStatusActive},
		{db.OrderStatusRejected, db.OrderStatusApproved},
		{db.OrderStatusCanceled, db.OrderStatusPending},
		{db.OrderStatusPending, db.OrderStatusActive},
	}
	for _, tc := range denied {
		if err := Transition(tc.from, tc.to); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s -> %s should be denied, got %v", tc.from, tc.to, err)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []db.OrderStatus{db.OrderStatusRejected, db.OrderStatusCompleted, db.OrderStatusCanceled} {
		if !IsTerminal(s) {
			t.Fatalf("%s should be terminal", s)
		}
	}
	if IsTerminal(db.OrderStatusPending) {
		t.Fatal("PENDING should not be terminal")
	}
}

func TestEffectiveStatus(t *testing.T) {
	start := time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC)

	got := EffectiveStatus(db.OrderStatusApproved, start, start.Add(-time.Hour))
	if got != db.OrderStatusApproved {
		t.Fatalf("expected APPROVED before window opens, got %s", got)
	}

	got = EffectiveStatus(db.OrderStatusApproved, start, start.Add(time.Hour))
	if got != db.OrderStatusActive {
		t.Fatalf("expected ACTIVE once window opens, got %s", got)
	}

	// Only approved orders are promoted for display.
	got = EffectiveStatus(db.OrderStatusPending, start, start.Add(time.Hour))
	if got != db.OrderStatusPending {
		t.Fatalf("expected PENDING unchanged, got %s", got)
	}
}
