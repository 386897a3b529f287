package pricing

import (
	"errors"
	"testing"
	"time"
)

func TestDaysLateOnTime(t *testing.T) {
	planned := date(2024, time.January, 10)
	if got := DaysLate(planned, planned); got != 0 {
		t.Fatalf("expected 0 days late, got %d", got)
	}
	if got := DaysLate(planned, planned.Add(-48*time.Hour)); got != 0 {
		t.Fatalf("expected 0 days late for early return, got %d", got)
	}
}

func TestDaysLateCeil(t *testing.T) {
	planned := date(2024, time.January, 10)
	if got := DaysLate(planned, planned.Add(time.Hour)); got != 1 {
		t.Fatalf("expected 1 day late for 1h overrun, got %d", got)
	}
	if got := DaysLate(planned, planned.Add(3*day)); got != 3 {
		t.Fatalf("expected 3 days late, got %d", got)
	}
}

func TestComputeSettlementLateFee(t *testing.T) {
	// planned end 2024-01-10, actual return 2024-01-13, 50/day penalty
	in := SettlementInput{
		StartDate:         date(2024, time.January, 8),
		PlannedEndDate:    date(2024, time.January, 10),
		ActualReturnDate:  date(2024, time.January, 13),
		Items:             []ItemAudit{{Qty: 1, UnitPrice: 100, ReturnedQty: 1}},
		LatePenaltyPerDay: 50,
		Payment:           1000,
	}
	got, err := ComputeSettlement(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DaysLate != 3 {
		t.Fatalf("expected 3 days late, got %d", got.DaysLate)
	}
	if got.LateFee != 150 {
		t.Fatalf("expected late fee 150, got %d", got.LateFee)
	}
}

func TestComputeSettlementNoLateFeeWhenOnTime(t *testing.T) {
	in := SettlementInput{
		StartDate:         date(2024, time.February, 1),
		PlannedEndDate:    date(2024, time.February, 5),
		ActualReturnDate:  date(2024, time.February, 4),
		Items:             []ItemAudit{{Qty: 2, UnitPrice: 100, ReturnedQty: 2}},
		LatePenaltyPerDay: 50,
		Payment:           600,
	}
	got, err := ComputeSettlement(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.LateFee != 0 {
		t.Fatalf("expected no late fee, got %d", got.LateFee)
	}
}

func TestComputeSettlementLossAndDamageFees(t *testing.T) {
	in := SettlementInput{
		StartDate:        date(2024, time.March, 1),
		PlannedEndDate:   date(2024, time.March, 2),
		ActualReturnDate: date(2024, time.March, 2),
		Items: []ItemAudit{
			{Qty: 3, UnitPrice: 100, ReplacementCost: 2000, ReturnedQty: 1, LostQty: 1, DamagedQty: 1},
		},
		Payment: 100,
	}
	got, err := ComputeSettlement(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.LossFee != 2000 {
		t.Fatalf("expected loss fee 2000, got %d", got.LossFee)
	}
	if got.DamageFee != 2000 {
		t.Fatalf("expected damage fee 2000, got %d", got.DamageFee)
	}
}

func TestComputeSettlementRederivesActualDuration(t *testing.T) {
	// 1 day planned, returned 2 days late: subtotal covers 3 actual days.
	in := SettlementInput{
		StartDate:         date(2024, time.April, 1),
		PlannedEndDate:    date(2024, time.April, 1),
		ActualReturnDate:  date(2024, time.April, 3),
		Items:             []ItemAudit{{Qty: 1, UnitPrice: 100, ReturnedQty: 1}},
		LatePenaltyPerDay: 50,
		Payment:           400,
	}
	got, err := ComputeSettlement(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 3 actual billable days * 100 + 2 days late * 50
	want := Money(3*100 + 2*50)
	if got.RevisedTotal != want {
		t.Fatalf("expected revised total %d, got %d", want, got.RevisedTotal)
	}
}

func TestComputeSettlementStatusMatchesBalance(t *testing.T) {
	base := SettlementInput{
		StartDate:        date(2024, time.May, 1),
		PlannedEndDate:   date(2024, time.May, 3),
		ActualReturnDate: date(2024, time.May, 3),
		Items:            []ItemAudit{{Qty: 1, UnitPrice: 100, ReturnedQty: 1}},
	}

	paidOff := base
	paidOff.Payment = 300
	got, err := ComputeSettlement(paidOff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Balance > 0 || got.Status != StatusCompleted {
		t.Fatalf("expected completed with non-positive balance, got %+v", got)
	}

	underpaid := base
	underpaid.Payment = 50
	got, err = ComputeSettlement(underpaid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Balance <= 0 || got.Status != StatusSettlement {
		t.Fatalf("expected settlement with positive balance, got %+v", got)
	}
}

func TestComputeSettlementDiscountReapplied(t *testing.T) {
	in := SettlementInput{
		StartDate:        date(2024, time.June, 1),
		PlannedEndDate:   date(2024, time.June, 3),
		ActualReturnDate: date(2024, time.June, 3),
		Items:            []ItemAudit{{Qty: 2, UnitPrice: 150, ReturnedQty: 2}},
		Discount:         &Discount{Kind: KindPercentage, Value: 10},
		Payment:          810,
	}
	got, err := ComputeSettlement(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 3 days * 2 * 150 = 900, minus 10% = 810
	if got.RevisedTotal != 810 {
		t.Fatalf("expected revised total 810, got %d", got.RevisedTotal)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
}

func TestComputeSettlementPaymentValidation(t *testing.T) {
	in := SettlementInput{
		StartDate:        date(2024, time.July, 1),
		PlannedEndDate:   date(2024, time.July, 2),
		ActualReturnDate: date(2024, time.July, 2),
		Items:            []ItemAudit{{Qty: 1, UnitPrice: 100, ReturnedQty: 1}},
	}
	if _, err := ComputeSettlement(in); !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment, got %v", err)
	}
	in.Payment = -10
	if _, err := ComputeSettlement(in); !errors.Is(err, ErrNegativePayment) {
		t.Fatalf("expected ErrNegativePayment, got %v", err)
	}
}

func TestComputeSettlementAuditMustReconcile(t *testing.T) {
	in := SettlementInput{
		StartDate:        date(2024, time.August, 1),
		PlannedEndDate:   date(2024, time.August, 2),
		ActualReturnDate: date(2024, time.August, 2),
		Items:            []ItemAudit{{Qty: 3, UnitPrice: 100, ReturnedQty: 1, LostQty: 1}},
		Payment:          100,
	}
	if _, err := ComputeSettlement(in); !errors.Is(err, ErrAuditMismatch) {
		t.Fatalf("expected ErrAuditMismatch, got %v", err)
	}
}
