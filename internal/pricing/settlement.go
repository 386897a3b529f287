package pricing

import (
	"errors"
	"time"
)

var (
	// ErrInsufficientPayment is returned when a settlement is recorded without a payment.
	ErrInsufficientPayment = errors.New("pricing: settlement requires a positive payment")
	// ErrNegativePayment is returned when the recorded payment amount is negative.
	ErrNegativePayment = errors.New("pricing: payment amount cannot be negative")
	// ErrAuditMismatch is returned when returned+lost+damaged does not reconcile with the ordered quantity.
	ErrAuditMismatch = errors.New("pricing: item audit does not reconcile with ordered quantity")
)

// Order statuses a settlement can resolve to.
const (
	StatusCompleted  = "COMPLETED"
	StatusSettlement = "SETTLEMENT"
)

// ItemAudit records the post-return condition of a single order line.
type ItemAudit struct {
	Qty             int
	UnitPrice       Money
	ReplacementCost Money
	ReturnedQty     int
	LostQty         int
	DamagedQty      int
}

// SettlementInput carries everything needed to settle a returned order.
type SettlementInput struct {
	StartDate         time.Time
	PlannedEndDate    time.Time
	ActualReturnDate  time.Time
	Items             []ItemAudit
	Discount          *Discount
	LatePenaltyPerDay Money
	AmountPaid        Money
	Payment           Money
}

// Settlement is the computed financial outcome of a return.
type Settlement struct {
	DaysLate     int
	LateFee      Money
	LossFee      Money
	DamageFee    Money
	RevisedTotal Money
	Balance      Money
	Status       string
}

// DaysLate returns how many full or partial days the actual return exceeds
// the planned end date. Returns on or before the planned date count as zero.
func DaysLate(planned, actual time.Time) int {
	diff := actual.Sub(planned)
	if diff <= 0 {
		return 0
	}
	return int((diff + day - 1) / day)
}

// ComputeSettlement derives the final financials and status for a returned
// order. The rental subtotal is re-derived over the actual duration rather
// than reusing the originally quoted figure, and the recorded discount is
// re-applied at the same rate.
func ComputeSettlement(in SettlementInput) (Settlement, error) {
	if in.Payment < 0 {
		return Settlement{}, ErrNegativePayment
	}
	if in.Payment == 0 {
		return Settlement{}, ErrInsufficientPayment
	}
	lines := make([]Line, 0, len(in.Items))
	var lossFee, damageFee Money
	for _, it := range in.Items {
		if it.ReturnedQty < 0 || it.LostQty < 0 || it.DamagedQty < 0 {
			return Settlement{}, ErrAuditMismatch
		}
		if it.ReturnedQty+it.LostQty+it.DamagedQty != it.Qty {
			return Settlement{}, ErrAuditMismatch
		}
		lines = append(lines, Line{Qty: it.Qty, UnitPrice: it.UnitPrice})
		lossFee += it.ReplacementCost * Money(it.LostQty)
		damageFee += it.ReplacementCost * Money(it.DamagedQty)
	}
	daysLate := DaysLate(in.PlannedEndDate, in.ActualReturnDate)
	lateFee := Money(daysLate) * in.LatePenaltyPerDay

	penalty := lateFee + lossFee + damageFee
	summary := Compute(lines, in.StartDate, in.ActualReturnDate, in.Discount, penalty)

	balance := summary.Total - (in.AmountPaid + in.Payment)
	status := StatusSettlement
	if balance <= 0 {
		status = StatusCompleted
	}
	return Settlement{
		DaysLate:     daysLate,
		LateFee:      lateFee,
		LossFee:      lossFee,
		DamageFee:    damageFee,
		RevisedTotal: summary.Total,
		Balance:      balance,
		Status:       status,
	}, nil
}
