package pricing

import (
	"strings"
	"time"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// Discount kinds understood by the engine.
const (
	KindFixed      = "fixed"
	KindPercentage = "percentage"
)

// Line describes a rental line item used for pricing calculation.
type Line struct {
	Qty       int
	UnitPrice Money
}

// Discount describes an applied discount: a fixed amount or a percentage of the subtotal.
type Discount struct {
	Kind  string
	Value int64
}

// Summary aggregates computed pricing components for a rental window.
type Summary struct {
	Days     int
	Subtotal Money
	Discount Money
	Penalty  Money
	Total    Money
}

const day = 24 * time.Hour

// DurationDays returns the number of billable rental days between start and
// end, counting both endpoints: a same-day rental bills as one day and a
// Jan 1 to Jan 3 rental bills as three. A partial trailing day bills as a
// full day. Defined for end >= start only.
func DurationDays(start, end time.Time) int {
	diff := end.Sub(start)
	days := int(diff/day) + 1
	if days < 1 {
		days = 1
	}
	return days
}

// ComputeDiscount returns the discount amount for the given subtotal. Fixed
// discounts are capped at the subtotal; percentage discounts are not, the
// 0-100 range is validated at discount creation time.
func ComputeDiscount(subtotal Money, d Discount) Money {
	if subtotal <= 0 {
		return 0
	}
	amount := d.Value
	if strings.EqualFold(d.Kind, KindPercentage) {
		amount = (subtotal * d.Value) / 100
	} else if amount > subtotal {
		amount = subtotal
	}
	if amount < 0 {
		return 0
	}
	return amount
}

// Compute calculates the order total for the given lines and rental window.
// This is the single aggregator behind cart previews, invoices, order
// submission, and settlement; every displayed or persisted total comes from it.
func Compute(lines []Line, start, end time.Time, discount *Discount, penalty Money) Summary {
	days := DurationDays(start, end)
	var subtotal Money
	for _, l := range lines {
		if l.Qty <= 0 {
			continue
		}
		subtotal += Money(l.Qty) * l.UnitPrice * Money(days)
	}
	var applied Money
	if discount != nil {
		applied = ComputeDiscount(subtotal, *discount)
		if applied > subtotal {
			applied = subtotal
		}
	}
	discounted := subtotal - applied
	if discounted < 0 {
		discounted = 0
	}
	if penalty < 0 {
		penalty = 0
	}
	return Summary{
		Days:     days,
		Subtotal: subtotal,
		Discount: applied,
		Penalty:  penalty,
		Total:    discounted + penalty,
	}
}
