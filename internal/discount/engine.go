package discount

import (
	"errors"
	"time"

	"github.com/noah-isme/backend-sewa/internal/pricing"
)

var (
	// ErrNotFound is returned when no discount exists for the given code.
	ErrNotFound = errors.New("discount not found")
	// ErrInactive is returned when the discount has been switched off by an admin.
	ErrInactive = errors.New("discount not active")
	// ErrNotYetActive is returned when the discount window has not opened yet.
	ErrNotYetActive = errors.New("discount not yet active")
	// ErrExpired is returned when the discount window has closed.
	ErrExpired = errors.New("discount expired")
	// ErrAlreadyUsed indicates a one-time discount was already redeemed by this client.
	ErrAlreadyUsed = errors.New("discount already used by client")
)

// Redemption policies a discount can carry.
const (
	DurationOneTime   = "one_time"
	DurationUnlimited = "unlimited"
	DurationPeriod    = "period"
)

// Rule captures the runtime constraints of a discount code.
type Rule struct {
	Code       string
	Name       string
	Kind       string
	Value      int64
	Duration   string
	StartsAt   *time.Time
	EndsAt     *time.Time
	Active     bool
	UsedCount  int32
	ClientUses int64
}

// Validate ensures the rule can be applied at the provided instant. Checks run
// from cheapest to most specific so callers get a stable error for a given
// discount state.
func (r Rule) Validate(now time.Time) error {
	if !r.Active {
		return ErrInactive
	}
	// Only period discounts carry a validity window; dates left on other
	// policies are informational.
	if r.Duration == DurationPeriod {
		if r.StartsAt != nil && now.Before(*r.StartsAt) {
			return ErrNotYetActive
		}
		if r.EndsAt != nil && now.After(*r.EndsAt) {
			return ErrExpired
		}
	}
	if r.Duration == DurationOneTime && r.ClientUses > 0 {
		return ErrAlreadyUsed
	}
	return nil
}

// Compute returns the discount amount this rule grants on the given subtotal.
func Compute(subtotal int64, r Rule) int64 {
	return pricing.ComputeDiscount(subtotal, pricing.Discount{Kind: r.Kind, Value: r.Value})
}
