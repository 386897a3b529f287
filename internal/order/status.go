package order

import (
	"errors"
	"time"

	"github.com/noah-isme/backend-sewa/internal/db"
)

// ErrInvalidTransition is returned when a status change violates the order
// lifecycle.
var ErrInvalidTransition = errors.New("order: invalid status transition")

var transitions = map[db.OrderStatus][]db.OrderStatus{
	db.OrderStatusPending:    {db.OrderStatusApproved, db.OrderStatusRejected, db.OrderStatusCanceled},
	db.OrderStatusApproved:   {db.OrderStatusActive, db.OrderStatusPending, db.OrderStatusCanceled},
	db.OrderStatusActive:     {db.OrderStatusSettlement, db.OrderStatusCompleted},
	db.OrderStatusSettlement: {db.OrderStatusCompleted},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to db.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition validates the requested status change.
func Transition(from, to db.OrderStatus) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	return nil
}

// IsTerminal reports whether no further transitions are possible.
func IsTerminal(s db.OrderStatus) bool {
	return len(transitions[s]) == 0
}

// EffectiveStatus resolves the display status of an order. An approved order
// whose rental window has opened reads as active even if the background
// activation has not run yet; the stored row stays authoritative for
// everything else.
func EffectiveStatus(status db.OrderStatus, startDate time.Time, now time.Time) db.OrderStatus {
	if status == db.OrderStatusApproved && !now.Before(startDate) {
		return db.OrderStatusActive
	}
	return status
}
