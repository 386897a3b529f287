package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/noah-isme/backend-sewa/internal/cart"
	"github.com/noah-isme/backend-sewa/internal/common"
	"github.com/noah-isme/backend-sewa/internal/discount"
	"github.com/noah-isme/backend-sewa/internal/pricing"
)

type Handler struct {
	Svc *Service
}

// Submit converts a cart into a pending order.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var payload Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	out, err := h.Svc.Submit(r.Context(), payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, ErrClientNotFound):
		common.JSONError(w, http.StatusNotFound, "CLIENT_NOT_FOUND", "client not found", nil)
	case errors.Is(err, ErrCartNotReady):
		common.JSONError(w, http.StatusBadRequest, "CART_NOT_READY", "cart has no rental window or no lines", nil)
	case errors.Is(err, cart.ErrInvalidDateRange):
		common.JSONError(w, http.StatusBadRequest, "INVALID_DATE_RANGE", "rental end date precedes start date", nil)
	case errors.Is(err, ErrInsufficientStock):
		common.JSONError(w, http.StatusConflict, "INSUFFICIENT_STOCK", err.Error(), nil)
	case errors.Is(err, pricing.ErrNegativePayment):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "payment amount cannot be negative", nil)
	case errors.Is(err, discount.ErrNotFound),
		errors.Is(err, discount.ErrInactive),
		errors.Is(err, discount.ErrNotYetActive),
		errors.Is(err, discount.ErrExpired),
		errors.Is(err, discount.ErrAlreadyUsed):
		common.JSONError(w, http.StatusUnprocessableEntity, "DISCOUNT_REJECTED", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to submit order", nil)
	}
}
