package analytics

import (
	"net/http"

	"github.com/noah-isme/backend-sewa/internal/common"
)

// Handler exposes analytics read endpoints for the admin dashboard.
type Handler struct {
	Svc *Service
}

// Discounts returns per-discount redemption counts and given-away amounts.
func (h *Handler) Discounts(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_NOT_CONFIGURED", "analytics service not configured", nil)
		return
	}
	rows, err := h.Svc.DiscountImpacts(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_ERROR", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// TopClients returns the highest-spending clients.
func (h *Handler) TopClients(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_NOT_CONFIGURED", "analytics service not configured", nil)
		return
	}
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 10)
	if limit <= 0 {
		limit = 10
	}
	rows, err := h.Svc.TopClients(r.Context(), int32(limit))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_ERROR", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}
