package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-sewa/internal/common"
	"github.com/noah-isme/backend-sewa/internal/db"
	"github.com/noah-isme/backend-sewa/internal/pricing"
)

// AdminHandler provides administrative order management endpoints.
type AdminHandler struct {
	Q   *db.Queries
	Svc *Service
}

type patchStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
	Force  bool   `json:"force"`
}

type paymentRequest struct {
	Amount int64 `json:"amount"`
}

func adminActor(r *http.Request) string {
	if id, ok := common.UserID(r.Context()); ok && id != "" {
		return id
	}
	return "admin"
}

func (h *AdminHandler) orderID(r *http.Request) (int64, error) {
	return h.Svc.Codec.Decode(chi.URLParam(r, "code"))
}

// PatchStatus updates the order status with state-machine validation. A
// forced change bypasses the machine but is still recorded in the audit log.
func (h *AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	id, err := h.orderID(r)
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	target := db.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	switch target {
	case db.OrderStatusPending, db.OrderStatusApproved, db.OrderStatusRejected,
		db.OrderStatusActive, db.OrderStatusSettlement, db.OrderStatusCompleted,
		db.OrderStatusCanceled:
	default:
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unsupported status", nil)
		return
	}
	if req.Force && strings.TrimSpace(req.Reason) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "forced changes require a reason", nil)
		return
	}
	err = h.Svc.UpdateStatus(r.Context(), id, target, adminActor(r), req.Reason, req.Force)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		case errors.Is(err, ErrInvalidTransition):
			common.JSONError(w, http.StatusConflict, "INVALID_STATE", "state transition not allowed", nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update order status", nil)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Return processes the physical return of an order and computes its
// settlement.
func (h *AdminHandler) Return(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	id, err := h.orderID(r)
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	var req ReturnInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	out, err := h.Svc.ProcessReturn(r.Context(), id, req)
	if err != nil {
		writeSettlementError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Payment applies a balance payment to an order awaiting settlement.
func (h *AdminHandler) Payment(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	id, err := h.orderID(r)
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	out, err := h.Svc.RecordPayment(r.Context(), id, req.Amount)
	if err != nil {
		writeSettlementError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// AuditLog lists administrative actions recorded against an order.
func (h *AdminHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order queries not configured", nil)
		return
	}
	id, err := h.orderID(r)
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	page := common.ParsePagination(r, 50, 200)
	rows, err := h.Q.ListAdminAudit(r.Context(), db.ListAdminAuditParams{
		OrderID: pgtype.Int8{Int64: id, Valid: true},
		Limit:   int32(page.Limit),
		Offset:  int32(page.Offset),
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load audit log", nil)
		return
	}
	entries := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		entry := map[string]any{
			"actor":     row.Actor,
			"action":    row.Action,
			"reason":    row.Reason,
			"createdAt": row.CreatedAt.Time,
		}
		if row.FromStatus.Valid {
			entry["from"] = string(row.FromStatus.OrderStatus)
		}
		if row.ToStatus.Valid {
			entry["to"] = string(row.ToStatus.OrderStatus)
		}
		entries = append(entries, entry)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": entries})
}

func writeSettlementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
	case errors.Is(err, ErrNotReturnable):
		common.JSONError(w, http.StatusConflict, "INVALID_STATE", "order is not active", nil)
	case errors.Is(err, ErrNotInSettlement):
		common.JSONError(w, http.StatusConflict, "INVALID_STATE", "order has no outstanding settlement", nil)
	case errors.Is(err, pricing.ErrNegativePayment):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "payment amount cannot be negative", nil)
	case errors.Is(err, pricing.ErrInsufficientPayment):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "a positive payment is required", nil)
	case errors.Is(err, pricing.ErrAuditMismatch):
		common.JSONError(w, http.StatusUnprocessableEntity, "AUDIT_MISMATCH", "returned, lost and damaged quantities must account for every unit", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to process request", nil)
	}
}
