// Package audit exposes the admin action trail: every status change or
// override recorded against an order, with actor and reason. Entries are
// written by the order service inside the same transaction as the change
// itself; this package is the read surface.
package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-sewa/internal/common"
	"github.com/noah-isme/backend-sewa/internal/db"
	"github.com/noah-isme/backend-sewa/internal/order"
)

// Querier captures the database access required by the audit endpoints.
type Querier interface {
	ListAdminAudit(ctx context.Context, arg db.ListAdminAuditParams) ([]db.AdminAudit, error)
}

// Handler lists recorded admin actions.
type Handler struct {
	Q     Querier
	Codec order.Codec
}

// Entry is the transport representation of one audit row.
type Entry struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	OrderCode string    `json:"orderCode,omitempty"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// List returns the audit trail, optionally filtered to a single order code.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "audit queries not configured", nil)
		return
	}
	page := common.ParsePagination(r, 50, 200)
	params := db.ListAdminAuditParams{
		Limit:  int32(page.Limit),
		Offset: int32(page.Offset),
	}
	if code := r.URL.Query().Get("order"); code != "" {
		id, err := h.Codec.Decode(code)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order code", nil)
			return
		}
		params.OrderID = pgtype.Int8{Int64: id, Valid: true}
	}
	rows, err := h.Q.ListAdminAudit(r.Context(), params)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load audit trail", nil)
		return
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, h.toEntry(row))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       entries,
		"pagination": map[string]int{"page": page.Page, "perPage": page.Limit},
	})
}

func (h *Handler) toEntry(row db.AdminAudit) Entry {
	e := Entry{
		ID:     row.ID,
		Actor:  row.Actor,
		Action: row.Action,
		Reason: row.Reason,
	}
	if row.OrderID.Valid {
		e.OrderCode = h.Codec.Encode(row.OrderID.Int64)
	}
	if row.FromStatus.Valid {
		e.From = string(row.FromStatus.OrderStatus)
	}
	if row.ToStatus.Valid {
		e.To = string(row.ToStatus.OrderStatus)
	}
	if row.CreatedAt.Valid {
		e.CreatedAt = row.CreatedAt.Time
	}
	return e
}
