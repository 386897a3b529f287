package order

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-sewa/internal/common"
	"github.com/noah-isme/backend-sewa/internal/db"
)

// Handler exposes the public order endpoints.
type Handler struct {
	Q     *db.Queries
	Svc   *Service
	Codec Codec
	Now   func() time.Time
}

type itemView struct {
	ID              int64  `json:"id"`
	ItemID          int64  `json:"itemId"`
	Name            string `json:"name"`
	Qty             int32  `json:"qty"`
	UnitPrice       int64  `json:"unitPrice"`
	ReplacementCost int64  `json:"replacementCost"`
	ReturnedQty     int32  `json:"returnedQty"`
	LostQty         int32  `json:"lostQty"`
	DamagedQty      int32  `json:"damagedQty"`
}

type orderView struct {
	Code          string     `json:"code"`
	ClientID      int64      `json:"clientId"`
	ClientName    string     `json:"clientName"`
	ClientPhone   string     `json:"clientPhone,omitempty"`
	Status        string     `json:"status"`
	StartDate     string     `json:"startDate"`
	EndDate       string     `json:"endDate"`
	Total         int64      `json:"total"`
	Paid          int64      `json:"paid"`
	Penalty       int64      `json:"penalty"`
	DiscountCode  *string    `json:"discountCode,omitempty"`
	DiscountName  *string    `json:"discountName,omitempty"`
	ClosedAt      *time.Time `json:"closedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	Items         []itemView `json:"items,omitempty"`
}

const dateLayout = "2006-01-02"

func (h *Handler) view(ord db.Order, items []db.OrderItem) orderView {
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	v := orderView{
		Code:        h.Codec.Encode(ord.ID),
		ClientID:    ord.ClientID,
		ClientName:  ord.ClientName,
		ClientPhone: ord.ClientPhone,
		Status:      string(EffectiveStatus(ord.Status, ord.StartDate.Time, now)),
		StartDate:   ord.StartDate.Time.Format(dateLayout),
		EndDate:     ord.EndDate.Time.Format(dateLayout),
		Total:       ord.Total,
		Paid:        ord.Paid,
		Penalty:     ord.Penalty,
		CreatedAt:   ord.CreatedAt.Time,
	}
	v.DiscountCode = nullableText(ord.DiscountCode)
	v.DiscountName = nullableText(ord.DiscountName)
	if ord.ClosedAt.Valid {
		t := ord.ClosedAt.Time
		v.ClosedAt = &t
	}
	for _, it := range items {
		v.Items = append(v.Items, itemView{
			ID:              it.ID,
			ItemID:          it.ItemID,
			Name:            it.Name,
			Qty:             it.Qty,
			UnitPrice:       it.UnitPrice,
			ReplacementCost: it.ReplacementCost,
			ReturnedQty:     it.ReturnedQty,
			LostQty:         it.LostQty,
			DamagedQty:      it.DamagedQty,
		})
	}
	return v
}

// Get returns a single order addressed by its public code.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order queries not configured", nil)
		return
	}
	id, err := h.Codec.Decode(chi.URLParam(r, "code"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	ord, err := h.Q.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	items, err := h.Q.ListOrderItems(r.Context(), ord.ID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order items", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.view(ord, items)})
}

// List searches orders by status, client and free text.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order queries not configured", nil)
		return
	}
	page := common.ParsePagination(r, 20, 100)
	params := db.SearchOrdersParams{
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		Limit:  int32(page.Limit),
		Offset: int32(page.Offset),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		params.Status = db.NullOrderStatus{OrderStatus: db.OrderStatus(strings.ToUpper(raw)), Valid: true}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("clientId")); raw != "" {
		clientID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid client id", nil)
			return
		}
		params.ClientID = pgtype.Int8{Int64: clientID, Valid: true}
	}
	total, err := h.Q.CountSearchOrders(r.Context(), params)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count orders", nil)
		return
	}
	orders, err := h.Q.SearchOrders(r.Context(), params)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	views := make([]orderView, 0, len(orders))
	for _, ord := range orders {
		views = append(views, h.view(ord, nil))
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": views,
		"pagination": map[string]any{
			"page":       page.Page,
			"limit":      page.Limit,
			"totalItems": total,
		},
	})
}

// Cancel lets a client withdraw an order that has not started yet. The state
// machine limits it to pending and approved orders.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	id, err := h.Codec.Decode(chi.URLParam(r, "code"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	err = h.Svc.UpdateStatus(r.Context(), id, db.OrderStatusCanceled, "client", "client cancellation", false)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		case errors.Is(err, ErrInvalidTransition):
			common.JSONError(w, http.StatusConflict, "INVALID_STATE", "order can no longer be canceled", nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to cancel order", nil)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nullableText(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
