package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-sewa/internal/common"
	"github.com/noah-isme/backend-sewa/internal/discount"
)

const anonCookie = "sewa_cart"

// Handler exposes cart endpoints.
type Handler struct {
	Svc *Service
}

type ensureRequest struct {
	ClientID *int64 `json:"clientId"`
}

type windowRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type addItemRequest struct {
	ItemID int64 `json:"itemId"`
	Qty    int   `json:"qty"`
}

type qtyRequest struct {
	Qty int `json:"qty"`
}

type discountRequest struct {
	Code string `json:"code"`
}

// Ensure loads or creates the caller's cart, minting an anonymous cookie when
// no client is identified.
func (h *Handler) Ensure(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var req ensureRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	var anonID *string
	if req.ClientID == nil {
		id := anonIDFromRequest(r)
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     anonCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int((7 * 24 * time.Hour).Seconds()),
			})
		}
		anonID = &id
	}
	cart, err := h.Svc.EnsureCart(r.Context(), req.ClientID, anonID)
	if err != nil {
		writeCartError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"cartId": cart.ID}})
}

// Get prices the cart over its rental window.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cartID, err := cartIDParam(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart id", nil)
		return
	}
	preview, err := h.Svc.Quote(r.Context(), cartID)
	if err != nil {
		writeCartError(w, err)
		return
	}
	lines := make([]map[string]any, 0, len(preview.Lines))
	for _, l := range preview.Lines {
		lines = append(lines, map[string]any{
			"itemId":    l.ItemID,
			"name":      l.Name,
			"qty":       l.Qty,
			"unitPrice": l.UnitPrice,
		})
	}
	data := map[string]any{
		"cartId":   preview.Cart.ID,
		"lines":    lines,
		"days":     preview.Summary.Days,
		"subtotal": preview.Summary.Subtotal,
		"discount": preview.Summary.Discount,
		"total":    preview.Summary.Total,
	}
	if preview.Cart.StartDate.Valid {
		data["startDate"] = preview.Cart.StartDate.Time.Format("2006-01-02")
	}
	if preview.Cart.EndDate.Valid {
		data["endDate"] = preview.Cart.EndDate.Time.Format("2006-01-02")
	}
	if preview.Cart.DiscountCode.Valid {
		data["discountCode"] = preview.Cart.DiscountCode.String
	}
	if preview.DiscountIssue != "" {
		data["discountIssue"] = preview.DiscountIssue
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": data})
}

// SetWindow stores the rental period on the cart.
func (h *Handler) SetWindow(w http.ResponseWriter, r *http.Request) {
	cartID, err := cartIDParam(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart id", nil)
		return
	}
	var req windowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid startDate", nil)
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid endDate", nil)
		return
	}
	if err := h.Svc.SetWindow(r.Context(), cartID, start, end); err != nil {
		writeCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem adds an inventory item to the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := cartIDParam(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart id", nil)
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Svc.AddItem(r.Context(), cartID, req.ItemID, req.Qty); err != nil {
		writeCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateQty sets the quantity for a cart line.
func (h *Handler) UpdateQty(w http.ResponseWriter, r *http.Request) {
	cartID, err := cartIDParam(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart id", nil)
		return
	}
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return
	}
	var req qtyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Svc.UpdateQty(r.Context(), cartID, itemID, req.Qty); err != nil {
		writeCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveItem deletes a cart line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := cartIDParam(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart id", nil)
		return
	}
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return
	}
	if err := h.Svc.RemoveItem(r.Context(), cartID, itemID); err != nil {
		writeCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyDiscount validates and attaches a discount code.
func (h *Handler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	cartID, err := cartIDParam(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart id", nil)
		return
	}
	var req discountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	result, err := h.Svc.ApplyDiscount(r.Context(), cartID, req.Code)
	if err != nil {
		writeCartError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// RemoveDiscount clears an applied discount code.
func (h *Handler) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	cartID, err := cartIDParam(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart id", nil)
		return
	}
	if err := h.Svc.RemoveDiscount(r.Context(), cartID); err != nil {
		writeCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func cartIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "cartId"), 10, 64)
}

func anonIDFromRequest(r *http.Request) string {
	c, err := r.Cookie(anonCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func writeCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, ErrInvalidDateRange):
		common.JSONError(w, http.StatusBadRequest, "INVALID_DATE_RANGE", "rental end date precedes start date", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, discount.ErrNotFound),
		errors.Is(err, discount.ErrInactive),
		errors.Is(err, discount.ErrNotYetActive),
		errors.Is(err, discount.ErrExpired),
		errors.Is(err, discount.ErrAlreadyUsed):
		common.JSONError(w, http.StatusUnprocessableEntity, "DISCOUNT_REJECTED", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart operation failed", nil)
	}
}
