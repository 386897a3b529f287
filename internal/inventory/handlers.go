package inventory

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-sewa/internal/common"
	"github.com/noah-isme/backend-sewa/internal/db"
)

// Handler exposes inventory endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type itemPayload struct {
	Name            string `json:"name" validate:"required,min=1,max=200"`
	Category        string `json:"category" validate:"max=100"`
	PricePerDay     int64  `json:"pricePerDay" validate:"gte=0"`
	ReplacementCost int64  `json:"replacementCost" validate:"gte=0"`
	Stock           int32  `json:"stock" validate:"gte=0"`
	SortOrder       int32  `json:"sortOrder"`
}

func (h *Handler) validate(v any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(v)
}

// List returns inventory items.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "inventory service not configured", nil)
		return
	}
	page := common.ParsePagination(r, 50, 200)
	items, err := h.Svc.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("category")), int32(page.Limit), int32(page.Offset))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list items", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// Get returns a single inventory item.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := itemIDParam(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return
	}
	item, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeInventoryError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// Availability reports free units for an item over a rental window.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	id, err := itemIDParam(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return
	}
	start, err := time.Parse("2006-01-02", r.URL.Query().Get("start"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid start date", nil)
		return
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("end"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid end date", nil)
		return
	}
	if end.Before(start) {
		common.JSONError(w, http.StatusBadRequest, "INVALID_DATE_RANGE", "end date precedes start date", nil)
		return
	}
	availability, err := h.Svc.Availability(r.Context(), id, start, end)
	if err != nil {
		writeInventoryError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": availability})
}

// Create inserts a new inventory item.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload itemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	item, err := h.Svc.Create(r.Context(), db.InsertInventoryItemParams{
		Name:            strings.TrimSpace(payload.Name),
		Category:        strings.TrimSpace(payload.Category),
		PricePerDay:     payload.PricePerDay,
		ReplacementCost: payload.ReplacementCost,
		Stock:           payload.Stock,
		SortOrder:       payload.SortOrder,
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create item", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": item})
}

// Update mutates an inventory item.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := itemIDParam(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
		return
	}
	var payload itemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	item, err := h.Svc.Update(r.Context(), db.UpdateInventoryItemParams{
		ID:              id,
		Name:            strings.TrimSpace(payload.Name),
		Category:        strings.TrimSpace(payload.Category),
		PricePerDay:     payload.PricePerDay,
		ReplacementCost: payload.ReplacementCost,
		Stock:           payload.Stock,
		SortOrder:       payload.SortOrder,
	})
	if err != nil {
		writeInventoryError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

func itemIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
}

func writeInventoryError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "inventory item not found", nil)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "inventory operation failed", nil)
}
