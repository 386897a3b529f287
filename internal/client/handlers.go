package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-sewa/internal/common"
)

// Handler exposes REST endpoints for client records.
type Handler struct {
	Service *Service
}

type clientRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// Search handles GET /api/v1/clients.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "client service not configured", nil)
		return
	}
	page := common.ParsePagination(r, 20, 100)
	clients, err := h.Service.Search(r.Context(), r.URL.Query().Get("q"), int32(page.Limit), int32(page.Offset))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       clients,
		"pagination": map[string]int{"page": page.Page, "perPage": page.Limit},
	})
}

// Get handles GET /api/v1/clients/{clientId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := clientIDParam(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid client id", nil)
		return
	}
	c, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// Create handles POST /api/v1/clients.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "client service not configured", nil)
		return
	}
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	c, err := h.Service.Create(r.Context(), Input(req))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": c})
}

// Update handles PATCH /api/v1/clients/{clientId}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := clientIDParam(r)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid client id", nil)
		return
	}
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	c, err := h.Service.Update(r.Context(), id, Input(req))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// Top handles GET /api/v1/clients/top.
func (h *Handler) Top(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "client service not configured", nil)
		return
	}
	limit := int32(common.AtoiDefault(r.URL.Query().Get("limit"), 10))
	top, err := h.Service.Top(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": top})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}

func clientIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "clientId"), 10, 64)
}
