package discount

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-sewa/internal/common"
	"github.com/noah-isme/backend-sewa/internal/db"
	"github.com/noah-isme/backend-sewa/internal/obs"
)

// AdminQuerier captures the database methods used by the management endpoints.
type AdminQuerier interface {
	GetDiscountByCode(ctx context.Context, code string) (db.Discount, error)
	InsertDiscount(ctx context.Context, arg db.InsertDiscountParams) (db.Discount, error)
	UpdateDiscount(ctx context.Context, arg db.UpdateDiscountParams) (db.Discount, error)
	ListDiscounts(ctx context.Context, arg db.ListDiscountsParams) ([]db.Discount, error)
	ListDiscountUsage(ctx context.Context) ([]db.DiscountUsageRow, error)
}

// Handler exposes discount management and validation endpoints.
type Handler struct {
	Q   AdminQuerier
	Svc *Service
}

type discountPayload struct {
	Name     string     `json:"name"`
	Code     string     `json:"code"`
	Kind     string     `json:"kind"`
	Value    int64      `json:"value"`
	Duration string     `json:"duration"`
	StartsAt *time.Time `json:"startsAt"`
	EndsAt   *time.Time `json:"endsAt"`
	Active   *bool      `json:"active"`
	Approval string     `json:"approval"`
}

type validateRequest struct {
	Code     string `json:"code"`
	Subtotal int64  `json:"subtotal"`
	ClientID *int64 `json:"clientId"`
}

// Create inserts a new discount rule.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount queries not configured", nil)
		return
	}
	var payload discountPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	params, err := buildCreateParams(payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	row, err := h.Q.InsertDiscount(r.Context(), params)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "discount code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create discount", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toView(row)})
}

// Update mutates an existing discount identified by code. The code and kind
// are immutable once redemptions may reference them.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount queries not configured", nil)
		return
	}
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	var payload discountPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	existing, err := h.Q.GetDiscountByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "discount not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load discount", nil)
		return
	}
	params, err := buildUpdateParams(existing, payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	row, err := h.Q.UpdateDiscount(r.Context(), params)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update discount", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toView(row)})
}

// List returns discounts ordered by creation time.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount queries not configured", nil)
		return
	}
	page := common.ParsePagination(r, 20, 100)
	rows, err := h.Q.ListDiscounts(r.Context(), db.ListDiscountsParams{
		Limit:  int32(page.Limit),
		Offset: int32(page.Offset),
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list discounts", nil)
		return
	}
	views := make([]discountView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toView(row))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": views})
}

// Validate evaluates a discount code against a subtotal without mutating state.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount service not configured", nil)
		return
	}
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	result, err := h.Svc.Validate(r.Context(), req.Code, req.ClientID, req.Subtotal)
	if err != nil {
		status, code := statusFor(err)
		if obs.DiscountValidationsTotal != nil {
			obs.DiscountValidationsTotal.WithLabelValues(code).Inc()
		}
		common.JSONError(w, status, code, err.Error(), nil)
		return
	}
	if obs.DiscountValidationsTotal != nil {
		obs.DiscountValidationsTotal.WithLabelValues("OK").Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Usage reports per-discount redemption counts and granted totals.
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount queries not configured", nil)
		return
	}
	rows, err := h.Q.ListDiscountUsage(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load usage report", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ErrInactive):
		return http.StatusUnprocessableEntity, "DISCOUNT_INACTIVE"
	case errors.Is(err, ErrNotYetActive):
		return http.StatusUnprocessableEntity, "DISCOUNT_NOT_YET_ACTIVE"
	case errors.Is(err, ErrExpired):
		return http.StatusUnprocessableEntity, "DISCOUNT_EXPIRED"
	case errors.Is(err, ErrAlreadyUsed):
		return http.StatusUnprocessableEntity, "DISCOUNT_ALREADY_USED"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

type discountView struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Code      string     `json:"code"`
	Kind      string     `json:"kind"`
	Value     int64      `json:"value"`
	Duration  string     `json:"duration"`
	StartsAt  *time.Time `json:"startsAt,omitempty"`
	EndsAt    *time.Time `json:"endsAt,omitempty"`
	Active    bool       `json:"active"`
	Approval  string     `json:"approval"`
	UsedCount int32      `json:"usedCount"`
}

func toView(d db.Discount) discountView {
	v := discountView{
		ID:        d.ID,
		Name:      d.Name,
		Code:      d.Code,
		Kind:      string(d.Kind),
		Value:     d.Value,
		Duration:  string(d.Duration),
		Active:    d.Active,
		Approval:  d.Approval,
		UsedCount: d.UsedCount,
	}
	if d.StartsAt.Valid {
		v.StartsAt = &d.StartsAt.Time
	}
	if d.EndsAt.Valid {
		v.EndsAt = &d.EndsAt.Time
	}
	return v
}

func buildCreateParams(payload discountPayload) (db.InsertDiscountParams, error) {
	code := strings.ToUpper(strings.TrimSpace(payload.Code))
	if code == "" {
		return db.InsertDiscountParams{}, errors.New("code is required")
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		name = code
	}
	kind := db.DiscountKind(strings.TrimSpace(payload.Kind))
	switch kind {
	case db.DiscountKindFixed, db.DiscountKindPercentage:
	default:
		return db.InsertDiscountParams{}, errors.New("invalid kind")
	}
	if payload.Value < 0 {
		return db.InsertDiscountParams{}, errors.New("value cannot be negative")
	}
	if kind == db.DiscountKindPercentage && payload.Value > 100 {
		return db.InsertDiscountParams{}, errors.New("percentage value cannot exceed 100")
	}
	duration := db.DiscountDuration(strings.TrimSpace(payload.Duration))
	if duration == "" {
		duration = db.DiscountDurationUnlimited
	}
	switch duration {
	case db.DiscountDurationOneTime, db.DiscountDurationUnlimited, db.DiscountDurationPeriod:
	default:
		return db.InsertDiscountParams{}, errors.New("invalid duration")
	}
	if duration == db.DiscountDurationPeriod && (payload.StartsAt == nil || payload.EndsAt == nil) {
		return db.InsertDiscountParams{}, errors.New("period discounts require startsAt and endsAt")
	}
	active := true
	if payload.Active != nil {
		active = *payload.Active
	}
	approval := strings.TrimSpace(payload.Approval)
	if approval == "" {
		approval = "auto"
	}
	return db.InsertDiscountParams{
		Name:     name,
		Code:     code,
		Kind:     kind,
		Value:    payload.Value,
		Duration: duration,
		StartsAt: timeToNullable(payload.StartsAt),
		EndsAt:   timeToNullable(payload.EndsAt),
		Active:   active,
		Approval: approval,
	}, nil
}

func buildUpdateParams(existing db.Discount, payload discountPayload) (db.UpdateDiscountParams, error) {
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		name = existing.Name
	}
	if payload.Value < 0 {
		return db.UpdateDiscountParams{}, errors.New("value cannot be negative")
	}
	if existing.Kind == db.DiscountKindPercentage && payload.Value > 100 {
		return db.UpdateDiscountParams{}, errors.New("percentage value cannot exceed 100")
	}
	duration := db.DiscountDuration(strings.TrimSpace(payload.Duration))
	if duration == "" {
		duration = existing.Duration
	}
	switch duration {
	case db.DiscountDurationOneTime, db.DiscountDurationUnlimited, db.DiscountDurationPeriod:
	default:
		return db.UpdateDiscountParams{}, errors.New("invalid duration")
	}
	active := existing.Active
	if payload.Active != nil {
		active = *payload.Active
	}
	approval := strings.TrimSpace(payload.Approval)
	if approval == "" {
		approval = existing.Approval
	}
	startsAt := existing.StartsAt
	if payload.StartsAt != nil {
		startsAt = timeToNullable(payload.StartsAt)
	}
	endsAt := existing.EndsAt
	if payload.EndsAt != nil {
		endsAt = timeToNullable(payload.EndsAt)
	}
	return db.UpdateDiscountParams{
		ID:       existing.ID,
		Name:     name,
		Value:    payload.Value,
		Duration: duration,
		StartsAt: startsAt,
		EndsAt:   endsAt,
		Active:   active,
		Approval: approval,
	}, nil
}

func timeToNullable(v *time.Time) pgtype.Timestamptz {
	if v == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *v, Valid: true}
}
