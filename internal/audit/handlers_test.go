package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-sewa/internal/db"
	"github.com/noah-isme/backend-sewa/internal/order"
)

type stubAuditQueries struct {
	rows    []db.AdminAudit
	gotArgs db.ListAdminAuditParams
}

func (s *stubAuditQueries) ListAdminAudit(_ context.Context, arg db.ListAdminAuditParams) ([]db.AdminAudit, error) {
	s.gotArgs = arg
	return s.rows, nil
}

func TestListRendersEntries(t *testing.T) {
	codec := order.Codec{Key: 0xBEEF}
	queries := &stubAuditQueries{rows: []db.AdminAudit{{
		ID:         1,
		Actor:      "staff-1",
		Action:     "status_override",
		OrderID:    pgtype.Int8{Int64: 42, Valid: true},
		FromStatus: db.NullOrderStatus{OrderStatus: db.OrderStatusPending, Valid: true},
		ToStatus:   db.NullOrderStatus{OrderStatus: db.OrderStatusCanceled, Valid: true},
		Reason:     "client no-show",
		CreatedAt:  pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}}}
	h := &Handler{Q: queries, Codec: codec}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []Entry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "status_override", resp.Data[0].Action)
	require.Equal(t, "PENDING", resp.Data[0].From)
	require.Equal(t, "CANCELED", resp.Data[0].To)
	require.Equal(t, codec.Encode(42), resp.Data[0].OrderCode)
	require.False(t, queries.gotArgs.OrderID.Valid)
}

func TestListFiltersByOrderCode(t *testing.T) {
	codec := order.Codec{Key: 0xBEEF}
	queries := &stubAuditQueries{}
	h := &Handler{Q: queries, Codec: codec}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit?order="+codec.Encode(42), nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, queries.gotArgs.OrderID.Valid)
	require.Equal(t, int64(42), queries.gotArgs.OrderID.Int64)
}

func TestListRejectsBadOrderCode(t *testing.T) {
	h := &Handler{Q: &stubAuditQueries{}, Codec: order.Codec{Key: 0xBEEF}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit?order=garbage", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
