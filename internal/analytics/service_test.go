package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-sewa/internal/analytics"
	"github.com/noah-isme/backend-sewa/internal/db"
)

type stubQueries struct {
	usageCalls int
	topCalls   int
}

func (s *stubQueries) ListDiscountUsage(ctx context.Context) ([]db.DiscountUsageRow, error) {
	s.usageCalls++
	return []db.DiscountUsageRow{
		{DiscountID: 1, Name: "Grand Opening", Code: "OPENING10", Redemptions: 4, TotalAmount: 240000},
	}, nil
}

func (s *stubQueries) ListTopClients(ctx context.Context, limit int32) ([]db.TopClientRow, error) {
	s.topCalls++
	return []db.TopClientRow{
		{ClientID: 7, FirstName: "Dina", LastName: "Putri", TotalOrders: 5, TotalSpent: 1750000},
	}, nil
}

func newCachedService(t *testing.T) (*analytics.Service, *stubQueries) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	queries := &stubQueries{}
	return &analytics.Service{Q: queries, R: rdb, TTL: time.Minute}, queries
}

func TestDiscountImpactsCached(t *testing.T) {
	svc, queries := newCachedService(t)
	first, err := svc.DiscountImpacts(context.Background())
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if len(first) != 1 || first[0].Code != "OPENING10" || first[0].TotalAmount != 240000 {
		t.Fatalf("unexpected impacts: %+v", first)
	}
	if _, err := svc.DiscountImpacts(context.Background()); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if queries.usageCalls != 1 {
		t.Fatalf("expected 1 DB call, got %d", queries.usageCalls)
	}
}

func TestTopClientsJoinsName(t *testing.T) {
	svc, queries := newCachedService(t)
	top, err := svc.TopClients(context.Background(), 10)
	if err != nil {
		t.Fatalf("TopClients: %v", err)
	}
	if len(top) != 1 || top[0].Name != "Dina Putri" {
		t.Fatalf("unexpected rows: %+v", top)
	}
	if _, err := svc.TopClients(context.Background(), 10); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if queries.topCalls != 1 {
		t.Fatalf("expected 1 DB call, got %d", queries.topCalls)
	}
}
