package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-sewa/internal/db"
)

// Querier defines the database access required for analytics reports.
type Querier interface {
	ListDiscountUsage(ctx context.Context) ([]db.DiscountUsageRow, error)
	ListTopClients(ctx context.Context, limit int32) ([]db.TopClientRow, error)
}

// Service provides cached access to admin reporting queries.
type Service struct {
	Q   Querier
	R   *redis.Client
	TTL time.Duration
}

// DiscountImpact summarizes how a discount has performed.
type DiscountImpact struct {
	DiscountID  int64  `json:"discountId"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Redemptions int64  `json:"redemptions"`
	TotalAmount int64  `json:"totalAmount"`
}

// TopClient is one row of the highest-spenders report.
type TopClient struct {
	ClientID    int64  `json:"clientId"`
	Name        string `json:"name"`
	TotalOrders int32  `json:"totalOrders"`
	TotalSpent  int64  `json:"totalSpent"`
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// DiscountImpacts reports per-discount redemption counts and money given away.
func (s *Service) DiscountImpacts(ctx context.Context) ([]DiscountImpact, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	key := cacheKey("an", "discounts")
	var cached []DiscountImpact
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.ListDiscountUsage(ctx)
	if err != nil {
		return nil, err
	}
	impacts := make([]DiscountImpact, 0, len(rows))
	for _, row := range rows {
		impacts = append(impacts, DiscountImpact{
			DiscountID:  row.DiscountID,
			Code:        row.Code,
			Name:        row.Name,
			Redemptions: row.Redemptions,
			TotalAmount: row.TotalAmount,
		})
	}
	s.store(ctx, key, impacts)
	return impacts, nil
}

// TopClients returns the highest-spending clients.
func (s *Service) TopClients(ctx context.Context, limit int32) ([]TopClient, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	if limit <= 0 {
		limit = 10
	}
	key := cacheKey("an", "top", limit)
	var cached []TopClient
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.ListTopClients(ctx, limit)
	if err != nil {
		return nil, err
	}
	top := make([]TopClient, 0, len(rows))
	for _, row := range rows {
		name := row.FirstName
		if row.LastName != "" {
			name += " " + row.LastName
		}
		top = append(top, TopClient{
			ClientID:    row.ClientID,
			Name:        name,
			TotalOrders: row.TotalOrders,
			TotalSpent:  row.TotalSpent,
		})
	}
	s.store(ctx, key, top)
	return top, nil
}

func (s *Service) fromCache(ctx context.Context, key string, dst any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
