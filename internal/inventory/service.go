package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-sewa/internal/db"
)

// ErrNotFound indicates the inventory item does not exist.
var ErrNotFound = errors.New("inventory item not found")

const listCachePrefix = "inventory:list:"

// Querier captures the database methods required by the inventory service.
type Querier interface {
	ListInventoryItems(ctx context.Context, arg db.ListInventoryItemsParams) ([]db.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id int64) (db.InventoryItem, error)
	InsertInventoryItem(ctx context.Context, arg db.InsertInventoryItemParams) (db.InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, arg db.UpdateInventoryItemParams) (db.InventoryItem, error)
	CommittedQty(ctx context.Context, arg db.CommittedQtyParams) (int64, error)
}

// Service orchestrates inventory queries, availability math and caching.
type Service struct {
	Q     Querier
	Cache *Cache
}

// Item is the transport representation of an inventory row.
type Item struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Category        string `json:"category,omitempty"`
	PricePerDay     int64  `json:"pricePerDay"`
	ReplacementCost int64  `json:"replacementCost"`
	Stock           int32  `json:"stock"`
}

// Availability reports how many units of an item remain free over a window.
type Availability struct {
	ItemID    int64 `json:"itemId"`
	Stock     int32 `json:"stock"`
	Committed int64 `json:"committed"`
	Available int64 `json:"available"`
}

func toItem(row db.InventoryItem) Item {
	return Item{
		ID:              row.ID,
		Name:            row.Name,
		Category:        row.Category,
		PricePerDay:     row.PricePerDay,
		ReplacementCost: row.ReplacementCost,
		Stock:           row.Stock,
	}
}

// List returns inventory items, optionally filtered by category. Results are
// cached; admin writes invalidate the whole listing prefix.
func (s *Service) List(ctx context.Context, category string, limit, offset int32) ([]Item, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("inventory service not configured")
	}
	key := fmt.Sprintf("%s%s:%d:%d", listCachePrefix, category, limit, offset)
	var cached []Item
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	rows, err := s.Q.ListInventoryItems(ctx, db.ListInventoryItemsParams{
		Category: category,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, toItem(row))
	}
	_ = s.Cache.SetJSON(ctx, key, items)
	return items, nil
}

// Get returns a single item.
func (s *Service) Get(ctx context.Context, id int64) (Item, error) {
	if s == nil || s.Q == nil {
		return Item{}, errors.New("inventory service not configured")
	}
	row, err := s.Q.GetInventoryItem(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	return toItem(row), nil
}

// Availability computes free units for an item over the given rental window:
// total stock minus units committed to overlapping non-closed orders.
func (s *Service) Availability(ctx context.Context, id int64, start, end time.Time) (Availability, error) {
	if s == nil || s.Q == nil {
		return Availability{}, errors.New("inventory service not configured")
	}
	row, err := s.Q.GetInventoryItem(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Availability{}, ErrNotFound
		}
		return Availability{}, err
	}
	committed, err := s.Q.CommittedQty(ctx, db.CommittedQtyParams{
		ItemID:    id,
		StartDate: pgtype.Date{Time: start, Valid: true},
		EndDate:   pgtype.Date{Time: end, Valid: true},
	})
	if err != nil {
		return Availability{}, err
	}
	available := int64(row.Stock) - committed
	if available < 0 {
		available = 0
	}
	return Availability{
		ItemID:    id,
		Stock:     row.Stock,
		Committed: committed,
		Available: available,
	}, nil
}

// Create inserts a new inventory item and invalidates listings.
func (s *Service) Create(ctx context.Context, arg db.InsertInventoryItemParams) (Item, error) {
	if s == nil || s.Q == nil {
		return Item{}, errors.New("inventory service not configured")
	}
	row, err := s.Q.InsertInventoryItem(ctx, arg)
	if err != nil {
		return Item{}, err
	}
	_ = s.Cache.InvalidatePrefix(ctx, listCachePrefix)
	return toItem(row), nil
}

// Update mutates an inventory item and invalidates listings.
func (s *Service) Update(ctx context.Context, arg db.UpdateInventoryItemParams) (Item, error) {
	if s == nil || s.Q == nil {
		return Item{}, errors.New("inventory service not configured")
	}
	row, err := s.Q.UpdateInventoryItem(ctx, arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	_ = s.Cache.InvalidatePrefix(ctx, listCachePrefix)
	return toItem(row), nil
}
