package inventory_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-sewa/internal/db"
	"github.com/noah-isme/backend-sewa/internal/inventory"
)

type fakeInventoryQueries struct {
	items     map[int64]db.InventoryItem
	committed map[int64]int64
	listCalls int
}

func newFakeInventoryQueries() *fakeInventoryQueries {
	return &fakeInventoryQueries{
		items: map[int64]db.InventoryItem{
			1: {ID: 1, Name: "Canon EOS R6", Category: "camera", PricePerDay: 250000, ReplacementCost: 42000000, Stock: 3},
			2: {ID: 2, Name: "Godox SL60W", Category: "lighting", PricePerDay: 80000, ReplacementCost: 2500000, Stock: 5},
		},
		committed: map[int64]int64{},
	}
}

func (f *fakeInventoryQueries) ListInventoryItems(ctx context.Context, arg db.ListInventoryItemsParams) ([]db.InventoryItem, error) {
	f.listCalls++
	out := make([]db.InventoryItem, 0, len(f.items))
	for _, item := range f.items {
		if arg.Category != "" && item.Category != arg.Category {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeInventoryQueries) GetInventoryItem(ctx context.Context, id int64) (db.InventoryItem, error) {
	item, ok := f.items[id]
	if !ok {
		return db.InventoryItem{}, pgx.ErrNoRows
	}
	return item, nil
}

func (f *fakeInventoryQueries) InsertInventoryItem(ctx context.Context, arg db.InsertInventoryItemParams) (db.InventoryItem, error) {
	id := int64(len(f.items) + 1)
	item := db.InventoryItem{
		ID:              id,
		Name:            arg.Name,
		Category:        arg.Category,
		PricePerDay:     arg.PricePerDay,
		ReplacementCost: arg.ReplacementCost,
		Stock:           arg.Stock,
	}
	f.items[id] = item
	return item, nil
}

func (f *fakeInventoryQueries) UpdateInventoryItem(ctx context.Context, arg db.UpdateInventoryItemParams) (db.InventoryItem, error) {
	item, ok := f.items[arg.ID]
	if !ok {
		return db.InventoryItem{}, pgx.ErrNoRows
	}
	item.Name = arg.Name
	item.Category = arg.Category
	item.PricePerDay = arg.PricePerDay
	item.ReplacementCost = arg.ReplacementCost
	item.Stock = arg.Stock
	f.items[arg.ID] = item
	return item, nil
}

func (f *fakeInventoryQueries) CommittedQty(ctx context.Context, arg db.CommittedQtyParams) (int64, error) {
	return f.committed[arg.ItemID], nil
}

func newTestCache(t *testing.T) *inventory.Cache {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return inventory.NewCache(client, time.Minute)
}

func TestListCachesResults(t *testing.T) {
	queries := newFakeInventoryQueries()
	svc := &inventory.Service{Q: queries, Cache: newTestCache(t)}

	first, err := svc.List(context.Background(), "camera", 50, 0)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, "Canon EOS R6", first[0].Name)

	second, err := svc.List(context.Background(), "camera", 50, 0)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, queries.listCalls, "second read should hit the cache")
}

func TestWriteInvalidatesListings(t *testing.T) {
	queries := newFakeInventoryQueries()
	svc := &inventory.Service{Q: queries, Cache: newTestCache(t)}

	_, err := svc.List(context.Background(), "", 50, 0)
	require.NoError(t, err)
	require.Equal(t, 1, queries.listCalls)

	_, err = svc.Create(context.Background(), db.InsertInventoryItemParams{Name: "DJI Ronin", Category: "gimbal", PricePerDay: 120000, Stock: 2})
	require.NoError(t, err)

	items, err := svc.List(context.Background(), "", 50, 0)
	require.NoError(t, err)
	require.Equal(t, 2, queries.listCalls, "listing cache should have been invalidated")
	require.Len(t, items, 3)
}

func TestAvailabilitySubtractsCommittedUnits(t *testing.T) {
	queries := newFakeInventoryQueries()
	queries.committed[1] = 2
	svc := &inventory.Service{Q: queries}

	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)
	got, err := svc.Availability(context.Background(), 1, start, end)
	require.NoError(t, err)
	require.Equal(t, int32(3), got.Stock)
	require.Equal(t, int64(2), got.Committed)
	require.Equal(t, int64(1), got.Available)
}

func TestAvailabilityClampsAtZero(t *testing.T) {
	queries := newFakeInventoryQueries()
	queries.committed[2] = 9
	svc := &inventory.Service{Q: queries}

	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	got, err := svc.Availability(context.Background(), 2, start, start.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Equal(t, int64(0), got.Available)
}

func TestAvailabilityUnknownItem(t *testing.T) {
	svc := &inventory.Service{Q: newFakeInventoryQueries()}
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Availability(context.Background(), 404, start, start)
	require.ErrorIs(t, err, inventory.ErrNotFound)
}

func TestGetUnknownItem(t *testing.T) {
	svc := &inventory.Service{Q: newFakeInventoryQueries()}
	_, err := svc.Get(context.Background(), 404)
	require.ErrorIs(t, err, inventory.ErrNotFound)
}

func TestListWithoutCache(t *testing.T) {
	queries := newFakeInventoryQueries()
	svc := &inventory.Service{Q: queries}
	for i := 0; i < 2; i++ {
		items, err := svc.List(context.Background(), "lighting", 50, 0)
		require.NoError(t, err)
		require.Len(t, items, 1)
	}
	require.Equal(t, 2, queries.listCalls)
}
