package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-sewa/internal/db"
)

type stubQueries struct {
	carts   map[int64]db.Cart
	lines   map[int64][]db.CartLine
	items   map[int64]db.InventoryItem
	deleted []int64
}

func newStubQueries() *stubQueries {
	return &stubQueries{
		carts: map[int64]db.Cart{},
		lines: map[int64][]db.CartLine{},
		items: map[int64]db.InventoryItem{},
	}
}

func (s *stubQueries) GetCart(_ context.Context, id int64) (db.Cart, error) {
	if c, ok := s.carts[id]; ok {
		return c, nil
	}
	return db.Cart{}, pgx.ErrNoRows
}

func (s *stubQueries) GetCartByClient(context.Context, int64) (db.Cart, error) {
	return db.Cart{}, pgx.ErrNoRows
}

func (s *stubQueries) GetCartByAnonID(context.Context, string) (db.Cart, error) {
	return db.Cart{}, pgx.ErrNoRows
}

func (s *stubQueries) InsertCart(_ context.Context, arg db.InsertCartParams) (db.Cart, error) {
	c := db.Cart{ID: int64(len(s.carts) + 1), ClientID: arg.ClientID, AnonID: arg.AnonID}
	s.carts[c.ID] = c
	return c, nil
}

func (s *stubQueries) TouchCart(context.Context, db.TouchCartParams) error { return nil }

func (s *stubQueries) UpdateCartWindow(context.Context, db.UpdateCartWindowParams) error {
	return nil
}

func (s *stubQueries) SetCartDiscount(context.Context, db.SetCartDiscountParams) error {
	return nil
}

func (s *stubQueries) ListCartLines(_ context.Context, cartID int64) ([]db.CartLine, error) {
	return s.lines[cartID], nil
}

func (s *stubQueries) UpsertCartLine(_ context.Context, arg db.UpsertCartLineParams) error {
	for i, line := range s.lines[arg.CartID] {
		if line.ItemID == arg.ItemID {
			s.lines[arg.CartID][i].Qty = arg.Qty
			return nil
		}
	}
	s.lines[arg.CartID] = append(s.lines[arg.CartID], db.CartLine{
		CartID:    arg.CartID,
		ItemID:    arg.ItemID,
		Name:      arg.Name,
		Qty:       arg.Qty,
		UnitPrice: arg.UnitPrice,
	})
	return nil
}

func (s *stubQueries) DeleteCartLine(_ context.Context, arg db.DeleteCartLineParams) error {
	s.deleted = append(s.deleted, arg.ItemID)
	kept := s.lines[arg.CartID][:0]
	for _, line := range s.lines[arg.CartID] {
		if line.ItemID != arg.ItemID {
			kept = append(kept, line)
		}
	}
	s.lines[arg.CartID] = kept
	return nil
}

func (s *stubQueries) GetInventoryItem(_ context.Context, id int64) (db.InventoryItem, error) {
	if it, ok := s.items[id]; ok {
		return it, nil
	}
	return db.InventoryItem{}, pgx.ErrNoRows
}

func TestAddItemKeepsSnapshotPrice(t *testing.T) {
	q := newStubQueries()
	q.items[7] = db.InventoryItem{ID: 7, Name: "Canon EOS R5 Body", PricePerDay: 450000}
	svc := &Service{Q: q}

	if err := svc.AddItem(context.Background(), 1, 7, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	// Repricing the catalog must not move lines already in the cart.
	q.items[7] = db.InventoryItem{ID: 7, Name: "Canon EOS R5 Body", PricePerDay: 500000}
	if err := svc.AddItem(context.Background(), 1, 7, 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	line := q.lines[1][0]
	if line.Qty != 3 || line.UnitPrice != 450000 {
		t.Fatalf("expected qty 3 at snapshot price 450000, got qty %d price %d", line.Qty, line.UnitPrice)
	}
}

func TestUpdateQtySetsAbsoluteQuantity(t *testing.T) {
	q := newStubQueries()
	q.lines[1] = []db.CartLine{{CartID: 1, ItemID: 7, Name: "Tripod", Qty: 2, UnitPrice: 50000}}
	svc := &Service{Q: q}

	if err := svc.UpdateQty(context.Background(), 1, 7, 5); err != nil {
		t.Fatalf("UpdateQty: %v", err)
	}
	if got := q.lines[1][0].Qty; got != 5 {
		t.Fatalf("expected qty 5, got %d", got)
	}
}

func TestUpdateQtyZeroDeletesLine(t *testing.T) {
	q := newStubQueries()
	q.lines[1] = []db.CartLine{{CartID: 1, ItemID: 7, Name: "Tripod", Qty: 2, UnitPrice: 50000}}
	svc := &Service{Q: q}

	if err := svc.UpdateQty(context.Background(), 1, 7, 0); err != nil {
		t.Fatalf("UpdateQty: %v", err)
	}
	if len(q.lines[1]) != 0 {
		t.Fatalf("expected line removed, got %d lines", len(q.lines[1]))
	}
	if len(q.deleted) != 1 || q.deleted[0] != 7 {
		t.Fatalf("expected delete of item 7, got %v", q.deleted)
	}
}

func TestUpdateQtyRejectsNegative(t *testing.T) {
	q := newStubQueries()
	q.lines[1] = []db.CartLine{{CartID: 1, ItemID: 7, Qty: 2}}
	svc := &Service{Q: q}

	if err := svc.UpdateQty(context.Background(), 1, 7, -1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateQtyUnknownLine(t *testing.T) {
	svc := &Service{Q: newStubQueries()}
	if err := svc.UpdateQty(context.Background(), 1, 99, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
