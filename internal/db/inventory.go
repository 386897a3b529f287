package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const inventoryColumns = `id, name, category, price_per_day, replacement_cost, stock, sort_order, created_at, updated_at`

func scanInventoryItem(row interface{ Scan(...interface{}) error }) (InventoryItem, error) {
	var it InventoryItem
	err := row.Scan(
		&it.ID, &it.Name, &it.Category, &it.PricePerDay, &it.ReplacementCost,
		&it.Stock, &it.SortOrder, &it.CreatedAt, &it.UpdatedAt,
	)
	return it, err
}

const getInventoryItem = `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE id = $1`

func (q *Queries) GetInventoryItem(ctx context.Context, id int64) (InventoryItem, error) {
	return scanInventoryItem(q.db.QueryRow(ctx, getInventoryItem, id))
}

const getInventoryItemForUpdate = getInventoryItem + ` FOR UPDATE`

func (q *Queries) GetInventoryItemForUpdate(ctx context.Context, id int64) (InventoryItem, error) {
	return scanInventoryItem(q.db.QueryRow(ctx, getInventoryItemForUpdate, id))
}

type ListInventoryItemsParams struct {
	Category string
	Limit    int32
	Offset   int32
}

const listInventoryItems = `
SELECT ` + inventoryColumns + `
FROM inventory_items
WHERE ($1 = '' OR category = $1)
ORDER BY sort_order, name
LIMIT $2 OFFSET $3`

func (q *Queries) ListInventoryItems(ctx context.Context, arg ListInventoryItemsParams) ([]InventoryItem, error) {
	rows, err := q.db.Query(ctx, listInventoryItems, arg.Category, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InventoryItem
	for rows.Next() {
		it, err := scanInventoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type InsertInventoryItemParams struct {
	Name            string
	Category        string
	PricePerDay     int64
	ReplacementCost int64
	Stock           int32
	SortOrder       int32
}

const insertInventoryItem = `
INSERT INTO inventory_items (name, category, price_per_day, replacement_cost, stock, sort_order)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + inventoryColumns

func (q *Queries) InsertInventoryItem(ctx context.Context, arg InsertInventoryItemParams) (InventoryItem, error) {
	return scanInventoryItem(q.db.QueryRow(ctx, insertInventoryItem,
		arg.Name, arg.Category, arg.PricePerDay, arg.ReplacementCost, arg.Stock, arg.SortOrder,
	))
}

type UpdateInventoryItemParams struct {
	ID              int64
	Name            string
	Category        string
	PricePerDay     int64
	ReplacementCost int64
	Stock           int32
	SortOrder       int32
}

const updateInventoryItem = `
UPDATE inventory_items
SET name = $2, category = $3, price_per_day = $4, replacement_cost = $5,
    stock = $6, sort_order = $7, updated_at = now()
WHERE id = $1
RETURNING ` + inventoryColumns

func (q *Queries) UpdateInventoryItem(ctx context.Context, arg UpdateInventoryItemParams) (InventoryItem, error) {
	return scanInventoryItem(q.db.QueryRow(ctx, updateInventoryItem,
		arg.ID, arg.Name, arg.Category, arg.PricePerDay, arg.ReplacementCost,
		arg.Stock, arg.SortOrder,
	))
}

type CommittedQtyParams struct {
	ItemID    int64
	StartDate pgtype.Date
	EndDate   pgtype.Date
}

// Orders in any pre-return state hold their quantities against stock for the
// whole rental window.
const committedQty = `
SELECT COALESCE(sum(oi.qty), 0)
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE oi.item_id = $1
  AND o.status IN ('PENDING', 'APPROVED', 'ACTIVE')
  AND o.start_date <= $3
  AND o.end_date >= $2`

func (q *Queries) CommittedQty(ctx context.Context, arg CommittedQtyParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, committedQty, arg.ItemID, arg.StartDate, arg.EndDate).Scan(&n)
	return n, err
}
