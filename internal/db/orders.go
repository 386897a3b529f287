package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, client_id, client_name, client_phone, client_email, status, start_date, end_date, closed_at, total, paid, penalty, discount_code, discount_name, discount_kind, discount_value, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.ClientID, &o.ClientName, &o.ClientPhone, &o.ClientEmail,
		&o.Status, &o.StartDate, &o.EndDate, &o.ClosedAt,
		&o.Total, &o.Paid, &o.Penalty,
		&o.DiscountCode, &o.DiscountName, &o.DiscountKind, &o.DiscountValue,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id int64) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = getOrder + ` FOR UPDATE`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

type InsertOrderParams struct {
	ClientID      int64
	ClientName    string
	ClientPhone   string
	ClientEmail   string
	Status        OrderStatus
	StartDate     pgtype.Date
	EndDate       pgtype.Date
	Total         int64
	Paid          int64
	DiscountCode  pgtype.Text
	DiscountName  pgtype.Text
	DiscountKind  NullDiscountKind
	DiscountValue pgtype.Int8
}

const insertOrder = `
INSERT INTO orders (client_id, client_name, client_phone, client_email, status, start_date, end_date, total, paid, discount_code, discount_name, discount_kind, discount_value)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + orderColumns

func (q *Queries) InsertOrder(ctx context.Context, arg InsertOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, insertOrder,
		arg.ClientID, arg.ClientName, arg.ClientPhone, arg.ClientEmail,
		arg.Status, arg.StartDate, arg.EndDate, arg.Total, arg.Paid,
		arg.DiscountCode, arg.DiscountName, arg.DiscountKind, arg.DiscountValue,
	))
}

type InsertOrderItemParams struct {
	OrderID         int64
	ItemID          int64
	Name            string
	Qty             int32
	UnitPrice       int64
	ReplacementCost int64
}

const insertOrderItem = `
INSERT INTO order_items (order_id, item_id, name, qty, unit_price, replacement_cost)
VALUES ($1, $2, $3, $4, $5, $6)`

func (q *Queries) InsertOrderItem(ctx context.Context, arg InsertOrderItemParams) error {
	_, err := q.db.Exec(ctx, insertOrderItem,
		arg.OrderID, arg.ItemID, arg.Name, arg.Qty, arg.UnitPrice, arg.ReplacementCost)
	return err
}

const listOrderItems = `
SELECT id, order_id, item_id, name, qty, unit_price, replacement_cost, returned_qty, lost_qty, damaged_qty
FROM order_items WHERE order_id = $1 ORDER BY id`

func (q *Queries) ListOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ItemID, &it.Name, &it.Qty,
			&it.UnitPrice, &it.ReplacementCost, &it.ReturnedQty, &it.LostQty, &it.DamagedQty,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type UpdateOrderStatusParams struct {
	ID     int64
	Status OrderStatus
}

const updateOrderStatus = `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) error {
	_, err := q.db.Exec(ctx, updateOrderStatus, arg.ID, arg.Status)
	return err
}

type SettleOrderParams struct {
	ID       int64
	Status   OrderStatus
	ClosedAt pgtype.Timestamptz
	Total    int64
	Paid     int64
	Penalty  int64
}

const settleOrder = `
UPDATE orders
SET status = $2, closed_at = $3, total = $4, paid = $5, penalty = $6, updated_at = now()
WHERE id = $1`

func (q *Queries) SettleOrder(ctx context.Context, arg SettleOrderParams) error {
	_, err := q.db.Exec(ctx, settleOrder,
		arg.ID, arg.Status, arg.ClosedAt, arg.Total, arg.Paid, arg.Penalty)
	return err
}

type UpdateOrderItemAuditParams struct {
	ID          int64
	ReturnedQty int32
	LostQty     int32
	DamagedQty  int32
}

const updateOrderItemAudit = `
UPDATE order_items SET returned_qty = $2, lost_qty = $3, damaged_qty = $4 WHERE id = $1`

func (q *Queries) UpdateOrderItemAudit(ctx context.Context, arg UpdateOrderItemAuditParams) error {
	_, err := q.db.Exec(ctx, updateOrderItemAudit, arg.ID, arg.ReturnedQty, arg.LostQty, arg.DamagedQty)
	return err
}

type SearchOrdersParams struct {
	Status   NullOrderStatus
	ClientID pgtype.Int8
	Query    string
	Limit    int32
	Offset   int32
}

const searchOrders = `
SELECT ` + orderColumns + `
FROM orders
WHERE ($1::order_status IS NULL OR status = $1)
  AND ($2::bigint IS NULL OR client_id = $2)
  AND ($3 = '' OR client_name ILIKE '%' || $3 || '%' OR client_phone ILIKE '%' || $3 || '%')
ORDER BY created_at DESC
LIMIT $4 OFFSET $5`

func (q *Queries) SearchOrders(ctx context.Context, arg SearchOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, searchOrders, arg.Status, arg.ClientID, arg.Query, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

const countSearchOrders = `
SELECT count(*)
FROM orders
WHERE ($1::order_status IS NULL OR status = $1)
  AND ($2::bigint IS NULL OR client_id = $2)
  AND ($3 = '' OR client_name ILIKE '%' || $3 || '%' OR client_phone ILIKE '%' || $3 || '%')`

func (q *Queries) CountSearchOrders(ctx context.Context, arg SearchOrdersParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countSearchOrders, arg.Status, arg.ClientID, arg.Query).Scan(&n)
	return n, err
}

const listOrdersDueForActivation = `
SELECT ` + orderColumns + `
FROM orders
WHERE status = 'APPROVED' AND start_date <= $1
ORDER BY start_date
LIMIT 500`

// ListOrdersDueForActivation returns approved orders whose rental window has
// begun and therefore should be flipped to ACTIVE.
func (q *Queries) ListOrdersDueForActivation(ctx context.Context, today pgtype.Date) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersDueForActivation, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}
