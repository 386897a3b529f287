package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const cartColumns = `id, client_id, anon_id, start_date, end_date, discount_code, expires_at, created_at, updated_at`

func scanCart(row interface{ Scan(...interface{}) error }) (Cart, error) {
	var c Cart
	err := row.Scan(
		&c.ID, &c.ClientID, &c.AnonID, &c.StartDate, &c.EndDate,
		&c.DiscountCode, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

const getCart = `SELECT ` + cartColumns + ` FROM carts WHERE id = $1`

func (q *Queries) GetCart(ctx context.Context, id int64) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, getCart, id))
}

const getCartByClient = `SELECT ` + cartColumns + ` FROM carts WHERE client_id = $1 ORDER BY updated_at DESC LIMIT 1`

func (q *Queries) GetCartByClient(ctx context.Context, clientID int64) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, getCartByClient, clientID))
}

const getCartByAnonID = `SELECT ` + cartColumns + ` FROM carts WHERE anon_id = $1 ORDER BY updated_at DESC LIMIT 1`

func (q *Queries) GetCartByAnonID(ctx context.Context, anonID string) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, getCartByAnonID, anonID))
}

type InsertCartParams struct {
	ClientID  pgtype.Int8
	AnonID    pgtype.Text
	ExpiresAt pgtype.Timestamptz
}

const insertCart = `
INSERT INTO carts (client_id, anon_id, expires_at)
VALUES ($1, $2, $3)
RETURNING ` + cartColumns

func (q *Queries) InsertCart(ctx context.Context, arg InsertCartParams) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, insertCart, arg.ClientID, arg.AnonID, arg.ExpiresAt))
}

type UpdateCartWindowParams struct {
	ID        int64
	StartDate pgtype.Date
	EndDate   pgtype.Date
}

const updateCartWindow = `
UPDATE carts SET start_date = $2, end_date = $3, updated_at = now() WHERE id = $1`

func (q *Queries) UpdateCartWindow(ctx context.Context, arg UpdateCartWindowParams) error {
	_, err := q.db.Exec(ctx, updateCartWindow, arg.ID, arg.StartDate, arg.EndDate)
	return err
}

type SetCartDiscountParams struct {
	ID           int64
	DiscountCode pgtype.Text
}

const setCartDiscount = `UPDATE carts SET discount_code = $2, updated_at = now() WHERE id = $1`

func (q *Queries) SetCartDiscount(ctx context.Context, arg SetCartDiscountParams) error {
	_, err := q.db.Exec(ctx, setCartDiscount, arg.ID, arg.DiscountCode)
	return err
}

type TouchCartParams struct {
	ID        int64
	ExpiresAt pgtype.Timestamptz
}

const touchCart = `UPDATE carts SET expires_at = $2, updated_at = now() WHERE id = $1`

func (q *Queries) TouchCart(ctx context.Context, arg TouchCartParams) error {
	_, err := q.db.Exec(ctx, touchCart, arg.ID, arg.ExpiresAt)
	return err
}

type UpsertCartLineParams struct {
	CartID    int64
	ItemID    int64
	Name      string
	Qty       int32
	UnitPrice int64
}

const upsertCartLine = `
INSERT INTO cart_lines (cart_id, item_id, name, qty, unit_price)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (cart_id, item_id)
DO UPDATE SET qty = EXCLUDED.qty, unit_price = EXCLUDED.unit_price`

func (q *Queries) UpsertCartLine(ctx context.Context, arg UpsertCartLineParams) error {
	_, err := q.db.Exec(ctx, upsertCartLine, arg.CartID, arg.ItemID, arg.Name, arg.Qty, arg.UnitPrice)
	return err
}

type DeleteCartLineParams struct {
	CartID int64
	ItemID int64
}

const deleteCartLine = `DELETE FROM cart_lines WHERE cart_id = $1 AND item_id = $2`

func (q *Queries) DeleteCartLine(ctx context.Context, arg DeleteCartLineParams) error {
	_, err := q.db.Exec(ctx, deleteCartLine, arg.CartID, arg.ItemID)
	return err
}

const listCartLines = `
SELECT id, cart_id, item_id, name, qty, unit_price
FROM cart_lines WHERE cart_id = $1 ORDER BY id`

func (q *Queries) ListCartLines(ctx context.Context, cartID int64) ([]CartLine, error) {
	rows, err := q.db.Query(ctx, listCartLines, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.ID, &l.CartID, &l.ItemID, &l.Name, &l.Qty, &l.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

const deleteCart = `DELETE FROM carts WHERE id = $1`

func (q *Queries) DeleteCart(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, deleteCart, id)
	return err
}

const deleteExpiredCarts = `DELETE FROM carts WHERE expires_at < now()`

func (q *Queries) DeleteExpiredCarts(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteExpiredCarts)
	return tag.RowsAffected(), err
}
