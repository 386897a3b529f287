package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const clientColumns = `id, first_name, last_name, phone, email, total_orders, total_spent, last_order_at, created_at, updated_at`

func scanClient(row interface{ Scan(...interface{}) error }) (Client, error) {
	var c Client
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.Email,
		&c.TotalOrders, &c.TotalSpent, &c.LastOrderAt, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

const getClient = `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

func (q *Queries) GetClient(ctx context.Context, id int64) (Client, error) {
	return scanClient(q.db.QueryRow(ctx, getClient, id))
}

type InsertClientParams struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

const insertClient = `
INSERT INTO clients (first_name, last_name, phone, email)
VALUES ($1, $2, $3, $4)
RETURNING ` + clientColumns

func (q *Queries) InsertClient(ctx context.Context, arg InsertClientParams) (Client, error) {
	return scanClient(q.db.QueryRow(ctx, insertClient, arg.FirstName, arg.LastName, arg.Phone, arg.Email))
}

type UpdateClientParams struct {
	ID        int64
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

const updateClient = `
UPDATE clients
SET first_name = $2, last_name = $3, phone = $4, email = $5, updated_at = now()
WHERE id = $1
RETURNING ` + clientColumns

func (q *Queries) UpdateClient(ctx context.Context, arg UpdateClientParams) (Client, error) {
	return scanClient(q.db.QueryRow(ctx, updateClient, arg.ID, arg.FirstName, arg.LastName, arg.Phone, arg.Email))
}

type SearchClientsParams struct {
	Query  string
	Limit  int32
	Offset int32
}

const searchClients = `
SELECT ` + clientColumns + `
FROM clients
WHERE $1 = ''
   OR first_name ILIKE '%' || $1 || '%'
   OR last_name ILIKE '%' || $1 || '%'
   OR phone ILIKE '%' || $1 || '%'
   OR email ILIKE '%' || $1 || '%'
ORDER BY last_order_at DESC NULLS LAST, id
LIMIT $2 OFFSET $3`

func (q *Queries) SearchClients(ctx context.Context, arg SearchClientsParams) ([]Client, error) {
	rows, err := q.db.Query(ctx, searchClients, arg.Query, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

type RecordClientOrderParams struct {
	ID          int64
	Amount      int64
	LastOrderAt pgtype.Timestamptz
}

const recordClientOrder = `
UPDATE clients
SET total_orders = total_orders + 1,
    total_spent = total_spent + $2,
    last_order_at = $3,
    updated_at = now()
WHERE id = $1`

// RecordClientOrder bumps the denormalized order counters on the client row.
func (q *Queries) RecordClientOrder(ctx context.Context, arg RecordClientOrderParams) error {
	_, err := q.db.Exec(ctx, recordClientOrder, arg.ID, arg.Amount, arg.LastOrderAt)
	return err
}

const addClientSpend = `
UPDATE clients SET total_spent = total_spent + $2, updated_at = now() WHERE id = $1`

func (q *Queries) AddClientSpend(ctx context.Context, id int64, amount int64) error {
	_, err := q.db.Exec(ctx, addClientSpend, id, amount)
	return err
}

type TopClientRow struct {
	ClientID    int64
	FirstName   string
	LastName    string
	TotalOrders int32
	TotalSpent  int64
}

const listTopClients = `
SELECT id, first_name, last_name, total_orders, total_spent
FROM clients
ORDER BY total_spent DESC, total_orders DESC
LIMIT $1`

func (q *Queries) ListTopClients(ctx context.Context, limit int32) ([]TopClientRow, error) {
	rows, err := q.db.Query(ctx, listTopClients, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TopClientRow
	for rows.Next() {
		var c TopClientRow
		if err := rows.Scan(&c.ClientID, &c.FirstName, &c.LastName, &c.TotalOrders, &c.TotalSpent); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
