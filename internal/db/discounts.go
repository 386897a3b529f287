package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const discountColumns = `id, name, code, kind, value, duration, starts_at, ends_at, active, approval, used_count, created_at, updated_at`

func scanDiscount(row interface{ Scan(...interface{}) error }) (Discount, error) {
	var d Discount
	err := row.Scan(
		&d.ID, &d.Name, &d.Code, &d.Kind, &d.Value, &d.Duration,
		&d.StartsAt, &d.EndsAt, &d.Active, &d.Approval, &d.UsedCount,
		&d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

const getDiscountByCode = `SELECT ` + discountColumns + ` FROM discounts WHERE code = $1`

func (q *Queries) GetDiscountByCode(ctx context.Context, code string) (Discount, error) {
	return scanDiscount(q.db.QueryRow(ctx, getDiscountByCode, code))
}

const getDiscountByCodeForUpdate = getDiscountByCode + ` FOR UPDATE`

func (q *Queries) GetDiscountByCodeForUpdate(ctx context.Context, code string) (Discount, error) {
	return scanDiscount(q.db.QueryRow(ctx, getDiscountByCodeForUpdate, code))
}

const getDiscount = `SELECT ` + discountColumns + ` FROM discounts WHERE id = $1`

func (q *Queries) GetDiscount(ctx context.Context, id int64) (Discount, error) {
	return scanDiscount(q.db.QueryRow(ctx, getDiscount, id))
}

type InsertDiscountParams struct {
	Name     string
	Code     string
	Kind     DiscountKind
	Value    int64
	Duration DiscountDuration
	StartsAt pgtype.Timestamptz
	EndsAt   pgtype.Timestamptz
	Active   bool
	Approval string
}

const insertDiscount = `
INSERT INTO discounts (name, code, kind, value, duration, starts_at, ends_at, active, approval)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + discountColumns

func (q *Queries) InsertDiscount(ctx context.Context, arg InsertDiscountParams) (Discount, error) {
	return scanDiscount(q.db.QueryRow(ctx, insertDiscount,
		arg.Name, arg.Code, arg.Kind, arg.Value, arg.Duration,
		arg.StartsAt, arg.EndsAt, arg.Active, arg.Approval,
	))
}

type UpdateDiscountParams struct {
	ID       int64
	Name     string
	Value    int64
	Duration DiscountDuration
	StartsAt pgtype.Timestamptz
	EndsAt   pgtype.Timestamptz
	Active   bool
	Approval string
}

const updateDiscount = `
UPDATE discounts
SET name = $2, value = $3, duration = $4, starts_at = $5, ends_at = $6,
    active = $7, approval = $8, updated_at = now()
WHERE id = $1
RETURNING ` + discountColumns

func (q *Queries) UpdateDiscount(ctx context.Context, arg UpdateDiscountParams) (Discount, error) {
	return scanDiscount(q.db.QueryRow(ctx, updateDiscount,
		arg.ID, arg.Name, arg.Value, arg.Duration,
		arg.StartsAt, arg.EndsAt, arg.Active, arg.Approval,
	))
}

type ListDiscountsParams struct {
	Limit  int32
	Offset int32
}

const listDiscounts = `SELECT ` + discountColumns + ` FROM discounts ORDER BY created_at DESC LIMIT $1 OFFSET $2`

func (q *Queries) ListDiscounts(ctx context.Context, arg ListDiscountsParams) ([]Discount, error) {
	rows, err := q.db.Query(ctx, listDiscounts, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Discount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

const increaseDiscountUsedCount = `UPDATE discounts SET used_count = used_count + 1, updated_at = now() WHERE id = $1`

func (q *Queries) IncreaseDiscountUsedCount(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, increaseDiscountUsedCount, id)
	return err
}

const deactivateExpiredDiscounts = `
UPDATE discounts SET active = FALSE, updated_at = now()
WHERE active AND ends_at IS NOT NULL AND ends_at < $1`

// DeactivateExpiredDiscounts flips discounts whose window has closed to
// inactive and reports how many rows changed.
func (q *Queries) DeactivateExpiredDiscounts(ctx context.Context, now pgtype.Timestamptz) (int64, error) {
	tag, err := q.db.Exec(ctx, deactivateExpiredDiscounts, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type CountRedemptionsByClientParams struct {
	DiscountID int64
	ClientID   int64
}

const countRedemptionsByClient = `SELECT count(*) FROM discount_redemptions WHERE discount_id = $1 AND client_id = $2`

func (q *Queries) CountRedemptionsByClient(ctx context.Context, arg CountRedemptionsByClientParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countRedemptionsByClient, arg.DiscountID, arg.ClientID).Scan(&n)
	return n, err
}

type GetRedemptionByOrderParams struct {
	DiscountID int64
	OrderID    int64
}

const getRedemptionByOrder = `
SELECT id, discount_id, order_id, client_id, amount, redeemed_at
FROM discount_redemptions WHERE discount_id = $1 AND order_id = $2`

func (q *Queries) GetRedemptionByOrder(ctx context.Context, arg GetRedemptionByOrderParams) (DiscountRedemption, error) {
	var r DiscountRedemption
	err := q.db.QueryRow(ctx, getRedemptionByOrder, arg.DiscountID, arg.OrderID).
		Scan(&r.ID, &r.DiscountID, &r.OrderID, &r.ClientID, &r.Amount, &r.RedeemedAt)
	return r, err
}

type InsertRedemptionParams struct {
	DiscountID int64
	OrderID    int64
	ClientID   int64
	Amount     int64
}

const insertRedemption = `
INSERT INTO discount_redemptions (discount_id, order_id, client_id, amount)
VALUES ($1, $2, $3, $4)
ON CONFLICT (discount_id, order_id) DO NOTHING`

func (q *Queries) InsertRedemption(ctx context.Context, arg InsertRedemptionParams) error {
	_, err := q.db.Exec(ctx, insertRedemption, arg.DiscountID, arg.OrderID, arg.ClientID, arg.Amount)
	return err
}

type DiscountUsageRow struct {
	DiscountID  int64
	Name        string
	Code        string
	Redemptions int64
	TotalAmount int64
}

const listDiscountUsage = `
SELECT d.id, d.name, d.code, count(r.id), COALESCE(sum(r.amount), 0)
FROM discounts d
LEFT JOIN discount_redemptions r ON r.discount_id = d.id
GROUP BY d.id, d.name, d.code
ORDER BY COALESCE(sum(r.amount), 0) DESC`

func (q *Queries) ListDiscountUsage(ctx context.Context) ([]DiscountUsageRow, error) {
	rows, err := q.db.Query(ctx, listDiscountUsage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DiscountUsageRow
	for rows.Next() {
		var u DiscountUsageRow
		if err := rows.Scan(&u.DiscountID, &u.Name, &u.Code, &u.Redemptions, &u.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}
