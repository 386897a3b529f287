package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type InsertAdminAuditParams struct {
	Actor      string
	Action     string
	OrderID    pgtype.Int8
	FromStatus NullOrderStatus
	ToStatus   NullOrderStatus
	Reason     string
}

const insertAdminAudit = `
INSERT INTO admin_audit (actor, action, order_id, from_status, to_status, reason)
VALUES ($1, $2, $3, $4, $5, $6)`

func (q *Queries) InsertAdminAudit(ctx context.Context, arg InsertAdminAuditParams) error {
	_, err := q.db.Exec(ctx, insertAdminAudit,
		arg.Actor, arg.Action, arg.OrderID, arg.FromStatus, arg.ToStatus, arg.Reason)
	return err
}

type ListAdminAuditParams struct {
	OrderID pgtype.Int8
	Limit   int32
	Offset  int32
}

const listAdminAudit = `
SELECT id, actor, action, order_id, from_status, to_status, reason, created_at
FROM admin_audit
WHERE ($1::bigint IS NULL OR order_id = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

func (q *Queries) ListAdminAudit(ctx context.Context, arg ListAdminAuditParams) ([]AdminAudit, error) {
	rows, err := q.db.Query(ctx, listAdminAudit, arg.OrderID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AdminAudit
	for rows.Next() {
		var a AdminAudit
		if err := rows.Scan(&a.ID, &a.Actor, &a.Action, &a.OrderID, &a.FromStatus, &a.ToStatus, &a.Reason, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
