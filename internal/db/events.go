package db

import "context"

type InsertDomainEventParams struct {
	Topic       string
	AggregateID int64
	Payload     []byte
}

const insertDomainEvent = `
INSERT INTO domain_events (topic, aggregate_id, payload) VALUES ($1, $2, $3)`

func (q *Queries) InsertDomainEvent(ctx context.Context, arg InsertDomainEventParams) error {
	_, err := q.db.Exec(ctx, insertDomainEvent, arg.Topic, arg.AggregateID, arg.Payload)
	return err
}

type ListDomainEventsParams struct {
	Topic string
	Limit int32
}

const listDomainEvents = `
SELECT id, topic, aggregate_id, payload, occurred_at
FROM domain_events
WHERE ($1 = '' OR topic = $1)
ORDER BY occurred_at DESC
LIMIT $2`

func (q *Queries) ListDomainEvents(ctx context.Context, arg ListDomainEventsParams) ([]DomainEvent, error) {
	rows, err := q.db.Query(ctx, listDomainEvents, arg.Topic, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DomainEvent
	for rows.Next() {
		var e DomainEvent
		if err := rows.Scan(&e.ID, &e.Topic, &e.AggregateID, &e.Payload, &e.OccurredAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
