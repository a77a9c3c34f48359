package events

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository interface {
	ListEventsSince(ctx context.Context, since time.Time, eventTypes []string, limit int) ([]Event, error)
	CountByTypeSince(ctx context.Context, since time.Time, eventTypes []string) (map[string]int, error)
	CountByStatusSince(ctx context.Context, since time.Time, eventTypes []string) (map[string]int, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListEventsSince(ctx context.Context, since time.Time, eventTypes []string, limit int) ([]Event, error) {
	list := []Event{}

	query := `SELECT id, event_type, status, created_at, payload
		FROM outbox_events
		WHERE created_at >= $1 AND event_type = ANY($2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	if err := r.db.SelectContext(ctx, &list, query, since, pq.Array(eventTypes), limit); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) CountByTypeSince(ctx context.Context, since time.Time, eventTypes []string) (map[string]int, error) {
	return r.countsByKey(ctx, "event_type", since, eventTypes)
}

func (r *repository) CountByStatusSince(ctx context.Context, since time.Time, eventTypes []string) (map[string]int, error) {
	return r.countsByKey(ctx, "status", since, eventTypes)
}

func (r *repository) countsByKey(ctx context.Context, column string, since time.Time, eventTypes []string) (map[string]int, error) {
	rows := []struct {
		Key   string `db:"key"`
		Total int    `db:"total"`
	}{}

	query := `SELECT ` + column + ` AS key, COUNT(*) AS total
		FROM outbox_events
		WHERE created_at >= $1 AND event_type = ANY($2)
		GROUP BY ` + column

	if err := r.db.SelectContext(ctx, &rows, query, since, pq.Array(eventTypes)); err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.Total
	}
	return counts, nil
}
