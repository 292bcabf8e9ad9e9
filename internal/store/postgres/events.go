package postgres

import (
	"context"
	"database/sql"

	"github.com/crewmark/crewmark/internal/store"
)

// EventRepository provides PostgreSQL-backed event listings.
type EventRepository struct {
	pool *Pool
}

// NewEventRepository creates a new PostgreSQL event repository.
func NewEventRepository(pool *Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// ActiveEvents returns events open for attendance, soonest first.
func (r *EventRepository) ActiveEvents(ctx context.Context) ([]store.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT event_id, description, event_date, starts_at, ends_at, active
		FROM events
		WHERE active
		ORDER BY event_date, starts_at
	`)
	if err != nil {
		return nil, store.NewStorageError("query active events", err)
	}
	defer rows.Close()

	var events []store.Event
	for rows.Next() {
		var e store.Event
		var startsAt, endsAt sql.NullTime
		if err := rows.Scan(&e.EventID, &e.Description, &e.EventDate, &startsAt, &endsAt, &e.Active); err != nil {
			return nil, store.NewStorageError("scan event", err)
		}
		if startsAt.Valid {
			e.StartsAt = startsAt.Time
		}
		if endsAt.Valid {
			e.EndsAt = endsAt.Time
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStorageError("iterate events", err)
	}
	return events, nil
}
