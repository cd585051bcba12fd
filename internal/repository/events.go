package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"eventpal/internal/entities"
)

type EventsRepo struct {
	db *sqlx.DB
}

func NewEventsRepo(db *sqlx.DB) *EventsRepo {
	return &EventsRepo{db: db}
}

func (r *EventsRepo) CreateEvent(ctx context.Context, event entities.Event) (uuid.UUID, error) {
	var id uuid.UUID

	query := `
		INSERT INTO events (name, venue, starts_at)
		VALUES ($1, $2, $3)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		event.Name,
		event.Venue,
		event.StartsAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create event: %w", err)
	}

	return id, nil
}

func (r *EventsRepo) GetEvent(ctx context.Context, id uuid.UUID) (*entities.Event, error) {
	var event entities.Event

	query := `
		SELECT id, name, venue, starts_at
		FROM events
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&event.ID, &event.Name, &event.Venue, &event.StartsAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entities.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &event, nil
}
