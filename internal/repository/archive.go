package repository

// Event archive backed by postgres. A real deployment would point this at a
// proper datalake (BigQuery, S3).

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ArchiveRepo struct {
	db *sqlx.DB
}

func NewArchiveRepo(db *sqlx.DB) *ArchiveRepo {
	return &ArchiveRepo{db: db}
}

func (r *ArchiveRepo) SaveEvent(
	ctx context.Context,
	id uuid.UUID,
	publishedAt time.Time,
	eventName string,
	payload []byte,
) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events_archive (event_id, published_at, event_name, event_payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`, id, publishedAt, eventName, payload)
	if err != nil {
		return fmt.Errorf("failed to archive event: %w", err)
	}

	return nil
}
