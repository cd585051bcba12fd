package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/google/uuid"

	"eventpal/internal/entities"
)

// EventsArchive persists a copy of every integration event for audit.
type EventsArchive interface {
	SaveEvent(ctx context.Context, id uuid.UUID, publishedAt time.Time, eventName string, payload []byte) error
}

func ArchiveOrderCompletedHandler(archive EventsArchive) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"events_archive.on_ticket_order_completed",
		func(ctx context.Context, event *entities.TicketOrderCompleted_v1) error {
			return archiveEvent(ctx, archive, event.Header, "TicketOrderCompleted_v1", event)
		},
	)
}

func ArchiveReservationExpiredHandler(archive EventsArchive) cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"events_archive.on_reservation_expired",
		func(ctx context.Context, event *entities.ReservationExpired_v1) error {
			return archiveEvent(ctx, archive, event.Header, "ReservationExpired_v1", event)
		},
	)
}

func archiveEvent(
	ctx context.Context,
	archive EventsArchive,
	header entities.EventHeader,
	eventName string,
	event any,
) error {
	id, err := uuid.Parse(header.Id)
	if err != nil {
		return fmt.Errorf("invalid event id %q: %w", header.Id, err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", eventName, err)
	}

	return archive.SaveEvent(ctx, id, header.PublishedAt, eventName, payload)
}
