package entities

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID       uuid.UUID `json:"event_id"`
	Name     string    `json:"name"`
	Venue    string    `json:"venue"`
	StartsAt time.Time `json:"starts_at"`
}
