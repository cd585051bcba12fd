package entities

import (
	"time"

	"github.com/google/uuid"
)

// TicketType carries the fixed capacity and unit price for one class of
// tickets within an event. Capacity is immutable to the reservation engine.
type TicketType struct {
	ID         uuid.UUID  `json:"ticket_type_id"`
	EventID    uuid.UUID  `json:"event_id"`
	Name       string     `json:"name"`
	Capacity   int        `json:"capacity"`
	Price      Money      `json:"price"`
	Active     bool       `json:"active"`
	SalesStart *time.Time `json:"sales_start,omitempty"`
	SalesEnd   *time.Time `json:"sales_end,omitempty"`
}
