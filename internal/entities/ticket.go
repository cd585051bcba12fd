package entities

import (
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketStatusSold     TicketStatus = "SOLD"
	TicketStatusCanceled TicketStatus = "CANCELED"
)

// Ticket is one issued, seat-numbered ticket. PricePaid is a snapshot taken
// from the hold at purchase time.
type Ticket struct {
	ID            uuid.UUID    `json:"ticket_id"`
	EventID       uuid.UUID    `json:"event_id"`
	TicketTypeID  uuid.UUID    `json:"ticket_type_id"`
	OrderID       uuid.UUID    `json:"order_id"`
	Seat          int64        `json:"seat"`
	Description   string       `json:"description"`
	PricePaid     Money        `json:"price_paid"`
	Status        TicketStatus `json:"status"`
	EventStartsAt time.Time    `json:"event_starts_at"`
}
