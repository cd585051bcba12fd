package entities

import (
	"time"

	"github.com/google/uuid"
)

// IntegrationEvent is implemented by every event published outside the
// process; internal events get a service-scoped topic prefix.
type IntegrationEvent interface {
	IsInternal() bool
}

type TicketOrderCompleted_v1 struct {
	Header EventHeader `json:"header"`

	OrderID       uuid.UUID   `json:"order_id"`
	OrderNumber   string      `json:"order_number"`
	ReservationID uuid.UUID   `json:"reservation_id"`
	BuyerEmail    string      `json:"buyer_email"`
	Total         Money       `json:"total"`
	TicketIDs     []uuid.UUID `json:"ticket_ids"`
	PurchasedAt   time.Time   `json:"purchased_at"`
}

func (e TicketOrderCompleted_v1) IsInternal() bool {
	return false
}

type ReservationExpired_v1 struct {
	Header EventHeader `json:"header"`

	ReservationID uuid.UUID `json:"reservation_id"`
	EventID       uuid.UUID `json:"event_id"`
	TicketTypeID  uuid.UUID `json:"ticket_type_id"`
	Quantity      int       `json:"quantity"`
	BuyerEmail    string    `json:"buyer_email"`
	ExpiredAt     time.Time `json:"expired_at"`
}

func (e ReservationExpired_v1) IsInternal() bool {
	return false
}
