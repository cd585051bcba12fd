package entities

import (
	"time"

	"github.com/google/uuid"
)

type HoldStatus string

const (
	HoldStatusActive    HoldStatus = "ACTIVE"
	HoldStatusConsumed  HoldStatus = "CONSUMED"
	HoldStatusExpired   HoldStatus = "EXPIRED"
	HoldStatusCancelled HoldStatus = "CANCELLED"
)

// Hold is a time-bounded, capacity-backed claim on tickets before payment.
// Price and currency are snapshotted at creation so a later price change
// never affects an open reservation.
type Hold struct {
	ReservationID uuid.UUID  `json:"reservation_id"`
	EventID       uuid.UUID  `json:"event_id"`
	TicketTypeID  uuid.UUID  `json:"ticket_type_id"`
	Quantity      int        `json:"quantity"`
	UnitPrice     Money      `json:"unit_price"`
	BuyerEmail    string     `json:"buyer_email"`
	Status        HoldStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
}

// Expired is the computed expiry predicate: a hold past its deadline is
// treated as expired even if no sweep has stamped it yet.
func (h Hold) Expired(now time.Time) bool {
	return now.After(h.ExpiresAt)
}

func (h Hold) LineTotal() Money {
	return h.UnitPrice.Mul(h.Quantity)
}
