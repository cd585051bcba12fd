package entities

import (
	"time"

	"github.com/google/uuid"
)

// Order is created exactly once per payment intent id; the order number is
// derived from the reservation id so retries produce the same number.
type Order struct {
	ID              uuid.UUID `json:"id"`
	OrderNumber     string    `json:"order_number"`
	PaymentIntentID string    `json:"payment_intent_id"`
	BuyerEmail      string    `json:"buyer_email"`
	Total           Money     `json:"total"`
	PurchasedAt     time.Time `json:"purchased_at"`
	Tickets         []Ticket  `json:"tickets"`
}

func OrderNumberFor(reservationID uuid.UUID) string {
	return "ORD-" + reservationID.String()
}
