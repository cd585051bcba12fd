package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"eventpal/internal/idempotency"
)

type PurchaseRequest struct {
	ReservationID   uuid.UUID `json:"reservation_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
}

// PurchaseHandler finalizes a reservation into an order. A replayed payment
// intent id answers 200 with the original order instead of 201.
func (s *Server) PurchaseHandler(c echo.Context) error {
	var request PurchaseRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.PaymentIntentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "payment_intent_id is required")
	}

	ctx := idempotency.WithKey(c.Request().Context(), request.PaymentIntentID)

	result, err := s.purchaseService.Purchase(ctx, request.ReservationID, request.PaymentIntentID, buyerEmail(c))
	if err != nil {
		return mapError(err)
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}

	return c.JSON(status, result.Order)
}
