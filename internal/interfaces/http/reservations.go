package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"eventpal/internal/application/usecases/reserve"
	"eventpal/internal/entities"
)

type ReserveRequest struct {
	EventID      uuid.UUID `json:"event_id"`
	TicketTypeID uuid.UUID `json:"ticket_type_id"`
	Quantity     int       `json:"quantity"`
}

type ReservationResponse struct {
	ReservationID uuid.UUID      `json:"reservation_id"`
	EventID       uuid.UUID      `json:"event_id"`
	TicketTypeID  uuid.UUID      `json:"ticket_type_id"`
	Quantity      int            `json:"quantity"`
	UnitPrice     entities.Money `json:"unit_price"`
	Total         entities.Money `json:"total"`
	Status        string         `json:"status"`
	ExpiresAt     time.Time      `json:"expires_at"`
}

func (s *Server) ReserveHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request ReserveRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.Quantity <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must be positive")
	}

	hold, err := s.reserveService.Reserve(ctx, reserve.ReserveInput{
		EventID:      request.EventID,
		TicketTypeID: request.TicketTypeID,
		Quantity:     request.Quantity,
		BuyerEmail:   buyerEmail(c),
	})
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusCreated, holdToResponse(hold))
}

func (s *Server) ListReservationsHandler(c echo.Context) error {
	holds := s.reserveService.ListMyHolds(c.Request().Context(), buyerEmail(c))

	response := make([]ReservationResponse, 0, len(holds))
	for _, hold := range holds {
		response = append(response, holdToResponse(hold))
	}

	return c.JSON(http.StatusOK, response)
}

func (s *Server) CancelReservationHandler(c echo.Context) error {
	reservationID, err := uuid.Parse(c.Param("reservation_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "reservation_id is not a valid UUID")
	}

	err = s.reserveService.Cancel(c.Request().Context(), reservationID, buyerEmail(c))
	if err != nil {
		return mapError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func holdToResponse(hold entities.Hold) ReservationResponse {
	return ReservationResponse{
		ReservationID: hold.ReservationID,
		EventID:       hold.EventID,
		TicketTypeID:  hold.TicketTypeID,
		Quantity:      hold.Quantity,
		UnitPrice:     hold.UnitPrice,
		Total:         hold.LineTotal(),
		Status:        string(hold.Status),
		ExpiresAt:     hold.ExpiresAt,
	}
}
