package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"eventpal/internal/entities"
)

type CreateTicketTypeRequest struct {
	EventID    uuid.UUID  `json:"event_id"`
	Name       string     `json:"name"`
	Capacity   int        `json:"capacity"`
	Price      float64    `json:"price"`
	Currency   string     `json:"currency"`
	Active     *bool      `json:"active"`
	SalesStart *time.Time `json:"sales_start"`
	SalesEnd   *time.Time `json:"sales_end"`
}

type CreateTicketTypeResponse struct {
	TicketTypeID uuid.UUID `json:"ticket_type_id"`
}

func (s *Server) CreateTicketTypeHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request CreateTicketTypeRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.Capacity <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "capacity must be positive")
	}
	if request.Currency == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "currency is required")
	}

	if _, err := s.eventsRepo.GetEvent(ctx, request.EventID); err != nil {
		return mapError(err)
	}

	active := true
	if request.Active != nil {
		active = *request.Active
	}

	ticketTypeID, err := s.ticketTypesRepo.CreateTicketType(ctx, entities.TicketType{
		EventID:  request.EventID,
		Name:     request.Name,
		Capacity: request.Capacity,
		Price: entities.Money{
			Amount:   request.Price,
			Currency: request.Currency,
		},
		Active:     active,
		SalesStart: request.SalesStart,
		SalesEnd:   request.SalesEnd,
	})
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusCreated, CreateTicketTypeResponse{TicketTypeID: ticketTypeID})
}
