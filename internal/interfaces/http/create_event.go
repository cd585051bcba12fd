package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"eventpal/internal/entities"
)

type CreateEventRequest struct {
	Name     string    `json:"name"`
	Venue    string    `json:"venue"`
	StartsAt time.Time `json:"starts_at"`
}

type CreateEventResponse struct {
	EventID uuid.UUID `json:"event_id"`
}

func (s *Server) CreateEventHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request CreateEventRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	eventID, err := s.eventsRepo.CreateEvent(ctx, entities.Event{
		Name:     request.Name,
		Venue:    request.Venue,
		StartsAt: request.StartsAt,
	})
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusCreated, CreateEventResponse{EventID: eventID})
}
