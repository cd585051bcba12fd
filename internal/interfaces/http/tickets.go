package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) GetTicketsHandler(c echo.Context) error {
	tickets, err := s.ticketsRepo.ListByBuyer(c.Request().Context(), buyerEmail(c))
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, tickets)
}
