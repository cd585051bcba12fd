package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"eventpal/internal/entities"
)

func (s *Server) GetOrderHandler(c echo.Context) error {
	orderNumber := c.Param("order_number")
	if orderNumber == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "order_number is required")
	}

	order, err := s.ordersRepo.GetByOrderNumber(c.Request().Context(), orderNumber)
	if err != nil {
		return mapError(err)
	}

	if !strings.EqualFold(order.BuyerEmail, buyerEmail(c)) {
		return mapError(entities.ErrForbidden)
	}

	return c.JSON(http.StatusOK, order)
}
