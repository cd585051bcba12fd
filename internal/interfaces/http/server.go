// Package http exposes the reservation engine over REST. Buyers identify
// themselves with the X-Buyer-Email header; the gateway in front of this
// service is expected to have authenticated it.
package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eventpal/internal/application/usecases/purchase"
	"eventpal/internal/application/usecases/reserve"
	"eventpal/internal/entities"
	"eventpal/internal/logs"
)

const buyerHeader = "X-Buyer-Email"

type EventsRepository interface {
	CreateEvent(ctx context.Context, event entities.Event) (uuid.UUID, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*entities.Event, error)
}

type TicketTypesRepository interface {
	CreateTicketType(ctx context.Context, tt entities.TicketType) (uuid.UUID, error)
}

type OrdersReader interface {
	GetByOrderNumber(ctx context.Context, orderNumber string) (*entities.Order, error)
}

type TicketsReader interface {
	ListByBuyer(ctx context.Context, buyerEmail string) ([]entities.Ticket, error)
}

type Server struct {
	e    *echo.Echo
	addr string

	reserveService  *reserve.Usecase
	purchaseService *purchase.Usecase
	eventsRepo      EventsRepository
	ticketTypesRepo TicketTypesRepository
	ordersRepo      OrdersReader
	ticketsRepo     TicketsReader
}

func NewServer(
	e *echo.Echo,
	addr string,
	reserveService *reserve.Usecase,
	purchaseService *purchase.Usecase,
	eventsRepo EventsRepository,
	ticketTypesRepo TicketTypesRepository,
	ordersRepo OrdersReader,
	ticketsRepo TicketsReader,
	routerIsRunning func() bool,
) *Server {
	srv := &Server{
		e:               e,
		addr:            addr,
		reserveService:  reserveService,
		purchaseService: purchaseService,
		eventsRepo:      eventsRepo,
		ticketTypesRepo: ticketTypesRepo,
		ordersRepo:      ordersRepo,
		ticketsRepo:     ticketsRepo,
	}

	e.Use(loggingMiddleware)

	e.POST("/events", srv.CreateEventHandler)
	e.POST("/ticket-types", srv.CreateTicketTypeHandler)

	buyer := e.Group("", requireBuyer)
	buyer.POST("/reservations", srv.ReserveHandler)
	buyer.GET("/reservations", srv.ListReservationsHandler)
	buyer.DELETE("/reservations/:reservation_id", srv.CancelReservationHandler)
	buyer.POST("/purchases", srv.PurchaseHandler)
	buyer.GET("/orders/:order_number", srv.GetOrderHandler)
	buyer.GET("/tickets", srv.GetTicketsHandler)

	e.GET("/health", func(c echo.Context) error {
		if !routerIsRunning() {
			return c.String(http.StatusServiceUnavailable, "router is not running")
		}
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return srv
}

func (s *Server) Start() error {
	err := s.e.Start(s.addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func requireBuyer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if strings.TrimSpace(c.Request().Header.Get(buyerHeader)) == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, buyerHeader+" header is required")
		}
		return next(c)
	}
}

func buyerEmail(c echo.Context) string {
	return strings.TrimSpace(c.Request().Header.Get(buyerHeader))
}

func loggingMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		logs.FromContext(c.Request().Context()).
			WithField("method", c.Request().Method).
			WithField("path", c.Request().URL.Path).
			Info("Handling a request")

		err := next(c)
		if err != nil {
			logs.FromContext(c.Request().Context()).
				WithField("error", err).
				Error("Request handling error")
		}

		return err
	}
}

// mapError translates domain errors into HTTP status codes. Anything
// unmapped bubbles up as a 500 through echo's default handler.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, entities.ErrEventNotFound),
		errors.Is(err, entities.ErrTicketTypeNotFound),
		errors.Is(err, entities.ErrHoldNotFound),
		errors.Is(err, entities.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrHoldNotActive):
		return echo.NewHTTPError(http.StatusGone, err.Error())
	case errors.Is(err, entities.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, entities.ErrCapacityExceeded),
		errors.Is(err, entities.ErrTicketTypeInactive),
		errors.Is(err, entities.ErrSeatConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return err
	}
}
