// Package purchase converts one live hold into issued, seat-numbered
// tickets and an order, exactly once per payment intent id.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"eventpal/internal/entities"
	"eventpal/internal/idempotency"
	"eventpal/internal/logs"
)

var ordersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "orders_created_total",
	Help: "Total number of orders created",
})

type HoldsStore interface {
	Get(reservationID uuid.UUID) (entities.Hold, error)
	Consume(reservationID uuid.UUID, now time.Time) (entities.Hold, error)
	Discard(reservationID uuid.UUID)
}

type OrdersRepository interface {
	CreateOrder(ctx context.Context, order entities.Order) error
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*entities.Order, error)
}

type TicketsRepository interface {
	CreateTickets(ctx context.Context, tickets []entities.Ticket) error
}

type SeatAllocator interface {
	AllocateBatch(
		ctx context.Context,
		eventID uuid.UUID,
		quantity int,
		persist func(ctx context.Context, seats []int64) error,
	) ([]int64, error)
}

type EventsRepository interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*entities.Event, error)
}

type TicketTypesRepository interface {
	GetTicketType(ctx context.Context, id uuid.UUID) (*entities.TicketType, error)
}

// EventPublisher publishes integration events; inside a purchase it is
// backed by the transactional outbox, so the event commits with the order.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// EventBusFactory builds a publisher bound to the transaction in ctx.
type EventBusFactory interface {
	EventBus(ctx context.Context) (EventPublisher, error)
}

// TrManager runs fn inside a database transaction carried through ctx.
type TrManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type Usecase struct {
	holds       HoldsStore
	orders      OrdersRepository
	tickets     TicketsRepository
	seats       SeatAllocator
	events      EventsRepository
	ticketTypes TicketTypesRepository
	trManager   TrManager
	busFactory  EventBusFactory
	now         func() time.Time
}

func NewUsecase(
	holds HoldsStore,
	orders OrdersRepository,
	tickets TicketsRepository,
	seats SeatAllocator,
	events EventsRepository,
	ticketTypes TicketTypesRepository,
	trManager TrManager,
	busFactory EventBusFactory,
) *Usecase {
	return &Usecase{
		holds:       holds,
		orders:      orders,
		tickets:     tickets,
		seats:       seats,
		events:      events,
		ticketTypes: ticketTypes,
		trManager:   trManager,
		busFactory:  busFactory,
		now:         time.Now,
	}
}

type Result struct {
	Order   *entities.Order
	Created bool
}

// Purchase finalizes a reservation. Replays with a known payment intent id
// short-circuit to the stored order before the hold is touched, so a retry
// can never issue tickets or debit capacity twice.
func (u *Usecase) Purchase(
	ctx context.Context,
	reservationID uuid.UUID,
	paymentIntentID string,
	caller string,
) (Result, error) {
	if existing, err := u.orders.GetByPaymentIntentID(ctx, paymentIntentID); err != nil {
		return Result{}, err
	} else if existing != nil {
		return Result{Order: existing, Created: false}, nil
	}

	hold, err := u.holds.Get(reservationID)
	if errors.Is(err, entities.ErrHoldNotFound) {
		return Result{}, entities.ErrHoldNotActive
	}
	if err != nil {
		return Result{}, err
	}

	now := u.now()
	if hold.Status != entities.HoldStatusActive || hold.Expired(now) {
		return Result{}, entities.ErrHoldNotActive
	}
	if !strings.EqualFold(hold.BuyerEmail, caller) {
		return Result{}, entities.ErrForbidden
	}

	// Single-use guard: only one caller observes ACTIVE and wins.
	hold, err = u.holds.Consume(reservationID, now)
	if errors.Is(err, entities.ErrHoldNotFound) {
		return Result{}, entities.ErrHoldNotActive
	}
	if err != nil {
		return Result{}, err
	}

	order, err := u.issue(ctx, hold, paymentIntentID)
	if errors.Is(err, entities.ErrOrderExists) {
		// A concurrent purchase with the same payment intent id finished
		// first; replaying its order is the defined success path.
		existing, lookupErr := u.orders.GetByPaymentIntentID(ctx, paymentIntentID)
		if lookupErr != nil {
			return Result{}, lookupErr
		}
		if existing != nil {
			return Result{Order: existing, Created: false}, nil
		}
		return Result{}, err
	}
	if err != nil {
		// Nothing was persisted; the consumed hold's capacity goes back.
		u.holds.Discard(reservationID)
		return Result{}, err
	}

	ordersCreatedTotal.Inc()
	logs.FromContext(ctx).
		WithField("order_number", order.OrderNumber).
		WithField("reservation_id", reservationID).
		Info("Order created")

	return Result{Order: order, Created: true}, nil
}

// issue persists the order, its tickets, and the completion event in one
// transaction. A lost seat race against another process aborts the
// transaction and is retried once with fresh seats.
func (u *Usecase) issue(ctx context.Context, hold entities.Hold, paymentIntentID string) (*entities.Order, error) {
	event, err := u.events.GetEvent(ctx, hold.EventID)
	if err != nil {
		return nil, err
	}
	ticketType, err := u.ticketTypes.GetTicketType(ctx, hold.TicketTypeID)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		order, err := u.issueOnce(ctx, hold, event, ticketType, paymentIntentID)
		if errors.Is(err, entities.ErrSeatConflict) {
			logs.FromContext(ctx).
				WithField("reservation_id", hold.ReservationID).
				Warn("Seat race lost, retrying allocation")
			lastErr = err
			continue
		}
		return order, err
	}
	return nil, lastErr
}

func (u *Usecase) issueOnce(
	ctx context.Context,
	hold entities.Hold,
	event *entities.Event,
	ticketType *entities.TicketType,
	paymentIntentID string,
) (*entities.Order, error) {
	order := entities.Order{
		ID:              uuid.New(),
		OrderNumber:     entities.OrderNumberFor(hold.ReservationID),
		PaymentIntentID: paymentIntentID,
		BuyerEmail:      hold.BuyerEmail,
		Total:           hold.LineTotal(),
		PurchasedAt:     u.now().UTC(),
	}

	err := u.trManager.Do(ctx, func(ctx context.Context) error {
		if err := u.orders.CreateOrder(ctx, order); err != nil {
			return err
		}

		_, err := u.seats.AllocateBatch(ctx, hold.EventID, hold.Quantity,
			func(ctx context.Context, seats []int64) error {
				order.Tickets = buildTickets(hold, event, ticketType, order.ID, seats)
				return u.tickets.CreateTickets(ctx, order.Tickets)
			})
		if err != nil {
			return err
		}

		bus, err := u.busFactory.EventBus(ctx)
		if err != nil {
			return fmt.Errorf("failed to create event bus: %w", err)
		}
		return bus.Publish(ctx, completedEvent(ctx, order, hold.ReservationID))
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func buildTickets(
	hold entities.Hold,
	event *entities.Event,
	ticketType *entities.TicketType,
	orderID uuid.UUID,
	seats []int64,
) []entities.Ticket {
	tickets := make([]entities.Ticket, 0, len(seats))
	for _, seat := range seats {
		tickets = append(tickets, entities.Ticket{
			ID:            uuid.New(),
			EventID:       hold.EventID,
			TicketTypeID:  hold.TicketTypeID,
			OrderID:       orderID,
			Seat:          seat,
			Description:   ticketType.Name,
			PricePaid:     hold.UnitPrice,
			Status:        entities.TicketStatusSold,
			EventStartsAt: event.StartsAt,
		})
	}
	return tickets
}

func completedEvent(ctx context.Context, order entities.Order, reservationID uuid.UUID) entities.TicketOrderCompleted_v1 {
	ticketIDs := make([]uuid.UUID, 0, len(order.Tickets))
	for _, t := range order.Tickets {
		ticketIDs = append(ticketIDs, t.ID)
	}

	return entities.TicketOrderCompleted_v1{
		Header:        entities.NewEventHeaderWithIdempotencyKey(idempotency.GetKey(ctx)),
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		ReservationID: reservationID,
		BuyerEmail:    order.BuyerEmail,
		Total:         order.Total,
		TicketIDs:     ticketIDs,
		PurchasedAt:   order.PurchasedAt,
	}
}
