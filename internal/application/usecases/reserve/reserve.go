// Package reserve implements the hold-taking side of the reservation
// engine: admission through the inventory ledger, price snapshotting, and
// the buyer-facing hold queries.
package reserve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"eventpal/internal/entities"
	"eventpal/internal/inventory"
	"eventpal/internal/logs"
	"eventpal/internal/reservation"
)

var (
	reservationsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_created_total",
		Help: "Total number of holds successfully created",
	})
	reservationsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservations_rejected_total",
		Help: "Total number of reserve calls rejected",
	}, []string{"reason"})
)

type EventsRepo interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*entities.Event, error)
}

type TicketTypesRepo interface {
	GetTicketType(ctx context.Context, id uuid.UUID) (*entities.TicketType, error)
}

type IssuedCounter interface {
	CountIssuedByTicketType(ctx context.Context, ticketTypeID uuid.UUID) (int, error)
}

type Usecase struct {
	events      EventsRepo
	ticketTypes TicketTypesRepo
	issued      IssuedCounter
	ledger      *inventory.Ledger
	holds       *reservation.Store
	now         func() time.Time
}

func NewUsecase(
	events EventsRepo,
	ticketTypes TicketTypesRepo,
	issued IssuedCounter,
	ledger *inventory.Ledger,
	holds *reservation.Store,
) *Usecase {
	return &Usecase{
		events:      events,
		ticketTypes: ticketTypes,
		issued:      issued,
		ledger:      ledger,
		holds:       holds,
		now:         time.Now,
	}
}

type ReserveInput struct {
	EventID      uuid.UUID
	TicketTypeID uuid.UUID
	Quantity     int
	BuyerEmail   string
}

// Reserve admits a hold against the ticket type's capacity. The ledger is
// seeded from persisted ticket counts the first time a type is seen, then
// the commit itself is the only admission check: there is no separate
// check-then-act window for concurrent reserves to slip through.
func (u *Usecase) Reserve(ctx context.Context, in ReserveInput) (entities.Hold, error) {
	if in.Quantity <= 0 {
		reservationsRejectedTotal.WithLabelValues("invalid_quantity").Inc()
		return entities.Hold{}, fmt.Errorf("quantity must be positive: %w", entities.ErrCapacityExceeded)
	}

	event, err := u.events.GetEvent(ctx, in.EventID)
	if err != nil {
		reservationsRejectedTotal.WithLabelValues("event_not_found").Inc()
		return entities.Hold{}, err
	}

	ticketType, err := u.ticketTypes.GetTicketType(ctx, in.TicketTypeID)
	if err != nil {
		reservationsRejectedTotal.WithLabelValues("ticket_type_not_found").Inc()
		return entities.Hold{}, err
	}
	if ticketType.EventID != event.ID {
		reservationsRejectedTotal.WithLabelValues("ticket_type_not_found").Inc()
		return entities.Hold{}, entities.ErrTicketTypeNotFound
	}
	if !u.onSale(ticketType) {
		reservationsRejectedTotal.WithLabelValues("not_on_sale").Inc()
		return entities.Hold{}, entities.ErrTicketTypeInactive
	}

	issued, err := u.issued.CountIssuedByTicketType(ctx, ticketType.ID)
	if err != nil {
		return entities.Hold{}, fmt.Errorf("failed to count issued tickets: %w", err)
	}
	u.ledger.Register(ticketType.ID, ticketType.Capacity, issued)

	hold, err := u.holds.CreateHold(reservation.CreateHoldParams{
		EventID:      event.ID,
		TicketTypeID: ticketType.ID,
		Quantity:     in.Quantity,
		UnitPrice:    ticketType.Price,
		BuyerEmail:   in.BuyerEmail,
	})
	if err != nil {
		reservationsRejectedTotal.WithLabelValues("capacity").Inc()
		return entities.Hold{}, err
	}

	reservationsCreatedTotal.Inc()
	logs.FromContext(ctx).
		WithField("reservation_id", hold.ReservationID).
		WithField("ticket_type_id", ticketType.ID).
		WithField("quantity", hold.Quantity).
		Info("Hold created")

	return hold, nil
}

// Cancel releases the caller's own hold; a hold already in a terminal state
// cancels as a no-op.
func (u *Usecase) Cancel(ctx context.Context, reservationID uuid.UUID, caller string) error {
	hold, err := u.holds.Get(reservationID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(hold.BuyerEmail, caller) {
		return entities.ErrForbidden
	}
	return u.holds.Cancel(reservationID)
}

// ListMyHolds returns the caller's ACTIVE, unexpired holds.
func (u *Usecase) ListMyHolds(_ context.Context, caller string) []entities.Hold {
	return u.holds.ListActiveFor(caller, u.now())
}

func (u *Usecase) onSale(tt *entities.TicketType) bool {
	if !tt.Active {
		return false
	}
	now := u.now()
	if tt.SalesStart != nil && now.Before(*tt.SalesStart) {
		return false
	}
	if tt.SalesEnd != nil && now.After(*tt.SalesEnd) {
		return false
	}
	return true
}
