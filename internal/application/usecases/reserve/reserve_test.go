package reserve_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventpal/internal/application/usecases/reserve"
	"eventpal/internal/entities"
	"eventpal/internal/inventory"
	"eventpal/internal/reservation"
)

type fakeEvents struct {
	event entities.Event
}

func (f *fakeEvents) GetEvent(_ context.Context, id uuid.UUID) (*entities.Event, error) {
	if id != f.event.ID {
		return nil, entities.ErrEventNotFound
	}
	event := f.event
	return &event, nil
}

type fakeTicketTypes struct {
	ticketType entities.TicketType
}

func (f *fakeTicketTypes) GetTicketType(_ context.Context, id uuid.UUID) (*entities.TicketType, error) {
	if id != f.ticketType.ID {
		return nil, entities.ErrTicketTypeNotFound
	}
	tt := f.ticketType
	return &tt, nil
}

type fakeIssuedCounter struct {
	issued int
	calls  int
}

func (f *fakeIssuedCounter) CountIssuedByTicketType(context.Context, uuid.UUID) (int, error) {
	f.calls++
	return f.issued, nil
}

type fixture struct {
	usecase *reserve.Usecase
	store   *reservation.Store
	issued  *fakeIssuedCounter

	event      entities.Event
	ticketType entities.TicketType
}

func newFixture(t *testing.T, mutate func(*entities.TicketType)) *fixture {
	t.Helper()

	event := entities.Event{
		ID:       uuid.New(),
		Name:     "Go Conference",
		Venue:    "Main Hall",
		StartsAt: time.Date(2026, 10, 1, 19, 0, 0, 0, time.UTC),
	}
	ticketType := entities.TicketType{
		ID:       uuid.New(),
		EventID:  event.ID,
		Name:     "standard",
		Capacity: 5,
		Price:    entities.Money{Amount: 40, Currency: "EUR"},
		Active:   true,
	}
	if mutate != nil {
		mutate(&ticketType)
	}

	ledger := inventory.NewLedger()
	store := reservation.NewStore(ledger)
	issued := &fakeIssuedCounter{}

	return &fixture{
		usecase: reserve.NewUsecase(
			&fakeEvents{event: event},
			&fakeTicketTypes{ticketType: ticketType},
			issued,
			ledger,
			store,
		),
		store:      store,
		issued:     issued,
		event:      event,
		ticketType: ticketType,
	}
}

func (f *fixture) input(quantity int) reserve.ReserveInput {
	return reserve.ReserveInput{
		EventID:      f.event.ID,
		TicketTypeID: f.ticketType.ID,
		Quantity:     quantity,
		BuyerEmail:   "buyer@example.com",
	}
}

func TestReserve_CreatesHold(t *testing.T) {
	f := newFixture(t, nil)

	hold, err := f.usecase.Reserve(context.Background(), f.input(2))
	require.NoError(t, err)

	assert.Equal(t, entities.HoldStatusActive, hold.Status)
	assert.Equal(t, 2, hold.Quantity)
	assert.Equal(t, f.ticketType.Price, hold.UnitPrice, "price is snapshotted at reserve time")
	assert.Equal(t, "buyer@example.com", hold.BuyerEmail)
	assert.True(t, hold.ExpiresAt.After(hold.CreatedAt))
}

func TestReserve_RejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.usecase.Reserve(context.Background(), f.input(0))
	assert.ErrorIs(t, err, entities.ErrCapacityExceeded)

	_, err = f.usecase.Reserve(context.Background(), f.input(-3))
	assert.ErrorIs(t, err, entities.ErrCapacityExceeded)
}

func TestReserve_RejectsOverCapacity(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.usecase.Reserve(context.Background(), f.input(3))
	require.NoError(t, err)

	_, err = f.usecase.Reserve(context.Background(), f.input(3))
	assert.ErrorIs(t, err, entities.ErrCapacityExceeded)

	_, err = f.usecase.Reserve(context.Background(), f.input(2))
	assert.NoError(t, err, "remaining capacity must stay reservable")
}

func TestReserve_SeedsLedgerFromIssuedTickets(t *testing.T) {
	f := newFixture(t, nil)
	f.issued.issued = 4

	_, err := f.usecase.Reserve(context.Background(), f.input(2))
	assert.ErrorIs(t, err, entities.ErrCapacityExceeded, "4 of 5 already sold leaves room for 1")

	_, err = f.usecase.Reserve(context.Background(), f.input(1))
	assert.NoError(t, err)
}

func TestReserve_UnknownEvent(t *testing.T) {
	f := newFixture(t, nil)
	in := f.input(1)
	in.EventID = uuid.New()

	_, err := f.usecase.Reserve(context.Background(), in)
	assert.ErrorIs(t, err, entities.ErrEventNotFound)
}

func TestReserve_TicketTypeOfOtherEvent(t *testing.T) {
	f := newFixture(t, func(tt *entities.TicketType) {
		tt.EventID = uuid.New()
	})

	_, err := f.usecase.Reserve(context.Background(), f.input(1))
	assert.ErrorIs(t, err, entities.ErrTicketTypeNotFound)
}

func TestReserve_InactiveTicketType(t *testing.T) {
	f := newFixture(t, func(tt *entities.TicketType) {
		tt.Active = false
	})

	_, err := f.usecase.Reserve(context.Background(), f.input(1))
	assert.ErrorIs(t, err, entities.ErrTicketTypeInactive)
}

func TestReserve_OutsideSalesWindow(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	f := newFixture(t, func(tt *entities.TicketType) {
		tt.SalesStart = &future
	})

	_, err := f.usecase.Reserve(context.Background(), f.input(1))
	assert.ErrorIs(t, err, entities.ErrTicketTypeInactive)

	past := time.Now().Add(-time.Hour)
	f = newFixture(t, func(tt *entities.TicketType) {
		tt.SalesEnd = &past
	})

	_, err = f.usecase.Reserve(context.Background(), f.input(1))
	assert.ErrorIs(t, err, entities.ErrTicketTypeInactive)
}

func TestCancel_OwnHoldReleasesCapacity(t *testing.T) {
	f := newFixture(t, nil)

	hold, err := f.usecase.Reserve(context.Background(), f.input(5))
	require.NoError(t, err)

	require.NoError(t, f.usecase.Cancel(context.Background(), hold.ReservationID, "BUYER@example.com"))

	_, err = f.usecase.Reserve(context.Background(), f.input(5))
	assert.NoError(t, err, "cancelled hold's capacity must be claimable again")
}

func TestCancel_OtherBuyersHold(t *testing.T) {
	f := newFixture(t, nil)

	hold, err := f.usecase.Reserve(context.Background(), f.input(1))
	require.NoError(t, err)

	err = f.usecase.Cancel(context.Background(), hold.ReservationID, "mallory@example.com")
	assert.ErrorIs(t, err, entities.ErrForbidden)
}

func TestCancel_UnknownHold(t *testing.T) {
	f := newFixture(t, nil)

	err := f.usecase.Cancel(context.Background(), uuid.New(), "buyer@example.com")
	assert.ErrorIs(t, err, entities.ErrHoldNotFound)
}

func TestListMyHolds(t *testing.T) {
	f := newFixture(t, nil)

	mine, err := f.usecase.Reserve(context.Background(), f.input(1))
	require.NoError(t, err)

	other := f.input(1)
	other.BuyerEmail = "someone.else@example.com"
	_, err = f.usecase.Reserve(context.Background(), other)
	require.NoError(t, err)

	holds := f.usecase.ListMyHolds(context.Background(), "buyer@example.com")
	require.Len(t, holds, 1)
	assert.Equal(t, mine.ReservationID, holds[0].ReservationID)
}
