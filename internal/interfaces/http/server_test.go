package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventpal/internal/application/usecases/purchase"
	"eventpal/internal/application/usecases/reserve"
	"eventpal/internal/entities"
	"eventpal/internal/inventory"
	"eventpal/internal/reservation"
	"eventpal/internal/seats"

	httpserver "eventpal/internal/interfaces/http"
)

// memStore is an in-memory stand-in for the postgres repositories, shared by
// the reserve and purchase services and the HTTP read endpoints.
type memStore struct {
	mu          sync.Mutex
	events      map[uuid.UUID]entities.Event
	ticketTypes map[uuid.UUID]entities.TicketType
	orders      []entities.Order
	tickets     []entities.Ticket
}

func newMemStore() *memStore {
	return &memStore{
		events:      make(map[uuid.UUID]entities.Event),
		ticketTypes: make(map[uuid.UUID]entities.TicketType),
	}
}

func (m *memStore) CreateEvent(_ context.Context, event entities.Event) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = uuid.New()
	m.events[event.ID] = event
	return event.ID, nil
}

func (m *memStore) GetEvent(_ context.Context, id uuid.UUID) (*entities.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return nil, entities.ErrEventNotFound
	}
	return &event, nil
}

func (m *memStore) CreateTicketType(_ context.Context, tt entities.TicketType) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tt.ID = uuid.New()
	m.ticketTypes[tt.ID] = tt
	return tt.ID, nil
}

func (m *memStore) GetTicketType(_ context.Context, id uuid.UUID) (*entities.TicketType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tt, ok := m.ticketTypes[id]
	if !ok {
		return nil, entities.ErrTicketTypeNotFound
	}
	return &tt, nil
}

func (m *memStore) CountIssuedByTicketType(_ context.Context, ticketTypeID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, t := range m.tickets {
		if t.TicketTypeID == ticketTypeID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) CreateOrder(_ context.Context, order entities.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orders {
		if existing.PaymentIntentID == order.PaymentIntentID {
			return entities.ErrOrderExists
		}
	}
	m.orders = append(m.orders, order)
	return nil
}

func (m *memStore) GetByPaymentIntentID(_ context.Context, paymentIntentID string) (*entities.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].PaymentIntentID == paymentIntentID {
			order := m.orders[i]
			return &order, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetByOrderNumber(_ context.Context, orderNumber string) (*entities.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.orders {
		if m.orders[i].OrderNumber == orderNumber {
			order := m.orders[i]
			return &order, nil
		}
	}
	return nil, entities.ErrOrderNotFound
}

func (m *memStore) CreateTickets(_ context.Context, tickets []entities.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets = append(m.tickets, tickets...)
	return nil
}

func (m *memStore) SeatTaken(_ context.Context, eventID uuid.UUID, seat int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.EventID == eventID && t.Seat == seat {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListByBuyer(_ context.Context, buyerEmail string) ([]entities.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordersByID := make(map[uuid.UUID]entities.Order, len(m.orders))
	for _, order := range m.orders {
		ordersByID[order.ID] = order
	}

	var out []entities.Ticket
	for _, t := range m.tickets {
		order, ok := ordersByID[t.OrderID]
		if ok && strings.EqualFold(order.BuyerEmail, buyerEmail) {
			out = append(out, t)
		}
	}
	return out, nil
}

type passthroughTrManager struct{}

func (passthroughTrManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopBus struct{}

func (nopBus) Publish(context.Context, any) error { return nil }

type nopBusFactory struct{}

func (nopBusFactory) EventBus(context.Context) (purchase.EventPublisher, error) {
	return nopBus{}, nil
}

type testServer struct {
	e     *echo.Echo
	store *memStore

	eventID      uuid.UUID
	ticketTypeID uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := newMemStore()
	ledger := inventory.NewLedger()
	holds := reservation.NewStore(ledger)

	reserveService := reserve.NewUsecase(store, store, store, ledger, holds)
	purchaseService := purchase.NewUsecase(
		holds,
		store,
		store,
		seats.NewAllocator(store),
		store,
		store,
		passthroughTrManager{},
		nopBusFactory{},
	)

	e := echo.New()
	httpserver.NewServer(
		e,
		":0",
		reserveService,
		purchaseService,
		store,
		store,
		store,
		store,
		func() bool { return true },
	)

	eventID, err := store.CreateEvent(context.Background(), entities.Event{
		Name:     "Go Conference",
		Venue:    "Main Hall",
		StartsAt: time.Date(2026, 10, 1, 19, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	ticketTypeID, err := store.CreateTicketType(context.Background(), entities.TicketType{
		EventID:  eventID,
		Name:     "standard",
		Capacity: 5,
		Price:    entities.Money{Amount: 40, Currency: "EUR"},
		Active:   true,
	})
	require.NoError(t, err)

	return &testServer{
		e:            e,
		store:        store,
		eventID:      eventID,
		ticketTypeID: ticketTypeID,
	}
}

func (s *testServer) do(method, path, buyer string, body any) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if buyer != "" {
		req.Header.Set("X-Buyer-Email", buyer)
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) reserve(t *testing.T, buyer string, quantity int) uuid.UUID {
	t.Helper()

	rec := s.do(http.MethodPost, "/reservations", buyer, map[string]any{
		"event_id":       s.eventID,
		"ticket_type_id": s.ticketTypeID,
		"quantity":       quantity,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var response struct {
		ReservationID uuid.UUID `json:"reservation_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	return response.ReservationID
}

func TestMissingBuyerHeader(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/reservations", "", map[string]any{
		"event_id":       s.eventID,
		"ticket_type_id": s.ticketTypeID,
		"quantity":       1,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReserveHandler(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/reservations", "buyer@example.com", map[string]any{
		"event_id":       s.eventID,
		"ticket_type_id": s.ticketTypeID,
		"quantity":       2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var response struct {
		ReservationID uuid.UUID      `json:"reservation_id"`
		Quantity      int            `json:"quantity"`
		Total         entities.Money `json:"total"`
		Status        string         `json:"status"`
		ExpiresAt     time.Time      `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.NotEqual(t, uuid.Nil, response.ReservationID)
	assert.Equal(t, 2, response.Quantity)
	assert.Equal(t, entities.Money{Amount: 80, Currency: "EUR"}, response.Total)
	assert.Equal(t, "ACTIVE", response.Status)
	assert.True(t, response.ExpiresAt.After(time.Now()))
}

func TestReserveHandler_Validation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/reservations", "buyer@example.com", map[string]any{
		"event_id":       s.eventID,
		"ticket_type_id": s.ticketTypeID,
		"quantity":       0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReserveHandler_CapacityExceeded(t *testing.T) {
	s := newTestServer(t)
	s.reserve(t, "buyer@example.com", 5)

	rec := s.do(http.MethodPost, "/reservations", "buyer@example.com", map[string]any{
		"event_id":       s.eventID,
		"ticket_type_id": s.ticketTypeID,
		"quantity":       1,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReserveHandler_UnknownEvent(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/reservations", "buyer@example.com", map[string]any{
		"event_id":       uuid.New(),
		"ticket_type_id": s.ticketTypeID,
		"quantity":       1,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListReservationsHandler(t *testing.T) {
	s := newTestServer(t)
	reservationID := s.reserve(t, "buyer@example.com", 1)
	s.reserve(t, "other@example.com", 1)

	rec := s.do(http.MethodGet, "/reservations", "buyer@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var response []struct {
		ReservationID uuid.UUID `json:"reservation_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, reservationID, response[0].ReservationID)
}

func TestCancelReservationHandler(t *testing.T) {
	s := newTestServer(t)
	reservationID := s.reserve(t, "buyer@example.com", 5)

	rec := s.do(http.MethodDelete, "/reservations/"+reservationID.String(), "buyer@example.com", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodPost, "/reservations", "buyer@example.com", map[string]any{
		"event_id":       s.eventID,
		"ticket_type_id": s.ticketTypeID,
		"quantity":       5,
	})
	assert.Equal(t, http.StatusCreated, rec.Code, "cancelled capacity must be reservable again")
}

func TestCancelReservationHandler_OtherBuyer(t *testing.T) {
	s := newTestServer(t)
	reservationID := s.reserve(t, "buyer@example.com", 1)

	rec := s.do(http.MethodDelete, "/reservations/"+reservationID.String(), "mallory@example.com", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPurchaseHandler(t *testing.T) {
	s := newTestServer(t)
	reservationID := s.reserve(t, "buyer@example.com", 2)

	rec := s.do(http.MethodPost, "/purchases", "buyer@example.com", map[string]any{
		"reservation_id":    reservationID,
		"payment_intent_id": "pi_1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order entities.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, "ORD-"+reservationID.String(), order.OrderNumber)
	assert.Len(t, order.Tickets, 2)

	// Same payment intent replays the stored order with a 200.
	rec = s.do(http.MethodPost, "/purchases", "buyer@example.com", map[string]any{
		"reservation_id":    reservationID,
		"payment_intent_id": "pi_1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var replayed entities.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replayed))
	assert.Equal(t, order.ID, replayed.ID)
}

func TestPurchaseHandler_MissingPaymentIntent(t *testing.T) {
	s := newTestServer(t)
	reservationID := s.reserve(t, "buyer@example.com", 1)

	rec := s.do(http.MethodPost, "/purchases", "buyer@example.com", map[string]any{
		"reservation_id": reservationID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchaseHandler_UnknownReservation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/purchases", "buyer@example.com", map[string]any{
		"reservation_id":    uuid.New(),
		"payment_intent_id": "pi_1",
	})
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestPurchaseHandler_OtherBuyer(t *testing.T) {
	s := newTestServer(t)
	reservationID := s.reserve(t, "buyer@example.com", 1)

	rec := s.do(http.MethodPost, "/purchases", "mallory@example.com", map[string]any{
		"reservation_id":    reservationID,
		"payment_intent_id": "pi_1",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetOrderHandler(t *testing.T) {
	s := newTestServer(t)
	reservationID := s.reserve(t, "buyer@example.com", 1)

	rec := s.do(http.MethodPost, "/purchases", "buyer@example.com", map[string]any{
		"reservation_id":    reservationID,
		"payment_intent_id": "pi_1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	orderNumber := "ORD-" + reservationID.String()

	rec = s.do(http.MethodGet, "/orders/"+orderNumber, "BUYER@example.com", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "buyer match is case insensitive")

	rec = s.do(http.MethodGet, "/orders/"+orderNumber, "mallory@example.com", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/orders/ORD-"+uuid.NewString(), "buyer@example.com", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTicketsHandler(t *testing.T) {
	s := newTestServer(t)
	reservationID := s.reserve(t, "buyer@example.com", 2)

	rec := s.do(http.MethodPost, "/purchases", "buyer@example.com", map[string]any{
		"reservation_id":    reservationID,
		"payment_intent_id": "pi_1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/tickets", "buyer@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tickets []entities.Ticket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tickets))
	assert.Len(t, tickets, 2)

	rec = s.do(http.MethodGet, "/tickets", "other@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	tickets = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tickets))
	assert.Empty(t, tickets)
}

func TestCreateEventHandler(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/events", "", map[string]any{
		"name":      "Another Conference",
		"venue":     "Hall B",
		"starts_at": time.Date(2026, 11, 5, 18, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var response struct {
		EventID uuid.UUID `json:"event_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.NotEqual(t, uuid.Nil, response.EventID)
}

func TestCreateTicketTypeHandler_Validation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/ticket-types", "", map[string]any{
		"event_id": s.eventID,
		"name":     "vip",
		"capacity": 0,
		"price":    100.0,
		"currency": "EUR",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/ticket-types", "", map[string]any{
		"event_id": uuid.New(),
		"name":     "vip",
		"capacity": 10,
		"price":    100.0,
		"currency": "EUR",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
