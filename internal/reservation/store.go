// Package reservation owns the lifecycle of holds: time-bounded,
// capacity-backed claims on tickets. The Store is the only component that
// creates holds or moves them between states.
package reservation

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"eventpal/internal/entities"
	"eventpal/internal/inventory"
)

var activeHolds = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "reservation_active_holds",
	Help: "Number of holds currently in the ACTIVE state",
})

const DefaultHoldTTL = 15 * time.Minute

// Store keeps holds in a guarded map and routes every capacity claim or
// release through the inventory ledger. State transitions are compare-and-set
// under the store lock: exactly one of consume, cancel, or expire wins.
type Store struct {
	ledger *inventory.Ledger
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	holds map[uuid.UUID]*entities.Hold
}

type Option func(*Store)

// WithHoldTTL overrides the default hold lifetime.
func WithHoldTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithNowFunc substitutes the wall clock, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(ledger *inventory.Ledger, opts ...Option) *Store {
	s := &Store{
		ledger: ledger,
		ttl:    DefaultHoldTTL,
		now:    time.Now,
		holds:  make(map[uuid.UUID]*entities.Hold),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateHoldParams struct {
	EventID      uuid.UUID
	TicketTypeID uuid.UUID
	Quantity     int
	UnitPrice    entities.Money
	BuyerEmail   string
}

// CreateHold claims capacity through the ledger and, only on success,
// records a new ACTIVE hold. There is no check-then-act gap: the ledger
// commit is the single atomic admission decision.
func (s *Store) CreateHold(p CreateHoldParams) (entities.Hold, error) {
	if p.Quantity <= 0 {
		return entities.Hold{}, entities.ErrCapacityExceeded
	}

	if !s.ledger.TryCommit(p.TicketTypeID, p.Quantity) {
		return entities.Hold{}, entities.ErrCapacityExceeded
	}

	now := s.now()
	hold := entities.Hold{
		ReservationID: uuid.New(),
		EventID:       p.EventID,
		TicketTypeID:  p.TicketTypeID,
		Quantity:      p.Quantity,
		UnitPrice:     p.UnitPrice,
		BuyerEmail:    p.BuyerEmail,
		Status:        entities.HoldStatusActive,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.ttl),
	}

	s.mu.Lock()
	s.holds[hold.ReservationID] = &hold
	s.mu.Unlock()
	activeHolds.Inc()

	return hold, nil
}

func (s *Store) Get(reservationID uuid.UUID) (entities.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hold, ok := s.holds[reservationID]
	if !ok {
		return entities.Hold{}, entities.ErrHoldNotFound
	}
	return *hold, nil
}

// Consume moves an ACTIVE, unexpired hold to CONSUMED and returns it.
// A hold past its deadline that the reaper has not swept yet is expired on
// the spot, releasing its capacity. Capacity of a consumed hold stays
// committed: it is now backed by issued tickets.
func (s *Store) Consume(reservationID uuid.UUID, now time.Time) (entities.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hold, ok := s.holds[reservationID]
	if !ok {
		return entities.Hold{}, entities.ErrHoldNotFound
	}
	if hold.Status != entities.HoldStatusActive {
		return entities.Hold{}, entities.ErrHoldNotActive
	}
	if hold.Expired(now) {
		hold.Status = entities.HoldStatusExpired
		s.ledger.Release(hold.TicketTypeID, hold.Quantity)
		activeHolds.Dec()
		return entities.Hold{}, entities.ErrHoldNotActive
	}

	hold.Status = entities.HoldStatusConsumed
	activeHolds.Dec()
	return *hold, nil
}

// Discard returns a CONSUMED hold's capacity when the purchase that
// consumed it failed to persist any tickets. The hold ends CANCELLED; the
// guarded transition keeps the release to at most once.
func (s *Store) Discard(reservationID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hold, ok := s.holds[reservationID]
	if !ok || hold.Status != entities.HoldStatusConsumed {
		return
	}

	hold.Status = entities.HoldStatusCancelled
	s.ledger.Release(hold.TicketTypeID, hold.Quantity)
}

// Cancel releases an ACTIVE hold's capacity and marks it CANCELLED.
// Cancelling a hold that already reached a terminal state is a no-op.
func (s *Store) Cancel(reservationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hold, ok := s.holds[reservationID]
	if !ok {
		return entities.ErrHoldNotFound
	}
	if hold.Status != entities.HoldStatusActive {
		return nil
	}

	hold.Status = entities.HoldStatusCancelled
	s.ledger.Release(hold.TicketTypeID, hold.Quantity)
	activeHolds.Dec()
	return nil
}

// ListActiveFor returns the buyer's ACTIVE holds that are not past expiry.
func (s *Store) ListActiveFor(buyerEmail string, now time.Time) []entities.Hold {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entities.Hold
	for _, hold := range s.holds {
		if hold.Status != entities.HoldStatusActive || hold.Expired(now) {
			continue
		}
		if !strings.EqualFold(hold.BuyerEmail, buyerEmail) {
			continue
		}
		out = append(out, *hold)
	}
	return out
}

// ExpireDue transitions every ACTIVE hold past its deadline to EXPIRED,
// releases its capacity exactly once, and returns the expired holds.
func (s *Store) ExpireDue(now time.Time) []entities.Hold {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []entities.Hold
	for _, hold := range s.holds {
		if hold.Status != entities.HoldStatusActive || !hold.Expired(now) {
			continue
		}
		hold.Status = entities.HoldStatusExpired
		s.ledger.Release(hold.TicketTypeID, hold.Quantity)
		activeHolds.Dec()
		expired = append(expired, *hold)
	}
	return expired
}
