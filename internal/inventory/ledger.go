// Package inventory holds the per-ticket-type capacity ledger. Every claim
// or release of capacity in the process goes through the Ledger; nothing
// else mutates committed counts.
package inventory

import (
	"sync"

	"github.com/google/uuid"
)

type counter struct {
	mu        sync.Mutex
	capacity  int
	committed int
}

// Ledger tracks, per ticket-type id, the fixed capacity and the units
// currently committed to live holds or issued tickets. Counters for
// different ticket types never block each other.
type Ledger struct {
	mu       sync.RWMutex
	counters map[uuid.UUID]*counter
}

func NewLedger() *Ledger {
	return &Ledger{
		counters: make(map[uuid.UUID]*counter),
	}
}

// Register seeds the counter for a ticket type. The first registration wins;
// later calls are no-ops, so callers can register on every request without
// clobbering in-flight commitments. issued pre-commits capacity already
// backed by persisted tickets.
func (l *Ledger) Register(ticketTypeID uuid.UUID, capacity, issued int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.counters[ticketTypeID]; ok {
		return
	}
	if issued > capacity {
		issued = capacity
	}
	l.counters[ticketTypeID] = &counter{capacity: capacity, committed: issued}
}

// TryCommit atomically raises the committed count by quantity if the result
// stays within capacity. Returns false, without mutating, otherwise or when
// the ticket type was never registered.
func (l *Ledger) TryCommit(ticketTypeID uuid.UUID, quantity int) bool {
	c := l.counter(ticketTypeID)
	if c == nil || quantity <= 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.committed+quantity > c.capacity {
		return false
	}
	c.committed += quantity
	return true
}

// Release lowers the committed count, floored at zero. Releasing more than
// is committed (a double release) must not corrupt the counter.
func (l *Ledger) Release(ticketTypeID uuid.UUID, quantity int) {
	c := l.counter(ticketTypeID)
	if c == nil || quantity <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.committed -= quantity
	if c.committed < 0 {
		c.committed = 0
	}
}

// Committed reports the current committed count for a ticket type.
func (l *Ledger) Committed(ticketTypeID uuid.UUID) int {
	c := l.counter(ticketTypeID)
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.committed
}

func (l *Ledger) counter(ticketTypeID uuid.UUID) *counter {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.counters[ticketTypeID]
}
