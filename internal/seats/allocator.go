// Package seats assigns seat numbers, unique within an event, to freshly
// issued tickets.
package seats

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SeatSource answers whether a seat is already taken by a persisted ticket.
type SeatSource interface {
	SeatTaken(ctx context.Context, eventID uuid.UUID, seat int64) (bool, error)
}

// Allocator hands out the lowest free seat numbers for an event, starting
// from 1. A per-event mutex is held across both the scan for free seats and
// the caller's persist step, so two purchases in this process cannot claim
// the same seats; the database unique constraint on (event_id, seat)
// backstops the lock.
type Allocator struct {
	source SeatSource

	mu         sync.Mutex
	eventLocks map[uuid.UUID]*sync.Mutex
}

func NewAllocator(source SeatSource) *Allocator {
	return &Allocator{
		source:     source,
		eventLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// AllocateBatch picks quantity seat numbers, skipping seats held by
// persisted tickets and seats claimed earlier in the same batch, then calls
// persist with the chosen seats while the event lock is still held. persist
// may be nil when the caller only needs the numbers.
func (a *Allocator) AllocateBatch(
	ctx context.Context,
	eventID uuid.UUID,
	quantity int,
	persist func(ctx context.Context, seats []int64) error,
) ([]int64, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	lock := a.lockFor(eventID)
	lock.Lock()
	defer lock.Unlock()

	picked := make(map[int64]struct{}, quantity)
	seats := make([]int64, 0, quantity)

	var seat int64 = 1
	for len(seats) < quantity {
		if _, ok := picked[seat]; ok {
			seat++
			continue
		}
		taken, err := a.source.SeatTaken(ctx, eventID, seat)
		if err != nil {
			return nil, fmt.Errorf("failed to check seat %d: %w", seat, err)
		}
		if !taken {
			picked[seat] = struct{}{}
			seats = append(seats, seat)
		}
		seat++
	}

	if persist != nil {
		if err := persist(ctx, seats); err != nil {
			return nil, err
		}
	}

	return seats, nil
}

func (a *Allocator) lockFor(eventID uuid.UUID) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	lock, ok := a.eventLocks[eventID]
	if !ok {
		lock = &sync.Mutex{}
		a.eventLocks[eventID] = lock
	}
	return lock
}
