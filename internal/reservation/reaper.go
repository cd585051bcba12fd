package reservation

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"eventpal/internal/entities"
	"eventpal/internal/logs"
)

var holdsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "reservation_holds_expired_total",
	Help: "Total number of holds released by the expiry sweep",
})

type eventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// Reaper periodically sweeps the store for holds past expiry. Each sweep
// releases the hold's capacity (once, guarded by the store transition) and
// announces the expiry on the event bus.
type Reaper struct {
	store    *Store
	interval time.Duration
	eventBus eventPublisher
}

func NewReaper(store *Store, interval time.Duration, eventBus eventPublisher) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{
		store:    store,
		interval: interval,
		eventBus: eventBus,
	}
}

func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			r.Sweep(ctx, now)
		}
	}
}

// Sweep expires due holds as of now. Exposed separately so tests and lazy
// callers can trigger a sweep without the ticker.
func (r *Reaper) Sweep(ctx context.Context, now time.Time) {
	expired := r.store.ExpireDue(now)
	for _, hold := range expired {
		holdsExpiredTotal.Inc()
		logs.FromContext(ctx).
			WithField("reservation_id", hold.ReservationID).
			WithField("quantity", hold.Quantity).
			Info("Hold expired, capacity released")

		if r.eventBus == nil {
			continue
		}
		err := r.eventBus.Publish(ctx, entities.ReservationExpired_v1{
			Header:        entities.NewEventHeader(),
			ReservationID: hold.ReservationID,
			EventID:       hold.EventID,
			TicketTypeID:  hold.TicketTypeID,
			Quantity:      hold.Quantity,
			BuyerEmail:    hold.BuyerEmail,
			ExpiredAt:     now,
		})
		if err != nil {
			logs.FromContext(ctx).
				WithField("reservation_id", hold.ReservationID).
				WithField("error", err).
				Error("Failed to publish reservation expired event")
		}
	}
}
