package repository

import (
	"context"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"eventpal/internal/entities"
)

type ticketModel struct {
	ID            uuid.UUID `db:"ticket_id"`
	EventID       uuid.UUID `db:"event_id"`
	TicketTypeID  uuid.UUID `db:"ticket_type_id"`
	OrderID       uuid.UUID `db:"order_id"`
	Seat          int64     `db:"seat"`
	Description   string    `db:"description"`
	PriceAmount   float64   `db:"price_amount"`
	PriceCurrency string    `db:"price_currency"`
	Status        string    `db:"status"`
	EventStartsAt time.Time `db:"event_starts_at"`
}

// TicketsRepo resolves its executor through the transaction manager's
// context getter, so writes issued inside a usecase transaction join it.
type TicketsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewTicketsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *TicketsRepo {
	return &TicketsRepo{db: db, getter: getter}
}

// CreateTickets inserts one row per ticket. Losing the seat race to another
// process surfaces as ErrSeatConflict via the (event_id, seat) constraint.
func (r *TicketsRepo) CreateTickets(ctx context.Context, tickets []entities.Ticket) error {
	query := `
		INSERT INTO tickets (
			ticket_id, event_id, ticket_type_id, order_id, seat,
			description, price_amount, price_currency, status, event_starts_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)`

	exec := r.getter.DefaultTrOrDB(ctx, r.db)
	for _, t := range tickets {
		_, err := exec.ExecContext(ctx, query,
			t.ID,
			t.EventID,
			t.TicketTypeID,
			t.OrderID,
			t.Seat,
			t.Description,
			t.PricePaid.Amount,
			t.PricePaid.Currency,
			t.Status,
			t.EventStartsAt,
		)
		if isUniqueViolation(err, "uq_tickets_event_seat") {
			return fmt.Errorf("seat %d for event %s: %w", t.Seat, t.EventID, entities.ErrSeatConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}
	}
	return nil
}

func (r *TicketsRepo) SeatTaken(ctx context.Context, eventID uuid.UUID, seat int64) (bool, error) {
	var taken bool

	query := `SELECT EXISTS (SELECT 1 FROM tickets WHERE event_id = $1 AND seat = $2)`

	err := r.getter.DefaultTrOrDB(ctx, r.db).GetContext(ctx, &taken, query, eventID, seat)
	if err != nil {
		return false, fmt.Errorf("failed to check seat: %w", err)
	}
	return taken, nil
}

// CountIssuedByTicketType seeds the inventory ledger after a restart.
func (r *TicketsRepo) CountIssuedByTicketType(ctx context.Context, ticketTypeID uuid.UUID) (int, error) {
	var count int

	query := `SELECT COUNT(*) FROM tickets WHERE ticket_type_id = $1`

	err := r.db.GetContext(ctx, &count, query, ticketTypeID)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}

func (r *TicketsRepo) ListByBuyer(ctx context.Context, buyerEmail string) ([]entities.Ticket, error) {
	var models []ticketModel

	query := `
		SELECT t.ticket_id, t.event_id, t.ticket_type_id, t.order_id, t.seat,
			t.description, t.price_amount, t.price_currency, t.status, t.event_starts_at
		FROM tickets t
		JOIN ticket_orders o ON o.id = t.order_id
		WHERE LOWER(o.buyer_email) = LOWER($1)
		ORDER BY t.event_starts_at DESC`

	err := r.db.SelectContext(ctx, &models, query, buyerEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return modelsToTickets(models), nil
}

func (r *TicketsRepo) listByOrderID(ctx context.Context, orderID uuid.UUID) ([]entities.Ticket, error) {
	var models []ticketModel

	query := `
		SELECT ticket_id, event_id, ticket_type_id, order_id, seat,
			description, price_amount, price_currency, status, event_starts_at
		FROM tickets
		WHERE order_id = $1
		ORDER BY seat`

	err := r.getter.DefaultTrOrDB(ctx, r.db).SelectContext(ctx, &models, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order tickets: %w", err)
	}
	return modelsToTickets(models), nil
}

func modelsToTickets(models []ticketModel) []entities.Ticket {
	tickets := make([]entities.Ticket, 0, len(models))
	for _, m := range models {
		tickets = append(tickets, entities.Ticket{
			ID:           m.ID,
			EventID:      m.EventID,
			TicketTypeID: m.TicketTypeID,
			OrderID:      m.OrderID,
			Seat:         m.Seat,
			Description:  m.Description,
			PricePaid: entities.Money{
				Amount:   m.PriceAmount,
				Currency: trimCurrency(m.PriceCurrency),
			},
			Status:        entities.TicketStatus(m.Status),
			EventStartsAt: m.EventStartsAt,
		})
	}
	return tickets
}
