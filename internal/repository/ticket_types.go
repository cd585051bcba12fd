package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"eventpal/internal/entities"
)

type ticketTypeModel struct {
	ID            uuid.UUID    `db:"id"`
	EventID       uuid.UUID    `db:"event_id"`
	Name          string       `db:"name"`
	Capacity      int          `db:"capacity"`
	PriceAmount   float64      `db:"price_amount"`
	PriceCurrency string       `db:"price_currency"`
	Active        bool         `db:"active"`
	SalesStart    sql.NullTime `db:"sales_start"`
	SalesEnd      sql.NullTime `db:"sales_end"`
}

type TicketTypesRepo struct {
	db *sqlx.DB
}

func NewTicketTypesRepo(db *sqlx.DB) *TicketTypesRepo {
	return &TicketTypesRepo{db: db}
}

func (r *TicketTypesRepo) CreateTicketType(ctx context.Context, tt entities.TicketType) (uuid.UUID, error) {
	var id uuid.UUID

	query := `
		INSERT INTO ticket_types (
			event_id, name, capacity, price_amount, price_currency, active, sales_start, sales_end
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		tt.EventID,
		tt.Name,
		tt.Capacity,
		tt.Price.Amount,
		tt.Price.Currency,
		tt.Active,
		tt.SalesStart,
		tt.SalesEnd,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create ticket type: %w", err)
	}

	return id, nil
}

func (r *TicketTypesRepo) GetTicketType(ctx context.Context, id uuid.UUID) (*entities.TicketType, error) {
	var model ticketTypeModel

	query := `
		SELECT id, event_id, name, capacity, price_amount, price_currency, active, sales_start, sales_end
		FROM ticket_types
		WHERE id = $1`

	err := r.db.GetContext(ctx, &model, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entities.ErrTicketTypeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket type: %w", err)
	}

	return modelToTicketType(model), nil
}

func modelToTicketType(m ticketTypeModel) *entities.TicketType {
	tt := &entities.TicketType{
		ID:       m.ID,
		EventID:  m.EventID,
		Name:     m.Name,
		Capacity: m.Capacity,
		Price: entities.Money{
			Amount:   m.PriceAmount,
			Currency: trimCurrency(m.PriceCurrency),
		},
		Active: m.Active,
	}
	if m.SalesStart.Valid {
		t := m.SalesStart.Time
		tt.SalesStart = &t
	}
	if m.SalesEnd.Valid {
		t := m.SalesEnd.Time
		tt.SalesEnd = &t
	}
	return tt
}
