package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"eventpal/internal/entities"
)

type orderModel struct {
	ID              uuid.UUID `db:"id"`
	OrderNumber     string    `db:"order_number"`
	PaymentIntentID string    `db:"payment_intent_id"`
	BuyerEmail      string    `db:"buyer_email"`
	TotalAmount     float64   `db:"total_amount"`
	Currency        string    `db:"currency"`
	PurchasedAt     time.Time `db:"purchased_at"`
}

type OrdersRepo struct {
	db      *sqlx.DB
	getter  *trmsqlx.CtxGetter
	tickets *TicketsRepo
}

func NewOrdersRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter, tickets *TicketsRepo) *OrdersRepo {
	return &OrdersRepo{db: db, getter: getter, tickets: tickets}
}

// CreateOrder inserts the order row. A duplicate payment intent id means a
// concurrent purchase with the same idempotency key already won; callers
// translate ErrOrderExists back into the replay path.
func (r *OrdersRepo) CreateOrder(ctx context.Context, order entities.Order) error {
	query := `
		INSERT INTO ticket_orders (
			id, order_number, payment_intent_id, buyer_email, total_amount, currency, purchased_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)`

	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, query,
		order.ID,
		order.OrderNumber,
		order.PaymentIntentID,
		order.BuyerEmail,
		order.Total.Amount,
		order.Total.Currency,
		order.PurchasedAt,
	)
	if isUniqueViolation(err, "uq_ticket_orders_payment_intent") ||
		isUniqueViolation(err, "uq_ticket_orders_number") {
		return fmt.Errorf("payment intent %s: %w", order.PaymentIntentID, entities.ErrOrderExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByPaymentIntentID returns (nil, nil) when no order carries the payment
// intent id; absence is the normal first-purchase case, not an error.
func (r *OrdersRepo) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*entities.Order, error) {
	order, err := r.getOrder(ctx, `payment_intent_id = $1`, paymentIntentID)
	if errors.Is(err, entities.ErrOrderNotFound) {
		return nil, nil
	}
	return order, err
}

func (r *OrdersRepo) GetByOrderNumber(ctx context.Context, orderNumber string) (*entities.Order, error) {
	return r.getOrder(ctx, `order_number = $1`, orderNumber)
}

func (r *OrdersRepo) getOrder(ctx context.Context, where string, arg any) (*entities.Order, error) {
	var model orderModel

	query := `
		SELECT id, order_number, payment_intent_id, buyer_email, total_amount, currency, purchased_at
		FROM ticket_orders
		WHERE ` + where

	err := r.getter.DefaultTrOrDB(ctx, r.db).GetContext(ctx, &model, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entities.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	tickets, err := r.tickets.listByOrderID(ctx, model.ID)
	if err != nil {
		return nil, err
	}

	return &entities.Order{
		ID:              model.ID,
		OrderNumber:     model.OrderNumber,
		PaymentIntentID: model.PaymentIntentID,
		BuyerEmail:      model.BuyerEmail,
		Total: entities.Money{
			Amount:   model.TotalAmount,
			Currency: trimCurrency(model.Currency),
		},
		PurchasedAt: model.PurchasedAt,
		Tickets:     tickets,
	}, nil
}
