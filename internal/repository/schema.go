package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func InitializeDBSchema(db *sqlx.DB) error {
	statements := []struct {
		name  string
		query string
	}{
		{"events", `
CREATE TABLE IF NOT EXISTS events (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name VARCHAR(255) NOT NULL,
	venue VARCHAR(255) NOT NULL,
	starts_at TIMESTAMP WITH TIME ZONE NOT NULL
);`},
		{"ticket_types", `
CREATE TABLE IF NOT EXISTS ticket_types (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	event_id UUID NOT NULL REFERENCES events (id),
	name VARCHAR(255) NOT NULL,
	capacity INTEGER NOT NULL,
	price_amount NUMERIC(10, 2) NOT NULL,
	price_currency CHAR(3) NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	sales_start TIMESTAMP WITH TIME ZONE,
	sales_end TIMESTAMP WITH TIME ZONE,
	CONSTRAINT uq_ticket_types_event_name UNIQUE (event_id, name)
);`},
		{"ticket_orders", `
CREATE TABLE IF NOT EXISTS ticket_orders (
	id UUID PRIMARY KEY,
	order_number VARCHAR(255) NOT NULL,
	payment_intent_id VARCHAR(255) NOT NULL,
	buyer_email VARCHAR(255) NOT NULL,
	total_amount NUMERIC(10, 2) NOT NULL,
	currency CHAR(3) NOT NULL,
	purchased_at TIMESTAMP WITH TIME ZONE NOT NULL,
	CONSTRAINT uq_ticket_orders_number UNIQUE (order_number),
	CONSTRAINT uq_ticket_orders_payment_intent UNIQUE (payment_intent_id)
);`},
		{"tickets", `
CREATE TABLE IF NOT EXISTS tickets (
	ticket_id UUID PRIMARY KEY,
	event_id UUID NOT NULL REFERENCES events (id),
	ticket_type_id UUID NOT NULL REFERENCES ticket_types (id),
	order_id UUID NOT NULL REFERENCES ticket_orders (id),
	seat BIGINT NOT NULL,
	description VARCHAR(255) NOT NULL,
	price_amount NUMERIC(10, 2) NOT NULL,
	price_currency CHAR(3) NOT NULL,
	status VARCHAR(32) NOT NULL,
	event_starts_at TIMESTAMP WITH TIME ZONE NOT NULL,
	CONSTRAINT uq_tickets_event_seat UNIQUE (event_id, seat)
);`},
		{"events_archive", `
CREATE TABLE IF NOT EXISTS events_archive (
	event_id UUID PRIMARY KEY,
	published_at TIMESTAMP WITH TIME ZONE NOT NULL,
	event_name VARCHAR(255) NOT NULL,
	event_payload JSONB NOT NULL
);`},
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(context.Background(), stmt.query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", stmt.name, err)
		}
	}
	return nil
}
