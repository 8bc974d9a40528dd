// Package schema owns the DDL for every table the service touches. The
// statements are idempotent so startup can run them unconditionally.
package schema

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL UNIQUE,
		is_admin   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		category       TEXT NOT NULL DEFAULT '',
		price          NUMERIC(12,2) NOT NULL DEFAULT 0,
		count_in_stock INTEGER NOT NULL DEFAULT 0 CHECK (count_in_stock >= 0),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id               TEXT PRIMARY KEY,
		owner_user_id    TEXT NOT NULL,
		payment_method   TEXT NOT NULL,
		items_price      NUMERIC(12,2) NOT NULL,
		shipping_price   NUMERIC(12,2) NOT NULL,
		tax_price        NUMERIC(12,2) NOT NULL,
		total_price      NUMERIC(12,2) NOT NULL,
		ship_full_name   TEXT NOT NULL DEFAULT '',
		ship_street      TEXT NOT NULL DEFAULT '',
		ship_city        TEXT NOT NULL DEFAULT '',
		ship_postal_code TEXT NOT NULL DEFAULT '',
		ship_country     TEXT NOT NULL DEFAULT '',
		payment_state    TEXT NOT NULL,
		payment_tx_id    TEXT,
		payment_status   TEXT,
		payer_email      TEXT,
		delivery_state   TEXT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL,
		paid_at          TIMESTAMPTZ,
		delivered_at     TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS orders_owner_idx ON orders (owner_user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL,
		name       TEXT NOT NULL DEFAULT '',
		quantity   INTEGER NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(12,2) NOT NULL,
		PRIMARY KEY (order_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS outbox (
		id             BIGSERIAL PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id   TEXT NOT NULL,
		type           TEXT NOT NULL,
		payload        BYTEA NOT NULL,
		traceparent    TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL DEFAULT 'pending',
		relay_id       TEXT,
		lease_until    TIMESTAMPTZ,
		retry_count    INTEGER NOT NULL DEFAULT 0,
		last_error     TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS outbox_pending_idx ON outbox (status, id)`,
}

// Ensure creates any missing tables and indexes.
func Ensure(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
