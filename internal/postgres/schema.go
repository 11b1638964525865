package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the full DDL for the back office. Statements are idempotent so
// EnsureSchema can run on every startup.
const Schema = `
CREATE TABLE IF NOT EXISTS customers (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS suppliers (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS items (
	id          TEXT PRIMARY KEY,
	supplier_id TEXT REFERENCES suppliers(id),
	name        TEXT NOT NULL,
	price_cents INTEGER NOT NULL CHECK (price_cents >= 0),
	stock       INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
	blocked     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS orders (
	id          TEXT PRIMARY KEY,
	customer_id TEXT NOT NULL REFERENCES customers(id),
	total_cents INTEGER NOT NULL DEFAULT 0,
	closed      BOOLEAN NOT NULL DEFAULT FALSE,
	archived    BOOLEAN NOT NULL DEFAULT FALSE,
	deleted     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS order_lines (
	id          TEXT PRIMARY KEY,
	order_id    TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	item_id     TEXT NOT NULL REFERENCES items(id),
	qty         INTEGER NOT NULL CHECK (qty > 0),
	price_cents INTEGER NOT NULL,
	UNIQUE (order_id, item_id)
);

CREATE TABLE IF NOT EXISTS audit_exports (
	event_id    TEXT PRIMARY KEY,
	order_id    TEXT NOT NULL,
	payload     JSONB NOT NULL,
	exported_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_orders_flags ON orders (deleted, archived, closed);
CREATE INDEX IF NOT EXISTS idx_order_lines_order ON order_lines (order_id);
`

// EnsureSchema applies the embedded DDL.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}
