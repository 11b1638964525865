package orders

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TurnoverQuery selects archived orders created within [From, To) whose
// grouping name matches the free-text filter, ranked by turnover.
type TurnoverQuery struct {
	From   time.Time
	To     time.Time
	Filter string
	Limit  int
}

func (q TurnoverQuery) limit() int {
	if q.Limit <= 0 {
		return 10
	}
	return q.Limit
}

type TurnoverRow struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Orders        int    `json:"orders"`
	Qty           int    `json:"qty,omitempty"`
	TurnoverCents int    `json:"turnover_cents"`
}

// TurnoverRepo is read-only: rollups over archived, non-deleted orders.
// A window with no data yields an empty slice, not an error.
type TurnoverRepo struct {
	DB *pgxpool.Pool
}

func (r *TurnoverRepo) ByCustomer(ctx context.Context, q TurnoverQuery) ([]TurnoverRow, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT c.id, c.name, COUNT(o.id), SUM(o.total_cents)
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.archived AND NOT o.deleted
		  AND o.created_at >= $1 AND o.created_at < $2
		  AND c.name ILIKE '%' || $3 || '%'
		GROUP BY c.id, c.name
		ORDER BY SUM(o.total_cents) DESC
		LIMIT $4`, q.From, q.To, q.Filter, q.limit())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TurnoverRow
	for rows.Next() {
		var t TurnoverRow
		if err := rows.Scan(&t.ID, &t.Name, &t.Orders, &t.TurnoverCents); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TurnoverRepo) ByItem(ctx context.Context, q TurnoverQuery) ([]TurnoverRow, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT i.id, i.name, COUNT(DISTINCT o.id), SUM(l.qty), SUM(l.qty * l.price_cents)
		FROM orders o
		JOIN order_lines l ON l.order_id = o.id
		JOIN items i ON i.id = l.item_id
		WHERE o.archived AND NOT o.deleted
		  AND o.created_at >= $1 AND o.created_at < $2
		  AND i.name ILIKE '%' || $3 || '%'
		GROUP BY i.id, i.name
		ORDER BY SUM(l.qty * l.price_cents) DESC
		LIMIT $4`, q.From, q.To, q.Filter, q.limit())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TurnoverRow
	for rows.Next() {
		var t TurnoverRow
		if err := rows.Scan(&t.ID, &t.Name, &t.Orders, &t.Qty, &t.TurnoverCents); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TurnoverRepo) BySupplier(ctx context.Context, q TurnoverQuery) ([]TurnoverRow, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT s.id, s.name, COUNT(DISTINCT o.id), SUM(l.qty), SUM(l.qty * l.price_cents)
		FROM orders o
		JOIN order_lines l ON l.order_id = o.id
		JOIN items i ON i.id = l.item_id
		JOIN suppliers s ON s.id = i.supplier_id
		WHERE o.archived AND NOT o.deleted
		  AND o.created_at >= $1 AND o.created_at < $2
		  AND s.name ILIKE '%' || $3 || '%'
		GROUP BY s.id, s.name
		ORDER BY SUM(l.qty * l.price_cents) DESC
		LIMIT $4`, q.From, q.To, q.Filter, q.limit())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TurnoverRow
	for rows.Next() {
		var t TurnoverRow
		if err := rows.Scan(&t.ID, &t.Name, &t.Orders, &t.Qty, &t.TurnoverCents); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
