package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StockLedger owns every mutation of item stock. The mutating operations
// take the caller's transaction so the stock adjustment and the order write
// commit or roll back as one unit; each decrement re-checks availability
// under a row lock, independent of any earlier Available call, so stock
// changing between check and commit cannot over-sell.
type StockLedger struct {
	DB *pgxpool.Pool
}

// Available is the advisory, non-locking pre-check used to give the user a
// friendly answer before the wizard finishes. The check inside Decrement is
// the authoritative one.
func (l *StockLedger) Available(ctx context.Context, itemID string, qty int) (bool, error) {
	var stock int
	err := l.DB.QueryRow(ctx, `SELECT stock FROM items WHERE id=$1`, itemID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return qty <= stock, nil
}

// Decrement locks the item row, re-checks availability and reduces stock.
// Returns InsufficientStockError when qty exceeds the locked stock; the
// caller's rollback then leaves stock untouched.
func (l *StockLedger) Decrement(ctx context.Context, tx pgx.Tx, itemID string, qty int) error {
	var stock int
	err := tx.QueryRow(ctx, `SELECT stock FROM items WHERE id=$1 FOR UPDATE`, itemID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if stock < qty {
		return &InsufficientStockError{ItemID: itemID, Requested: qty, Available: stock}
	}
	_, err = tx.Exec(ctx, `UPDATE items SET stock = stock - $2, updated_at = now() WHERE id=$1`, itemID, qty)
	return err
}

// Increment restores stock, used when an order is deleted or a line shrinks.
func (l *StockLedger) Increment(ctx context.Context, tx pgx.Tx, itemID string, qty int) error {
	ct, err := tx.Exec(ctx, `UPDATE items SET stock = stock + $2, updated_at = now() WHERE id=$1`, itemID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

// ApplyQtyDelta applies a reconciler delta: a positive committed-quantity
// delta consumes stock, a negative one restores it.
func (l *StockLedger) ApplyQtyDelta(ctx context.Context, tx pgx.Tx, itemID string, delta int) error {
	switch {
	case delta > 0:
		return l.Decrement(ctx, tx, itemID, delta)
	case delta < 0:
		return l.Increment(ctx, tx, itemID, -delta)
	}
	return nil
}
