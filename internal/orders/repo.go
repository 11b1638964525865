package orders

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo persists the order aggregate. Every lifecycle mutation runs in a
// single transaction spanning the order write and all stock adjustments;
// a failure anywhere rolls the whole operation back.
type Repo struct {
	DB    *pgxpool.Pool
	Stock *StockLedger
}

func (r *Repo) FindCustomer(ctx context.Context, id string) (Customer, error) {
	var c Customer
	err := r.DB.QueryRow(ctx, `SELECT id, name FROM customers WHERE id=$1`, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return c, err
}

func (r *Repo) FindItem(ctx context.Context, id string) (Item, error) {
	var it Item
	err := r.DB.QueryRow(ctx, `
		SELECT id, COALESCE(supplier_id, ''), name, price_cents, stock, blocked, created_at, updated_at
		FROM items WHERE id=$1`, id).
		Scan(&it.ID, &it.SupplierID, &it.Name, &it.PriceCents, &it.Stock, &it.Blocked, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

func (r *Repo) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, COALESCE(supplier_id, ''), name, price_cents, stock, blocked, created_at, updated_at
		FROM items ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.SupplierID, &it.Name, &it.PriceCents, &it.Stock, &it.Blocked, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) FindOrder(ctx context.Context, id string) (*Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, customer_id, total_cents, closed, archived, deleted, created_at, updated_at
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.CustomerID, &o.TotalCents, &o.Closed, &o.Archived, &o.Deleted, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, item_id, qty, price_cents
		FROM order_lines WHERE order_id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ItemID, &l.Qty, &l.PriceCents); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	return &o, rows.Err()
}

// CreateOrder persists a new open order from the cart and decrements stock
// for every line, all-or-nothing. Items are locked in id order so two
// concurrent creates touching the same items cannot deadlock.
func (r *Repo) CreateOrder(ctx context.Context, cart *DraftCart) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for _, itemID := range sortedItemIDs(cart) {
		if err := r.Stock.Decrement(ctx, tx, itemID, cart.Lines[itemID].Qty); err != nil {
			return nil, err
		}
	}

	o := &Order{
		ID:         uuid.NewString(),
		CustomerID: cart.CustomerID,
		TotalCents: cart.TotalCents(),
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, customer_id, total_cents)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		o.ID, o.CustomerID, o.TotalCents).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	for _, l := range cart.SortedLines() {
		line := OrderLine{
			ID:         uuid.NewString(),
			OrderID:    o.ID,
			ItemID:     l.ItemID,
			Qty:        l.Qty,
			PriceCents: l.PriceCents,
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_lines(id, order_id, item_id, qty, price_cents)
			VALUES ($1, $2, $3, $4, $5)`,
			line.ID, line.OrderID, line.ItemID, line.Qty, line.PriceCents); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, line)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateOrderLines replaces the order's lines with the cart's and applies
// the reconciled per-item stock deltas in the same transaction. A shortage
// on any grown line aborts with no mutation committed. The order UPDATE
// runs first and re-asserts the flags, so a stale service-level snapshot
// can never edit an order that was archived or deleted in the meantime;
// the locked order row also serializes concurrent edits.
func (r *Repo) UpdateOrderLines(ctx context.Context, orderID string, cart *DraftCart, deltas map[string]int) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	o := &Order{ID: orderID, CustomerID: cart.CustomerID, TotalCents: cart.TotalCents()}
	err = tx.QueryRow(ctx, `
		UPDATE orders SET total_cents=$2, updated_at=now()
		WHERE id=$1 AND NOT deleted AND NOT archived
		RETURNING customer_id, closed, archived, deleted, created_at, updated_at`,
		orderID, o.TotalCents).
		Scan(&o.CustomerID, &o.Closed, &o.Archived, &o.Deleted, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.transitionRefused(ctx, orderID)
	}
	if err != nil {
		return nil, err
	}

	deltaIDs := make([]string, 0, len(deltas))
	for id := range deltas {
		deltaIDs = append(deltaIDs, id)
	}
	sort.Strings(deltaIDs)
	for _, itemID := range deltaIDs {
		if err := r.Stock.ApplyQtyDelta(ctx, tx, itemID, deltas[itemID]); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id=$1`, orderID); err != nil {
		return nil, err
	}

	for _, l := range cart.SortedLines() {
		line := OrderLine{
			ID:         uuid.NewString(),
			OrderID:    orderID,
			ItemID:     l.ItemID,
			Qty:        l.Qty,
			PriceCents: l.PriceCents,
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_lines(id, order_id, item_id, qty, price_cents)
			VALUES ($1, $2, $3, $4, $5)`,
			line.ID, line.OrderID, line.ItemID, line.Qty, line.PriceCents); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, line)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// SetClosed toggles the closed flag. The flags are re-asserted in the
// UPDATE itself so the toggle cannot land on an order archived or deleted
// after the caller last looked at it.
func (r *Repo) SetClosed(ctx context.Context, orderID string, closed bool) (*Order, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET closed=$2, updated_at=now()
		WHERE id=$1 AND NOT deleted AND NOT archived`, orderID, closed)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() != 1 {
		return nil, r.transitionRefused(ctx, orderID)
	}
	return r.FindOrder(ctx, orderID)
}

// SetArchived marks a closed order as archived. Only a closed, live order
// matches the predicate; anything else leaves zero rows affected.
func (r *Repo) SetArchived(ctx context.Context, orderID string) (*Order, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET archived=TRUE, updated_at=now()
		WHERE id=$1 AND closed AND NOT deleted AND NOT archived`, orderID)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() != 1 {
		return nil, r.transitionRefused(ctx, orderID)
	}
	return r.FindOrder(ctx, orderID)
}

// DeleteOrder soft-deletes the order and restores the full persisted
// quantity of every line. The row and its lines are retained for audit.
// The fenced UPDATE comes first: stock is only put back when this call is
// the one that flipped the deleted flag, so a second delete of the same
// order can never restock the lines again.
func (r *Repo) DeleteOrder(ctx context.Context, orderID string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET deleted=TRUE, updated_at=now()
		WHERE id=$1 AND NOT deleted AND NOT archived`, orderID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return r.transitionRefused(ctx, orderID)
	}

	rows, err := tx.Query(ctx, `
		SELECT item_id, qty FROM order_lines WHERE order_id=$1 ORDER BY item_id`, orderID)
	if err != nil {
		return err
	}
	type rec struct {
		itemID string
		qty    int
	}
	var recs []rec
	for rows.Next() {
		var x rec
		if err := rows.Scan(&x.itemID, &x.qty); err != nil {
			rows.Close()
			return err
		}
		recs = append(recs, x)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, x := range recs {
		if err := r.Stock.Increment(ctx, tx, x.itemID, x.qty); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// transitionRefused tells apart a missing order from one whose flags
// blocked a fenced UPDATE.
func (r *Repo) transitionRefused(ctx context.Context, orderID string) error {
	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, orderID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrInvalidTransition
}

// Available delegates to the ledger's advisory check.
func (r *Repo) Available(ctx context.Context, itemID string, qty int) (bool, error) {
	return r.Stock.Available(ctx, itemID, qty)
}

func sortedItemIDs(cart *DraftCart) []string {
	ids := make([]string, 0, len(cart.Lines))
	for id := range cart.Lines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
