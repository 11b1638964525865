package orders

import (
	"fmt"
	"sort"
)

// DraftLine is one (item, qty) entry of a draft cart. The unit price is
// snapshotted when the line is first added. PersistedQty is the quantity
// the target order already holds for this item; it stays zero in a
// new-order cart and lets advisory stock checks size only the increase
// over what the order has already reserved.
type DraftLine struct {
	ItemID       string `json:"item_id"`
	ItemName     string `json:"item_name"`
	Qty          int    `json:"qty"`
	PriceCents   int    `json:"price_cents"`
	PersistedQty int    `json:"persisted_qty,omitempty"`
}

func (l DraftLine) SubtotalCents() int { return l.PriceCents * l.Qty }

// DraftCart accumulates order lines across requests before an order is
// committed. It is confined to one interactive session and never persisted
// to the database; OrderID is empty for a brand-new order and set to the
// target order for an edit workflow.
type DraftCart struct {
	OrderID    string               `json:"order_id,omitempty"`
	CustomerID string               `json:"customer_id"`
	Lines      map[string]DraftLine `json:"lines"` // keyed by item id
}

func NewDraftCart(customerID, orderID string) *DraftCart {
	return &DraftCart{
		OrderID:    orderID,
		CustomerID: customerID,
		Lines:      map[string]DraftLine{},
	}
}

// AddLine adds qty of the item, accumulating onto an existing line rather
// than duplicating it. qty must be positive.
func (c *DraftCart) AddLine(item Item, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if c.Lines == nil {
		c.Lines = map[string]DraftLine{}
	}
	line, ok := c.Lines[item.ID]
	if !ok {
		line = DraftLine{ItemID: item.ID, ItemName: item.Name, PriceCents: item.PriceCents}
	}
	line.Qty += qty
	c.Lines[item.ID] = line
	return nil
}

// UpdateLine replaces the line's quantity. Zero removes the line; a missing
// line is a silent no-op so a concurrent duplicate remove cannot surprise
// the caller.
func (c *DraftCart) UpdateLine(itemID string, qty int) error {
	if qty < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}
	line, ok := c.Lines[itemID]
	if !ok {
		return nil
	}
	if qty == 0 {
		delete(c.Lines, itemID)
		return nil
	}
	line.Qty = qty
	c.Lines[itemID] = line
	return nil
}

// RemoveLine drops the line if present.
func (c *DraftCart) RemoveLine(itemID string) {
	delete(c.Lines, itemID)
}

// TotalCents recomputes the cart total from the current lines on every call,
// so it can never drift from line edits.
func (c *DraftCart) TotalCents() int {
	total := 0
	for _, l := range c.Lines {
		total += l.SubtotalCents()
	}
	return total
}

// SortedLines returns the lines ordered by item name for presentation.
func (c *DraftCart) SortedLines() []DraftLine {
	out := make([]DraftLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemName != out[j].ItemName {
			return out[i].ItemName < out[j].ItemName
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

func (c *DraftCart) Empty() bool { return len(c.Lines) == 0 }
