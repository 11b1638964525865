package orders

import "time"

type Customer struct {
	ID   string
	Name string
}

type Supplier struct {
	ID   string
	Name string
}

type Item struct {
	ID         string
	SupplierID string
	Name       string
	PriceCents int
	Stock      int
	Blocked    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Order is the persisted aggregate. The three flags are independent columns;
// see status.go for the state derived from them.
type Order struct {
	ID         string
	CustomerID string
	TotalCents int
	Closed     bool
	Archived   bool
	Deleted    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Lines      []OrderLine
}

// OrderLine snapshots the item price at the time the line was saved; edits
// later to the item's price never change a persisted subtotal.
type OrderLine struct {
	ID         string
	OrderID    string
	ItemID     string
	Qty        int
	PriceCents int
}

func (l OrderLine) SubtotalCents() int { return l.PriceCents * l.Qty }
