package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderArchived = "OrderArchived"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // usually order_id
	Payload       json.RawMessage `json:"payload"`
}

type LineSnapshot struct {
	ItemID     string `json:"item_id"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
}

// OrderArchivedPayload is the order's final snapshot carried on the audit
// side channel when it is archived.
type OrderArchivedPayload struct {
	OrderID    string         `json:"order_id"`
	CustomerID string         `json:"customer_id"`
	TotalCents int            `json:"total_cents"`
	Lines      []LineSnapshot `json:"lines"`
	CreatedAt  time.Time      `json:"created_at"`
	ArchivedAt time.Time      `json:"archived_at"`
}

func SnapshotLines(lines []OrderLine) []LineSnapshot {
	out := make([]LineSnapshot, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineSnapshot{ItemID: l.ItemID, Qty: l.Qty, PriceCents: l.PriceCents})
	}
	return out
}
