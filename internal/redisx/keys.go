package redisx

import "time"

const (
	// Draft cart for the "new order" wizard: cart:new:{session_id}
	KeyCartNew = "cart:new:%s"

	// Draft cart for the "edit order" wizard: cart:edit:{session_id}.
	// Deliberately a separate key from KeyCartNew so the two wizards of one
	// session never share a slot.
	KeyCartEdit = "cart:edit:%s"

	// Cached order snapshot: order:{order_id} -> order JSON
	KeyOrderSnapshot = "order:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCart     = 12 * time.Hour
	TTLSnapshot = 5 * time.Minute
	TTLDedup    = 48 * time.Hour
)
