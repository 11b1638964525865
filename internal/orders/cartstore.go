package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/orderdesk/backoffice/internal/redisx"
)

// CartSlot selects which of a session's two independent draft carts to use.
// The "new order" and "edit order" wizards may be open at the same time, so
// their carts live under distinct keys.
type CartSlot string

const (
	SlotNew  CartSlot = "new"
	SlotEdit CartSlot = "edit"
)

func ParseSlot(s string) (CartSlot, error) {
	switch CartSlot(s) {
	case SlotNew, SlotEdit:
		return CartSlot(s), nil
	}
	return "", fmt.Errorf("%w: unknown cart slot %q", ErrValidation, s)
}

// CartStore keeps session-scoped draft carts in redis with a TTL, so an
// abandoned wizard simply expires. Nothing has touched stock or orders at
// that point, so there is nothing to compensate.
type CartStore struct {
	Redis *redis.Client
}

func cartKey(slot CartSlot, sessionID string) string {
	if slot == SlotEdit {
		return fmt.Sprintf(redisx.KeyCartEdit, sessionID)
	}
	return fmt.Sprintf(redisx.KeyCartNew, sessionID)
}

// Load returns the session's cart for the slot, or nil when no workflow is
// in progress.
func (s *CartStore) Load(ctx context.Context, sessionID string, slot CartSlot) (*DraftCart, error) {
	b, err := s.Redis.Get(ctx, cartKey(slot, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cart DraftCart
	if err := json.Unmarshal(b, &cart); err != nil {
		return nil, err
	}
	if cart.Lines == nil {
		cart.Lines = map[string]DraftLine{}
	}
	return &cart, nil
}

func (s *CartStore) Save(ctx context.Context, sessionID string, slot CartSlot, cart *DraftCart) error {
	b, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.Redis.Set(ctx, cartKey(slot, sessionID), b, redisx.TTLCart).Err()
}

func (s *CartStore) Delete(ctx context.Context, sessionID string, slot CartSlot) error {
	return s.Redis.Del(ctx, cartKey(slot, sessionID)).Err()
}
