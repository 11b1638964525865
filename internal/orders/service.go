package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/orderdesk/backoffice/internal/kafka"
)

// Store is the persistence contract the lifecycle manager drives. Each
// mutating method is atomic: the order write and its stock adjustments
// commit or roll back together.
type Store interface {
	FindCustomer(ctx context.Context, id string) (Customer, error)
	FindItem(ctx context.Context, id string) (Item, error)
	FindOrder(ctx context.Context, id string) (*Order, error)
	CreateOrder(ctx context.Context, cart *DraftCart) (*Order, error)
	UpdateOrderLines(ctx context.Context, orderID string, cart *DraftCart, deltas map[string]int) (*Order, error)
	SetClosed(ctx context.Context, orderID string, closed bool) (*Order, error)
	SetArchived(ctx context.Context, orderID string) (*Order, error)
	DeleteOrder(ctx context.Context, orderID string) error
	Available(ctx context.Context, itemID string, qty int) (bool, error)
}

// Carts is the session-scoped draft cart storage.
type Carts interface {
	Load(ctx context.Context, sessionID string, slot CartSlot) (*DraftCart, error)
	Save(ctx context.Context, sessionID string, slot CartSlot, cart *DraftCart) error
	Delete(ctx context.Context, sessionID string, slot CartSlot) error
}

// ArchivePublisher matches the async kafka producer; publishing never
// blocks the archive transition.
type ArchivePublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type ServiceDeps struct {
	Store       Store
	Carts       Carts
	Publisher   ArchivePublisher
	Logger      *zap.Logger
	ServiceName string
	Clock       func() time.Time
}

// Service is the order lifecycle manager: it validates drafts, guards state
// transitions and orchestrates the reconciler and the stock ledger.
type Service struct {
	store     Store
	carts     Carts
	publisher ArchivePublisher
	log       *zap.Logger
	name      string
	now       func() time.Time
}

func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Store == nil {
		return nil, errors.New("order service: store is required")
	}
	if deps.Carts == nil {
		return nil, errors.New("order service: cart storage is required")
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		store:     deps.Store,
		carts:     deps.Carts,
		publisher: deps.Publisher,
		log:       log,
		name:      deps.ServiceName,
		now:       func() time.Time { return clock().UTC() },
	}, nil
}

// StartCart begins a wizard for the session. For the edit slot the cart is
// seeded from the persisted order's lines; for the new slot the customer
// must exist.
func (s *Service) StartCart(ctx context.Context, sessionID string, slot CartSlot, customerID, orderID string) (*DraftCart, error) {
	var cart *DraftCart
	switch slot {
	case SlotNew:
		if customerID == "" {
			return nil, fmt.Errorf("%w: customer is required", ErrValidation)
		}
		if _, err := s.store.FindCustomer(ctx, customerID); err != nil {
			return nil, err
		}
		cart = NewDraftCart(customerID, "")
	case SlotEdit:
		if orderID == "" {
			return nil, fmt.Errorf("%w: order id is required", ErrValidation)
		}
		o, err := s.store.FindOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if !Editable(StateOf(o)) {
			return nil, fmt.Errorf("%w: cannot edit a %s order", ErrInvalidTransition, StateOf(o))
		}
		cart = NewDraftCart(o.CustomerID, o.ID)
		for _, l := range o.Lines {
			item, err := s.store.FindItem(ctx, l.ItemID)
			if err != nil {
				return nil, err
			}
			cart.Lines[l.ItemID] = DraftLine{
				ItemID:       l.ItemID,
				ItemName:     item.Name,
				Qty:          l.Qty,
				PriceCents:   l.PriceCents,
				PersistedQty: l.Qty,
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown cart slot %q", ErrValidation, slot)
	}
	if err := s.carts.Save(ctx, sessionID, slot, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) GetCart(ctx context.Context, sessionID string, slot CartSlot) (*DraftCart, error) {
	cart, err := s.carts.Load(ctx, sessionID, slot)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, fmt.Errorf("%w: no %s cart for session", ErrNotFound, slot)
	}
	return cart, nil
}

// AddCartLine adds qty of an item to the session's cart. Blocked items are
// rejected, and availability is pre-checked against current stock so the
// user hears about a shortage before finishing the wizard. The check is
// advisory only; the authoritative one runs inside the commit transaction.
func (s *Service) AddCartLine(ctx context.Context, sessionID string, slot CartSlot, itemID string, qty int) (*DraftCart, error) {
	cart, err := s.GetCart(ctx, sessionID, slot)
	if err != nil {
		return nil, err
	}
	item, err := s.store.FindItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Blocked {
		return nil, fmt.Errorf("%w: item %s is blocked", ErrValidation, itemID)
	}
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	// Shelf stock already excludes what the target order reserved, so in
	// the edit slot only the increase over the persisted quantity competes
	// for it.
	line := cart.Lines[itemID]
	increase := qty + line.Qty - line.PersistedQty
	if increase > 0 {
		ok, err := s.store.Available(ctx, itemID, increase)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &InsufficientStockError{ItemID: itemID, Requested: increase, Available: item.Stock}
		}
	}
	if err := cart.AddLine(item, qty); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, sessionID, slot, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) UpdateCartLine(ctx context.Context, sessionID string, slot CartSlot, itemID string, qty int) (*DraftCart, error) {
	cart, err := s.GetCart(ctx, sessionID, slot)
	if err != nil {
		return nil, err
	}
	if err := cart.UpdateLine(itemID, qty); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, sessionID, slot, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) RemoveCartLine(ctx context.Context, sessionID string, slot CartSlot, itemID string) (*DraftCart, error) {
	cart, err := s.GetCart(ctx, sessionID, slot)
	if err != nil {
		return nil, err
	}
	cart.RemoveLine(itemID)
	if err := s.carts.Save(ctx, sessionID, slot, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// CancelCart discards the session's cart. No stock or order state has been
// touched yet, so there is nothing to compensate.
func (s *Service) CancelCart(ctx context.Context, sessionID string, slot CartSlot) error {
	return s.carts.Delete(ctx, sessionID, slot)
}

// CreateOrder commits the session's new-order cart as an open order,
// decrementing stock for every line atomically, then discards the cart.
func (s *Service) CreateOrder(ctx context.Context, sessionID string) (*Order, error) {
	cart, err := s.GetCart(ctx, sessionID, SlotNew)
	if err != nil {
		return nil, err
	}
	if err := s.validateCart(ctx, cart); err != nil {
		return nil, err
	}
	o, err := s.store.CreateOrder(ctx, cart)
	if err != nil {
		return nil, err
	}
	if err := s.carts.Delete(ctx, sessionID, SlotNew); err != nil {
		s.log.Warn("discard cart after create failed", zap.String("order_id", o.ID), zap.Error(err))
	}
	s.log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("customer_id", o.CustomerID),
		zap.Int("total_cents", o.TotalCents),
		zap.Int("lines", len(o.Lines)))
	return o, nil
}

// EditOrder commits the session's edit cart against the persisted order:
// the reconciler's per-item deltas are re-validated and applied together
// with the line replacement in one transaction.
func (s *Service) EditOrder(ctx context.Context, sessionID, orderID string) (*Order, error) {
	cart, err := s.GetCart(ctx, sessionID, SlotEdit)
	if err != nil {
		return nil, err
	}
	if cart.OrderID != orderID {
		return nil, fmt.Errorf("%w: edit cart targets order %s, not %s", ErrValidation, cart.OrderID, orderID)
	}
	if err := s.validateCart(ctx, cart); err != nil {
		return nil, err
	}
	o, err := s.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !Editable(StateOf(o)) {
		return nil, fmt.Errorf("%w: cannot edit a %s order", ErrInvalidTransition, StateOf(o))
	}
	deltas := Reconcile(o.Lines, cart)
	updated, err := s.store.UpdateOrderLines(ctx, orderID, cart, deltas)
	if err != nil {
		return nil, err
	}
	if err := s.carts.Delete(ctx, sessionID, SlotEdit); err != nil {
		s.log.Warn("discard cart after edit failed", zap.String("order_id", orderID), zap.Error(err))
	}
	s.log.Info("order edited",
		zap.String("order_id", updated.ID),
		zap.Int("total_cents", updated.TotalCents),
		zap.Int("deltas", len(deltas)))
	return updated, nil
}

func (s *Service) CompleteOrder(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if StateOf(o) != StateOpen {
		return nil, fmt.Errorf("%w: complete requires an open order, got %s", ErrInvalidTransition, StateOf(o))
	}
	return s.store.SetClosed(ctx, orderID, true)
}

func (s *Service) IncompleteOrder(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if StateOf(o) != StateClosed {
		return nil, fmt.Errorf("%w: incomplete requires a closed order, got %s", ErrInvalidTransition, StateOf(o))
	}
	return s.store.SetClosed(ctx, orderID, false)
}

// ArchiveOrder marks a closed order as archived and emits its final
// snapshot on the audit side channel. Publish failures are logged and
// swallowed; they never roll back the archive.
func (s *Service) ArchiveOrder(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(StateOf(o), StateArchived) {
		return nil, fmt.Errorf("%w: archive requires a closed order, got %s", ErrInvalidTransition, StateOf(o))
	}
	archived, err := s.store.SetArchived(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.publishArchived(archived)
	s.log.Info("order archived", zap.String("order_id", orderID))
	return archived, nil
}

// DeleteOrder soft-deletes the order, restoring the full persisted quantity
// of every line. Archived orders are a durable record and cannot be
// deleted.
func (s *Service) DeleteOrder(ctx context.Context, orderID string) error {
	o, err := s.store.FindOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !CanTransition(StateOf(o), StateDeleted) {
		return fmt.Errorf("%w: cannot delete a %s order", ErrInvalidTransition, StateOf(o))
	}
	if err := s.store.DeleteOrder(ctx, orderID); err != nil {
		return err
	}
	s.log.Info("order deleted", zap.String("order_id", orderID), zap.Int("lines_restocked", len(o.Lines)))
	return nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	return s.store.FindOrder(ctx, orderID)
}

func (s *Service) validateCart(ctx context.Context, cart *DraftCart) error {
	if cart.Empty() {
		return fmt.Errorf("%w: cart is empty", ErrValidation)
	}
	if cart.CustomerID == "" {
		return fmt.Errorf("%w: customer is required", ErrValidation)
	}
	if _, err := s.store.FindCustomer(ctx, cart.CustomerID); err != nil {
		return err
	}
	for _, l := range cart.Lines {
		if l.Qty <= 0 {
			return fmt.Errorf("%w: quantity for item %s must be positive", ErrValidation, l.ItemID)
		}
	}
	return nil
}

func (s *Service) publishArchived(o *Order) {
	if s.publisher == nil {
		return
	}
	now := s.now()
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderArchived,
		EventVersion:  1,
		OccurredAt:    now,
		Producer:      s.name,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(OrderArchivedPayload{
			OrderID:    o.ID,
			CustomerID: o.CustomerID,
			TotalCents: o.TotalCents,
			Lines:      SnapshotLines(o.Lines),
			CreatedAt:  o.CreatedAt,
			ArchivedAt: now,
		}),
	}
	s.publisher.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderArchived)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
