package orders

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a customer, item or order id has no match.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates the input was rejected before any persistence
	// or stock attempt.
	ErrValidation = errors.New("validation failed")
	// ErrInsufficientStock indicates a requested quantity exceeds current
	// availability at commit time. Stock is never mutated on this failure.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidTransition indicates a lifecycle operation is not legal from
	// the order's current state.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// InsufficientStockError carries enough detail for the caller to point the
// user at the offending item. It unwraps to ErrInsufficientStock.
type InsufficientStockError struct {
	ItemID    string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: requested %d, available %d",
		e.ItemID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
