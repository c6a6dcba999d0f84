package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the ledger, the cart store, and the checkout
// service. Every business-rule failure is detected inside the transaction and
// rolls it back in full before reaching the caller.
var (
	// ErrNotFound covers a missing product, a missing cart item, and an item
	// that exists but belongs to another user's cart.
	ErrNotFound = errors.New("not found")

	// ErrEmptyCart rejects checkout before the mutating transaction opens.
	ErrEmptyCart = errors.New("cart is empty")

	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// InsufficientStockError names the product so the caller can retry with an
// adjusted quantity. The core never retries on its own.
type InsufficientStockError struct {
	ProductName string
	Available   int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: only %d available", e.ProductName, e.Available)
}

func IsInsufficientStock(err error) bool {
	var ise *InsufficientStockError
	return errors.As(err, &ise)
}
