package app

import (
	"context"

	"github.com/shopkit/checkout-core/internal/inventory/domain"
)

// Ledger arbitrates all access to a product's stock. Every method runs inside
// the enclosing store transaction; ReserveCheck holds its row lock until that
// transaction ends.
type Ledger interface {
	// ReserveCheck locks the product row exclusively and returns its current
	// state. Returns checkout/domain.ErrNotFound if the product does not exist.
	ReserveCheck(ctx context.Context, productID string) (domain.Product, error)

	// ConditionalDecrement subtracts amount from the product's stock only if
	// enough stock remains, as a single compare-and-set at the storage layer.
	// It reports the number of rows affected: 0 means the condition failed and
	// nothing was mutated.
	ConditionalDecrement(ctx context.Context, productID string, amount int32) (int64, error)

	// Increment restores stock. No checkout flow consumes it today; it exists
	// for symmetry with ConditionalDecrement.
	Increment(ctx context.Context, productID string, amount int32) error

	// Get reads the product without locking it.
	Get(ctx context.Context, productID string) (domain.Product, error)
}
