package app

import (
	"context"

	cartapp "github.com/shopkit/checkout-core/internal/cart/app"
	inventoryapp "github.com/shopkit/checkout-core/internal/inventory/app"
	inventorydomain "github.com/shopkit/checkout-core/internal/inventory/domain"
	orderapp "github.com/shopkit/checkout-core/internal/order/app"
)

// Tx bundles the three component ports bound to one storage transaction.
// Mutations made through any of them commit or roll back together.
type Tx interface {
	Inventory() inventoryapp.Ledger
	Carts() cartapp.Repo
	Orders() orderapp.Ledger
}

// Store owns the transaction boundary. fn returning an error rolls the
// transaction back; otherwise it commits.
type Store interface {
	ExecTx(ctx context.Context, fn func(tx Tx) error) error
}

// LowStockRecorder receives products that crossed their threshold, strictly
// after the checkout transaction has committed. Implementations must not
// block the caller.
type LowStockRecorder interface {
	Enqueue(products ...inventorydomain.Product)
}
