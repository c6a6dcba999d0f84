package app

import (
	"context"

	"github.com/shopkit/checkout-core/internal/cart/domain"
)

// Repo is the cart store. It carries no locking discipline of its own: the
// checkout service serializes mutations through the inventory row locks.
type Repo interface {
	// GetOrCreate is idempotent; concurrent first-time calls for one user must
	// resolve to a single cart (unique constraint on user_id, not
	// check-then-create).
	GetOrCreate(ctx context.Context, userID string) (domain.Cart, error)

	// FindItem looks up the item for (cart, product). Returns
	// checkout/domain.ErrNotFound when absent.
	FindItem(ctx context.Context, cartID, productID string) (domain.CartItem, error)

	// FindItemByID looks up an item by id scoped to the given cart, so one
	// user can never address another user's items.
	FindItemByID(ctx context.Context, cartID, itemID string) (domain.CartItem, error)

	ListItems(ctx context.Context, cartID string) ([]domain.CartItem, error)

	// UpsertItem inserts the item or adds qty to an existing row's quantity.
	UpsertItem(ctx context.Context, cartID, productID string, qty int32) (domain.CartItem, error)

	SetQuantity(ctx context.Context, itemID string, qty int32) (domain.CartItem, error)
	DeleteItem(ctx context.Context, itemID string) error
	ClearItems(ctx context.Context, cartID string) error
}
