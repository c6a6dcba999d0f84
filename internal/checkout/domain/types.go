package domain

import (
	cartdomain "github.com/shopkit/checkout-core/internal/cart/domain"
	orderdomain "github.com/shopkit/checkout-core/internal/order/domain"
)

// CheckoutResult is the committed outcome: the order plus the purchased lines
// with their captured prices.
type CheckoutResult struct {
	Order orderdomain.Order
	Items []orderdomain.OrderItem
}

// CartView is a cart with its lines enriched by current product data, for the
// read path only.
type CartView struct {
	Cart  cartdomain.Cart
	Lines []CartLine
}

type CartLine struct {
	Item           cartdomain.CartItem
	ProductName    string
	UnitPriceCents int64
	StockQuantity  int32
}
