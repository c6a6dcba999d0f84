package domain

import "time"

// Cart is created lazily on a user's first interaction and never deleted;
// checkout clears its items, not the cart itself.
type Cart struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem holds at most one row per (cart, product) pair; repeated adds
// increment Quantity instead of duplicating rows.
type CartItem struct {
	ID        string
	CartID    string
	ProductID string
	Quantity  int32
}
