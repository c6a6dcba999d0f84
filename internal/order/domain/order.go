package domain

import "time"

// Order is immutable once created.
type Order struct {
	ID         string
	UserID     string
	TotalCents int64
	CreatedAt  time.Time
}

// OrderItem captures the unit price at purchase time, decoupled from any later
// catalog price change.
type OrderItem struct {
	ID             string
	OrderID        string
	ProductID      string
	Quantity       int32
	UnitPriceCents int64
}

// PendingItem is the snapshot the checkout transaction accumulates per cart
// line before the order row exists.
type PendingItem struct {
	ProductID      string
	Quantity       int32
	UnitPriceCents int64
}

func (p PendingItem) Subtotal() int64 {
	return int64(p.Quantity) * p.UnitPriceCents
}

// SalesSummary is the daily reporting aggregate handed to the notification
// collaborator.
type SalesSummary struct {
	Date              string         `json:"date"`
	TotalOrders       int64          `json:"total_orders"`
	TotalRevenueCents int64          `json:"total_revenue_cents"`
	Products          []ProductSales `json:"products_sold"`
}

type ProductSales struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	Units        int64  `json:"units"`
	RevenueCents int64  `json:"revenue_cents"`
}
