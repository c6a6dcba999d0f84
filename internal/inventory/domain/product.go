package domain

import "time"

// DefaultLowStockThreshold applies when a product has no threshold of its own.
const DefaultLowStockThreshold = 5

type Product struct {
	ID                string
	Name              string
	PriceCents        int64
	StockQuantity     int32
	LowStockThreshold int32
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EffectiveThreshold resolves an unset (non-positive) threshold to the default.
func (p Product) EffectiveThreshold() int32 {
	if p.LowStockThreshold <= 0 {
		return DefaultLowStockThreshold
	}
	return p.LowStockThreshold
}

func (p Product) IsLowStock() bool {
	return p.StockQuantity <= p.EffectiveThreshold()
}
