package app

import (
	"context"
	"time"

	"github.com/shopkit/checkout-core/internal/order/domain"
)

// Ledger is append-only: orders and their items are written once, inside the
// checkout transaction, and never touched again.
type Ledger interface {
	Append(ctx context.Context, userID string, totalCents int64, items []domain.PendingItem) (domain.Order, []domain.OrderItem, error)
}

// SummaryReader is the read-only reporting view over the ledger, independent
// of the transactional path.
type SummaryReader interface {
	SalesSummary(ctx context.Context, from, to time.Time) (domain.SalesSummary, error)
}

// SummaryPublisher receives the finished report. Satisfied by the notify
// package.
type SummaryPublisher interface {
	DailySalesSummary(ctx context.Context, summary domain.SalesSummary) error
}
