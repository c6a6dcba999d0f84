// Package notify carries the post-commit side effects: low-stock alerts and
// the daily sales summary. Nothing here runs inside a store transaction, and
// failures never propagate back to the checkout caller.
package notify

import (
	"context"
	"log/slog"

	inventorydomain "github.com/shopkit/checkout-core/internal/inventory/domain"
	orderdomain "github.com/shopkit/checkout-core/internal/order/domain"
)

type Notifier interface {
	NotifyLowStock(ctx context.Context, products []inventorydomain.Product) error
	DailySalesSummary(ctx context.Context, summary orderdomain.SalesSummary) error
}

// LogNotifier stands in for a real delivery channel when no brokers are
// configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyLowStock(ctx context.Context, products []inventorydomain.Product) error {
	for _, p := range products {
		n.log.WarnContext(ctx, "product low on stock",
			slog.String("product_id", p.ID),
			slog.String("name", p.Name),
			slog.Int("stock", int(p.StockQuantity)),
			slog.Int("threshold", int(p.EffectiveThreshold())),
		)
	}
	return nil
}

func (n *LogNotifier) DailySalesSummary(ctx context.Context, summary orderdomain.SalesSummary) error {
	n.log.InfoContext(ctx, "daily sales summary",
		slog.String("date", summary.Date),
		slog.Int64("total_orders", summary.TotalOrders),
		slog.Int64("total_revenue_cents", summary.TotalRevenueCents),
		slog.Int("products", len(summary.Products)),
	)
	return nil
}
