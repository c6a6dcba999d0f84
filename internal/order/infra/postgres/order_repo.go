package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopkit/checkout-core/internal/order/domain"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Ledger struct {
	db DBTX
}

func NewLedger(db DBTX) *Ledger {
	return &Ledger{db: db}
}

// Append writes the order and its items in the caller's transaction. The total
// is cross-checked against the item subtotals before anything is inserted.
func (l *Ledger) Append(ctx context.Context, userID string, totalCents int64, items []domain.PendingItem) (domain.Order, []domain.OrderItem, error) {
	var sum int64
	for i, item := range items {
		if item.Quantity <= 0 {
			return domain.Order{}, nil, fmt.Errorf("item %d: quantity must be positive, got %d", i, item.Quantity)
		}
		sum += item.Subtotal()
	}
	if sum != totalCents {
		return domain.Order{}, nil, fmt.Errorf("order total mismatch: items sum to %d, got %d", sum, totalCents)
	}

	order := domain.Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		TotalCents: totalCents,
	}

	err := l.db.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, total_cents) VALUES ($1, $2, $3)
		 RETURNING created_at`,
		order.ID, order.UserID, order.TotalCents,
	).Scan(&order.CreatedAt)
	if err != nil {
		return domain.Order{}, nil, fmt.Errorf("insert order: %w", err)
	}

	orderItems := make([]domain.OrderItem, 0, len(items))
	for i, item := range items {
		oi := domain.OrderItem{
			ID:             uuid.NewString(),
			OrderID:        order.ID,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		}

		_, err := l.db.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, quantity, unit_price_cents)
			 VALUES ($1, $2, $3, $4, $5)`,
			oi.ID, oi.OrderID, oi.ProductID, oi.Quantity, oi.UnitPriceCents,
		)
		if err != nil {
			return domain.Order{}, nil, fmt.Errorf("insert item %d: %w", i, err)
		}

		orderItems = append(orderItems, oi)
	}

	return order, orderItems, nil
}

// SalesSummary aggregates the ledger over [from, to). It runs outside the
// transactional path and is safe to point at the pool directly.
func (l *Ledger) SalesSummary(ctx context.Context, from, to time.Time) (domain.SalesSummary, error) {
	summary := domain.SalesSummary{
		Date: from.Format("2006-01-02"),
	}

	err := l.db.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_cents), 0)
		 FROM orders
		 WHERE created_at >= $1 AND created_at < $2`,
		from, to,
	).Scan(&summary.TotalOrders, &summary.TotalRevenueCents)
	if err != nil {
		return domain.SalesSummary{}, err
	}

	rows, err := l.db.Query(ctx,
		`SELECT p.id, p.name, SUM(oi.quantity)::bigint, SUM(oi.quantity * oi.unit_price_cents)::bigint
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 JOIN products p ON p.id = oi.product_id
		 WHERE o.created_at >= $1 AND o.created_at < $2
		 GROUP BY p.id, p.name
		 ORDER BY p.name`,
		from, to,
	)
	if err != nil {
		return domain.SalesSummary{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var ps domain.ProductSales
		if err := rows.Scan(&ps.ProductID, &ps.Name, &ps.Units, &ps.RevenueCents); err != nil {
			return domain.SalesSummary{}, err
		}
		summary.Products = append(summary.Products, ps)
	}
	return summary, rows.Err()
}
