package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	checkoutdomain "github.com/shopkit/checkout-core/internal/checkout/domain"
	"github.com/shopkit/checkout-core/internal/inventory/domain"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx. The checkout store binds a
// Ledger to the transaction it opens.
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

const productColumns = `id, name, price_cents, stock_quantity, low_stock_threshold, created_at, updated_at`

// ReserveCheck takes the exclusive row lock for the rest of the enclosing
// transaction. Concurrent operations on the same product serialize here.
func (l *Ledger) ReserveCheck(ctx context.Context, productID string) (domain.Product, error) {
	row := l.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`,
		productID,
	)
	return scanProduct(row)
}

// ConditionalDecrement is the authoritative oversell guard: the WHERE clause
// re-validates stock at decrement time, so it fails closed even if the row
// lock was bypassed.
func (l *Ledger) ConditionalDecrement(ctx context.Context, productID string, amount int32) (int64, error) {
	tag, err := l.db.Exec(ctx,
		`UPDATE products
		 SET stock_quantity = stock_quantity - $2, updated_at = now()
		 WHERE id = $1 AND stock_quantity >= $2`,
		productID, amount,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (l *Ledger) Increment(ctx context.Context, productID string, amount int32) error {
	tag, err := l.db.Exec(ctx,
		`UPDATE products
		 SET stock_quantity = stock_quantity + $2, updated_at = now()
		 WHERE id = $1`,
		productID, amount,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return checkoutdomain.ErrNotFound
	}
	return nil
}

func (l *Ledger) Get(ctx context.Context, productID string) (domain.Product, error) {
	row := l.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`,
		productID,
	)
	return scanProduct(row)
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.PriceCents, &p.StockQuantity, &p.LowStockThreshold, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, checkoutdomain.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}
