package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	cartapp "github.com/shopkit/checkout-core/internal/cart/app"
	cartpg "github.com/shopkit/checkout-core/internal/cart/infra/postgres"
	checkoutapp "github.com/shopkit/checkout-core/internal/checkout/app"
	inventoryapp "github.com/shopkit/checkout-core/internal/inventory/app"
	inventorypg "github.com/shopkit/checkout-core/internal/inventory/infra/postgres"
	orderapp "github.com/shopkit/checkout-core/internal/order/app"
	orderdomain "github.com/shopkit/checkout-core/internal/order/domain"
	orderpg "github.com/shopkit/checkout-core/internal/order/infra/postgres"
)

// Store binds the component repositories to one pgx transaction per ExecTx
// call. Row locks taken inside fn are held until commit or rollback.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) ExecTx(ctx context.Context, fn func(tx checkoutapp.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}

	bundle := txBundle{
		inventory: inventorypg.NewLedger(tx),
		carts:     cartpg.NewRepo(tx),
		orders:    orderpg.NewLedger(tx),
	}

	if err := fn(bundle); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %w; rollback err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}

// SalesSummary serves the reporting path on the pool, outside any transaction.
func (s *Store) SalesSummary(ctx context.Context, from, to time.Time) (orderdomain.SalesSummary, error) {
	return orderpg.NewLedger(s.pool).SalesSummary(ctx, from, to)
}

type txBundle struct {
	inventory *inventorypg.Ledger
	carts     *cartpg.Repo
	orders    *orderpg.Ledger
}

func (b txBundle) Inventory() inventoryapp.Ledger { return b.inventory }
func (b txBundle) Carts() cartapp.Repo            { return b.carts }
func (b txBundle) Orders() orderapp.Ledger        { return b.orders }
