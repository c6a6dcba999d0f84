package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopkit/checkout-core/internal/cart/domain"
	checkoutdomain "github.com/shopkit/checkout-core/internal/checkout/domain"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repo struct {
	db DBTX
}

func NewRepo(db DBTX) *Repo {
	return &Repo{db: db}
}

// GetOrCreate relies on the unique constraint on carts.user_id: the insert is
// a no-op when the cart already exists, including when a concurrent request
// created it a moment ago.
func (r *Repo) GetOrCreate(ctx context.Context, userID string) (domain.Cart, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO carts (id, user_id) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO NOTHING`,
		uuid.NewString(), userID,
	)
	if err != nil {
		return domain.Cart{}, err
	}

	var c domain.Cart
	err = r.db.QueryRow(ctx,
		`SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`,
		userID,
	).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Cart{}, err
	}
	return c, nil
}

func (r *Repo) FindItem(ctx context.Context, cartID, productID string) (domain.CartItem, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, cart_id, product_id, quantity FROM cart_items
		 WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID,
	)
	return scanItem(row)
}

func (r *Repo) FindItemByID(ctx context.Context, cartID, itemID string) (domain.CartItem, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, cart_id, product_id, quantity FROM cart_items
		 WHERE cart_id = $1 AND id = $2`,
		cartID, itemID,
	)
	return scanItem(row)
}

func (r *Repo) ListItems(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, cart_id, product_id, quantity FROM cart_items
		 WHERE cart_id = $1
		 ORDER BY created_at, id`,
		cartID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var it domain.CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpsertItem inserts the line or folds qty into the existing one; the unique
// (cart_id, product_id) constraint keeps double-submits from duplicating rows.
func (r *Repo) UpsertItem(ctx context.Context, cartID, productID string, qty int32) (domain.CartItem, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO cart_items (id, cart_id, product_id, quantity)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (cart_id, product_id)
		 DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
		 RETURNING id, cart_id, product_id, quantity`,
		uuid.NewString(), cartID, productID, qty,
	)
	return scanItem(row)
}

func (r *Repo) SetQuantity(ctx context.Context, itemID string, qty int32) (domain.CartItem, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE cart_items SET quantity = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING id, cart_id, product_id, quantity`,
		itemID, qty,
	)
	return scanItem(row)
}

func (r *Repo) DeleteItem(ctx context.Context, itemID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return checkoutdomain.ErrNotFound
	}
	return nil
}

func (r *Repo) ClearItems(ctx context.Context, cartID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}

func scanItem(row pgx.Row) (domain.CartItem, error) {
	var it domain.CartItem
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CartItem{}, checkoutdomain.ErrNotFound
	}
	if err != nil {
		return domain.CartItem{}, err
	}
	return it, nil
}
