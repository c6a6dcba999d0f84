// Package memory implements the checkout store contract on process-local
// maps. Transactions are serialized by a single mutex and made atomic with an
// undo log, which preserves the semantics the postgres store gets from row
// locks and rollback: conditional decrements fail closed, and a failed
// transaction leaves no trace. It backs the test suite and DB-less runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	cartapp "github.com/shopkit/checkout-core/internal/cart/app"
	cartdomain "github.com/shopkit/checkout-core/internal/cart/domain"
	checkoutapp "github.com/shopkit/checkout-core/internal/checkout/app"
	checkoutdomain "github.com/shopkit/checkout-core/internal/checkout/domain"
	inventoryapp "github.com/shopkit/checkout-core/internal/inventory/app"
	inventorydomain "github.com/shopkit/checkout-core/internal/inventory/domain"
	orderapp "github.com/shopkit/checkout-core/internal/order/app"
	orderdomain "github.com/shopkit/checkout-core/internal/order/domain"
)

type itemRec struct {
	item cartdomain.CartItem
	seq  int64
}

type Store struct {
	mu sync.Mutex

	products   map[string]inventorydomain.Product
	carts      map[string]cartdomain.Cart
	cartByUser map[string]string
	items      map[string]itemRec
	orders     []orderdomain.Order
	orderItems map[string][]orderdomain.OrderItem

	seq int64
}

func NewStore() *Store {
	return &Store{
		products:   make(map[string]inventorydomain.Product),
		carts:      make(map[string]cartdomain.Cart),
		cartByUser: make(map[string]string),
		items:      make(map[string]itemRec),
		orderItems: make(map[string][]orderdomain.OrderItem),
	}
}

// SeedProducts loads catalog data, which this core otherwise never creates.
func (s *Store) SeedProducts(products ...inventorydomain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, p := range products {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
		s.products[p.ID] = p
	}
}

func (s *Store) ExecTx(ctx context.Context, fn func(tx checkoutapp.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s}
	if err := fn(tx); err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		return err
	}
	return nil
}

// SalesSummary aggregates committed orders over [from, to).
func (s *Store) SalesSummary(ctx context.Context, from, to time.Time) (orderdomain.SalesSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := orderdomain.SalesSummary{
		Date: from.Format("2006-01-02"),
	}

	perProduct := make(map[string]*orderdomain.ProductSales)
	for _, o := range s.orders {
		if o.CreatedAt.Before(from) || !o.CreatedAt.Before(to) {
			continue
		}
		summary.TotalOrders++
		summary.TotalRevenueCents += o.TotalCents

		for _, oi := range s.orderItems[o.ID] {
			ps, ok := perProduct[oi.ProductID]
			if !ok {
				ps = &orderdomain.ProductSales{
					ProductID: oi.ProductID,
					Name:      s.products[oi.ProductID].Name,
				}
				perProduct[oi.ProductID] = ps
			}
			ps.Units += int64(oi.Quantity)
			ps.RevenueCents += int64(oi.Quantity) * oi.UnitPriceCents
		}
	}

	for _, ps := range perProduct {
		summary.Products = append(summary.Products, *ps)
	}
	sort.Slice(summary.Products, func(i, j int) bool {
		return summary.Products[i].Name < summary.Products[j].Name
	})
	return summary, nil
}

// memTx applies mutations directly and records how to revert each one. The
// store mutex is held for the whole transaction, so undo runs unobserved.
type memTx struct {
	s    *Store
	undo []func()
}

func (t *memTx) Inventory() inventoryapp.Ledger { return t }
func (t *memTx) Carts() cartapp.Repo            { return t }
func (t *memTx) Orders() orderapp.Ledger        { return t }

// --- inventory ledger ---

func (t *memTx) ReserveCheck(ctx context.Context, productID string) (inventorydomain.Product, error) {
	p, ok := t.s.products[productID]
	if !ok {
		return inventorydomain.Product{}, checkoutdomain.ErrNotFound
	}
	return p, nil
}

func (t *memTx) ConditionalDecrement(ctx context.Context, productID string, amount int32) (int64, error) {
	p, ok := t.s.products[productID]
	if !ok || p.StockQuantity < amount {
		return 0, nil
	}

	prev := p
	p.StockQuantity -= amount
	p.UpdatedAt = time.Now().UTC()
	t.s.products[productID] = p
	t.undo = append(t.undo, func() { t.s.products[productID] = prev })
	return 1, nil
}

func (t *memTx) Increment(ctx context.Context, productID string, amount int32) error {
	p, ok := t.s.products[productID]
	if !ok {
		return checkoutdomain.ErrNotFound
	}

	prev := p
	p.StockQuantity += amount
	p.UpdatedAt = time.Now().UTC()
	t.s.products[productID] = p
	t.undo = append(t.undo, func() { t.s.products[productID] = prev })
	return nil
}

func (t *memTx) Get(ctx context.Context, productID string) (inventorydomain.Product, error) {
	return t.ReserveCheck(ctx, productID)
}

// --- cart store ---

func (t *memTx) GetOrCreate(ctx context.Context, userID string) (cartdomain.Cart, error) {
	if cartID, ok := t.s.cartByUser[userID]; ok {
		return t.s.carts[cartID], nil
	}

	now := time.Now().UTC()
	cart := cartdomain.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.s.carts[cart.ID] = cart
	t.s.cartByUser[userID] = cart.ID
	t.undo = append(t.undo, func() {
		delete(t.s.carts, cart.ID)
		delete(t.s.cartByUser, userID)
	})
	return cart, nil
}

func (t *memTx) FindItem(ctx context.Context, cartID, productID string) (cartdomain.CartItem, error) {
	for _, rec := range t.s.items {
		if rec.item.CartID == cartID && rec.item.ProductID == productID {
			return rec.item, nil
		}
	}
	return cartdomain.CartItem{}, checkoutdomain.ErrNotFound
}

func (t *memTx) FindItemByID(ctx context.Context, cartID, itemID string) (cartdomain.CartItem, error) {
	rec, ok := t.s.items[itemID]
	if !ok || rec.item.CartID != cartID {
		return cartdomain.CartItem{}, checkoutdomain.ErrNotFound
	}
	return rec.item, nil
}

func (t *memTx) ListItems(ctx context.Context, cartID string) ([]cartdomain.CartItem, error) {
	var recs []itemRec
	for _, rec := range t.s.items {
		if rec.item.CartID == cartID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	items := make([]cartdomain.CartItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, rec.item)
	}
	return items, nil
}

func (t *memTx) UpsertItem(ctx context.Context, cartID, productID string, qty int32) (cartdomain.CartItem, error) {
	if existing, err := t.FindItem(ctx, cartID, productID); err == nil {
		return t.SetQuantity(ctx, existing.ID, existing.Quantity+qty)
	}

	t.s.seq++
	rec := itemRec{
		item: cartdomain.CartItem{
			ID:        uuid.NewString(),
			CartID:    cartID,
			ProductID: productID,
			Quantity:  qty,
		},
		seq: t.s.seq,
	}
	t.s.items[rec.item.ID] = rec
	t.undo = append(t.undo, func() { delete(t.s.items, rec.item.ID) })
	return rec.item, nil
}

func (t *memTx) SetQuantity(ctx context.Context, itemID string, qty int32) (cartdomain.CartItem, error) {
	rec, ok := t.s.items[itemID]
	if !ok {
		return cartdomain.CartItem{}, checkoutdomain.ErrNotFound
	}

	prev := rec
	rec.item.Quantity = qty
	t.s.items[itemID] = rec
	t.undo = append(t.undo, func() { t.s.items[itemID] = prev })
	return rec.item, nil
}

func (t *memTx) DeleteItem(ctx context.Context, itemID string) error {
	rec, ok := t.s.items[itemID]
	if !ok {
		return checkoutdomain.ErrNotFound
	}

	delete(t.s.items, itemID)
	t.undo = append(t.undo, func() { t.s.items[itemID] = rec })
	return nil
}

func (t *memTx) ClearItems(ctx context.Context, cartID string) error {
	var removed []itemRec
	for id, rec := range t.s.items {
		if rec.item.CartID == cartID {
			removed = append(removed, rec)
			delete(t.s.items, id)
		}
	}
	t.undo = append(t.undo, func() {
		for _, rec := range removed {
			t.s.items[rec.item.ID] = rec
		}
	})
	return nil
}

// --- order ledger ---

func (t *memTx) Append(ctx context.Context, userID string, totalCents int64, items []orderdomain.PendingItem) (orderdomain.Order, []orderdomain.OrderItem, error) {
	order := orderdomain.Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		TotalCents: totalCents,
		CreatedAt:  time.Now().UTC(),
	}

	orderItems := make([]orderdomain.OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, orderdomain.OrderItem{
			ID:             uuid.NewString(),
			OrderID:        order.ID,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}

	t.s.orders = append(t.s.orders, order)
	t.s.orderItems[order.ID] = orderItems
	t.undo = append(t.undo, func() {
		t.s.orders = t.s.orders[:len(t.s.orders)-1]
		delete(t.s.orderItems, order.ID)
	})
	return order, orderItems, nil
}
