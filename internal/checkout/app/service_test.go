package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	checkoutapp "github.com/shopkit/checkout-core/internal/checkout/app"
	"github.com/shopkit/checkout-core/internal/checkout/domain"
	inventorydomain "github.com/shopkit/checkout-core/internal/inventory/domain"
	"github.com/shopkit/checkout-core/internal/store/memory"
	"golang.org/x/sync/errgroup"
)

type recordedLowStock struct {
	mu       sync.Mutex
	products []inventorydomain.Product
}

func (r *recordedLowStock) Enqueue(products ...inventorydomain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = append(r.products, products...)
}

func (r *recordedLowStock) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p.ID)
	}
	return out
}

func newTestService(t *testing.T, products ...inventorydomain.Product) (*checkoutapp.Service, *memory.Store, *recordedLowStock) {
	t.Helper()
	store := memory.NewStore()
	store.SeedProducts(products...)
	rec := &recordedLowStock{}
	return checkoutapp.NewService(store, rec, nil), store, rec
}

func product(name string, priceCents int64, stock int32) inventorydomain.Product {
	return inventorydomain.Product{
		ID:            uuid.NewString(),
		Name:          name,
		PriceCents:    priceCents,
		StockQuantity: stock,
	}
}

func currentStock(t *testing.T, store *memory.Store, productID string) int32 {
	t.Helper()
	var stock int32
	err := store.ExecTx(context.Background(), func(tx checkoutapp.Tx) error {
		p, err := tx.Inventory().Get(context.Background(), productID)
		if err != nil {
			return err
		}
		stock = p.StockQuantity
		return nil
	})
	if err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return stock
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown product -> not found", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.AddItem(ctx, uuid.NewString(), uuid.NewString(), 1)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("non-positive quantity rejected", func(t *testing.T) {
		p := product("Laptop", 99999, 10)
		svc, _, _ := newTestService(t, p)
		if _, err := svc.AddItem(ctx, uuid.NewString(), p.ID, 0); !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
	})

	t.Run("quantity above stock rejected, cart untouched", func(t *testing.T) {
		p := product("Laptop", 99999, 3)
		svc, _, _ := newTestService(t, p)
		userID := uuid.NewString()

		_, err := svc.AddItem(ctx, userID, p.ID, 4)
		if !domain.IsInsufficientStock(err) {
			t.Fatalf("expected insufficient stock, got %v", err)
		}

		view, err := svc.GetCart(ctx, userID)
		if err != nil {
			t.Fatalf("GetCart: %v", err)
		}
		if len(view.Lines) != 0 {
			t.Fatalf("expected empty cart, got %d lines", len(view.Lines))
		}
	})

	t.Run("adding does not reserve stock", func(t *testing.T) {
		p := product("Laptop", 99999, 5)
		svc, store, _ := newTestService(t, p)

		if _, err := svc.AddItem(ctx, uuid.NewString(), p.ID, 5); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		if got := currentStock(t, store, p.ID); got != 5 {
			t.Fatalf("stock changed by AddItem: %d", got)
		}
	})

	t.Run("repeated add increments one line", func(t *testing.T) {
		p := product("Mouse", 2999, 10)
		svc, _, _ := newTestService(t, p)
		userID := uuid.NewString()

		first, err := svc.AddItem(ctx, userID, p.ID, 1)
		if err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		second, err := svc.AddItem(ctx, userID, p.ID, 1)
		if err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		if second.ID != first.ID {
			t.Fatalf("expected the same cart item, got %s then %s", first.ID, second.ID)
		}
		if second.Quantity != 2 {
			t.Fatalf("expected quantity 2, got %d", second.Quantity)
		}
	})

	t.Run("increment past stock rejected", func(t *testing.T) {
		p := product("Mouse", 2999, 3)
		svc, _, _ := newTestService(t, p)
		userID := uuid.NewString()

		if _, err := svc.AddItem(ctx, userID, p.ID, 2); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		if _, err := svc.AddItem(ctx, userID, p.ID, 2); !domain.IsInsufficientStock(err) {
			t.Fatalf("expected insufficient stock, got %v", err)
		}
	})
}

// AddItem(user, product, 2) must land in the same final state as
// AddItem(user, product, 1) called twice.
func TestAddItem_IntentIdempotence(t *testing.T) {
	ctx := context.Background()
	p := product("Keyboard", 7999, 10)

	svcOnce, storeOnce, _ := newTestService(t, p)
	userOnce := uuid.NewString()
	if _, err := svcOnce.AddItem(ctx, userOnce, p.ID, 2); err != nil {
		t.Fatalf("AddItem(2): %v", err)
	}

	svcTwice, storeTwice, _ := newTestService(t, p)
	userTwice := uuid.NewString()
	for i := 0; i < 2; i++ {
		if _, err := svcTwice.AddItem(ctx, userTwice, p.ID, 1); err != nil {
			t.Fatalf("AddItem(1) #%d: %v", i+1, err)
		}
	}

	viewOnce, _ := svcOnce.GetCart(ctx, userOnce)
	viewTwice, _ := svcTwice.GetCart(ctx, userTwice)

	if len(viewOnce.Lines) != 1 || len(viewTwice.Lines) != 1 {
		t.Fatalf("expected one line each, got %d and %d", len(viewOnce.Lines), len(viewTwice.Lines))
	}
	if viewOnce.Lines[0].Item.Quantity != viewTwice.Lines[0].Item.Quantity {
		t.Fatalf("quantities diverge: %d vs %d", viewOnce.Lines[0].Item.Quantity, viewTwice.Lines[0].Item.Quantity)
	}
	if a, b := currentStock(t, storeOnce, p.ID), currentStock(t, storeTwice, p.ID); a != b {
		t.Fatalf("stocks diverge: %d vs %d", a, b)
	}
}

func TestAddItem_ConcurrentSingleLine(t *testing.T) {
	ctx := context.Background()
	p := product("Keyboard", 7999, 200)
	svc, _, _ := newTestService(t, p)
	userID := uuid.NewString()

	const n = 50
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := svc.AddItem(gctx, userID, p.ID, 1)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent AddItem failed: %v", err)
	}

	view, err := svc.GetCart(ctx, userID)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(view.Lines) != 1 {
		t.Fatalf("expected a single line per (cart, product), got %d", len(view.Lines))
	}
	if got := view.Lines[0].Item.Quantity; got != n {
		t.Fatalf("expected quantity %d, got %d", n, got)
	}
}

func TestUpdateItem(t *testing.T) {
	ctx := context.Background()

	t.Run("target equal to stock succeeds, stock+1 fails", func(t *testing.T) {
		p := product("Monitor", 29999, 10)
		svc, _, _ := newTestService(t, p)
		userID := uuid.NewString()

		item, err := svc.AddItem(ctx, userID, p.ID, 1)
		if err != nil {
			t.Fatalf("AddItem: %v", err)
		}

		updated, err := svc.UpdateItem(ctx, userID, item.ID, 10)
		if err != nil {
			t.Fatalf("UpdateItem to stock: %v", err)
		}
		if updated.Quantity != 10 {
			t.Fatalf("expected quantity 10, got %d", updated.Quantity)
		}

		if _, err := svc.UpdateItem(ctx, userID, item.ID, 11); !domain.IsInsufficientStock(err) {
			t.Fatalf("expected insufficient stock, got %v", err)
		}
	})

	t.Run("target is absolute, not a delta", func(t *testing.T) {
		p := product("Monitor", 29999, 10)
		svc, _, _ := newTestService(t, p)
		userID := uuid.NewString()

		item, err := svc.AddItem(ctx, userID, p.ID, 8)
		if err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		// 8 already in cart; an absolute target of 10 is within stock.
		if _, err := svc.UpdateItem(ctx, userID, item.ID, 10); err != nil {
			t.Fatalf("UpdateItem: %v", err)
		}
	})

	t.Run("another user's item -> not found", func(t *testing.T) {
		p := product("Monitor", 29999, 10)
		svc, _, _ := newTestService(t, p)
		owner := uuid.NewString()

		item, err := svc.AddItem(ctx, owner, p.ID, 1)
		if err != nil {
			t.Fatalf("AddItem: %v", err)
		}

		if _, err := svc.UpdateItem(ctx, uuid.NewString(), item.ID, 2); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	p := product("Headphones", 12999, 10)
	svc, store, _ := newTestService(t, p)
	userID := uuid.NewString()

	item, err := svc.AddItem(ctx, userID, p.ID, 2)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if err := svc.RemoveItem(ctx, userID, item.ID); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if err := svc.RemoveItem(ctx, userID, item.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}
	if got := currentStock(t, store, p.ID); got != 10 {
		t.Fatalf("remove must not touch inventory, stock=%d", got)
	}
}

func TestCheckout_RoundTrip(t *testing.T) {
	ctx := context.Background()
	a := product("Product A", 1000, 10) // 10.00
	b := product("Product B", 500, 10)  // 5.00
	svc, store, _ := newTestService(t, a, b)
	userID := uuid.NewString()

	if _, err := svc.AddItem(ctx, userID, a.ID, 2); err != nil {
		t.Fatalf("AddItem A: %v", err)
	}
	if _, err := svc.AddItem(ctx, userID, b.ID, 1); err != nil {
		t.Fatalf("AddItem B: %v", err)
	}

	result, err := svc.Checkout(ctx, userID)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if result.Order.TotalCents != 2500 {
		t.Fatalf("expected total 2500, got %d", result.Order.TotalCents)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(result.Items))
	}
	captured := map[string]int64{}
	for _, item := range result.Items {
		captured[item.ProductID] = item.UnitPriceCents
	}
	if captured[a.ID] != 1000 || captured[b.ID] != 500 {
		t.Fatalf("captured prices wrong: %+v", captured)
	}

	view, err := svc.GetCart(ctx, userID)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("cart must be empty after checkout, got %d lines", len(view.Lines))
	}

	if got := currentStock(t, store, a.ID); got != 8 {
		t.Fatalf("product A stock: expected 8, got %d", got)
	}
	if got := currentStock(t, store, b.ID); got != 9 {
		t.Fatalf("product B stock: expected 9, got %d", got)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t, product("Laptop", 99999, 10))
	userID := uuid.NewString()

	_, err := svc.Checkout(ctx, userID)
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}

	summary, err := store.SalesSummary(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("SalesSummary: %v", err)
	}
	if summary.TotalOrders != 0 {
		t.Fatalf("no orders may exist, got %d", summary.TotalOrders)
	}
}

// A checkout that fails mid-way must leave inventory, cart, and order ledger
// exactly as before the call.
func TestCheckout_FailureRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	a := product("Product A", 1000, 10)
	b := product("Product B", 500, 2)
	svc, store, _ := newTestService(t, a, b)

	buyer := uuid.NewString()
	if _, err := svc.AddItem(ctx, buyer, a.ID, 2); err != nil {
		t.Fatalf("AddItem A: %v", err)
	}
	if _, err := svc.AddItem(ctx, buyer, b.ID, 2); err != nil {
		t.Fatalf("AddItem B: %v", err)
	}

	// A rival takes product B down to 1 before the buyer checks out.
	rival := uuid.NewString()
	if _, err := svc.AddItem(ctx, rival, b.ID, 1); err != nil {
		t.Fatalf("AddItem rival: %v", err)
	}
	if _, err := svc.Checkout(ctx, rival); err != nil {
		t.Fatalf("rival checkout: %v", err)
	}

	_, err := svc.Checkout(ctx, buyer)
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	// Product A was validated and decremented before B failed; the rollback
	// must have restored it.
	if got := currentStock(t, store, a.ID); got != 10 {
		t.Fatalf("product A stock not rolled back: %d", got)
	}
	view, err := svc.GetCart(ctx, buyer)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(view.Lines) != 2 {
		t.Fatalf("buyer cart must be intact, got %d lines", len(view.Lines))
	}

	summary, err := store.SalesSummary(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("SalesSummary: %v", err)
	}
	if summary.TotalOrders != 1 {
		t.Fatalf("only the rival order may exist, got %d", summary.TotalOrders)
	}
}

// N concurrent checkouts against one product with stock K: exactly min(N, K)
// succeed, the rest fail with InsufficientStock, and stock ends at
// max(0, K-N). Stock never goes negative.
func TestCheckout_ConcurrentOversellGuard(t *testing.T) {
	ctx := context.Background()

	const (
		n = 20
		k = 5
	)

	p := product("Scarce", 1500, k)
	svc, store, _ := newTestService(t, p)

	users := make([]string, n)
	for i := range users {
		users[i] = uuid.NewString()
		if _, err := svc.AddItem(ctx, users[i], p.ID, 1); err != nil {
			t.Fatalf("AddItem user %d: %v", i, err)
		}
	}

	var (
		mu        sync.Mutex
		succeeded int
		rejected  int
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, userID := range users {
		userID := userID
		g.Go(func() error {
			_, err := svc.Checkout(gctx, userID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case domain.IsInsufficientStock(err):
				rejected++
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected checkout error: %v", err)
	}

	if succeeded != k {
		t.Fatalf("expected %d successful checkouts, got %d", k, succeeded)
	}
	if rejected != n-k {
		t.Fatalf("expected %d rejections, got %d", n-k, rejected)
	}

	got := currentStock(t, store, p.ID)
	if got != 0 {
		t.Fatalf("expected final stock 0, got %d", got)
	}
	if got < 0 {
		t.Fatalf("stock went negative: %d", got)
	}
}

func TestCheckout_LowStockMarking(t *testing.T) {
	ctx := context.Background()

	t.Run("crossing the threshold surfaces the product once", func(t *testing.T) {
		crossing := product("Crossing", 1000, 6)
		crossing.LowStockThreshold = 5
		healthy := product("Healthy", 1000, 100)
		healthy.LowStockThreshold = 5

		svc, _, rec := newTestService(t, crossing, healthy)
		userID := uuid.NewString()

		if _, err := svc.AddItem(ctx, userID, crossing.ID, 2); err != nil { // 6 -> 4
			t.Fatalf("AddItem: %v", err)
		}
		if _, err := svc.AddItem(ctx, userID, healthy.ID, 1); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		if _, err := svc.Checkout(ctx, userID); err != nil {
			t.Fatalf("Checkout: %v", err)
		}

		ids := rec.ids()
		if len(ids) != 1 || ids[0] != crossing.ID {
			t.Fatalf("expected exactly [%s], got %v", crossing.ID, ids)
		}
	})

	t.Run("unset threshold defaults to 5", func(t *testing.T) {
		p := product("Defaulted", 1000, 6) // threshold left at 0
		svc, _, rec := newTestService(t, p)
		userID := uuid.NewString()

		if _, err := svc.AddItem(ctx, userID, p.ID, 1); err != nil { // 6 -> 5
			t.Fatalf("AddItem: %v", err)
		}
		if _, err := svc.Checkout(ctx, userID); err != nil {
			t.Fatalf("Checkout: %v", err)
		}

		if ids := rec.ids(); len(ids) != 1 {
			t.Fatalf("expected one low-stock product, got %v", ids)
		}
	})

	t.Run("staying above threshold stays quiet", func(t *testing.T) {
		p := product("Plenty", 1000, 100)
		svc, _, rec := newTestService(t, p)
		userID := uuid.NewString()

		if _, err := svc.AddItem(ctx, userID, p.ID, 1); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		if _, err := svc.Checkout(ctx, userID); err != nil {
			t.Fatalf("Checkout: %v", err)
		}

		if ids := rec.ids(); len(ids) != 0 {
			t.Fatalf("expected no low-stock products, got %v", ids)
		}
	})
}
