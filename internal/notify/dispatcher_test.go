package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	inventorydomain "github.com/shopkit/checkout-core/internal/inventory/domain"
	orderdomain "github.com/shopkit/checkout-core/internal/order/domain"
	"golang.org/x/sync/errgroup"
)

type captureNotifier struct {
	mu      sync.Mutex
	batches [][]inventorydomain.Product
	err     error
}

func (c *captureNotifier) NotifyLowStock(ctx context.Context, products []inventorydomain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, products)
	return c.err
}

func (c *captureNotifier) DailySalesSummary(ctx context.Context, summary orderdomain.SalesSummary) error {
	return nil
}

func (c *captureNotifier) all() [][]inventorydomain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batches
}

func TestFlushDedupesByProductID(t *testing.T) {
	n := &captureNotifier{}
	d := NewDispatcher(n, time.Minute, nil)

	d.Enqueue(inventorydomain.Product{ID: "p1", Name: "Widget", StockQuantity: 4})
	d.Enqueue(inventorydomain.Product{ID: "p2", Name: "Gadget", StockQuantity: 2})
	d.Enqueue(inventorydomain.Product{ID: "p1", Name: "Widget", StockQuantity: 3})

	d.Flush(context.Background())

	batches := n.all()
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	batch := batches[0]
	if len(batch) != 2 {
		t.Fatalf("expected 2 distinct products, got %d", len(batch))
	}
	// Batch is sorted by id; the later p1 state must win.
	if batch[0].ID != "p1" || batch[0].StockQuantity != 3 {
		t.Fatalf("p1 entry wrong: %+v", batch[0])
	}
	if batch[1].ID != "p2" {
		t.Fatalf("p2 entry wrong: %+v", batch[1])
	}
}

func TestFlushDeliversEachCrossingOnce(t *testing.T) {
	n := &captureNotifier{}
	d := NewDispatcher(n, time.Minute, nil)

	d.Enqueue(inventorydomain.Product{ID: "p1", StockQuantity: 4})
	d.Flush(context.Background())
	d.Flush(context.Background())

	if got := len(n.all()); got != 1 {
		t.Fatalf("empty flush must not notify, got %d batches", got)
	}

	// A fresh crossing after the flush goes out again.
	d.Enqueue(inventorydomain.Product{ID: "p1", StockQuantity: 2})
	d.Flush(context.Background())
	if got := len(n.all()); got != 2 {
		t.Fatalf("expected 2 batches, got %d", got)
	}
}

func TestEnqueueConcurrent(t *testing.T) {
	n := &captureNotifier{}
	d := NewDispatcher(n, time.Minute, nil)

	var g errgroup.Group
	for i := 0; i < 100; i++ {
		g.Go(func() error {
			d.Enqueue(inventorydomain.Product{ID: "p1", StockQuantity: 4})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	d.Flush(context.Background())
	batches := n.all()
	if len(batches) != 1 || len(batches[0]) != 1 {
		t.Fatalf("100 concurrent crossings of one product must yield one entry, got %+v", batches)
	}
}

func TestFlushSwallowsNotifierErrors(t *testing.T) {
	n := &captureNotifier{err: errors.New("broker down")}
	d := NewDispatcher(n, time.Minute, nil)

	d.Enqueue(inventorydomain.Product{ID: "p1", StockQuantity: 1})
	d.Flush(context.Background())

	// The batch was attempted and dropped, not retried.
	d.Flush(context.Background())
	if got := len(n.all()); got != 1 {
		t.Fatalf("expected exactly 1 delivery attempt, got %d", got)
	}
}

func TestRunDrainsOnCancel(t *testing.T) {
	n := &captureNotifier{}
	d := NewDispatcher(n, time.Hour, nil)

	d.Enqueue(inventorydomain.Product{ID: "p1", StockQuantity: 0})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx); err != nil {
		t.Fatalf("Run must return nil on cancel, got %v", err)
	}

	if got := len(n.all()); got != 1 {
		t.Fatalf("pending batch must drain on shutdown, got %d batches", got)
	}
}
