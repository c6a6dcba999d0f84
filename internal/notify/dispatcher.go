package notify

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	inventorydomain "github.com/shopkit/checkout-core/internal/inventory/domain"
)

// Dispatcher fans in low-stock crossings from committed checkouts and hands
// each flush window's distinct product list to the notifier once. Two
// concurrent checkouts crossing the threshold for the same product inside one
// window collapse into a single entry: the pending set is keyed by product id.
type Dispatcher struct {
	notifier Notifier
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	pending map[string]inventorydomain.Product
}

func NewDispatcher(notifier Notifier, interval time.Duration, log *slog.Logger) *Dispatcher {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		notifier: notifier,
		interval: interval,
		log:      log,
		pending:  make(map[string]inventorydomain.Product),
	}
}

// Enqueue records threshold crossings. It never blocks on the notifier; a
// later product state for the same id replaces the earlier one.
func (d *Dispatcher) Enqueue(products ...inventorydomain.Product) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range products {
		d.pending[p.ID] = p
	}
}

// Run flushes on the configured interval until ctx is cancelled, then drains
// whatever is still pending. Always returns nil so it can ride an errgroup
// without taking the server down.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.Flush(context.WithoutCancel(ctx))
			return nil
		case <-ticker.C:
			d.Flush(ctx)
		}
	}
}

// Flush delivers the current distinct batch. Notifier errors are logged and
// dropped: the orders behind these crossings are already committed.
func (d *Dispatcher) Flush(ctx context.Context) {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	batch := make([]inventorydomain.Product, 0, len(d.pending))
	for _, p := range d.pending {
		batch = append(batch, p)
	}
	d.pending = make(map[string]inventorydomain.Product)
	d.mu.Unlock()

	sort.Slice(batch, func(i, j int) bool { return batch[i].ID < batch[j].ID })

	if err := d.notifier.NotifyLowStock(ctx, batch); err != nil {
		d.log.Error("low stock notification failed",
			slog.Int("products", len(batch)),
			slog.Any("err", err),
		)
	}
}
