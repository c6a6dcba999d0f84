package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	checkoutapp "github.com/shopkit/checkout-core/internal/checkout/app"
	"github.com/shopkit/checkout-core/internal/httpapi"
	inventorydomain "github.com/shopkit/checkout-core/internal/inventory/domain"
	"github.com/shopkit/checkout-core/internal/notify"
	memorystore "github.com/shopkit/checkout-core/internal/store/memory"
	pgstore "github.com/shopkit/checkout-core/internal/store/postgres"
	"github.com/shopkit/checkout-core/pkg/config"
	"github.com/shopkit/checkout-core/pkg/logger"
	"github.com/shopkit/checkout-core/pkg/metrics"
	"github.com/shopkit/checkout-core/pkg/postgres"
	"github.com/shopkit/checkout-core/pkg/shutdown"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service:   "checkout",
		Env:       cfg.AppEnv,
		Level:     cfg.LogLevel,
		AddSource: true,
	})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	store, cleanup, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("store init failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer cleanup()

	var notifier notify.Notifier
	if len(cfg.KafkaBrokers) > 0 {
		kn := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.LowStockTopic, cfg.SalesTopic)
		defer kn.Close()
		notifier = kn
		log.Info("kafka notifier enabled", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		notifier = notify.NewLogNotifier(log)
	}

	dispatcher := notify.NewDispatcher(notifier, cfg.LowStockFlush, log)

	svc := checkoutapp.NewService(store, dispatcher, log)
	m := metrics.NewServerMetrics("checkout")
	handler := httpapi.NewHandler(svc, m, log)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Run(ctx)
	})

	g.Go(func() error {
		log.Info("http server starting", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutdown requested")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("bye")
}

// openStore picks postgres when DATABASE_URL is set and falls back to the
// in-memory store with seed products for local runs.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (checkoutapp.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("postgres store ready")
		return pgstore.NewStore(pool), pool.Close, nil
	}

	store := memorystore.NewStore()
	store.SeedProducts(seedProducts()...)
	log.Warn("DATABASE_URL not set, using in-memory store with seed products")
	return store, func() {}, nil
}

func seedProducts() []inventorydomain.Product {
	return []inventorydomain.Product{
		{Name: "Laptop", PriceCents: 99999, StockQuantity: 10, LowStockThreshold: 5},
		{Name: "Wireless Mouse", PriceCents: 2999, StockQuantity: 50, LowStockThreshold: 5},
		{Name: "Mechanical Keyboard", PriceCents: 7999, StockQuantity: 30, LowStockThreshold: 5},
		{Name: "4K Monitor", PriceCents: 29999, StockQuantity: 15, LowStockThreshold: 5},
		{Name: "Wireless Headphones", PriceCents: 12999, StockQuantity: 25, LowStockThreshold: 5},
	}
}
