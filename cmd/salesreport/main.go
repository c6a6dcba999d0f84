// salesreport computes one day's sales summary over the order ledger and
// publishes it. Meant to run on a schedule (cron), fully outside the
// transactional path.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/shopkit/checkout-core/internal/notify"
	orderapp "github.com/shopkit/checkout-core/internal/order/app"
	pgstore "github.com/shopkit/checkout-core/internal/store/postgres"
	"github.com/shopkit/checkout-core/pkg/config"
	"github.com/shopkit/checkout-core/pkg/logger"
	"github.com/shopkit/checkout-core/pkg/postgres"
	"github.com/shopkit/checkout-core/pkg/shutdown"
)

func main() {
	date := flag.String("date", "", "report date as YYYY-MM-DD (default: today)")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(logger.Options{
		Service: "salesreport",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	if cfg.DatabaseURL == "" {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	day := time.Now()
	if *date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", *date, time.Local)
		if err != nil {
			log.Error("invalid -date", slog.String("date", *date), slog.Any("err", err))
			os.Exit(1)
		}
		day = parsed
	}

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer pool.Close()

	var notifier notify.Notifier
	if len(cfg.KafkaBrokers) > 0 {
		kn := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.LowStockTopic, cfg.SalesTopic)
		defer kn.Close()
		notifier = kn
	} else {
		notifier = notify.NewLogNotifier(log)
	}

	report := orderapp.NewReportService(pgstore.NewStore(pool), notifier, log)

	summary, err := report.SendDaily(ctx, day)
	if err != nil {
		log.Error("daily report failed", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("report complete",
		slog.String("date", summary.Date),
		slog.Int64("orders", summary.TotalOrders),
	)
}
