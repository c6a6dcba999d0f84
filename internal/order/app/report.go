package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopkit/checkout-core/internal/order/domain"
)

// ReportService computes a calendar day's sales over the order ledger and
// hands the result to the notification collaborator. It is a read-only
// scheduled path, fully independent of checkout transactions.
type ReportService struct {
	reader    SummaryReader
	publisher SummaryPublisher
	log       *slog.Logger
}

func NewReportService(reader SummaryReader, publisher SummaryPublisher, log *slog.Logger) *ReportService {
	if log == nil {
		log = slog.Default()
	}
	return &ReportService{
		reader:    reader,
		publisher: publisher,
		log:       log,
	}
}

// SendDaily aggregates orders created on the given day, in that day's
// location, and publishes the summary.
func (s *ReportService) SendDaily(ctx context.Context, day time.Time) (domain.SalesSummary, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)

	summary, err := s.reader.SalesSummary(ctx, from, to)
	if err != nil {
		return domain.SalesSummary{}, err
	}

	if err := s.publisher.DailySalesSummary(ctx, summary); err != nil {
		return domain.SalesSummary{}, err
	}

	s.log.Info("daily sales report sent",
		slog.String("date", summary.Date),
		slog.Int64("orders", summary.TotalOrders),
		slog.Int64("revenue_cents", summary.TotalRevenueCents),
	)
	return summary, nil
}
