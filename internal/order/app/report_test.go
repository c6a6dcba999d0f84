package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopkit/checkout-core/internal/order/domain"
)

type fakeReader struct {
	from, to time.Time
	summary  domain.SalesSummary
	err      error
}

func (f *fakeReader) SalesSummary(ctx context.Context, from, to time.Time) (domain.SalesSummary, error) {
	f.from, f.to = from, to
	return f.summary, f.err
}

type fakePublisher struct {
	published []domain.SalesSummary
	err       error
}

func (f *fakePublisher) DailySalesSummary(ctx context.Context, summary domain.SalesSummary) error {
	f.published = append(f.published, summary)
	return f.err
}

func TestSendDailyRange(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	day := time.Date(2025, 3, 9, 15, 30, 0, 0, loc)

	reader := &fakeReader{summary: domain.SalesSummary{Date: "2025-03-09", TotalOrders: 3}}
	publisher := &fakePublisher{}
	svc := NewReportService(reader, publisher, nil)

	summary, err := svc.SendDaily(context.Background(), day)
	if err != nil {
		t.Fatalf("SendDaily: %v", err)
	}

	wantFrom := time.Date(2025, 3, 9, 0, 0, 0, 0, loc)
	if !reader.from.Equal(wantFrom) {
		t.Fatalf("from = %v, want %v", reader.from, wantFrom)
	}
	// AddDate, not +24h: 2025-03-09 is a DST transition day in this zone.
	wantTo := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	if !reader.to.Equal(wantTo) {
		t.Fatalf("to = %v, want %v", reader.to, wantTo)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(publisher.published))
	}
	if summary.TotalOrders != 3 {
		t.Fatalf("summary not passed through: %+v", summary)
	}
}

func TestSendDailyReaderError(t *testing.T) {
	boom := errors.New("db down")
	reader := &fakeReader{err: boom}
	publisher := &fakePublisher{}
	svc := NewReportService(reader, publisher, nil)

	if _, err := svc.SendDaily(context.Background(), time.Now()); !errors.Is(err, boom) {
		t.Fatalf("expected reader error, got %v", err)
	}
	if len(publisher.published) != 0 {
		t.Fatalf("must not publish after a read failure")
	}
}

func TestSendDailyPublisherError(t *testing.T) {
	boom := errors.New("broker down")
	reader := &fakeReader{summary: domain.SalesSummary{Date: "2025-03-09"}}
	publisher := &fakePublisher{err: boom}
	svc := NewReportService(reader, publisher, nil)

	if _, err := svc.SendDaily(context.Background(), time.Now()); !errors.Is(err, boom) {
		t.Fatalf("expected publisher error, got %v", err)
	}
}
