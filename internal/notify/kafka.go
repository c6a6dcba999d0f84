package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	inventorydomain "github.com/shopkit/checkout-core/internal/inventory/domain"
	orderdomain "github.com/shopkit/checkout-core/internal/order/domain"
)

// KafkaNotifier publishes JSON events; downstream consumers own delivery
// (mail, dashboards) per the boundary contract.
type KafkaNotifier struct {
	lowStock *kafka.Writer
	sales    *kafka.Writer
}

func NewKafkaNotifier(brokers []string, lowStockTopic, salesTopic string) *KafkaNotifier {
	return &KafkaNotifier{
		lowStock: newWriter(brokers, lowStockTopic),
		sales:    newWriter(brokers, salesTopic),
	}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

type lowStockEvent struct {
	Products []lowStockProduct `json:"products"`
}

type lowStockProduct struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	StockQuantity int32  `json:"stock_quantity"`
	Threshold     int32  `json:"threshold"`
}

func (n *KafkaNotifier) NotifyLowStock(ctx context.Context, products []inventorydomain.Product) error {
	event := lowStockEvent{Products: make([]lowStockProduct, 0, len(products))}
	for _, p := range products {
		event.Products = append(event.Products, lowStockProduct{
			ID:            p.ID,
			Name:          p.Name,
			StockQuantity: p.StockQuantity,
			Threshold:     p.EffectiveThreshold(),
		})
	}
	return publishJSON(ctx, n.lowStock, "low-stock", event)
}

func (n *KafkaNotifier) DailySalesSummary(ctx context.Context, summary orderdomain.SalesSummary) error {
	return publishJSON(ctx, n.sales, summary.Date, summary)
}

func (n *KafkaNotifier) Close() error {
	return errors.Join(n.lowStock.Close(), n.sales.Close())
}

func publishJSON(ctx context.Context, writer *kafka.Writer, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now().UTC(),
	})
}
