// Package events publishes order lifecycle events to Kafka for downstream
// consumers (analytics, fulfilment). Publishing is best-effort: the caller
// logs and continues on failure.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kawanestudio/storefront/internal/domain/order"
)

var _ order.EventPublisher = (*KafkaPublisher)(nil)

// KafkaPublisher writes order events to a single topic, keyed by order id so
// one order's events stay on one partition.
type KafkaPublisher struct {
	w *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			MaxAttempts:  3,
			WriteTimeout: 5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Publish writes one event, keyed by its order id.
func (p *KafkaPublisher) Publish(ctx context.Context, e order.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding order event: %w", err)
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.OrderID),
		Value: b,
	}); err != nil {
		return fmt.Errorf("writing order event: %w", err)
	}
	return nil
}

// Close releases the underlying writer.
func (p *KafkaPublisher) Close() error { return p.w.Close() }
