// Package events publishes domain events for other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/educore/internal/config"
)

const TypeOrderCompleted = "order.completed"

// OrderCompleted is emitted after a paid order has been committed.
type OrderCompleted struct {
	Type          string          `json:"type"`
	OrderID       int64           `json:"order_id"`
	UserID        uuid.UUID       `json:"user_id"`
	CourseIDs     []int64         `json:"course_ids"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	TransactionID string          `json:"transaction_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
	Close() error
}

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

// NewPublisher returns a Kafka publisher, or a no-op one when no brokers are configured.
func NewPublisher(cfg config.KafkaConfig) Publisher {
	if len(cfg.Brokers) == 0 {
		log.Info().Msg("events: no kafka brokers configured, publishing disabled")
		return NopPublisher{}
	}
	return &KafkaPublisher{writer: NewKafkaWriter(cfg)}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, event any) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: failed to marshal event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		return fmt.Errorf("events: failed to write message: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

func (NopPublisher) Close() error { return nil }

// OrderKey is the message key for order events; it keeps one order's events on one partition.
func OrderKey(orderID int64) string {
	return fmt.Sprintf("order-%d", orderID)
}
