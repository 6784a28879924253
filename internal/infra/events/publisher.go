package events

import (
	"context"
	"encoding/json"
	"time"

	"resale-market/internal/pkg/config"
	"resale-market/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// OrderFulfilled is the integration event emitted after a fulfillment
// transaction commits. Amounts are minor units.
type OrderFulfilled struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	BuyerID     uuid.UUID `json:"buyer_id"`
	Total       int64     `json:"total"`
	Currency    string    `json:"currency"`
	FulfilledAt time.Time `json:"fulfilled_at"`
}

type Publisher interface {
	PublishOrderFulfilled(ctx context.Context, event OrderFulfilled) error
	Close() error
}

// KafkaPublisher writes order events keyed by order id so per-order
// ordering is preserved within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) PublishOrderFulfilled(ctx context.Context, event OrderFulfilled) error {
	value, err := json.Marshal(event)
	if err != nil {
		return errs.Wrap(err, "marshal order fulfilled event")
	}
	msg := kafka.Message{
		Key:   []byte(event.OrderID.String()),
		Value: value,
		Time:  event.FulfilledAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errs.Wrap(err, "publish order fulfilled event")
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func NewNopPublisher() *NopPublisher {
	return &NopPublisher{}
}

func (NopPublisher) PublishOrderFulfilled(context.Context, OrderFulfilled) error { return nil }

func (NopPublisher) Close() error { return nil }

// NewPublisher picks the Kafka implementation when brokers are set.
func NewPublisher(cfg config.KafkaConfig) Publisher {
	if len(cfg.Brokers) == 0 || (len(cfg.Brokers) == 1 && cfg.Brokers[0] == "") {
		return NewNopPublisher()
	}
	return NewKafkaPublisher(cfg)
}
