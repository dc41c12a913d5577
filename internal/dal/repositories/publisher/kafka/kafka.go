package kafkarepo

import (
	"context"
	"fmt"

	"github.com/corray333/food-ordering/internal/service/models/outbox"
	"github.com/segmentio/kafka-go"
)

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// EventPublisher delivers outbox messages to a Kafka topic, keyed by order id.
type EventPublisher struct {
	w writer
}

func NewEventPublisher(w writer) *EventPublisher {
	return &EventPublisher{w: w}
}

func (p *EventPublisher) Publish(ctx context.Context, msg outbox.OutboxMessage) error {
	err := p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.MessageKey),
		Value: msg.Payload,
		Time:  msg.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(msg.EventID)},
			{Key: "event_type", Value: []byte(msg.EventType)},
			{Key: "content_type", Value: []byte(msg.ContentType)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s to kafka: %w", msg.EventType, err)
	}

	return nil
}
