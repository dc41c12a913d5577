package rabbitmqrepo

import (
	"context"
	"fmt"

	"github.com/corray333/food-ordering/internal/dal/rabbitmq"
	"github.com/corray333/food-ordering/internal/service/models/outbox"
	"github.com/streadway/amqp"
)

// EventPublisher delivers outbox messages to a RabbitMQ exchange.
type EventPublisher struct {
	client *rabbitmq.Client
}

// NewEventPublisher declares the exchange used by outbox messages.
func NewEventPublisher(client *rabbitmq.Client, exchange string) *EventPublisher {
	if err := client.DeclareExchange(rabbitmq.DeclareExchangeConfig{
		Name:    exchange,
		Kind:    amqp.ExchangeTopic,
		Durable: true,
	}); err != nil {
		panic(err)
	}

	return &EventPublisher{
		client: client,
	}
}

func (p *EventPublisher) Publish(ctx context.Context, msg outbox.OutboxMessage) error {
	err := p.client.Publish(ctx, msg.ExchangeName, msg.RoutingKey, amqp.Publishing{
		ContentType: msg.ContentType,
		MessageId:   msg.EventID,
		Type:        msg.EventType,
		Timestamp:   msg.CreatedAt,
		Body:        msg.Payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s to rabbitmq: %w", msg.EventType, err)
	}

	return nil
}
