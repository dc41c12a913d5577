package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/corray333/food-ordering/internal/dal/interfaces/iinboxrepo"
	"github.com/corray333/food-ordering/internal/dal/rabbitmq"
	"github.com/corray333/food-ordering/internal/service/models/event"
	"github.com/corray333/food-ordering/internal/service/models/inbox"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// service represents the service layer interface.
type service interface {
	Advance(ctx context.Context, placed event.OrderPlaced) error
}

// Consumer reads order.placed events from RabbitMQ and hands them to the fulfillment service.
type Consumer struct {
	client      *rabbitmq.Client
	service     service
	inboxRepo   iinboxrepo.IInboxRepository
	queue       string
	concurrency int
	maxRetries  int
	stop        chan struct{}
	done        chan struct{}
}

// NewConsumer declares the exchange and the durable queue bound to order.placed.
func NewConsumer(client *rabbitmq.Client, service service, inboxRepo iinboxrepo.IInboxRepository) *Consumer {
	queueName := viper.GetString("rabbitmq.queue")
	if queueName == "" {
		panic("rabbitmq.queue is not set in config")
	}
	exchange := viper.GetString("rabbitmq.exchange")
	if exchange == "" {
		panic("rabbitmq.exchange is not set in config")
	}
	routingKey := viper.GetString("rabbitmq.routing_keys.order_placed")
	if routingKey == "" {
		routingKey = event.TypeOrderPlaced
	}

	if err := client.DeclareExchange(rabbitmq.DeclareExchangeConfig{
		Name:    exchange,
		Kind:    amqp.ExchangeTopic,
		Durable: true,
	}); err != nil {
		panic(err)
	}

	queue, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:    queueName,
		Durable: true,
	})
	if err != nil {
		panic(err)
	}

	if err := client.BindQueue(queue.Name, routingKey, exchange); err != nil {
		panic(err)
	}

	concurrency := viper.GetInt("rabbitmq.concurrency")
	if concurrency <= 0 {
		concurrency = 50
	}
	maxRetries := viper.GetInt("inbox.max_retries")
	if maxRetries <= 0 {
		maxRetries = 5
	}

	return newConsumer(client, service, inboxRepo, queue.Name, concurrency, maxRetries)
}

func newConsumer(
	client *rabbitmq.Client,
	service service,
	inboxRepo iinboxrepo.IInboxRepository,
	queue string,
	concurrency int,
	maxRetries int,
) *Consumer {
	return &Consumer{
		client:      client,
		service:     service,
		inboxRepo:   inboxRepo,
		queue:       queue,
		concurrency: concurrency,
		maxRetries:  maxRetries,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Run starts consuming messages from RabbitMQ.
func (c *Consumer) Run(ctx context.Context) error {
	consumerTag := viper.GetString("rabbitmq.consumer_tag")
	if consumerTag == "" {
		consumerTag = "fulfillment-svc"
	}

	msgs, err := c.client.Consume(rabbitmq.ConsumeConfig{
		Queue:    c.queue,
		Consumer: consumerTag,
	})
	if err != nil {
		return err
	}

	slog.Info("Consumer started", "queue", c.queue, "consumer_tag", consumerTag)

	return c.consume(ctx, msgs)
}

func (c *Consumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	go func() {
		defer close(c.done)

		for {
			select {
			case <-c.stop:
				slog.Info("Stopping consumer")

				return
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					slog.Info("Message channel closed")

					return
				}

				g.Go(func() error {
					c.processMessage(gctx, msg)

					return nil
				})
			}
		}
	}()

	<-c.done

	return g.Wait()
}

// processMessage acks a message once it is either handled or parked in the inbox.
func (c *Consumer) processMessage(ctx context.Context, msg amqp.Delivery) {
	ctx, span := otel.Tracer("consumer").Start(ctx, "Consumer.processMessage")
	defer span.End()

	env, placed, err := event.DecodeOrderPlaced(msg.Body)
	if err != nil {
		slog.Error("Failed to decode order.placed event", "error", err, "message_id", msg.MessageId)
		// Reject the message without requeuing
		if err := msg.Nack(false, false); err != nil {
			slog.Error("Failed to nack message", "error", err)
		}

		return
	}

	span.SetAttributes(attribute.String("event_id", env.EventID), attribute.Int64("order_id", placed.OrderID))

	err = c.service.Advance(ctx, placed)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		slog.Info("Fulfillment interrupted, requeueing", "order_id", placed.OrderID)
		if err := msg.Nack(false, true); err != nil {
			slog.Error("Failed to nack message", "error", err)
		}

		return
	}
	if err != nil {
		slog.Error("Failed to advance order, parking in inbox", "error", err, "order_id", placed.OrderID)

		if err := c.park(ctx, msg, env, err); err != nil {
			slog.Error("Failed to save message to inbox", "error", err, "order_id", placed.OrderID)
			if err := msg.Nack(false, true); err != nil {
				slog.Error("Failed to nack message", "error", err)
			}

			return
		}
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("Failed to ack message", "error", err)

		return
	}

	slog.Info("Message processed", "order_id", placed.OrderID, "event_id", env.EventID)
}

func (c *Consumer) park(ctx context.Context, msg amqp.Delivery, env event.Envelope, cause error) error {
	messageID := env.EventID
	if messageID == "" {
		messageID = msg.MessageId
	}
	if messageID == "" {
		messageID = uuid.NewString()
	}

	now := time.Now().UTC()

	return c.inboxRepo.Insert(ctx, inbox.InboxMessage{
		MessageID:   messageID,
		QueueName:   c.queue,
		RoutingKey:  msg.RoutingKey,
		Payload:     msg.Body,
		ContentType: msg.ContentType,
		MaxRetries:  c.maxRetries,
		LastError:   cause.Error(),
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	})
}

// Shutdown gracefully shuts down the consumer.
func (c *Consumer) Shutdown() error {
	slog.Info("Shutting down consumer")
	close(c.stop)

	// Wait for processing to finish with timeout
	select {
	case <-c.done:
		slog.Info("Consumer stopped successfully")
	case <-time.After(10 * time.Second):
		slog.Warn("Consumer shutdown timeout")
	}

	return nil
}
