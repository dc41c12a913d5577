package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcclient "github.com/corray333/food-ordering/internal/dal/grpc"
	"github.com/corray333/food-ordering/internal/dal/postgres"
	"github.com/corray333/food-ordering/internal/dal/rabbitmq"
	inboxrepo "github.com/corray333/food-ordering/internal/dal/repositories/inbox/postgres"
	"github.com/corray333/food-ordering/internal/otel"
	"github.com/corray333/food-ordering/internal/service/services/fulfillmentsvc"
	"github.com/corray333/food-ordering/internal/transport/consumer"
	inboxworker "github.com/corray333/food-ordering/internal/worker/inbox"
	"github.com/spf13/viper"
)

// FulfillmentApp consumes order.placed events and walks the orders through the kitchen.
type FulfillmentApp struct {
	consumerTransp *consumer.Consumer
	inboxWorker    *inboxworker.Worker
	grpcClient     *grpcclient.Client
	rabbitMqClient *rabbitmq.Client
	postgresClient *postgres.Client
	otelController *otel.OtelController
}

// MustNewFulfillmentApp creates the fulfillment application.
func MustNewFulfillmentApp() *FulfillmentApp {
	otelController := otel.MustInitOtel("food-fulfillment")
	rabbitMqClient := rabbitmq.MustNewClient()
	postgresClient := postgres.MustNewClient()
	grpcClient := grpcclient.MustNewClient()

	steps := fulfillmentsvc.DefaultSteps()
	if raw := viper.GetStringSlice("fulfillment.steps"); len(raw) > 0 {
		parsed, err := fulfillmentsvc.ParseSteps(raw)
		if err != nil {
			panic("fulfillment.steps: " + err.Error())
		}
		steps = parsed
	}

	fulfillmentSvc := fulfillmentsvc.MustNewFulfillmentService(
		fulfillmentsvc.WithStatusClient(grpcClient),
		fulfillmentsvc.WithSteps(steps),
	)

	inboxRepository := inboxrepo.NewInboxRepository(postgresClient.Pool())

	consumerTransp := consumer.NewConsumer(rabbitMqClient, fulfillmentSvc, inboxRepository)

	inboxWorker := inboxworker.NewWorker(
		inboxRepository,
		fulfillmentSvc,
		time.Duration(viper.GetInt("inbox.poll_interval_seconds"))*time.Second,
		viper.GetInt("inbox.batch_size"),
		time.Duration(viper.GetInt("inbox.retry_interval_seconds"))*time.Second,
	)

	return &FulfillmentApp{
		consumerTransp: consumerTransp,
		inboxWorker:    inboxWorker,
		grpcClient:     grpcClient,
		rabbitMqClient: rabbitMqClient,
		postgresClient: postgresClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *FulfillmentApp) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting consumer")
		if err := a.consumerTransp.Run(ctx); err != nil {
			slog.Error("Consumer error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting inbox worker")
		a.inboxWorker.Start(ctx)
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown stops the inbox worker, then the consumer, then closes the connections.
func (a *FulfillmentApp) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.inboxWorker.Stop()
	slog.Info("Inbox worker stopped gracefully")

	if err := a.consumerTransp.Shutdown(); err != nil {
		slog.Error("Consumer shutdown error", "error", err)
	} else {
		slog.Info("Consumer stopped gracefully")
	}

	if err := a.rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	}

	if err := a.grpcClient.Close(); err != nil {
		slog.Error("gRPC connection close error", "error", err)
	}

	a.postgresClient.Close()

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	}

	select {
	case <-ctx.Done():
		slog.Warn("Shutdown timeout exceeded")
	default:
		slog.Info("Application shutdown complete")
	}
}
