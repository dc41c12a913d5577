package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/corray333/food-ordering/internal/dal/kafka"
	"github.com/corray333/food-ordering/internal/dal/postgres"
	"github.com/corray333/food-ordering/internal/dal/rabbitmq"
	"github.com/corray333/food-ordering/internal/dal/redis"
	idemrepo "github.com/corray333/food-ordering/internal/dal/repositories/idempotency/redis"
	menurepo "github.com/corray333/food-ordering/internal/dal/repositories/menu/postgres"
	outboxrepo "github.com/corray333/food-ordering/internal/dal/repositories/outbox/postgres"
	kafkarepo "github.com/corray333/food-ordering/internal/dal/repositories/publisher/kafka"
	rabbitmqrepo "github.com/corray333/food-ordering/internal/dal/repositories/publisher/rabbitmq"
	statuscacherepo "github.com/corray333/food-ordering/internal/dal/repositories/statuscache/redis"
	userrepo "github.com/corray333/food-ordering/internal/dal/repositories/user/postgres"
	"github.com/corray333/food-ordering/internal/otel"
	"github.com/corray333/food-ordering/internal/service/models/currency"
	"github.com/corray333/food-ordering/internal/service/models/event"
	"github.com/corray333/food-ordering/internal/service/services/authsvc"
	"github.com/corray333/food-ordering/internal/service/services/menusvc"
	"github.com/corray333/food-ordering/internal/service/services/ordersvc"
	grpctransport "github.com/corray333/food-ordering/internal/transport/grpc"
	httptransport "github.com/corray333/food-ordering/internal/transport/http"
	outboxworker "github.com/corray333/food-ordering/internal/worker/outbox"
	goredis "github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/spf13/viper"
)

const (
	sinkRabbitMQ = "rabbitmq"
	sinkKafka    = "kafka"
	sinkNone     = "none"
)

// APIApp serves the public HTTP API and the order admin gRPC API.
type APIApp struct {
	httpTransport  *httptransport.HTTPTransport
	grpcTransport  *grpctransport.GRPCTransport
	outboxWorker   *outboxworker.Worker
	postgresClient *postgres.Client
	redisClient    *goredis.Client
	rabbitMqClient *rabbitmq.Client
	kafkaWriter    *kafkago.Writer
	otelController *otel.OtelController
}

// MustNewAPIApp creates the api application.
func MustNewAPIApp() *APIApp {
	a := &APIApp{
		otelController: otel.MustInitOtel("food-api"),
		postgresClient: postgres.MustNewClient(),
		redisClient:    redis.MustNewClient(),
	}

	cur, err := currency.ParseCurrency(strings.ToUpper(viper.GetString("orders.currency")))
	if err != nil {
		panic("orders.currency: " + err.Error())
	}

	orderOpts := []ordersvc.Option{
		ordersvc.WithPostgresClient(a.postgresClient),
		ordersvc.WithIdempotencyStore(
			idemrepo.NewIdempotencyRepository(a.redisClient),
			time.Duration(viper.GetInt("orders.idempotency_ttl_minutes"))*time.Minute,
		),
		ordersvc.WithIdempotencyInFlightTTL(time.Duration(viper.GetInt("orders.idempotency_in_flight_seconds"))*time.Second),
		ordersvc.WithStatusCache(statuscacherepo.NewStatusCacheRepository(
			a.redisClient,
			time.Duration(viper.GetInt("redis.status_ttl_seconds"))*time.Second,
		)),
		ordersvc.WithCurrency(cur),
		ordersvc.WithEstimatedTime(viper.GetString("orders.estimated_time")),
		ordersvc.WithPagination(viper.GetInt("orders.default_limit"), viper.GetInt("orders.max_limit")),
	}

	sink := strings.ToLower(viper.GetString("events.sink"))
	if sink != sinkNone {
		orderOpts = append(orderOpts, ordersvc.WithEvents(ordersvc.EventSettings{
			Producer:                "food-api",
			Exchange:                viper.GetString("rabbitmq.exchange"),
			PlacedRoutingKey:        event.TypeOrderPlaced,
			StatusChangedRoutingKey: event.TypeOrderStatusChanged,
			MaxRetries:              viper.GetInt("outbox.max_retries"),
		}))
	}

	orderSvc := ordersvc.MustNewOrderService(orderOpts...)

	menuSvc := menusvc.MustNewMenuService(
		menusvc.WithMenuRepository(menurepo.NewMenuRepository(a.postgresClient.Pool())),
	)

	authSvc := authsvc.MustNewAuthService(
		authsvc.WithUserRepository(userrepo.NewUserRepository(a.postgresClient.Pool())),
		authsvc.WithTokenSecret(viper.GetString("auth.jwt_secret")),
		authsvc.WithTokenTTL(time.Duration(viper.GetInt("auth.token_ttl_hours"))*time.Hour),
		authsvc.WithBcryptCost(viper.GetInt("auth.bcrypt_cost")),
		authsvc.WithAdminEmails(viper.GetStringSlice("auth.admin_emails")...),
	)

	a.httpTransport = httptransport.NewHTTPTransport(orderSvc, menuSvc, authSvc, a.postgresClient)
	a.httpTransport.RegisterRoutes()

	a.grpcTransport = grpctransport.NewGRPCTransport(orderSvc)

	outboxRepository := outboxrepo.NewOutboxRepository(a.postgresClient.Pool())
	switch sink {
	case sinkRabbitMQ:
		a.rabbitMqClient = rabbitmq.MustNewClient()
		publisher := rabbitmqrepo.NewEventPublisher(a.rabbitMqClient, viper.GetString("rabbitmq.exchange"))
		a.outboxWorker = outboxworker.NewWorker(outboxRepository, publisher)
	case sinkKafka:
		a.kafkaWriter = kafka.NewWriter()
		a.outboxWorker = outboxworker.NewWorker(outboxRepository, kafkarepo.NewEventPublisher(a.kafkaWriter))
	case sinkNone:
	default:
		panic("unknown events.sink: " + sink)
	}

	return a
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *APIApp) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.httpTransport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting gRPC server")
		if err := a.grpcTransport.Run(); err != nil {
			slog.Error("gRPC server error", "error", err)
		}
	}()

	if a.outboxWorker != nil {
		go func() {
			slog.Info("Starting outbox worker")
			a.outboxWorker.Start(ctx)
		}()
	}

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown stops the servers first so no new orders arrive while the outbox drains.
func (a *APIApp) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpTransport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.grpcTransport.Shutdown(ctx); err != nil {
		slog.Error("gRPC server shutdown error", "error", err)
	} else {
		slog.Info("gRPC server stopped gracefully")
	}

	if a.outboxWorker != nil {
		a.outboxWorker.Stop()
		slog.Info("Outbox worker stopped gracefully")
	}

	if a.rabbitMqClient != nil {
		if err := a.rabbitMqClient.Close(); err != nil {
			slog.Error("RabbitMQ connection close error", "error", err)
		}
	}

	if a.kafkaWriter != nil {
		if err := a.kafkaWriter.Close(); err != nil {
			slog.Error("Kafka writer close error", "error", err)
		}
	}

	if err := a.redisClient.Close(); err != nil {
		slog.Error("Redis connection close error", "error", err)
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
