package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/corray333/food-ordering/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MustInit loads .env and config.yaml and installs the default logger.
// A missing .env is fine; the environment may already carry everything.
func MustInit() {
	if err := godotenv.Load("./.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("error while loading .env file: " + err.Error())
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/food-ordering")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		panic("error while reading config file: " + err.Error())
	}

	SetupLogger()
}

func setDefaults() {
	viper.SetDefault("server.http.port", "8080")
	viper.SetDefault("server.grpc.port", "9090")
	viper.SetDefault("postgres.migrate", true)
	viper.SetDefault("postgres.migrations_path", "./migrations")
	viper.SetDefault("orders.currency", "USD")
	viper.SetDefault("orders.estimated_time", "25-30 minutes")
	viper.SetDefault("orders.default_limit", 10)
	viper.SetDefault("orders.max_limit", 100)
	viper.SetDefault("orders.idempotency_ttl_minutes", 24*60)
	viper.SetDefault("orders.idempotency_in_flight_seconds", 60)
	viper.SetDefault("auth.token_ttl_hours", 7*24)
	viper.SetDefault("auth.bcrypt_cost", 12)
	viper.SetDefault("auth.status_update_roles", []string{"admin"})
	viper.SetDefault("events.sink", "rabbitmq")
	viper.SetDefault("outbox.max_retries", 10)
	viper.SetDefault("inbox.max_retries", 5)
	viper.SetDefault("inbox.poll_interval_seconds", 5)
	viper.SetDefault("inbox.batch_size", 100)
	viper.SetDefault("inbox.retry_interval_seconds", 30)
	viper.SetDefault("redis.status_ttl_seconds", 300)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")
}

func SetupLogger() {
	handler := logger.NewHandler(&logger.HandlerOptions{
		Level:  logger.ParseLevel(viper.GetString("logger.level")),
		Format: viper.GetString("logger.format"),
		Writer: os.Stdout,
	})
	log := slog.New(handler)
	slog.SetDefault(log)
}
