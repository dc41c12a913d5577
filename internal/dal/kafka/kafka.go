package kafka

import (
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/viper"
)

// NewWriter creates a synchronous writer. Messages are partitioned by key,
// so events of one order stay ordered.
func NewWriter() *kafka.Writer {
	brokers := viper.GetStringSlice("kafka.brokers")
	if len(brokers) == 1 {
		brokers = strings.Split(brokers[0], ",")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  viper.GetString("kafka.topic"),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: viper.GetBool("kafka.auto_create_topic"),
		WriteTimeout:           10 * time.Second,
	}

	slog.Info("Kafka writer configured", "brokers", brokers, "topic", w.Topic)

	return w
}
