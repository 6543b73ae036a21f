package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/yourorg/backtest-service/internal/model"
)

// KafkaBridge forwards bus events to a Kafka topic so external consumers
// can observe import progress and trade activity. Delivery failures are
// logged and dropped, matching the bus's best-effort contract.
type KafkaBridge struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaBridge creates a bridge publishing to the given topic.
func NewKafkaBridge(brokers []string, topic, clientID string, logger *zap.Logger) *KafkaBridge {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Transport: &kafka.Transport{
			ClientID: clientID,
		},
	}
	return &KafkaBridge{
		writer: writer,
		logger: logger,
	}
}

// Handle is the bus subscriber; it serializes the event and hands it to
// the async Kafka writer.
func (b *KafkaBridge) Handle(event model.Event) {
	value, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event for Kafka",
			zap.String("type", string(event.Type)),
			zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.Type),
		Value: value,
		Time:  event.Timestamp,
	}
	if err := b.writer.WriteMessages(context.Background(), msg); err != nil {
		b.logger.Error("Failed to publish event to Kafka",
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
}

// Close flushes and closes the underlying writer.
func (b *KafkaBridge) Close() error {
	return b.writer.Close()
}
