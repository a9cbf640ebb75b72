package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const eventTypeHeader = "event_type"

// KafkaPublisher publishes outbox messages to one kafka topic keyed by aggregate id,
// so all events of a transaction land in the same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher returns KafkaPublisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) *KafkaPublisher {
	l := logger.With().Str("component", "kafka-writer").Logger()

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		Logger:       kafka.LoggerFunc(func(msg string, args ...interface{}) { l.Debug().Msgf(msg, args...) }),
		ErrorLogger:  kafka.LoggerFunc(func(msg string, args ...interface{}) { l.Error().Msgf(msg, args...) }),
	}

	return &KafkaPublisher{writer: writer}
}

// Publish writes msgs synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, msgs ...domain.OutboxMessage) error {
	if err := p.writer.WriteMessages(ctx, toKafkaMessages(msgs)...); err != nil {
		return fmt.Errorf("write %d messages to kafka: %w", len(msgs), err)
	}

	return nil
}

// Close flushes pending writes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func toKafkaMessages(msgs []domain.OutboxMessage) []kafka.Message {
	out := make([]kafka.Message, len(msgs))

	for i, m := range msgs {
		out[i] = kafka.Message{
			Key:   []byte(m.AggregateID.String()),
			Value: m.Payload,
			Headers: []kafka.Header{
				{Key: eventTypeHeader, Value: []byte(m.EventType)},
			},
			Time: m.CreatedAt,
		}
	}

	return out
}
