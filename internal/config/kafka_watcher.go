package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// messageReader is the part of *kafka.Reader the watcher uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaWatcher consumes change events from a Kafka topic. Each message value
// is a JSON ConfigChangeEvent. Offsets are committed after the handler
// returns, so an event is not lost if the process stops mid-reload.
type KafkaWatcher struct {
	reader  messageReader
	handler ConfigChangeHandler
	topic   string
}

// NewKafkaWatcher creates a watcher reading topic as part of groupID.
func NewKafkaWatcher(brokers []string, topic, groupID string, handler ConfigChangeHandler) *KafkaWatcher {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
	return &KafkaWatcher{reader: reader, handler: handler, topic: topic}
}

// Start consumes events until ctx is cancelled.
func (w *KafkaWatcher) Start(ctx context.Context) error {
	logger := log.With().Str("component", "kafka_watcher").Str("topic", w.topic).Logger()
	logger.Info().Msg("Consuming configuration changes")

	defer func() {
		if err := w.reader.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close Kafka reader")
		}
	}()

	for {
		msg, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				logger.Info().Msg("Kafka watcher shutting down")
				return ctx.Err()
			}
			return fmt.Errorf("failed to fetch message from %s: %w", w.topic, err)
		}

		dispatchEvent(msg.Value, w.handler, "kafka")

		if err := w.reader.CommitMessages(ctx, msg); err != nil {
			logger.Warn().
				Err(err).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("Failed to commit offset")
		}
	}
}
