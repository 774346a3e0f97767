package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/complaint-forecast-service/internal/config"
	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes model lifecycle events to a Kafka topic.
// It implements pipeline.EventPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishTrainingSummary writes one message describing a finished training run.
func (w *Writer) PublishTrainingSummary(ctx context.Context, summary domain.TrainingSummary) error {
	msg, err := serializeToMessage(summary)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish training summary: %w", err)
	}
	w.logger.Debug("training summary published", "run_id", summary.RunID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a TrainingSummary into a Kafka message keyed by run ID.
func serializeToMessage(summary domain.TrainingSummary) (kafkago.Message, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize training summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(summary.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(summary.RunID)},
			{Key: "trained_at", Value: []byte(summary.TrainedAt.Format(time.RFC3339))},
		},
	}, nil
}
