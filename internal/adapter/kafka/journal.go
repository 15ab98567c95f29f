// Package kafka publishes completed detection cycles to a journal topic so
// downstream consumers (analytics, history) can replay what the session
// explored. Publishing is best-effort; the pipeline never blocks on it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/city-explorer/internal/config"
	"github.com/couchcryptid/city-explorer/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Journal produces LocationInfo records to the journal topic.
// It implements pipeline.Journal.
type Journal struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewJournal creates a Kafka producer for the configured journal topic.
func NewJournal(cfg *config.Config, logger *slog.Logger) *Journal {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaJournalTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}
	return &Journal{writer: w, logger: logger}
}

// Record serializes and publishes one enriched LocationInfo.
func (j *Journal) Record(ctx context.Context, info domain.LocationInfo) error {
	msg, err := serializeToMessage(info)
	if err != nil {
		return err
	}
	return j.writer.WriteMessages(ctx, msg)
}

func (j *Journal) Close() error {
	return j.writer.Close()
}

// serializeToMessage marshals a LocationInfo into a Kafka message keyed by
// the detection identity.
func serializeToMessage(info domain.LocationInfo) (kafkago.Message, error) {
	data, err := json.Marshal(info)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize location info: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(info.Address.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "address_text", Value: []byte(info.Address.Text)},
			{Key: "detected_at", Value: []byte(info.Address.DetectedAt.Format(time.RFC3339))},
		},
	}, nil
}
