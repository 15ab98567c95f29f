//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/city-explorer/internal/adapter/kafka"
	"github.com/couchcryptid/city-explorer/internal/config"
	"github.com/couchcryptid/city-explorer/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJournalTopic = "test-location-detections"

// TestJournalRoundTrip verifies that a recorded detection can be read back
// from the journal topic with its key, headers, and payload intact.
func TestJournalRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testJournalTopic)

	cfg := &config.Config{
		KafkaBrokers:      []string{broker},
		KafkaJournalTopic: testJournalTopic,
	}

	journal := kafka.NewJournal(cfg, discardLogger())
	t.Cleanup(func() { _ = journal.Close() })

	detectedAt := time.Date(2024, time.June, 12, 9, 30, 0, 0, time.UTC)
	info := domain.LocationInfo{
		Address: domain.DetectedAddress{
			ID:          "det-123",
			Text:        "Central Park, New York",
			Coordinates: domain.Coordinates{Lat: 40.7829, Lng: -73.9654},
			Formatted:   "Central Park, New York, United States",
			City:        "New York",
			Country:     "United States",
			DetectedAt:  detectedAt,
		},
		NearbyPlaces: []domain.PointOfInterest{
			{ID: "101", Name: "Loeb Boathouse", Type: "restaurant", Distance: 230},
		},
	}

	require.NoError(t, journal.Record(ctx, info))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testJournalTopic,
		GroupID:     fmt.Sprintf("test-journal-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read journal message")

	assert.Equal(t, "det-123", string(msg.Key))

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "Central Park, New York", headers["address_text"])
	parsed, err := time.Parse(time.RFC3339, headers["detected_at"])
	require.NoError(t, err)
	assert.True(t, parsed.Equal(detectedAt))

	var decoded domain.LocationInfo
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "Central Park, New York, United States", decoded.Address.Formatted)
	require.Len(t, decoded.NearbyPlaces, 1)
	assert.Equal(t, "Loeb Boathouse", decoded.NearbyPlaces[0].Name)
	assert.Equal(t, 230, decoded.NearbyPlaces[0].Distance)
}
