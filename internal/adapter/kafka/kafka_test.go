package kafka

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/faam-core-etl/internal/config"
	"github.com/couchcryptid/faam-core-etl/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	summary := domain.TrackSummary{
		Flight:      "c012",
		Date:        "2017-05-17",
		Samples:     3600,
		BoundingBox: &domain.BoundingBox{MinLat: 50, MaxLat: 52, MinLon: -3, MaxLon: -1},
		ProcessedAt: now,
	}

	msg, err := serializeToMessage(summary)
	require.NoError(t, err)

	assert.Equal(t, []byte("c012"), msg.Key)
	assert.Contains(t, string(msg.Value), `"flight":"c012"`)
	assert.Contains(t, string(msg.Value), `"bbox":{"min_lat":50,"max_lat":52,"min_lon":-3,"max_lon":-1}`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "flight", msg.Headers[0].Key)
	assert.Equal(t, []byte("c012"), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_KeyWithoutFlight(t *testing.T) {
	msg, err := serializeToMessage(domain.TrackSummary{Date: "2017-05-17"})
	require.NoError(t, err)
	assert.Equal(t, []byte("2017-05-17"), msg.Key)
}

func TestPublisher_PublishNothing(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTrackTopic: "flight-tracks"}
	p := NewPublisher(cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, p.Publish(context.Background()))
	assert.Equal(t, "flight-tracks", p.writer.Topic)
	assert.NoError(t, p.Close())
}
