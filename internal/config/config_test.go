package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.InDelta(t, 0.01, cfg.TrackEpsilon, 1e-12)
	assert.Equal(t, 10, cfg.TrackStride)
	assert.False(t, cfg.ExportOverwrite)
	assert.Empty(t, cfg.MergePrefix)
	assert.Equal(t, "records", cfg.RecordsTable)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.PublishEnabled())
	assert.Equal(t, "flight-tracks", cfg.KafkaTrackTopic)
	assert.Empty(t, cfg.MetricsPushgatewayURL)
	assert.Empty(t, cfg.MetricsTextfile)
	assert.Equal(t, "faam_core_etl", cfg.MetricsJob)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("TRACK_EPSILON", "0.005")
	t.Setenv("TRACK_STRIDE", "1")
	t.Setenv("EXPORT_OVERWRITE", "true")
	t.Setenv("MERGE_PREFIX", "AUX_")
	t.Setenv("RECORDS_SQLITE_TABLE", "chem")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092,")
	t.Setenv("KAFKA_TRACK_TOPIC", "tracks")
	t.Setenv("METRICS_PUSHGATEWAY_URL", "http://pushgateway:9091")
	t.Setenv("METRICS_TEXTFILE", "/var/lib/node_exporter/faam.prom")
	t.Setenv("TRACING_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.InDelta(t, 0.005, cfg.TrackEpsilon, 1e-12)
	assert.Equal(t, 1, cfg.TrackStride)
	assert.True(t, cfg.ExportOverwrite)
	assert.Equal(t, "AUX_", cfg.MergePrefix)
	assert.Equal(t, "chem", cfg.RecordsTable)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.PublishEnabled())
	assert.Equal(t, "tracks", cfg.KafkaTrackTopic)
	assert.Equal(t, "http://pushgateway:9091", cfg.MetricsPushgatewayURL)
	assert.Equal(t, "/var/lib/node_exporter/faam.prom", cfg.MetricsTextfile)
	assert.True(t, cfg.TracingEnabled)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ShutdownTimeout")
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative shutdown timeout", "SHUTDOWN_TIMEOUT", "-1s"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"unknown log format", "LOG_FORMAT", "yaml"},
		{"negative epsilon", "TRACK_EPSILON", "-0.1"},
		{"zero stride", "TRACK_STRIDE", "0"},
		{"empty records table", "RECORDS_SQLITE_TABLE", " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_TopicRequiredWithBrokers(t *testing.T) {
	cfg := &Config{
		LogLevel: "info", LogFormat: "json", ShutdownTimeout: time.Second,
		TrackStride: 1, RecordsTable: "records",
		KafkaBrokers: []string{"localhost:9092"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_TRACK_TOPIC")
}
