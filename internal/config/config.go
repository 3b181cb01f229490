package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all run settings, populated from environment variables.
// CLI flags override the per-run fields after Load.
type Config struct {
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	TrackEpsilon float64 `env:"TRACK_EPSILON" envDefault:"0.01"`
	TrackStride  int     `env:"TRACK_STRIDE" envDefault:"10"`

	ExportOverwrite bool   `env:"EXPORT_OVERWRITE" envDefault:"false"`
	MergePrefix     string `env:"MERGE_PREFIX"`
	RecordsTable    string `env:"RECORDS_SQLITE_TABLE" envDefault:"records"`

	// Track summaries are published only when brokers are configured.
	KafkaBrokers    []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTrackTopic string   `env:"KAFKA_TRACK_TOPIC" envDefault:"flight-tracks"`

	MetricsPushgatewayURL string `env:"METRICS_PUSHGATEWAY_URL"`
	MetricsTextfile       string `env:"METRICS_TEXTFILE"`
	MetricsJob            string `env:"METRICS_JOB" envDefault:"faam_core_etl"`

	TracingEnabled bool `env:"TRACING_ENABLED" envDefault:"false"`
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.KafkaBrokers = parseBrokers(cfg.KafkaBrokers)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. Errors name the offending variable.
func (c *Config) Validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: got %q", c.LogLevel)
	}
	if !slices.Contains([]string{"json", "text"}, strings.ToLower(c.LogFormat)) {
		return fmt.Errorf("LOG_FORMAT must be json or text: got %q", c.LogFormat)
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.TrackEpsilon < 0 {
		return errors.New("TRACK_EPSILON must not be negative")
	}
	if c.TrackStride < 1 {
		return errors.New("TRACK_STRIDE must be at least 1")
	}
	if strings.TrimSpace(c.RecordsTable) == "" {
		return errors.New("RECORDS_SQLITE_TABLE must not be empty")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTrackTopic == "" {
		return errors.New("KAFKA_TRACK_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.MetricsPushgatewayURL != "" && c.MetricsJob == "" {
		return errors.New("METRICS_JOB is required when METRICS_PUSHGATEWAY_URL is set")
	}
	return nil
}

// PublishEnabled reports whether track summaries go to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseBrokers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, b := range in {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
