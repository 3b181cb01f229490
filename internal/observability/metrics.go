package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "faam_etl"

// Metrics holds the Prometheus counters and histograms for a batch run. Each
// instance owns its registry; a run ends by pushing or writing it out.
type Metrics struct {
	Registry *prometheus.Registry

	FilesProcessed    prometheus.Counter
	FilesFailed       prometheus.Counter
	SamplesNormalized prometheus.Counter

	TrackPoints *prometheus.CounterVec // labels: resolution={full,simplified}

	// Merge metrics.
	MergedColumns  prometheus.Counter
	SkippedColumns prometheus.Counter
	DiscardedRows  prometheus.Counter

	ExportConflicts    prometheus.Counter
	SummariesPublished prometheus.Counter
	PublishErrors      prometheus.Counter

	StageDuration *prometheus.HistogramVec // labels: stage
}

// NewMetrics creates all pipeline metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Core files processed successfully.",
		}),
		FilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_failed_total",
			Help:      "Core files whose processing failed.",
		}),
		SamplesNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_normalized_total",
			Help:      "One-second samples in normalized datasets.",
		}),
		TrackPoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "track_points_total",
			Help:      "Track coordinates by resolution.",
		}, []string{"resolution"}),
		MergedColumns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merged_columns_total",
			Help:      "Secondary columns merged onto the primary index.",
		}),
		SkippedColumns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_columns_total",
			Help:      "Secondary columns left out of a merge.",
		}),
		DiscardedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discarded_rows_total",
			Help:      "Secondary rows outside the primary time range.",
		}),
		ExportConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_conflicts_total",
			Help:      "Exports skipped because the destination existed.",
		}),
		SummariesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_published_total",
			Help:      "Track summaries written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed track summary publishes.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
	}

	m.Registry.MustRegister(
		m.FilesProcessed,
		m.FilesFailed,
		m.SamplesNormalized,
		m.TrackPoints,
		m.MergedColumns,
		m.SkippedColumns,
		m.DiscardedRows,
		m.ExportConflicts,
		m.SummariesPublished,
		m.PublishErrors,
		m.StageDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics for a single test.
func NewMetricsForTesting() *Metrics {
	return NewMetrics()
}

// Push sends every metric to a Prometheus Pushgateway under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

// WriteTextfile writes every metric in the text exposition format for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
