package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/couchcryptid/faam-core-etl/internal/domain"
	"github.com/couchcryptid/faam-core-etl/internal/observability"
)

// SourceOpener opens a raw core file.
type SourceOpener interface {
	Open(ctx context.Context, path string) (domain.Source, error)
}

// Transformer normalizes a source and builds its track. It owns src.
type Transformer interface {
	Transform(ctx context.Context, src domain.Source, opts domain.TrackOptions) (*domain.Dataset, *domain.Track, error)
}

// RecordLoader reads a secondary record file.
type RecordLoader interface {
	Load(ctx context.Context, path string) (domain.RecordSet, error)
}

// DatasetExporter writes a normalized dataset.
type DatasetExporter interface {
	Export(ctx context.Context, ds *domain.Dataset, path string, opts domain.ExportOptions) error
}

// FrameWriter writes a tabular view of a dataset.
type FrameWriter interface {
	WriteFrame(ctx context.Context, ds *domain.Dataset, path string, names []string) error
}

// SummaryPublisher delivers track summaries downstream.
type SummaryPublisher interface {
	Publish(ctx context.Context, summaries ...domain.TrackSummary) error
}

// Stages wires the pipeline. Opener and Transformer are required; a nil
// optional stage is skipped.
type Stages struct {
	Opener      SourceOpener
	Transformer Transformer
	Loader      RecordLoader
	Exporter    DatasetExporter
	Frames      FrameWriter
	Publisher   SummaryPublisher
}

// MergeInput is one secondary stream to merge, shifted by Delay samples.
type MergeInput struct {
	Path  string
	Delay int
}

// Job describes the processing of one core file.
type Job struct {
	Path   string
	Track  domain.TrackOptions
	Merges []MergeInput
	// MergePrefix is prepended to every merged variable name.
	MergePrefix string

	// ExportPath, when set, receives the normalized dataset.
	ExportPath string
	Export     domain.ExportOptions

	// FramePath, when set, receives a CSV frame of FrameVariables (all
	// variables when empty).
	FramePath      string
	FrameVariables []string
}

// Result reports what a job produced.
type Result struct {
	Summary  domain.TrackSummary
	Merged   []string
	Exported bool
	Framed   bool
	// Published is false when publishing was disabled or failed.
	Published bool
}

// Pipeline processes core files through open, normalize, merge, export,
// frame and publish stages.
type Pipeline struct {
	stages  Stages
	logger  *slog.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// New creates a Pipeline with the given stages and observability.
func New(stages Stages, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		stages:  stages,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer(observability.TracerName),
	}
}

// Run processes jobs in order and stops at the first failure or when ctx is
// cancelled.
func (p *Pipeline) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, 0, len(jobs))
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := p.Process(ctx, job)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Process runs one job. Open, normalize, merge, export and frame failures
// abort the job; an existing export destination and publish failures are
// logged and the job continues.
func (p *Pipeline) Process(ctx context.Context, job Job) (res Result, err error) {
	ctx, span := p.tracer.Start(ctx, "process", trace.WithAttributes(attribute.String("path", job.Path)))
	defer span.End()
	defer func() {
		if err != nil {
			p.metrics.FilesFailed.Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			p.logger.Error("processing failed", "path", job.Path, "error", err)
			return
		}
		p.metrics.FilesProcessed.Inc()
	}()

	var src domain.Source
	err = p.stage(ctx, "open", func(ctx context.Context) error {
		var oerr error
		src, oerr = p.stages.Opener.Open(ctx, job.Path)
		return oerr
	})
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", job.Path, err)
	}

	var (
		ds *domain.Dataset
		tr *domain.Track
	)
	err = p.stage(ctx, "normalize", func(ctx context.Context) error {
		var terr error
		ds, tr, terr = p.stages.Transformer.Transform(ctx, src, job.Track)
		return terr
	})
	if err != nil {
		return Result{}, fmt.Errorf("normalize %s: %w", job.Path, err)
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil {
			p.logger.Warn("close dataset", "path", job.Path, "error", cerr)
		}
	}()

	log := p.logger.With("flight", ds.FlightID())
	span.SetAttributes(attribute.String("flight", ds.FlightID()))
	p.metrics.SamplesNormalized.Add(float64(ds.Len()))

	for _, m := range job.Merges {
		names, err := p.merge(ctx, ds, m, job.MergePrefix, log)
		if err != nil {
			return Result{}, fmt.Errorf("merge %s: %w", m.Path, err)
		}
		res.Merged = append(res.Merged, names...)
	}

	p.metrics.TrackPoints.WithLabelValues("full").Add(float64(tr.Len()))
	p.metrics.TrackPoints.WithLabelValues("simplified").Add(float64(len(tr.Simplified())))

	if job.ExportPath != "" && p.stages.Exporter != nil {
		err := p.stage(ctx, "export", func(ctx context.Context) error {
			return p.stages.Exporter.Export(ctx, ds, job.ExportPath, job.Export)
		})
		switch {
		case errors.Is(err, domain.ErrDestinationExists):
			p.metrics.ExportConflicts.Inc()
			log.Warn("export skipped", "path", job.ExportPath, "error", err)
		case err != nil:
			return Result{}, fmt.Errorf("export %s: %w", job.ExportPath, err)
		default:
			res.Exported = true
		}
	}

	if job.FramePath != "" && p.stages.Frames != nil {
		err := p.stage(ctx, "frame", func(ctx context.Context) error {
			return p.stages.Frames.WriteFrame(ctx, ds, job.FramePath, job.FrameVariables)
		})
		if err != nil {
			return Result{}, fmt.Errorf("frame %s: %w", job.FramePath, err)
		}
		res.Framed = true
	}

	res.Summary = domain.Summarize(ds, tr, res.Merged)

	if p.stages.Publisher != nil {
		err := p.stage(ctx, "publish", func(ctx context.Context) error {
			return p.stages.Publisher.Publish(ctx, res.Summary)
		})
		if err != nil {
			p.metrics.PublishErrors.Inc()
			log.Warn("publish track summary failed", "error", err)
		} else {
			p.metrics.SummariesPublished.Inc()
			res.Published = true
		}
	}

	log.Info("processed core file",
		"path", job.Path,
		"date", res.Summary.Date,
		"samples", res.Summary.Samples,
		"track_points", res.Summary.TrackPoints,
		"simplified_points", res.Summary.SimplifiedPoints,
		"merged", len(res.Merged),
	)
	return res, nil
}

func (p *Pipeline) merge(ctx context.Context, ds *domain.Dataset, m MergeInput, prefix string, log *slog.Logger) ([]string, error) {
	if p.stages.Loader == nil {
		return nil, errors.New("no record loader configured")
	}
	var mr domain.MergeResult
	err := p.stage(ctx, "merge", func(ctx context.Context) error {
		rs, err := p.stages.Loader.Load(ctx, m.Path)
		if err != nil {
			return err
		}
		mr, err = ds.Merge(rs, domain.MergeOptions{Delay: m.Delay, Prefix: prefix})
		return err
	})
	if err != nil {
		return nil, err
	}

	p.metrics.MergedColumns.Add(float64(len(mr.Variables)))
	p.metrics.SkippedColumns.Add(float64(len(mr.Skipped)))
	p.metrics.DiscardedRows.Add(float64(mr.Discarded))
	if len(mr.Skipped) > 0 {
		log.Debug("skipped secondary columns", "path", m.Path, "columns", mr.Skipped)
	}
	log.Info("merged secondary records",
		"path", m.Path,
		"delay", m.Delay,
		"variables", len(mr.Variables),
		"discarded_rows", mr.Discarded,
	)
	return mr.Names(), nil
}

// stage runs fn inside a span and records its duration.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	p.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
