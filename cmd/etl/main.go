// Command etl normalizes FAAM core files, merges secondary instrument
// streams onto them, exports the result and publishes a track summary per
// flight.
//
// Usage:
//
//	etl core_faam_20170517_c012.nc \
//	  --merge chemistry.csv@2 \
//	  --export-dir out --1hz \
//	  --frame-dir out --frame-vars LAT_GIN,LON_GIN,ALT_GIN
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	kafkaadapter "github.com/couchcryptid/faam-core-etl/internal/adapter/kafka"
	"github.com/couchcryptid/faam-core-etl/internal/adapter/netcdf"
	"github.com/couchcryptid/faam-core-etl/internal/adapter/records"
	"github.com/couchcryptid/faam-core-etl/internal/config"
	"github.com/couchcryptid/faam-core-etl/internal/domain"
	"github.com/couchcryptid/faam-core-etl/internal/observability"
	"github.com/couchcryptid/faam-core-etl/internal/pipeline"
)

type options struct {
	merges      []string
	mergePrefix string
	exportDir   string
	oneHertz    bool
	overwrite   bool
	frameDir    string
	frameVars   []string
	epsilon     float64
	stride      int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "etl [flags] CORE_FILE...",
		Short:        "Normalize FAAM core files and build flight tracks",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				slog.Error("failed to load config", "error", err)
				return err
			}
			applyFlags(cmd, cfg, &opts)
			return run(cmd.Context(), cfg, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&opts.merges, "merge", nil, "secondary record file to merge, as PATH or PATH@DELAY (repeatable)")
	f.StringVar(&opts.mergePrefix, "merge-prefix", "", "prefix for merged variable names (default $MERGE_PREFIX)")
	f.StringVar(&opts.exportDir, "export-dir", "", "directory for normalized netCDF output (skipped when empty)")
	f.BoolVar(&opts.oneHertz, "1hz", false, "export one sample per second")
	f.BoolVar(&opts.overwrite, "overwrite", false, "replace existing export files (default $EXPORT_OVERWRITE)")
	f.StringVar(&opts.frameDir, "frame-dir", "", "directory for CSV frames (skipped when empty)")
	f.StringSliceVar(&opts.frameVars, "frame-vars", nil, "variables to include in frames (default all)")
	f.Float64Var(&opts.epsilon, "epsilon", domain.DefaultEpsilon, "track simplification tolerance in degrees (default $TRACK_EPSILON)")
	f.IntVar(&opts.stride, "stride", domain.DefaultStride, "track simplification stride (default $TRACK_STRIDE)")
	return cmd
}

// applyFlags lets explicitly set flags override environment configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts *options) {
	f := cmd.Flags()
	if !f.Changed("merge-prefix") {
		opts.mergePrefix = cfg.MergePrefix
	}
	if !f.Changed("overwrite") {
		opts.overwrite = cfg.ExportOverwrite
	}
	if !f.Changed("epsilon") {
		opts.epsilon = cfg.TrackEpsilon
	}
	if !f.Changed("stride") {
		opts.stride = cfg.TrackStride
	}
}

func run(parent context.Context, cfg *config.Config, opts options, paths []string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.TracingEnabled, os.Stdout, logger)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, cfg.ShutdownTimeout, logger)

	jobs, err := buildJobs(paths, opts)
	if err != nil {
		logger.Error("invalid arguments", "error", err)
		return err
	}

	stages := pipeline.Stages{
		Opener:      netcdf.NewOpener(logger),
		Transformer: pipeline.NewTransformer(logger),
		Loader:      records.NewLoader(cfg.RecordsTable, logger),
		Exporter:    netcdf.NewWriter(logger),
		Frames:      records.NewFrameWriter(logger),
	}
	var publisher *kafkaadapter.Publisher
	if cfg.PublishEnabled() {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		stages.Publisher = publisher
		logger.Info("publishing track summaries", "topic", cfg.KafkaTrackTopic)
	} else {
		logger.Info("track summary publishing disabled")
	}

	p := pipeline.New(stages, logger, metrics)
	results, runErr := p.Run(ctx, jobs)
	logger.Info("batch finished", "processed", len(results), "requested", len(jobs))

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	flushMetrics(cfg, metrics, logger)
	return runErr
}

func buildJobs(paths []string, opts options) ([]pipeline.Job, error) {
	merges := make([]pipeline.MergeInput, 0, len(opts.merges))
	for _, spec := range opts.merges {
		m, err := parseMergeSpec(spec)
		if err != nil {
			return nil, err
		}
		merges = append(merges, m)
	}

	mode := domain.FullResolution
	if opts.oneHertz {
		mode = domain.OneHertz
	}

	jobs := make([]pipeline.Job, 0, len(paths))
	for _, path := range paths {
		job := pipeline.Job{
			Path:           path,
			Track:          domain.TrackOptions{Epsilon: opts.epsilon, Stride: opts.stride},
			Merges:         merges,
			MergePrefix:    opts.mergePrefix,
			Export:         domain.ExportOptions{Mode: mode, Overwrite: opts.overwrite},
			FrameVariables: opts.frameVars,
		}
		if opts.exportDir != "" {
			job.ExportPath = exportPath(opts.exportDir, path, mode)
		}
		if opts.frameDir != "" {
			job.FramePath = filepath.Join(opts.frameDir, stem(path)+".csv")
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// parseMergeSpec parses PATH or PATH@DELAY.
func parseMergeSpec(spec string) (pipeline.MergeInput, error) {
	i := strings.LastIndex(spec, "@")
	if i < 0 {
		if spec == "" {
			return pipeline.MergeInput{}, fmt.Errorf("empty merge spec")
		}
		return pipeline.MergeInput{Path: spec}, nil
	}
	path, raw := spec[:i], spec[i+1:]
	if path == "" {
		return pipeline.MergeInput{}, fmt.Errorf("merge spec %q has no path", spec)
	}
	delay, err := strconv.Atoi(raw)
	if err != nil {
		return pipeline.MergeInput{}, fmt.Errorf("merge spec %q: delay must be an integer number of samples", spec)
	}
	return pipeline.MergeInput{Path: path, Delay: delay}, nil
}

func exportPath(dir, src string, mode domain.ExportMode) string {
	return filepath.Join(dir, stem(src)+"_"+mode.String()+".nc")
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func flushMetrics(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) {
	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("write metrics textfile", "error", err)
		}
	}
	if cfg.MetricsPushgatewayURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := metrics.Push(ctx, cfg.MetricsPushgatewayURL, cfg.MetricsJob); err != nil {
			logger.Error("push metrics", "error", err)
		}
	}
}
