package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/faam-core-etl/internal/domain"
)

// FlightTransformer implements Transformer: it normalizes a raw source and
// builds the airborne track from the result.
type FlightTransformer struct {
	normalizer *domain.Normalizer
	logger     *slog.Logger
}

// NewTransformer creates a FlightTransformer.
func NewTransformer(logger *slog.Logger) *FlightTransformer {
	return &FlightTransformer{
		normalizer: domain.NewNormalizer(logger),
		logger:     logger,
	}
}

// Transform takes ownership of src. On error src has been closed.
func (t *FlightTransformer) Transform(ctx context.Context, src domain.Source, opts domain.TrackOptions) (*domain.Dataset, *domain.Track, error) {
	if err := ctx.Err(); err != nil {
		_ = src.Close()
		return nil, nil, err
	}

	ds, err := t.normalizer.Normalize(src)
	if err != nil {
		return nil, nil, err
	}
	tr := domain.BuildTrack(ds, opts)

	t.logger.Debug("built track",
		"flight", ds.FlightID(),
		"points", tr.Len(),
		"epsilon", opts.Epsilon,
		"stride", opts.Stride,
	)
	return ds, tr, nil
}
