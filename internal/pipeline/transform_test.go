package pipeline_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/faam-core-etl/internal/domain"
	"github.com/couchcryptid/faam-core-etl/internal/pipeline"
)

func TestFlightTransformer_Transform(t *testing.T) {
	tfm := pipeline.NewTransformer(slog.New(slog.DiscardHandler))
	src := coreSource(20)

	ds, tr, err := tfm.Transform(context.Background(), src, domain.TrackOptions{Epsilon: 0.01, Stride: 5})
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, 20, ds.Len())
	assert.True(t, ds.Has("WOW_IND"))
	assert.Equal(t, 18, tr.Len())
	assert.Equal(t, 5, tr.Options().Stride)
	assert.False(t, src.Closed(), "dataset owns the open source")
}

func TestFlightTransformer_LegacyGeneration(t *testing.T) {
	tfm := pipeline.NewTransformer(slog.New(slog.DiscardHandler))
	src := domain.NewMemorySource(
		domain.Attributes{"TITLE": "Data from a456 on 03-Feb-99"},
		domain.Variable{Name: "PARA0515", Data: []float64{100, 101, 102}, Width: 1, Type: domain.Int32},
		domain.Variable{Name: "PARA0610", Data: []float64{50, 50.1, 50.2}, Width: 1, Type: domain.Float32},
		domain.Variable{Name: "PARA0611", Data: []float64{-2, -2.1, -2.2}, Width: 1, Type: domain.Float32},
		domain.Variable{Name: "PARA0612", Data: []float64{900, 910, 920}, Width: 1, Type: domain.Float32},
		domain.Variable{Name: "PARA0516", Data: []float64{150, 150, 150}, Width: 1, Type: domain.Float32},
	)

	ds, tr, err := tfm.Transform(context.Background(), src, domain.DefaultTrackOptions())
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, "a456", ds.FlightID())
	assert.Equal(t, "legacy-title", ds.Attributes()[domain.AttrDateStrategy])
	assert.Equal(t, 3, tr.Len())
}

func TestFlightTransformer_CancelledContextReleasesSource(t *testing.T) {
	tfm := pipeline.NewTransformer(slog.New(slog.DiscardHandler))
	src := coreSource(3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := tfm.Transform(ctx, src, domain.DefaultTrackOptions())
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, src.Closed())
}
