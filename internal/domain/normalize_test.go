package domain

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Modern(t *testing.T) {
	ds := newDataset(t, 5,
		floatVar("LAT_GIN", []float64{52, 52.1, math.NaN(), 52.3, 52.4}),
		floatVar("LON_GIN", constant(5, -1.5)),
		floatVar("ALT_GIN", constant(5, 1000)),
		floatVar("WOW_IND", constant(5, 0)),
	)

	assert.Equal(t, 5, ds.Len())
	assert.Equal(t, time.Date(2017, time.May, 17, 10, 0, 0, 0, time.UTC), ds.Index()[0])
	assert.Equal(t, time.Date(2017, time.May, 17, 10, 0, 4, 0, time.UTC), ds.Index()[4])
	assert.Equal(t, "c012", ds.FlightID())

	attrs := ds.Attributes()
	assert.Equal(t, "2017-05-17", attrs[AttrDate])
	assert.Equal(t, "time-units", attrs[AttrDateStrategy])
	assert.Equal(t, "Time", attrs[AttrTimeVariable])
	assert.Equal(t, "LON_GIN", attrs[AttrCoordLon])
	assert.Equal(t, "LAT_GIN", attrs[AttrCoordLat])
	assert.Equal(t, "ALT_GIN", attrs[AttrCoordAlt])

	lat, ok := ds.Variable("LAT_GIN")
	require.True(t, ok)
	assert.Equal(t, FillValue, lat.Data[2], "NaN replaced by the sentinel")
}

func TestNormalize_DateAttributeOnly(t *testing.T) {
	tv := timeVar(3)
	tv.Attrs = Attributes{"units": "s"}
	src := NewMemorySource(Attributes{"DATE": []float64{17, 5, 2017}}, tv)

	ds, err := NewNormalizer(nil).Normalize(src)
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, time.Date(2017, time.May, 17, 0, 0, 0, 0, time.UTC), ds.Date())
	assert.Equal(t, "date-attribute", ds.Attributes()[AttrDateStrategy])
}

func TestNormalize_Legacy(t *testing.T) {
	src := NewMemorySource(
		Attributes{"TITLE": "Data from a456 on 03-Feb-99"},
		Variable{Name: "PARA0515", Data: seconds(100, 4), Width: 1, Type: Int32, Attrs: Attributes{}},
		Variable{Name: "PARA0610", Data: constant(4, 50), Width: 1, Type: Float32},
		Variable{Name: "PARA0610FLAG", Data: constant(4, 0), Width: 1, Type: Int8},
		Variable{Name: "PARA0516", Data: []float64{40, 120, 150, 40, 160, 170, 80, 90}, Width: 2, Type: Float32},
		Variable{Name: "PARA9999", Data: constant(4, 1), Width: 1, Type: Float32},
		Variable{Name: "altitude", Data: constant(4, 300), Width: 1, Type: Float32},
	)

	ds, err := NewNormalizer(nil).Normalize(src)
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, "legacy-title", ds.Attributes()[AttrDateStrategy])
	assert.Equal(t, "PARA0515", ds.Attributes()[AttrTimeVariable])
	assert.Equal(t, "a456", ds.FlightID())
	assert.Equal(t, time.Date(1999, time.February, 3, 0, 1, 40, 0, time.UTC), ds.Index()[0])

	assert.ElementsMatch(t,
		[]string{"Time", "LAT_GIN", "LAT_GIN_FLAG", "IAS_RVSM", "PARA9999", "ALT_GIN", "WOW_IND"},
		ds.VariableNames())

	ias, ok := ds.Variable("IAS_RVSM")
	require.True(t, ok)
	assert.Equal(t, []int{4, 2}, ias.Shape())

	wow, ok := ds.Variable("WOW_IND")
	require.True(t, ok, "ground indicator inferred from airspeed")
	assert.Equal(t, []float64{1, 0, 0, 0}, wow.Data)
}

func TestNormalize_CaseVariantTime(t *testing.T) {
	src := NewMemorySource(
		Attributes{"Flight_Date": "05-Jun-08", "FLIGHT_NUMBER": " b380 "},
		Variable{Name: "TIME", Data: seconds(0, 3), Width: 1, Type: Int32, Attrs: Attributes{"units": "seconds"}},
	)
	ds, err := NewNormalizer(nil).Normalize(src)
	require.NoError(t, err)
	defer ds.Close()

	assert.True(t, ds.Has("Time"))
	assert.False(t, ds.Has("TIME"))
	assert.Equal(t, "flight-date", ds.Attributes()[AttrDateStrategy])
	assert.Equal(t, "b380", ds.FlightID())
}

func TestNormalize_SkipsVariablesOffTheTimeDimension(t *testing.T) {
	ds := newDataset(t, 4,
		floatVar("SHORT", constant(3, 1)),
		Variable{Name: "ODD_RATE", Data: constant(12, 1), Width: 3},
		floatVar("OK", constant(4, 1)),
	)
	assert.False(t, ds.Has("SHORT"))
	assert.False(t, ds.Has("ODD_RATE"))
	assert.True(t, ds.Has("OK"))
}

func TestNormalize_KeepsMeasuredGroundIndicator(t *testing.T) {
	ds := newDataset(t, 3,
		floatVar("WOW_IND", []float64{1, 0, 1}),
		floatVar("IAS_RVSM", constant(3, 150)),
	)
	wow, _ := ds.Variable("WOW_IND")
	assert.Equal(t, []float64{1, 0, 1}, wow.Data)
}

type unsupportedSource struct {
	*MemorySource
}

func (u unsupportedSource) VariableNames() []string {
	return append(u.MemorySource.VariableNames(), "COMMENT", "BROKEN")
}

func (u unsupportedSource) Variable(name string) (Variable, error) {
	switch name {
	case "COMMENT":
		return Variable{}, ErrUnsupportedVariable
	case "BROKEN":
		return Variable{}, errors.New("disk on fire")
	}
	return u.MemorySource.Variable(name)
}

func TestNormalize_LoadErrors(t *testing.T) {
	mem := NewMemorySource(Attributes{}, timeVar(2))
	_, err := NewNormalizer(nil).Normalize(unsupportedSource{mem})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"BROKEN"`)
	assert.True(t, mem.Closed())
}

func TestNormalize_FailuresReleaseSource(t *testing.T) {
	t.Run("missing time variable", func(t *testing.T) {
		src := NewMemorySource(Attributes{"DATE": []float64{1, 1, 2020}}, floatVar("LAT_GIN", constant(2, 1)))
		ds, err := NewNormalizer(nil).Normalize(src)
		require.ErrorIs(t, err, ErrMissingTimeVariable)
		assert.Nil(t, ds)
		assert.True(t, src.Closed())
	})

	t.Run("unresolvable date", func(t *testing.T) {
		tv := timeVar(2)
		tv.Attrs = Attributes{}
		src := NewMemorySource(Attributes{}, tv)
		ds, err := NewNormalizer(nil).Normalize(src)
		require.ErrorIs(t, err, ErrDateResolution)
		assert.Nil(t, ds)
		assert.True(t, src.Closed())
	})
}

func TestNormalize_WarnsOnUnorderedIndex(t *testing.T) {
	tv := timeVar(4)
	tv.Data[2] = math.NaN()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ds, err := NewNormalizer(logger).Normalize(NewMemorySource(Attributes{"TITLE": testTitle}, tv))
	require.NoError(t, err)
	defer ds.Close()

	assert.True(t, ds.Index()[2].Before(ds.Index()[1]), "missing Time sample lands at the fill offset")
	assert.Contains(t, buf.String(), "time index out of order")
	assert.Contains(t, buf.String(), "first=2")

	_, err = ds.Merge(RecordSet{Columns: []Column{
		{Name: "timestamp", Values: []time.Time{ds.Index()[0]}},
		{Name: "CO", Values: []float64{1}},
	}}, MergeOptions{})
	require.ErrorIs(t, err, ErrUnorderedIndex)
	assert.False(t, ds.Has("CO"))
}

func TestUnordered(t *testing.T) {
	idx := primaryIndex(5)
	first, count := unordered(idx)
	assert.Equal(t, -1, first)
	assert.Zero(t, count)

	idx[1], idx[3] = idx[0].Add(-time.Second), idx[0]
	first, count = unordered(idx)
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, count)
}

func TestDataset_Close(t *testing.T) {
	src := NewMemorySource(Attributes{}, timeVar(2))
	ds, err := NewNormalizer(nil).Normalize(src)
	require.NoError(t, err)
	assert.False(t, src.Closed())

	require.NoError(t, ds.Close())
	require.NoError(t, ds.Close())
	assert.True(t, src.Closed())
}

func TestInferFlightPhase(t *testing.T) {
	ias := floatVar("IAS_RVSM", []float64{0, 60, 60.5, 150, 299.9, 300, FillValue, 400})
	wow := InferFlightPhase(ias)
	assert.Equal(t, "WOW_IND", wow.Name)
	assert.Equal(t, []float64{1, 1, 0, 0, 0, 1, 1, 1}, wow.Data)
}
