package domain

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func positions(n int) (lat, lon, alt []float64) {
	lat, lon, alt = make([]float64, n), make([]float64, n), make([]float64, n)
	for i := range n {
		lat[i] = 50 + float64(i)*0.01
		lon[i] = -3 + float64(i)*0.02
		alt[i] = 500 + float64(i)*10
	}
	return lat, lon, alt
}

func TestBuildTrack_AirborneOnly(t *testing.T) {
	lat, lon, alt := positions(10)
	ds := newDataset(t, 10,
		floatVar("LAT_GIN", lat),
		floatVar("LON_GIN", lon),
		floatVar("ALT_GIN", alt),
		floatVar("WOW_IND", []float64{1, 1, 0, 0, 0, 0, 0, 0, 1, 1}),
	)

	tr := BuildTrack(ds, DefaultTrackOptions())
	require.Equal(t, 6, tr.Len())
	for i, c := range tr.Coordinates() {
		assert.Equal(t, Coordinate{Lon: lon[i+2], Lat: lat[i+2], Alt: alt[i+2]}, c)
	}
}

func TestBuildTrack_FiltersInvalidSamples(t *testing.T) {
	lat, lon, alt := positions(8)
	lon[1] = 0
	lat[2] = 95
	alt[3] = FillValue
	lon[4] = 180
	lat[5] = -90
	ds := newDataset(t, 8,
		floatVar("LAT_GIN", lat),
		floatVar("LON_GIN", lon),
		floatVar("ALT_GIN", alt),
		floatVar("WOW_IND", constant(8, 0)),
	)

	tr := BuildTrack(ds, DefaultTrackOptions())
	require.Equal(t, 3, tr.Len())
	for _, c := range tr.Coordinates() {
		assert.True(t, c.Valid())
		assert.Greater(t, c.Lon, -180.0)
		assert.Less(t, c.Lat, 90.0)
		assert.NotEqual(t, FillValue, c.Alt)
	}
}

func TestBuildTrack_GPSFallbackAndMultiRate(t *testing.T) {
	lat, lon, alt := positions(3)
	wide := make([]float64, 0, 12)
	for _, x := range lon {
		wide = append(wide, x, 99, 99, 99)
	}
	ds := newDataset(t, 3,
		floatVar("LAT_GPS", lat),
		Variable{Name: "LON_GPS", Data: wide, Width: 4, Type: Float32},
		floatVar("GPS_ALT", alt),
		floatVar("LAT_GIN", lat), // incomplete GIN triple
	)
	assert.Equal(t, "LON_GPS", ds.Attributes()[AttrCoordLon])

	tr := BuildTrack(ds, DefaultTrackOptions())
	require.Equal(t, 3, tr.Len())
	assert.Equal(t, lon[1], tr.Coordinates()[1].Lon)
}

func TestBuildTrack_NoPositions(t *testing.T) {
	ds := newDataset(t, 3, floatVar("IAS_RVSM", constant(3, 100)))
	tr := BuildTrack(ds, DefaultTrackOptions())
	assert.Equal(t, 0, tr.Len())
	assert.Empty(t, tr.Simplified())
	assert.Equal(t, "MULTIPOINT EMPTY", tr.MultiPointWKT(false))
	_, ok := tr.BoundingBox()
	assert.False(t, ok)
}

func TestNewTrack_TrimsIdenticalEndpoints(t *testing.T) {
	a := Coordinate{Lon: 1, Lat: 1, Alt: 1}
	b := Coordinate{Lon: 2, Lat: 2, Alt: 2}
	c := Coordinate{Lon: 3, Lat: 3, Alt: 3}

	tr := NewTrack([]Coordinate{a, b, a, c, b, a}, DefaultTrackOptions())
	assert.Equal(t, []Coordinate{a, c}, tr.Coordinates())

	single := NewTrack([]Coordinate{a}, DefaultTrackOptions())
	assert.Equal(t, 1, single.Len())
}

func TestSimplifyMask(t *testing.T) {
	t.Run("straight line collapses to endpoints", func(t *testing.T) {
		pts := make([]Coordinate, 20)
		for i := range pts {
			pts[i] = Coordinate{Lon: float64(i), Lat: float64(i) * 2}
		}
		mask := SimplifyMask(pts, 0.01)
		assert.True(t, mask[0])
		assert.True(t, mask[19])
		assert.Len(t, applyMask(pts, mask), 2)
	})

	t.Run("spike is retained", func(t *testing.T) {
		pts := []Coordinate{{Lon: 0}, {Lon: 1}, {Lon: 2, Lat: 1}, {Lon: 3}, {Lon: 4}}
		assert.Equal(t, []bool{true, false, true, false, true}, SimplifyMask(pts, 0.5))
		assert.Equal(t, []bool{true, false, false, false, true}, SimplifyMask(pts, 1.5))
	})

	t.Run("empty and tiny inputs", func(t *testing.T) {
		assert.Empty(t, SimplifyMask(nil, 0.1))
		assert.Equal(t, []bool{true}, SimplifyMask([]Coordinate{{Lon: 1}}, 0.1))
		assert.Equal(t, []bool{true, true}, SimplifyMask([]Coordinate{{Lon: 1}, {Lon: 2}}, 0.1))
	})
}

func randomWalk(n int) []Coordinate {
	r := rand.New(rand.NewPCG(7, 11))
	pts := make([]Coordinate, n)
	lon, lat := -2.0, 51.0
	for i := range pts {
		lon += (r.Float64() - 0.3) * 0.02
		lat += (r.Float64() - 0.5) * 0.02
		pts[i] = Coordinate{Lon: lon, Lat: lat, Alt: 1000}
	}
	return pts
}

func TestSimplify_Idempotent(t *testing.T) {
	pts := randomWalk(2000)
	for _, eps := range []float64{0.001, 0.01, 0.05} {
		once := Simplify(pts, eps)
		assert.Equal(t, once, Simplify(once, eps), "epsilon %v", eps)
	}
}

func TestSimplify_Monotonic(t *testing.T) {
	pts := randomWalk(2000)
	prev := math.MaxInt
	for _, eps := range []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1} {
		n := len(Simplify(pts, eps))
		assert.LessOrEqual(t, n, prev, "epsilon %v", eps)
		prev = n
	}
}

func TestTrack_StridedMask(t *testing.T) {
	pts := make([]Coordinate, 25)
	for i := range pts {
		pts[i] = Coordinate{Lon: float64(i) * 0.1, Lat: 50, Alt: 100}
	}
	tr := NewTrack(pts, TrackOptions{Epsilon: 0.01, Stride: 10})

	mask := tr.Mask()
	require.Len(t, mask, 25)
	// strided points 0, 10, 20; straight line keeps 0 and 20.
	for i, keep := range mask {
		expected := i < 10 || i >= 20
		assert.Equal(t, expected, keep, "index %d", i)
	}
	assert.Len(t, tr.Simplified(), 15)
}

func TestTrack_MaskMemoizedUntilResimplify(t *testing.T) {
	tr := NewTrack(randomWalk(500), TrackOptions{Epsilon: 10, Stride: 1})
	coarse := tr.Simplified()
	assert.Len(t, coarse, 2)

	tr.Mask()[1] = true // callers get a copy
	assert.Len(t, tr.Simplified(), 2)

	tr.Resimplify(TrackOptions{Epsilon: 0.001, Stride: 1})
	assert.Greater(t, len(tr.Simplified()), 2)
	assert.Equal(t, 0.001, tr.Options().Epsilon)
}

func TestTrack_Exports(t *testing.T) {
	tr := NewTrack([]Coordinate{
		{Lon: -1.5, Lat: 52.25, Alt: 100},
		{Lon: -1.25, Lat: 52.5, Alt: 200},
	}, TrackOptions{Epsilon: 0.01, Stride: 1})

	assert.Equal(t, "MULTIPOINT(-1.500000 52.250000 100.000000, -1.250000 52.500000 200.000000)", tr.MultiPointWKT(false))
	assert.Equal(t, "LINESTRINGZ(-1.500000 52.250000 100.000000, -1.250000 52.500000 200.000000)", tr.LineStringZWKT(true))

	kml, err := tr.KML(false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(kml, "<LineString>"))
	assert.Contains(t, kml, "<altitudeMode>absolute</altitudeMode>")
	assert.Contains(t, kml, "<coordinates>-1.500000,52.250000,100.000000 -1.250000,52.500000,200.000000</coordinates>")

	bb, ok := tr.BoundingBox()
	require.True(t, ok)
	assert.Equal(t, BoundingBox{MinLat: 52.25, MaxLat: 52.5, MinLon: -1.5, MaxLon: -1.25}, bb)
}
