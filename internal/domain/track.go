package domain

import (
	"encoding/xml"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Track defaults.
const (
	DefaultEpsilon = 0.01
	DefaultStride  = 10
)

// Coordinate is a WGS84 position: degrees and metres.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
	Alt float64 `json:"alt"`
}

// Valid reports whether c is a usable airborne fix.
func (c Coordinate) Valid() bool {
	return c.Lon > -180 && c.Lon < 180 &&
		c.Lat > -90 && c.Lat < 90 &&
		c.Alt != FillValue &&
		c.Lon != 0
}

// BoundingBox is the lat/lon extent of a track.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// TrackOptions controls simplification.
type TrackOptions struct {
	Epsilon float64
	Stride  int
}

// DefaultTrackOptions returns epsilon 0.01 and stride 10.
func DefaultTrackOptions() TrackOptions {
	return TrackOptions{Epsilon: DefaultEpsilon, Stride: DefaultStride}
}

// Track is an immutable sequence of coordinates in time order together with
// a memoized simplification result.
type Track struct {
	coords []Coordinate
	opts   TrackOptions
	result *simplification
}

// simplification is a computed retain mask and the parameters behind it.
type simplification struct {
	opts TrackOptions
	mask []bool
}

// NewTrack copies coords. Identical first and last coordinates are trimmed
// repeatedly so simplification never starts from a zero-length chord.
func NewTrack(coords []Coordinate, opts TrackOptions) *Track {
	c := append([]Coordinate(nil), coords...)
	for len(c) >= 2 && c[0] == c[len(c)-1] {
		c = c[1 : len(c)-1]
	}
	if opts.Stride < 1 {
		opts.Stride = DefaultStride
	}
	return &Track{coords: c, opts: opts}
}

// BuildTrack extracts the airborne, valid positions of ds using the position
// source chosen during normalization. A dataset without positions yields an
// empty track.
func BuildTrack(ds *Dataset, opts TrackOptions) *Track {
	lonName, _ := ds.attrs.String(AttrCoordLon)
	latName, _ := ds.attrs.String(AttrCoordLat)
	altName, _ := ds.attrs.String(AttrCoordAlt)

	lonVar, okLon := ds.Variable(lonName)
	latVar, okLat := ds.Variable(latName)
	altVar, okAlt := ds.Variable(altName)
	if !okLon || !okLat || !okAlt || lonVar.Len() == 0 {
		return NewTrack(nil, opts)
	}

	lon, lat, alt := lonVar.FirstColumn(), latVar.FirstColumn(), altVar.FirstColumn()
	var wow []float64
	if v, ok := ds.Variable(GroundIndicatorVariable); ok {
		wow = v.FirstColumn()
	}

	coords := make([]Coordinate, 0, len(lon))
	for i := range lon {
		if wow != nil && wow[i] == 1 {
			continue
		}
		c := Coordinate{Lon: lon[i], Lat: lat[i], Alt: alt[i]}
		if c.Valid() {
			coords = append(coords, c)
		}
	}
	return NewTrack(coords, opts)
}

// Len returns the number of coordinates.
func (t *Track) Len() int { return len(t.coords) }

// Options returns the parameters the next simplification will use.
func (t *Track) Options() TrackOptions { return t.opts }

// Coordinates returns a copy of the full-resolution sequence.
func (t *Track) Coordinates() []Coordinate {
	return append([]Coordinate(nil), t.coords...)
}

// Mask returns the retain mask, computing it on first use.
func (t *Track) Mask() []bool {
	if t.result == nil {
		t.result = &simplification{
			opts: t.opts,
			mask: stridedMask(t.coords, t.opts.Epsilon, t.opts.Stride),
		}
	}
	return append([]bool(nil), t.result.mask...)
}

// Simplified returns the coordinates the mask retains.
func (t *Track) Simplified() []Coordinate {
	return applyMask(t.coords, t.Mask())
}

// Resimplify discards the memoized mask and sets new parameters. The mask is
// recomputed on next use.
func (t *Track) Resimplify(opts TrackOptions) {
	if opts.Stride < 1 {
		opts.Stride = DefaultStride
	}
	t.opts = opts
	t.result = nil
}

func (t *Track) points(simplified bool) []Coordinate {
	if simplified {
		return t.Simplified()
	}
	return t.coords
}

// MultiPointWKT renders MULTIPOINT(lon lat alt, ...).
func (t *Track) MultiPointWKT(simplified bool) string {
	pts := t.points(simplified)
	if len(pts) == 0 {
		return "MULTIPOINT EMPTY"
	}
	return "MULTIPOINT(" + joinCoords(pts, "%f %f %f", ", ") + ")"
}

// LineStringZWKT renders LINESTRINGZ(lon lat alt, ...).
func (t *Track) LineStringZWKT(simplified bool) string {
	pts := t.points(simplified)
	if len(pts) == 0 {
		return "LINESTRINGZ EMPTY"
	}
	return "LINESTRINGZ(" + joinCoords(pts, "%f %f %f", ", ") + ")"
}

type kmlLineString struct {
	XMLName      xml.Name `xml:"LineString"`
	Extrude      int      `xml:"extrude"`
	Tessellate   int      `xml:"tessellate"`
	AltitudeMode string   `xml:"altitudeMode"`
	Coordinates  string   `xml:"coordinates"`
}

// KML renders a <LineString> element with absolute altitudes.
func (t *Track) KML(simplified bool) (string, error) {
	ls := kmlLineString{
		Extrude:      1,
		Tessellate:   1,
		AltitudeMode: "absolute",
		Coordinates:  joinCoords(t.points(simplified), "%f,%f,%f", " "),
	}
	out, err := xml.MarshalIndent(ls, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode kml: %w", err)
	}
	return string(out), nil
}

// BoundingBox returns the extent of the full track. It reports false for an
// empty track.
func (t *Track) BoundingBox() (BoundingBox, bool) {
	if len(t.coords) == 0 {
		return BoundingBox{}, false
	}
	lats := make([]float64, len(t.coords))
	lons := make([]float64, len(t.coords))
	for i, c := range t.coords {
		lats[i], lons[i] = c.Lat, c.Lon
	}
	return BoundingBox{
		MinLat: floats.Min(lats),
		MaxLat: floats.Max(lats),
		MinLon: floats.Min(lons),
		MaxLon: floats.Max(lons),
	}, true
}

func joinCoords(pts []Coordinate, format, sep string) string {
	var b strings.Builder
	for i, c := range pts {
		if i > 0 {
			b.WriteString(sep)
		}
		fmt.Fprintf(&b, format, c.Lon, c.Lat, c.Alt)
	}
	return b.String()
}
