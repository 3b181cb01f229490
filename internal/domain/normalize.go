package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"
)

// Normalizer turns a raw Source into a canonical Dataset.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer. A nil logger discards output.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Normalizer{logger: logger}
}

// Normalize reads every variable from src, canonicalizes names and fill
// values, resolves the flight date and builds the time index. On success the
// Dataset owns src and releases it on Close. On failure src is closed before
// returning and no Dataset is returned.
func (n *Normalizer) Normalize(src Source) (_ *Dataset, err error) {
	defer func() {
		if err == nil {
			return
		}
		if cerr := src.Close(); cerr != nil {
			n.logger.Warn("close source after failed normalization", "error", cerr)
		}
	}()

	snap, err := n.load(src)
	if err != nil {
		return nil, err
	}

	timeName, err := resolveTimeVariable(snap)
	if err != nil {
		return nil, err
	}
	date, strategy, err := resolveDate(snap)
	if err != nil {
		return nil, err
	}

	tv := snap.vars[timeName]
	ds := &Dataset{
		date:  date,
		index: buildIndex(date, tv),
		attrs: normalizeAttributes(snap.attrs),
		vars:  make(map[string]Variable, len(snap.vars)+1),
		src:   src,
	}
	ds.attrs[AttrDate] = date.Format(time.DateOnly)
	ds.attrs[AttrDateStrategy] = strategy
	ds.attrs[AttrTimeVariable] = timeName

	tv.Name = TimeVariable
	ds.vars[TimeVariable] = tv

	if first, count := unordered(ds.index); count > 0 {
		n.logger.Warn("time index out of order",
			"flight", ds.FlightID(),
			"first", first,
			"samples", count,
			"time_variable", timeName,
		)
	}

	names := make([]string, 0, len(snap.vars))
	for name := range snap.vars {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if name == timeName {
			continue
		}
		v := snap.vars[name]
		canonical := n.canonicalName(name)
		if _, dup := ds.vars[canonical]; dup {
			n.logger.Debug("skipping duplicate variable", "variable", name, "canonical", canonical)
			continue
		}
		if !ValidWidth(v.Width) {
			n.logger.Debug("skipping variable with unsupported sub-sample width", "variable", name, "width", v.Width)
			continue
		}
		if v.Len() != ds.Len() {
			n.logger.Debug("skipping variable off the time dimension", "variable", name, "samples", v.Len(), "expected", ds.Len())
			continue
		}
		v.Name = canonical
		ds.vars[canonical] = v
	}

	if ps, ok := selectPositionSource(ds); ok {
		ds.attrs[AttrCoordLon] = ps.lon
		ds.attrs[AttrCoordLat] = ps.lat
		ds.attrs[AttrCoordAlt] = ps.alt
	}

	if !ds.Has(GroundIndicatorVariable) {
		if ias, ok := ds.Variable(AirspeedVariable); ok {
			ds.vars[GroundIndicatorVariable] = InferFlightPhase(ias)
			n.logger.Info("inferred flight phase from airspeed", "flight", ds.FlightID(), "variable", AirspeedVariable)
		} else {
			n.logger.Warn("no ground indicator and no airspeed to infer one", "flight", ds.FlightID())
		}
	}

	n.logger.Debug("normalized dataset",
		"flight", ds.FlightID(),
		"date", ds.attrs[AttrDate],
		"date_strategy", strategy,
		"time_variable", timeName,
		"samples", ds.Len(),
		"variables", len(ds.vars),
	)
	return ds, nil
}

// load reads all representable variables with NaN already replaced.
func (n *Normalizer) load(src Source) (*snapshot, error) {
	snap := &snapshot{
		attrs: src.Attributes(),
		vars:  make(map[string]Variable),
	}
	if snap.attrs == nil {
		snap.attrs = Attributes{}
	}
	for _, name := range src.VariableNames() {
		v, err := src.Variable(name)
		if errors.Is(err, ErrUnsupportedVariable) {
			n.logger.Debug("skipping unsupported variable", "variable", name, "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load variable %q: %w", name, err)
		}
		if v.Width == 0 {
			v.Width = 1
		}
		if v.Attrs == nil {
			v.Attrs = Attributes{}
		}
		replaceNaN(v.Data)
		snap.vars[name] = v
	}
	return snap, nil
}

// canonicalName maps a source name to its canonical form.
func (n *Normalizer) canonicalName(name string) string {
	switch {
	case IsLegacyCode(name):
		translated, err := Translate(name)
		if err != nil {
			n.logger.Warn("keeping untranslated legacy variable", "variable", name, "error", err)
			return name
		}
		return translated
	case name == "altitude":
		return "ALT_GIN"
	case strings.EqualFold(name, "time"):
		return TimeVariable
	}
	return name
}

// normalizeAttributes copies attrs and derives FLIGHT: the third token of the
// title, else FLIGHT_NUMBER, else whatever FLIGHT already held.
func normalizeAttributes(src Attributes) Attributes {
	attrs := src.Clone()
	if title, ok := attrs.FirstString("TITLE", "Title"); ok {
		if fields := strings.Fields(title); len(fields) > 2 {
			attrs[AttrFlight] = fields[2]
			return attrs
		}
	}
	if fn, ok := attrs.FirstString("FLIGHT_NUMBER"); ok {
		attrs[AttrFlight] = strings.TrimSpace(fn)
	}
	return attrs
}

// buildIndex adds each truncated second offset to the base date.
func buildIndex(date time.Time, tv Variable) []time.Time {
	offsets := tv.FirstColumn()
	index := make([]time.Time, len(offsets))
	for i, x := range offsets {
		index[i] = date.Add(time.Duration(math.Trunc(x)) * time.Second)
	}
	return index
}

// positionSource names a lat/lon/alt variable triple.
type positionSource struct {
	lat, lon, alt string
}

// positionSources in order of preference: GIN, then GPS.
var positionSources = []positionSource{
	{lat: "LAT_GIN", lon: "LON_GIN", alt: "ALT_GIN"},
	{lat: "LAT_GPS", lon: "LON_GPS", alt: "GPS_ALT"},
}

func selectPositionSource(d *Dataset) (positionSource, bool) {
	for _, ps := range positionSources {
		if d.Has(ps.lat) && d.Has(ps.lon) && d.Has(ps.alt) {
			return ps, true
		}
	}
	return positionSource{}, false
}
