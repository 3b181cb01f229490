package domain

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// Attribute keys written by normalization.
const (
	AttrFlight       = "FLIGHT"
	AttrDate         = "DATE_RESOLVED"
	AttrDateStrategy = "DATE_STRATEGY"
	AttrTimeVariable = "TIME_VARIABLE"
	AttrCoordLon     = "COORD_LON"
	AttrCoordLat     = "COORD_LAT"
	AttrCoordAlt     = "COORD_ALT"
)

// Canonical variable names.
const (
	TimeVariable            = "Time"
	GroundIndicatorVariable = "WOW_IND"
	AirspeedVariable        = "IAS_RVSM"
)

// Dataset is a normalized recording: canonical variables sharing one
// absolute-time index. It owns the Source it was built from until Close.
type Dataset struct {
	date  time.Time
	index []time.Time
	attrs Attributes
	vars  map[string]Variable

	src       Source
	closeOnce sync.Once
	closeErr  error
}

// Len returns the sample count N.
func (d *Dataset) Len() int { return len(d.index) }

// Index returns the absolute time of every sample. The slice must not be
// modified.
func (d *Dataset) Index() []time.Time { return d.index }

// unordered reports the first position where index decreases (-1 when it
// never does) and how many positions do.
func unordered(index []time.Time) (first, count int) {
	first = -1
	for i := 1; i < len(index); i++ {
		if index[i].Before(index[i-1]) {
			if first < 0 {
				first = i
			}
			count++
		}
	}
	return first, count
}

// Date returns the resolved flight date.
func (d *Dataset) Date() time.Time { return d.date }

// FlightID returns the normalized FLIGHT attribute, or "".
func (d *Dataset) FlightID() string {
	s, _ := d.attrs.String(AttrFlight)
	return s
}

// Attributes returns the global attributes. The map must not be modified.
func (d *Dataset) Attributes() Attributes { return d.attrs }

// Variable returns a variable by canonical name.
func (d *Dataset) Variable(name string) (Variable, bool) {
	v, ok := d.vars[name]
	return v, ok
}

// Has reports whether the dataset holds a variable.
func (d *Dataset) Has(name string) bool {
	_, ok := d.vars[name]
	return ok
}

// VariableNames returns canonical names in sorted order.
func (d *Dataset) VariableNames() []string {
	names := make([]string, 0, len(d.vars))
	for n := range d.vars {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// setVariable installs v, enforcing the first-dimension invariant.
func (d *Dataset) setVariable(v Variable) error {
	if v.Len() != d.Len() {
		return fmt.Errorf("variable %q has %d samples, dataset has %d", v.Name, v.Len(), d.Len())
	}
	d.vars[v.Name] = v
	return nil
}

// Close releases the underlying source. It is safe to call more than once.
func (d *Dataset) Close() error {
	d.closeOnce.Do(func() {
		if d.src != nil {
			d.closeErr = d.src.Close()
		}
	})
	return d.closeErr
}
