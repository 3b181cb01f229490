package domain

import (
	"fmt"
	"time"
)

// Frame is a 1 Hz table keyed by absolute time. Missing values are NaN.
type Frame struct {
	Index   []time.Time
	Columns []string
	Values  map[string][]float64
}

// Frame builds a table of the named variables, or of every variable when no
// names are given. Multi-rate variables contribute their first sub-sample.
func (d *Dataset) Frame(names ...string) (Frame, error) {
	if len(names) == 0 {
		names = d.VariableNames()
	}
	f := Frame{
		Index:   append([]time.Time(nil), d.index...),
		Columns: make([]string, 0, len(names)),
		Values:  make(map[string][]float64, len(names)),
	}
	for _, name := range names {
		v, ok := d.vars[name]
		if !ok {
			return Frame{}, fmt.Errorf("frame: %w: %q", ErrUnknownVariable, name)
		}
		f.Columns = append(f.Columns, name)
		f.Values[name] = fillToNaN(v.FirstColumn())
	}
	return f, nil
}
