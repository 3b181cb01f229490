package domain

import (
	"math"
	"strings"
	"time"
)

// ExportMode selects the resolution of an exported file.
type ExportMode int

const (
	// FullResolution keeps every sub-sample column.
	FullResolution ExportMode = iota
	// OneHertz keeps the first sub-sample of each second.
	OneHertz
)

func (m ExportMode) String() string {
	if m == OneHertz {
		return "1hz"
	}
	return "full"
}

// ExportOptions configures an export.
type ExportOptions struct {
	Mode      ExportMode
	Overwrite bool
}

// ExportVariables returns copies of every variable ready to be written: the
// time variable first, then sorted by name, NaN replaced with FillValue and,
// in OneHertz mode, decimated to one sample per second.
func (d *Dataset) ExportVariables(mode ExportMode) []Variable {
	names := d.VariableNames()
	out := make([]Variable, 0, len(names))
	if tv, ok := d.vars[TimeVariable]; ok {
		out = append(out, exportVariable(tv, mode))
	}
	for _, name := range names {
		if name == TimeVariable {
			continue
		}
		out = append(out, exportVariable(d.vars[name], mode))
	}
	return out
}

func exportVariable(v Variable, mode ExportMode) Variable {
	v = v.Clone()
	if mode == OneHertz && v.Width > 1 {
		v.Data = v.FirstColumn()
		v.Width = 1
	}
	for i, x := range v.Data {
		if math.IsNaN(x) {
			v.Data[i] = FillValue
		}
	}
	return v
}

// ExportAttributes returns the global attributes with a processing note
// appended to "history".
func (d *Dataset) ExportAttributes(mode ExportMode) Attributes {
	attrs := d.attrs.Clone()
	note := clock.Now().UTC().Format(time.RFC3339) + " normalized by faam-core-etl (" + mode.String() + ")"
	if h, ok := attrs.String("history"); ok && strings.TrimSpace(h) != "" {
		note = h + "\n" + note
	}
	attrs["history"] = note
	return attrs
}
