package domain

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"time"
)

// timestampColumnNames are matched case-insensitively when a record set
// names no timestamp column.
var timestampColumnNames = []string{"timestamp", "time", "datetime"}

// Column is one named column of a secondary record set. Values is one of
// []float64, []float32, []int64, []int, []int32, []time.Time or []string.
type Column struct {
	Name   string
	Values any
}

// Len returns the number of values, or -1 for an unrecognised type.
func (c Column) Len() int {
	switch v := c.Values.(type) {
	case []float64:
		return len(v)
	case []float32:
		return len(v)
	case []int64:
		return len(v)
	case []int:
		return len(v)
	case []int32:
		return len(v)
	case []time.Time:
		return len(v)
	case []string:
		return len(v)
	default:
		return -1
	}
}

// RecordSet is an independently clocked secondary stream.
type RecordSet struct {
	// Timestamps, when set, time every row and no column is used as the key.
	Timestamps []time.Time
	// TimestampColumn names the key column explicitly.
	TimestampColumn string
	Columns         []Column
}

// MergeOptions tunes a merge.
type MergeOptions struct {
	// Delay shifts merged values this many samples later (negative: earlier).
	Delay int
	// Prefix is prepended to merged variable names.
	Prefix string
}

// MergeResult lists what a merge produced.
type MergeResult struct {
	Variables []Variable
	// Skipped names columns left out: non-numeric or of the wrong length.
	Skipped []string
	// Discarded counts secondary rows outside the primary time range.
	Discarded int
}

// Names returns the merged variable names.
func (r MergeResult) Names() []string {
	names := make([]string, len(r.Variables))
	for i, v := range r.Variables {
		names[i] = v.Name
	}
	return names
}

// Merge aligns rs onto the dataset index and installs one variable per numeric
// column, replacing any variable of the same name.
func (d *Dataset) Merge(rs RecordSet, opts MergeOptions) (MergeResult, error) {
	res, err := MergeRecords(d.index, rs, opts)
	if err != nil {
		return MergeResult{}, err
	}
	for _, v := range res.Variables {
		if err := d.setVariable(v); err != nil {
			return MergeResult{}, err
		}
	}
	return res, nil
}

// MergeRecords bins every secondary row by its whole-second offset from
// index[0] and builds NaN-filled columns of len(index). Sub-second parts of
// secondary timestamps are dropped, so 10:00:05.7 lands on 10:00:05. When
// several rows land in one bin the later row in array order wins; nothing is
// averaged. An index that decreases yields ErrUnorderedIndex.
func MergeRecords(index []time.Time, rs RecordSet, opts MergeOptions) (MergeResult, error) {
	stamps, keyCol, err := resolveTimestamps(rs)
	if err != nil {
		return MergeResult{}, err
	}

	bins := make([]int, len(stamps))
	var res MergeResult
	if len(index) == 0 {
		for i := range bins {
			bins[i] = -1
		}
		res.Discarded = len(stamps)
	} else {
		if first, _ := unordered(index); first >= 0 {
			return MergeResult{}, fmt.Errorf("%w: sample %d at %s precedes sample %d at %s",
				ErrUnorderedIndex, first, index[first].Format(time.TimeOnly), first-1, index[first-1].Format(time.TimeOnly))
		}
		edges := binEdges(index)
		base := index[0]
		for i, ts := range stamps {
			bins[i] = digitize(edges, wholeSeconds(ts.Sub(base)))
			if bins[i] < 0 {
				res.Discarded++
			}
		}
	}

	for _, col := range rs.Columns {
		if col.Name == keyCol {
			continue
		}
		values, ok := numericValues(col.Values)
		if !ok || len(values) != len(stamps) {
			res.Skipped = append(res.Skipped, col.Name)
			continue
		}

		out := make([]float64, len(index))
		for i := range out {
			out[i] = math.NaN()
		}
		for i, b := range bins {
			if b >= 0 {
				out[b] = values[i]
			}
		}
		shift(out, opts.Delay)

		res.Variables = append(res.Variables, Variable{
			Name:  opts.Prefix + col.Name,
			Data:  out,
			Width: 1,
			Type:  Float64,
			Attrs: Attributes{
				"long_name":    "Merged secondary record column " + col.Name,
				"merge_delay":  float64(opts.Delay),
				"merge_source": "secondary",
			},
		})
	}
	return res, nil
}

// resolveTimestamps returns the row times and the name of the key column
// (empty when explicit timestamps were given).
func resolveTimestamps(rs RecordSet) ([]time.Time, string, error) {
	if rs.Timestamps != nil {
		return rs.Timestamps, "", nil
	}

	var key *Column
	if rs.TimestampColumn != "" {
		i := slices.IndexFunc(rs.Columns, func(c Column) bool { return strings.EqualFold(c.Name, rs.TimestampColumn) })
		if i >= 0 {
			key = &rs.Columns[i]
		}
	} else {
		for i := range rs.Columns {
			if slices.ContainsFunc(timestampColumnNames, func(n string) bool { return strings.EqualFold(n, rs.Columns[i].Name) }) {
				key = &rs.Columns[i]
				break
			}
		}
	}
	if key == nil {
		return nil, "", fmt.Errorf("%w: looked for %s", ErrNoTimestampColumn, strings.Join(timestampColumnNames, ", "))
	}
	stamps, ok := key.Values.([]time.Time)
	if !ok {
		return nil, "", fmt.Errorf("%w: column %q does not hold timestamps", ErrNoTimestampColumn, key.Name)
	}
	return stamps, key.Name, nil
}

// binEdges builds one-second bins centred on each primary offset.
func binEdges(index []time.Time) []float64 {
	base := index[0]
	edges := make([]float64, len(index)+1)
	for i, t := range index {
		edges[i] = float64(t.Sub(base)/time.Second) - 0.5
	}
	edges[len(index)] = float64(index[len(index)-1].Sub(base)/time.Second) + 0.5
	return edges
}

// wholeSeconds floors d to whole seconds, so rows just before index[0] stay
// out of the first bin.
func wholeSeconds(d time.Duration) float64 {
	return math.Floor(d.Seconds())
}

// digitize returns the bin i with edges[i] <= x < edges[i+1], or -1.
func digitize(edges []float64, x float64) int {
	j := sort.Search(len(edges), func(k int) bool { return edges[k] > x })
	if j == 0 || j == len(edges) {
		return -1
	}
	return j - 1
}

// shift rolls values by d positions and sets the wrapped entries to NaN.
func shift(values []float64, d int) {
	n := len(values)
	if d == 0 || n == 0 {
		return
	}
	if d >= n || -d >= n {
		for i := range values {
			values[i] = math.NaN()
		}
		return
	}
	if d > 0 {
		copy(values[d:], values[:n-d])
		for i := range d {
			values[i] = math.NaN()
		}
		return
	}
	k := -d
	copy(values, values[k:])
	for i := n - k; i < n; i++ {
		values[i] = math.NaN()
	}
}

func numericValues(values any) ([]float64, bool) {
	switch v := values.(type) {
	case []float64:
		return v, true
	case []float32:
		return convert(v), true
	case []int64:
		return convert(v), true
	case []int:
		return convert(v), true
	case []int32:
		return convert(v), true
	default:
		return nil, false
	}
}

func convert[T float32 | int64 | int | int32](in []T) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = float64(x)
	}
	return out
}
