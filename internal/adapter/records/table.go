// Package records loads secondary instrument streams from CSV files and
// SQLite databases as domain.RecordSet values, and writes dataset frames as
// CSV.
package records

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/faam-core-etl/internal/domain"
)

// timeLayouts are tried in order when typing a column as timestamps.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// buildRecordSet types each column by its content: numeric when every cell
// parses as a float (empty cells are NaN), timestamps when every non-empty
// cell parses with one of timeLayouts, otherwise string.
func buildRecordSet(header []string, rows [][]string) domain.RecordSet {
	rs := domain.RecordSet{Columns: make([]domain.Column, len(header))}
	for j, name := range header {
		cells := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				cells[i] = strings.TrimSpace(row[j])
			}
		}
		rs.Columns[j] = typeColumn(strings.TrimSpace(name), cells)
	}
	return rs
}

func typeColumn(name string, cells []string) domain.Column {
	if values, ok := parseNumbers(cells); ok {
		return domain.Column{Name: name, Values: values}
	}
	if stamps, ok := parseTimes(cells); ok {
		return domain.Column{Name: name, Values: stamps}
	}
	return domain.Column{Name: name, Values: cells}
}

func parseNumbers(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	for i, c := range cells {
		if c == "" {
			out[i] = math.NaN()
			continue
		}
		x, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, false
		}
		out[i] = x
	}
	return out, true
}

func parseTimes(cells []string) ([]time.Time, bool) {
	out := make([]time.Time, len(cells))
	seen := false
	for i, c := range cells {
		if c == "" {
			continue
		}
		ts, ok := parseTime(c)
		if !ok {
			return nil, false
		}
		out[i] = ts
		seen = true
	}
	return out, seen
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
