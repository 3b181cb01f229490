package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// isoDateRe finds an embedded YYYY-MM-DD date in a units string.
var isoDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// timeVariableNames lists time variable names in priority order, one per
// logging-system generation.
var timeVariableNames = []string{"Time", "TIME", "time", "PARA0515"}

// snapshot is the raw view of a source used while resolving the time
// variable and the flight date, keyed by source (untranslated) name.
type snapshot struct {
	attrs Attributes
	vars  map[string]Variable
}

func (s *snapshot) has(name string) bool {
	_, ok := s.vars[name]
	return ok
}

func (s *snapshot) units(name string) (string, bool) {
	v, ok := s.vars[name]
	if !ok {
		return "", false
	}
	u := strings.TrimSpace(v.Units())
	return u, u != ""
}

// dateStrategy is one named way of finding the flight date.
type dateStrategy struct {
	name    string
	resolve func(s *snapshot) (time.Time, bool)
}

// dateStrategies are tried in order; the first success wins.
var dateStrategies = []dateStrategy{
	{name: "time-units", resolve: dateFromTimeUnits},
	{name: "iso-units", resolve: dateFromISOUnits},
	{name: "flight-date", resolve: dateFromFlightDate},
	{name: "legacy-title", resolve: dateFromLegacyTitle},
	{name: "date-attribute", resolve: dateFromDateAttribute},
}

// resolveTimeVariable returns the source name of the time variable.
func resolveTimeVariable(s *snapshot) (string, error) {
	for _, name := range timeVariableNames {
		if s.has(name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: searched %s", ErrMissingTimeVariable, strings.Join(timeVariableNames, ", "))
}

// resolveDate returns the flight date (midnight UTC) and the name of the
// strategy that produced it.
func resolveDate(s *snapshot) (time.Time, string, error) {
	tried := make([]string, 0, len(dateStrategies))
	for _, st := range dateStrategies {
		if d, ok := st.resolve(s); ok {
			return d, st.name, nil
		}
		tried = append(tried, st.name)
	}
	return time.Time{}, "", fmt.Errorf("%w: tried %s", ErrDateResolution, strings.Join(tried, ", "))
}

// dateFromTimeUnits reads "seconds since YYYY-MM-DD ..." from Time or TIME.
func dateFromTimeUnits(s *snapshot) (time.Time, bool) {
	for _, name := range []string{"Time", "TIME"} {
		units, ok := s.units(name)
		if !ok {
			continue
		}
		fields := strings.Fields(units)
		if len(fields) < 3 || fields[0] != "seconds" || fields[1] != "since" {
			continue
		}
		day := fields[2]
		if len(day) > 10 {
			day = day[:10]
		}
		if d, err := time.Parse(time.DateOnly, day); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// dateFromISOUnits finds an ISO date anywhere in the lower-case time units.
func dateFromISOUnits(s *snapshot) (time.Time, bool) {
	units, ok := s.units("time")
	if !ok {
		return time.Time{}, false
	}
	m := isoDateRe.FindString(units)
	if m == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(time.DateOnly, m)
	return d, err == nil
}

// dateFromFlightDate parses a Flight_Date attribute such as "17-May-17".
func dateFromFlightDate(s *snapshot) (time.Time, bool) {
	v, ok := s.attrs.String("Flight_Date")
	if !ok {
		return time.Time{}, false
	}
	d, err := time.Parse("02-Jan-06", strings.TrimSpace(v))
	return d, err == nil
}

// dateFromLegacyTitle applies to legacy files carrying PARA0515: the date is
// the last token of the title, e.g. "Data from b123 on 17-May-01".
func dateFromLegacyTitle(s *snapshot) (time.Time, bool) {
	if !s.has("PARA0515") {
		return time.Time{}, false
	}
	title, ok := s.attrs.FirstString("TITLE", "Title", "title")
	if !ok {
		return time.Time{}, false
	}
	fields := strings.Fields(title)
	last := fields[len(fields)-1]
	for _, layout := range []string{"02-Jan-06", "02-Jan-2006", time.DateOnly} {
		if d, err := time.Parse(layout, last); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// dateFromDateAttribute reads DATE = [day, month, year].
func dateFromDateAttribute(s *snapshot) (time.Time, bool) {
	nums, ok := s.attrs.Numbers("DATE")
	if !ok || len(nums) != 3 {
		return time.Time{}, false
	}
	day, month, year := int(nums[0]), int(nums[1]), int(nums[2])
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range fields; reject instead.
	if d.Day() != day || int(d.Month()) != month || d.Year() != year {
		return time.Time{}, false
	}
	return d, true
}
