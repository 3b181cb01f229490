package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// TrackSummary describes one processed flight for downstream consumers.
type TrackSummary struct {
	Flight           string       `json:"flight"`
	Date             string       `json:"date"`
	DateStrategy     string       `json:"date_strategy"`
	Start            time.Time    `json:"start"`
	End              time.Time    `json:"end"`
	Samples          int          `json:"samples"`
	TrackPoints      int          `json:"track_points"`
	SimplifiedPoints int          `json:"simplified_points"`
	Epsilon          float64      `json:"epsilon"`
	BoundingBox      *BoundingBox `json:"bbox,omitempty"`
	LineString       string       `json:"linestring,omitempty"`
	MergedVariables  []string     `json:"merged_variables,omitempty"`
	ProcessedAt      time.Time    `json:"processed_at"`
}

// Summarize collects the summary of a normalized dataset and its track.
func Summarize(ds *Dataset, tr *Track, merged []string) TrackSummary {
	s := TrackSummary{
		Flight:          ds.FlightID(),
		Samples:         ds.Len(),
		TrackPoints:     tr.Len(),
		Epsilon:         tr.Options().Epsilon,
		MergedVariables: merged,
		ProcessedAt:     clock.Now().UTC(),
	}
	s.Date, _ = ds.attrs.String(AttrDate)
	s.DateStrategy, _ = ds.attrs.String(AttrDateStrategy)
	if n := ds.Len(); n > 0 {
		s.Start, s.End = ds.index[0], ds.index[n-1]
	}
	if tr.Len() > 0 {
		s.SimplifiedPoints = len(tr.Simplified())
		s.LineString = tr.LineStringZWKT(true)
	}
	if bb, ok := tr.BoundingBox(); ok {
		s.BoundingBox = &bb
	}
	return s
}

// Key returns the message key: the flight id, or the date when the flight
// is unknown.
func (s TrackSummary) Key() string {
	if s.Flight != "" {
		return s.Flight
	}
	return s.Date
}

// Marshal encodes the summary as JSON.
func (s TrackSummary) Marshal() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("serialize track summary: %w", err)
	}
	return data, nil
}
