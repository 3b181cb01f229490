package domain

import (
	"maps"
	"strings"
)

// Attributes holds netCDF attributes. Values are string, float64 or
// []float64; adapters normalize other numeric types on the way in.
type Attributes map[string]any

// String returns the attribute as a string. Absent or non-string values
// report false.
func (a Attributes) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// FirstString returns the first of keys holding a non-empty string.
func (a Attributes) FirstString(keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := a.String(k); ok && strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}

// Numbers returns a numeric attribute as a slice; a scalar becomes a
// one-element slice.
func (a Attributes) Numbers(key string) ([]float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return []float64{v}, true
	case []float64:
		return v, true
	default:
		return nil, false
	}
}

// Clone returns a shallow copy with slice values duplicated.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	maps.Copy(out, a)
	for k, v := range out {
		if s, ok := v.([]float64); ok {
			out[k] = append([]float64(nil), s...)
		}
	}
	return out
}
