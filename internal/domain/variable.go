package domain

import (
	"math"
	"slices"
)

// FillValue is the sentinel used in place of missing data.
const FillValue = -9999.0

// DataType is the native netCDF element type of a variable, kept so that an
// exported file stores values the way the source did.
type DataType string

const (
	Float64 DataType = "double"
	Float32 DataType = "float"
	Int32   DataType = "int"
	Int16   DataType = "short"
	Int8    DataType = "byte"
)

// subSampleWidths are the per-second sample counts the logging system writes.
var subSampleWidths = []int{1, 2, 4, 8, 16, 32, 64}

// ValidWidth reports whether k is a supported sub-sample width.
func ValidWidth(k int) bool {
	return slices.Contains(subSampleWidths, k)
}

// Variable is a numeric array of shape [N] (Width 1) or [N, Width], stored
// row-major.
type Variable struct {
	Name  string
	Data  []float64
	Width int
	Type  DataType
	Attrs Attributes
}

// Len returns the number of one-second samples.
func (v Variable) Len() int {
	if v.Width <= 1 {
		return len(v.Data)
	}
	return len(v.Data) / v.Width
}

// Shape returns [N] or [N, Width].
func (v Variable) Shape() []int {
	if v.Width <= 1 {
		return []int{v.Len()}
	}
	return []int{v.Len(), v.Width}
}

// At returns sub-sample j of second i.
func (v Variable) At(i, j int) float64 {
	w := max(v.Width, 1)
	return v.Data[i*w+j]
}

// FirstColumn returns the first sub-sample of every second. For 1-D variables
// the backing slice is returned and must not be modified.
func (v Variable) FirstColumn() []float64 {
	if v.Width <= 1 {
		return v.Data
	}
	n := v.Len()
	out := make([]float64, n)
	for i := range n {
		out[i] = v.Data[i*v.Width]
	}
	return out
}

// Units returns the "units" attribute, or "".
func (v Variable) Units() string {
	s, _ := v.Attrs.String("units")
	return s
}

// Clone deep-copies the variable.
func (v Variable) Clone() Variable {
	v.Data = slices.Clone(v.Data)
	v.Attrs = v.Attrs.Clone()
	return v
}

// replaceNaN swaps NaN for FillValue in place.
func replaceNaN(data []float64) {
	for i, x := range data {
		if math.IsNaN(x) {
			data[i] = FillValue
		}
	}
}

// fillToNaN returns a copy with FillValue mapped back to NaN.
func fillToNaN(data []float64) []float64 {
	out := make([]float64, len(data))
	for i, x := range data {
		if x == FillValue {
			out[i] = math.NaN()
			continue
		}
		out[i] = x
	}
	return out
}
