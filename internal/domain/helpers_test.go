package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testUnits    = "seconds since 2017-05-17 00:00:00 +0000"
	testTitle    = "Data from c012 on 17-May-17"
	testStartSec = 36000
)

func seconds(start, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(start + i)
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func timeVar(n int) Variable {
	return Variable{
		Name:  "Time",
		Data:  seconds(testStartSec, n),
		Width: 1,
		Type:  Int32,
		Attrs: Attributes{"units": testUnits},
	}
}

func floatVar(name string, data []float64) Variable {
	return Variable{Name: name, Data: data, Width: 1, Type: Float32, Attrs: Attributes{}}
}

// newDataset normalizes a modern-generation source holding a Time variable of
// n samples plus vars.
func newDataset(t *testing.T, n int, vars ...Variable) *Dataset {
	t.Helper()
	src := NewMemorySource(Attributes{"TITLE": testTitle}, append([]Variable{timeVar(n)}, vars...)...)
	ds, err := NewNormalizer(nil).Normalize(src)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}
