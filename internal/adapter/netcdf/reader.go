// Package netcdf reads and writes FAAM core files through the pure-Go
// go-native-netcdf library. The reader implements domain.Source; the writer
// exports normalized datasets as netCDF classic files.
package netcdf

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	gonetcdf "github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/couchcryptid/faam-core-etl/internal/domain"
)

// Source is an open netCDF file. It implements domain.Source and loads
// variables on demand.
type Source struct {
	path  string
	group api.Group
	attrs domain.Attributes
	once  sync.Once
}

// Open opens a netCDF classic or netCDF-4 file.
func Open(path string) (*Source, error) {
	g, err := gonetcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open netcdf %s: %w", path, err)
	}
	return &Source{path: path, group: g, attrs: decodeAttributes(g.Attributes())}, nil
}

func (s *Source) Attributes() domain.Attributes { return s.attrs }

func (s *Source) VariableNames() []string {
	names := slices.Clone(s.group.ListVariables())
	slices.Sort(names)
	return names
}

func (s *Source) Variable(name string) (domain.Variable, error) {
	vr, err := s.group.GetVariable(name)
	if err != nil {
		return domain.Variable{}, fmt.Errorf("read variable %q from %s: %w", name, s.path, err)
	}
	data, width, dt, err := decodeValues(vr.Values)
	if err != nil {
		return domain.Variable{}, fmt.Errorf("variable %q: %w", name, err)
	}
	return domain.Variable{
		Name:  name,
		Data:  data,
		Width: width,
		Type:  dt,
		Attrs: decodeAttributes(vr.Attributes),
	}, nil
}

// Close releases the file handle. Later calls do nothing.
func (s *Source) Close() error {
	s.once.Do(s.group.Close)
	return nil
}

// Opener opens core files for the pipeline.
type Opener struct {
	logger *slog.Logger
}

// NewOpener creates an Opener.
func NewOpener(logger *slog.Logger) *Opener {
	return &Opener{logger: logger}
}

// Open opens path as a domain.Source.
func (o *Opener) Open(ctx context.Context, path string) (domain.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("opened core file", "path", path, "variables", len(src.group.ListVariables()))
	return src, nil
}

type number interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// decodeValues flattens a library value of shape [N] or [N][K] into
// row-major float64 data.
func decodeValues(values any) (data []float64, width int, dt domain.DataType, err error) {
	switch v := values.(type) {
	case []float64:
		return flatten(v), 1, domain.Float64, nil
	case []float32:
		return flatten(v), 1, domain.Float32, nil
	case []int64:
		return flatten(v), 1, domain.Float64, nil
	case []uint64:
		return flatten(v), 1, domain.Float64, nil
	case []int32:
		return flatten(v), 1, domain.Int32, nil
	case []uint32:
		return flatten(v), 1, domain.Float64, nil
	case []int16:
		return flatten(v), 1, domain.Int16, nil
	case []uint16:
		return flatten(v), 1, domain.Int32, nil
	case []int8:
		return flatten(v), 1, domain.Int8, nil
	case []uint8:
		return flatten(v), 1, domain.Int16, nil
	case [][]float64:
		return flatten2(v, domain.Float64)
	case [][]float32:
		return flatten2(v, domain.Float32)
	case [][]int64:
		return flatten2(v, domain.Float64)
	case [][]uint64:
		return flatten2(v, domain.Float64)
	case [][]int32:
		return flatten2(v, domain.Int32)
	case [][]uint32:
		return flatten2(v, domain.Float64)
	case [][]int16:
		return flatten2(v, domain.Int16)
	case [][]uint16:
		return flatten2(v, domain.Int32)
	case [][]int8:
		return flatten2(v, domain.Int8)
	case [][]uint8:
		return flatten2(v, domain.Int16)
	default:
		return nil, 0, "", fmt.Errorf("%w: values of type %T", domain.ErrUnsupportedVariable, values)
	}
}

func flatten[T number](in []T) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = float64(x)
	}
	return out
}

func flatten2[T number](in [][]T, dt domain.DataType) ([]float64, int, domain.DataType, error) {
	if len(in) == 0 {
		return []float64{}, 1, dt, nil
	}
	width := len(in[0])
	out := make([]float64, 0, len(in)*width)
	for i, row := range in {
		if len(row) != width {
			return nil, 0, "", fmt.Errorf("%w: ragged row %d", domain.ErrUnsupportedVariable, i)
		}
		for _, x := range row {
			out = append(out, float64(x))
		}
	}
	return out, width, dt, nil
}

// decodeAttributes converts library attributes into strings, float64 scalars
// and []float64. Attributes of other types are dropped.
func decodeAttributes(am api.AttributeMap) domain.Attributes {
	attrs := domain.Attributes{}
	if am == nil {
		return attrs
	}
	for _, k := range am.Keys() {
		v, ok := am.Get(k)
		if !ok {
			continue
		}
		if decoded, ok := decodeAttribute(v); ok {
			attrs[k] = decoded
		}
	}
	return attrs
}

func decodeAttribute(v any) (any, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int16:
		return float64(x), true
	case int8:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	if data, width, _, err := decodeValues(v); err == nil && width == 1 {
		return data, true
	}
	return nil, false
}
