package netcdf

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"github.com/couchcryptid/faam-core-etl/internal/domain"
)

// missingValueAttr carries the fill sentinel on float variables.
const missingValueAttr = "missing_value"

// Writer exports datasets as netCDF classic files.
// It implements pipeline.DatasetExporter.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a Writer.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

// Export writes ds to path at the resolution opts selects. An existing file
// is replaced only when opts.Overwrite is set; otherwise the returned error
// wraps domain.ErrDestinationExists and nothing is written.
func (w *Writer) Export(ctx context.Context, ds *domain.Dataset, path string, opts domain.ExportOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	vars := ds.ExportVariables(opts.Mode)
	if err := w.WriteFile(path, ds.ExportAttributes(opts.Mode), vars, opts.Overwrite); err != nil {
		return err
	}
	w.logger.Info("exported dataset",
		"flight", ds.FlightID(),
		"path", path,
		"mode", opts.Mode.String(),
		"variables", len(vars),
	)
	return nil
}

// WriteFile writes global attributes and variables to path. The first
// dimension of every variable is named Time; multi-rate variables add an
// spsNN dimension. Float variables record the fill sentinel as
// missing_value. A partially written file is removed on failure.
func (w *Writer) WriteFile(path string, attrs domain.Attributes, vars []domain.Variable, overwrite bool) error {
	_, err := os.Stat(path)
	switch {
	case err == nil && !overwrite:
		w.logger.Warn("export destination exists, not overwriting", "path", path)
		return fmt.Errorf("export %s: %w", path, domain.ErrDestinationExists)
	case err == nil:
		w.logger.Info("overwriting export destination", "path", path)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat %s: %w", path, err)
	}

	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := w.write(cw, attrs, vars); err != nil {
		_ = cw.Close()
		_ = os.Remove(path)
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := cw.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}

func (w *Writer) write(cw api.Writer, attrs domain.Attributes, vars []domain.Variable) error {
	global, dropped, err := encodeAttributes(attrs)
	if err != nil {
		return err
	}
	if len(dropped) > 0 {
		w.logger.Debug("dropping reserved global attributes", "attributes", dropped)
	}
	if err := cw.AddAttributes(global); err != nil {
		return fmt.Errorf("write global attributes: %w", err)
	}

	for _, v := range vars {
		dt := storageType(v)
		if dt != v.Type && v.Type != "" {
			w.logger.Debug("widening variable to hold fill values", "variable", v.Name, "from", v.Type, "to", dt)
		}
		va := v.Attrs.Clone()
		switch dt {
		case domain.Float64:
			va[missingValueAttr] = domain.FillValue
		case domain.Float32:
			va[missingValueAttr] = float32(domain.FillValue)
		}
		am, dropped, err := encodeAttributes(va)
		if err != nil {
			return fmt.Errorf("variable %q: %w", v.Name, err)
		}
		if len(dropped) > 0 {
			w.logger.Debug("dropping reserved variable attributes", "variable", v.Name, "attributes", dropped)
		}
		if err := cw.AddVar(v.Name, api.Variable{
			Values:     encodeValues(v, dt),
			Dimensions: dimensions(v),
			Attributes: am,
		}); err != nil {
			return fmt.Errorf("write variable %q: %w", v.Name, err)
		}
	}
	return nil
}

func dimensions(v domain.Variable) []string {
	if v.Width <= 1 {
		return []string{domain.TimeVariable}
	}
	return []string{domain.TimeVariable, fmt.Sprintf("sps%02d", v.Width)}
}

// storageType returns the type v is written as: its native type, or float
// when an integer variable holds values the integer type cannot represent.
func storageType(v domain.Variable) domain.DataType {
	lo, hi := 0.0, 0.0
	switch v.Type {
	case domain.Int32:
		lo, hi = math.MinInt32, math.MaxInt32
	case domain.Int16:
		lo, hi = math.MinInt16, math.MaxInt16
	case domain.Int8:
		lo, hi = math.MinInt8, math.MaxInt8
	case domain.Float32:
		return domain.Float32
	default:
		return domain.Float64
	}
	for _, x := range v.Data {
		if x < lo || x > hi || x != math.Trunc(x) {
			return domain.Float32
		}
	}
	return v.Type
}

func encodeValues(v domain.Variable, dt domain.DataType) any {
	switch dt {
	case domain.Float32:
		return shape[float32](v)
	case domain.Int32:
		return shape[int32](v)
	case domain.Int16:
		return shape[int16](v)
	case domain.Int8:
		return shape[int8](v)
	default:
		return shape[float64](v)
	}
}

// shape converts row-major data to []T or [][]T.
func shape[T number](v domain.Variable) any {
	if v.Width <= 1 {
		out := make([]T, len(v.Data))
		for i, x := range v.Data {
			out[i] = T(x)
		}
		return out
	}
	rows := make([][]T, v.Len())
	for i := range rows {
		row := make([]T, v.Width)
		for j := range row {
			row[j] = T(v.At(i, j))
		}
		rows[i] = row
	}
	return rows
}

// encodeAttributes builds a sorted attribute map. Names starting with an
// underscore (_FillValue, _NCProperties, ...) are reserved and rejected by the
// CDF writer; they are returned as dropped instead.
func encodeAttributes(attrs domain.Attributes) (om *util.OrderedMap, dropped []string, err error) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		if strings.HasPrefix(k, "_") {
			dropped = append(dropped, k)
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	slices.Sort(dropped)
	values := make(map[string]any, len(keys))
	for _, k := range keys {
		values[k] = attrs[k]
	}
	om, err = util.NewOrderedMap(keys, values)
	if err != nil {
		return nil, nil, fmt.Errorf("encode attributes: %w", err)
	}
	return om, dropped, nil
}
