package records

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/faam-core-etl/internal/domain"
)

// WriteFrame writes f as CSV: a timestamp column first, then one column per
// variable. NaN is written as an empty cell.
func WriteFrame(w io.Writer, f domain.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"timestamp"}, f.Columns...)); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	row := make([]string, len(f.Columns)+1)
	for i, ts := range f.Index {
		row[0] = ts.UTC().Format(time.RFC3339)
		for j, name := range f.Columns {
			x := f.Values[name][i]
			if math.IsNaN(x) {
				row[j+1] = ""
				continue
			}
			row[j+1] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write frame row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FrameWriter writes dataset frames to CSV files.
// It implements pipeline.FrameWriter.
type FrameWriter struct {
	logger *slog.Logger
}

// NewFrameWriter creates a FrameWriter.
func NewFrameWriter(logger *slog.Logger) *FrameWriter {
	return &FrameWriter{logger: logger}
}

// WriteFrame builds a frame of the named variables (all when empty) and
// writes it to path.
func (fw *FrameWriter) WriteFrame(ctx context.Context, ds *domain.Dataset, path string, names []string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	frame, err := ds.Frame(names...)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create frame: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close frame: %w", cerr)
		}
	}()
	if err := WriteFrame(f, frame); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fw.logger.Info("wrote frame", "flight", ds.FlightID(), "path", path, "columns", len(frame.Columns), "rows", len(frame.Index))
	return nil
}
