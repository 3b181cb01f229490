package records

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/faam-core-etl/internal/domain"
)

// DefaultTable is the SQLite table read when none is configured.
const DefaultTable = "records"

// Loader picks a reader by file extension.
// It implements pipeline.RecordLoader.
type Loader struct {
	table  string
	logger *slog.Logger
}

// NewLoader creates a Loader reading SQLite databases from table.
func NewLoader(table string, logger *slog.Logger) *Loader {
	if table == "" {
		table = DefaultTable
	}
	return &Loader{table: table, logger: logger}
}

// Load reads the secondary records at path: .csv files as CSV and
// .db, .sqlite and .sqlite3 files as SQLite.
func (l *Loader) Load(ctx context.Context, path string) (domain.RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return domain.RecordSet{}, err
	}

	var (
		rs  domain.RecordSet
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rs, err = LoadCSV(path)
	case ".db", ".sqlite", ".sqlite3":
		rs, err = LoadSQLite(ctx, path, l.table)
	default:
		return domain.RecordSet{}, fmt.Errorf("unsupported record file extension %q", ext)
	}
	if err != nil {
		return domain.RecordSet{}, err
	}

	l.logger.Debug("loaded secondary records", "path", path, "columns", len(rs.Columns))
	return rs, nil
}
