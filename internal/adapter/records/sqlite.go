package records

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/faam-core-etl/internal/domain"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadSQLite reads every row of table from the SQLite database at path.
// Cells are stringified and typed like CSV cells.
func LoadSQLite(ctx context.Context, path, table string) (domain.RecordSet, error) {
	if !identifierRe.MatchString(table) {
		return domain.RecordSet{}, fmt.Errorf("invalid sqlite table name %q", table)
	}

	if _, err := os.Stat(path); err != nil {
		return domain.RecordSet{}, fmt.Errorf("open sqlite db: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Clean(path))
	if err != nil {
		return domain.RecordSet{}, fmt.Errorf("open sqlite db: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT * FROM "`+table+`"`)
	if err != nil {
		return domain.RecordSet{}, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return domain.RecordSet{}, fmt.Errorf("read columns of %s: %w", table, err)
	}

	var cells [][]string
	raw := make([]any, len(header))
	ptrs := make([]any, len(header))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return domain.RecordSet{}, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make([]string, len(raw))
		for i, v := range raw {
			row[i] = stringify(v)
		}
		cells = append(cells, row)
	}
	if err := rows.Err(); err != nil {
		return domain.RecordSet{}, fmt.Errorf("iterate %s: %w", table, err)
	}
	return buildRecordSet(header, cells), nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
