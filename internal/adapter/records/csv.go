package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/faam-core-etl/internal/domain"
)

// ReadCSV reads a header row followed by data rows.
func ReadCSV(r io.Reader) (domain.RecordSet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.RecordSet{}, errors.New("csv has no header row")
	}
	if err != nil {
		return domain.RecordSet{}, fmt.Errorf("read csv header: %w", err)
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return domain.RecordSet{}, fmt.Errorf("read csv rows: %w", err)
	}
	return buildRecordSet(header, rows), nil
}

// LoadCSV reads the CSV file at path.
func LoadCSV(path string) (domain.RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.RecordSet{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	rs, err := ReadCSV(f)
	if err != nil {
		return domain.RecordSet{}, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}
