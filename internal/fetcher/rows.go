package fetcher

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credenciados/internal/importer"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
	ErrUnsupportedFormat = eris.New("unsupported file format")
	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = eris.New("missing required column")
	// ErrEmptyFile is returned when the file has no header row.
	ErrEmptyFile = eris.New("empty file")
)

// requiredColumns must be present in every header.
var requiredColumns = []string{importer.ColName}

// MissingColumnError lists required columns absent from the header along
// with the columns that were found.
type MissingColumnError struct {
	Missing []string
	Found   []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: %s (found: %s)",
		ErrMissingColumn.Error(), strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

// Is matches ErrMissingColumn.
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// Record is one parsed line with its 1-based source line number.
type Record struct {
	Line   int
	Fields []string
}

// toRawRows keys every data record by the normalized header. Fully blank
// records are dropped without renumbering the rest.
func toRawRows(records []Record) ([]string, []importer.RawRow, error) {
	if len(records) == 0 {
		return nil, nil, ErrEmptyFile
	}

	header := make([]string, len(records[0].Fields))
	for i, h := range records[0].Fields {
		header[i] = normalizeHeader(h)
	}
	if err := checkColumns(header); err != nil {
		return header, nil, err
	}

	rows := make([]importer.RawRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlank(rec.Fields) {
			continue
		}
		fields := make(map[string]string, len(header))
		for i, v := range rec.Fields {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if _, dup := fields[header[i]]; dup {
				continue
			}
			fields[header[i]] = v
		}
		rows = append(rows, importer.RawRow{Position: rec.Line, Fields: fields})
	}
	return header, rows, nil
}

// normalizeHeader trims and lowercases a column name, dropping a UTF-8 BOM.
func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

func checkColumns(header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, col := range requiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnError{Missing: missing, Found: header}
	}
	return nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
