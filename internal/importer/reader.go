package importer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Table is a parsed tabular file: one header row plus data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ReadTable loads a CSV or XLSX file based on its extension.
func ReadTable(path, sheet string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readXLSX(path, sheet)
	default:
		return nil, eris.Errorf("importer: unsupported file type %s", filepath.Ext(path))
	}
}

func readCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // county exports pad rows inconsistently
	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "importer: parse csv %s", path)
	}
	if len(records) == 0 {
		return nil, eris.Errorf("importer: %s is empty", path)
	}
	return &Table{Headers: records[0], Rows: records[1:]}, nil
}

func readXLSX(path, sheet string) (*Table, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open xlsx %s", path)
	}
	if len(file.Sheets) == 0 {
		return nil, eris.Errorf("importer: %s has no sheets", path)
	}

	target := file.Sheets[0]
	if sheet != "" {
		found, ok := file.Sheet[sheet]
		if !ok {
			return nil, eris.Errorf("importer: sheet %q not found in %s", sheet, path)
		}
		target = found
	}
	if len(target.Rows) == 0 {
		return nil, eris.Errorf("importer: sheet %q in %s is empty", target.Name, path)
	}

	cellValues := func(row *xlsx.Row) []string {
		out := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			out[i] = c.String()
		}
		return out
	}

	t := &Table{Headers: cellValues(target.Rows[0])}
	for _, row := range target.Rows[1:] {
		t.Rows = append(t.Rows, cellValues(row))
	}
	return t, nil
}

// cell returns the trimmed value of a logical field in a row, or "" when
// the field is unmapped or the row is short.
func cell(row []string, cols map[string]int, field string) string {
	idx, ok := cols[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
