// Package feed reads and writes the tabular files the pipeline consumes and
// produces. Files arrive as already-local paths; how they got there is the
// transfer adapter's business.
package feed

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/normalize"
)

// ReadDelimited reads a delimited text feed into a raw table. The first row
// is the header.
func ReadDelimited(path string, comma rune) (normalize.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return normalize.Table{}, fmt.Errorf("%w: %s: %w", ErrReadFeed, path, err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return normalize.Table{}, fmt.Errorf("%w: %s: %w", ErrReadFeed, path, err)
	}
	return tableFrom(rows), nil
}

// ReadWorkbook reads the first sheet of a spreadsheet feed into a raw table.
// The first row is the header.
func ReadWorkbook(path string) (normalize.Table, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return normalize.Table{}, fmt.Errorf("%w: %s: %w", ErrReadFeed, path, err)
	}
	defer wb.Close() //nolint:errcheck // read-only workbook

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return normalize.Table{}, fmt.Errorf("%w: %s: workbook has no sheets", ErrReadFeed, path)
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return normalize.Table{}, fmt.Errorf("%w: %s: %w", ErrReadFeed, path, err)
	}
	return tableFrom(rows), nil
}

// tableFrom converts header+rows into a raw table. Short rows (spreadsheet
// readers trim trailing empty cells) are padded with empty strings; cells
// beyond the header are dropped.
func tableFrom(rows [][]string) normalize.Table {
	if len(rows) == 0 {
		return normalize.Table{}
	}
	header := rows[0]
	table := normalize.Table{
		Columns: header,
		Rows:    make([]map[string]string, 0, len(rows)-1),
	}
	for _, row := range rows[1:] {
		m := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				m[col] = row[i]
			} else {
				m[col] = ""
			}
		}
		table.Rows = append(table.Rows, m)
	}
	return table
}
