package feed

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

const outputFilePermission = 0o644

// WriteDelimited writes header+rows as a delimited file at path.
func WriteDelimited(path string, comma rune, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFeed, path, err)
	}

	w := csv.NewWriter(f)
	w.Comma = comma
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %s: %w", ErrWriteFeed, path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("%w: %s: %w", ErrWriteFeed, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %s: %w", ErrWriteFeed, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFeed, path, err)
	}
	return nil
}

// ConvertToText rewrites a delimited file as the whitespace-joined plain-text
// form the LMS upload expects, then removes the intermediate file.
func ConvertToText(csvPath, txtPath string, comma rune) error {
	in, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReadFeed, csvPath, err)
	}
	r := csv.NewReader(in)
	r.Comma = comma
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	_ = in.Close()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReadFeed, csvPath, err)
	}

	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, " "))
		b.WriteString("\n")
	}
	if err := os.WriteFile(txtPath, []byte(b.String()), outputFilePermission); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFeed, txtPath, err)
	}

	if err := os.Remove(csvPath); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFeed, csvPath, err)
	}
	return nil
}
