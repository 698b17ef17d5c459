// Package testfeeds generates sample feed files for local end-to-end runs:
// a spreadsheet-feed stand-in and a delimited completion feed with a tunable
// amount of noise.
package testfeeds

import (
	"errors"
	"fmt"
)

// Default generation parameters.
const (
	DefaultReportRows     = 200
	DefaultCompletionRows = 500

	DefaultDuplicateRatio = 0.10
	DefaultUnknownRatio   = 0.05
	DefaultBlankRatio     = 0.05
)

// Config holds the generation parameters.
type Config struct {
	// Dir receives the generated files.
	Dir string

	// ReportRows and CompletionRows size the two feeds.
	ReportRows     int
	CompletionRows int

	// DuplicateRatio is the fraction of rows repeated verbatim, exercising
	// the dedup path.
	DuplicateRatio float64

	// UnknownRatio is the fraction of completion rows carrying an activity
	// code outside the active set, exercising the scope filter.
	UnknownRatio float64

	// BlankRatio is the fraction of completion rows without an email,
	// exercising identity resolution.
	BlankRatio float64

	// Workbook writes the spreadsheet feed as a real .xlsx file instead of
	// the delimited stand-in.
	Workbook bool

	// Seed makes generation reproducible.
	Seed int64

	// Activities is the active code set to draw from.
	Activities []string
}

// Validate fails fast on unusable parameters.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return errors.New("dir must not be empty")
	}
	if c.ReportRows < 0 || c.CompletionRows < 0 {
		return errors.New("row counts must not be negative")
	}
	for name, ratio := range map[string]float64{
		"duplicates": c.DuplicateRatio,
		"unknown":    c.UnknownRatio,
		"blank":      c.BlankRatio,
	} {
		if ratio < 0 || ratio > 1 {
			return fmt.Errorf("%s ratio must be within [0, 1], got %g", name, ratio)
		}
	}
	if len(c.Activities) == 0 {
		return errors.New("activities must not be empty")
	}
	return nil
}
