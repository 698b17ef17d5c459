// Package normalize maps heterogeneous feed columns onto the canonical
// completion record shape.
//
// Each source supplies a declarative Mapping; which columns a feed uses is
// configuration, not code. Row-level coercion failures drop the row and keep
// the run going; a missing required column aborts the whole file.
package normalize

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/record"
	"github.com/efitzgerald-adot/tracorp-activity-completions/pkg/logger"
)

const hoursPerDay = 24

// dateLayouts are the accepted completion-date renderings, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
	"01/02/2006 15:04",
	"01/02/2006 15:04:05",
	"1/2/2006",
	"1/2/2006 15:04",
}

// Table is a raw feed: column names in feed order plus one map per row.
// Owned by the normalizer for the duration of a run.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// HasColumn reports whether the feed supplied the named column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Mapping declares how one source's columns map onto the canonical record.
type Mapping struct {
	// Source names the feed in logs and metrics.
	Source string

	// StatusColumn, when non-empty and present in the feed, keeps only rows
	// whose trimmed status equals CompletedCode.
	StatusColumn  string
	CompletedCode string

	// ActivityColumns are candidates for the activity code; the first column
	// present in the feed wins. None present fails the file.
	ActivityColumns []string

	// DateColumns are candidates for the completion date. None present
	// leaves the date unset on every record.
	DateColumns []string

	// ScoreColumn is optional; absent values default to 0.
	ScoreColumn string

	// EmailColumns are candidates for the email identity: lower-cased,
	// trimmed, record.BlankIdentity when empty.
	EmailColumns []string

	// RawIdentityColumn wins over EmailColumns and is carried verbatim; the
	// identity resolver deals with it later.
	RawIdentityColumn string

	// EmployeeIDColumn is coerced to an integer; rows that fail are dropped.
	EmployeeIDColumn string

	// RecencyDays drops rows whose completion date is older than this many
	// days before the run; 0 disables. Only delimited feeds configure it.
	RecencyDays int
}

// Drop reasons reported to metrics and logs.
const (
	DropStatus   = "status"
	DropBadDate  = "bad_date"
	DropBadScore = "bad_score"
	DropBadEmpID = "bad_emp_id"
	DropStale    = "stale"
)

// Normalizer applies one source's Mapping to raw feed tables.
type Normalizer struct {
	mapping Mapping
	now     func() time.Time
	log     logger.Logger
}

// New constructs a Normalizer for one source.
func New(mapping Mapping, opts ...Option) *Normalizer {
	n := &Normalizer{
		mapping: mapping,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Result carries the normalized batch plus drop counts by reason.
type Result struct {
	Records []record.Completion
	Dropped map[string]int
}

// Normalize produces the canonical record set for one raw feed table.
// Ordering is stable: surviving rows keep their input order.
func (n *Normalizer) Normalize(ctx context.Context, table Table) (Result, error) {
	m := n.mapping
	res := Result{Dropped: make(map[string]int)}

	activityCol := firstPresent(table, m.ActivityColumns)
	if activityCol == "" {
		return res, fmt.Errorf("%w: %s: none of %v present", ErrMissingColumn, m.Source, m.ActivityColumns)
	}
	dateCol := firstPresent(table, m.DateColumns)
	emailCol := firstPresent(table, m.EmailColumns)
	rawIdentity := m.RawIdentityColumn != "" && table.HasColumn(m.RawIdentityColumn)
	statusFilter := m.StatusColumn != "" && table.HasColumn(m.StatusColumn)
	scoreCol := ""
	if m.ScoreColumn != "" && table.HasColumn(m.ScoreColumn) {
		scoreCol = m.ScoreColumn
	}
	empIDCol := ""
	if m.EmployeeIDColumn != "" && table.HasColumn(m.EmployeeIDColumn) {
		empIDCol = m.EmployeeIDColumn
	}

	var cutoff time.Time
	if m.RecencyDays > 0 {
		cutoff = n.now().Add(-time.Duration(m.RecencyDays) * hoursPerDay * time.Hour)
		if n.log != nil {
			n.log.Info(ctx, "applying recency filter",
				logger.String("source", m.Source),
				logger.String("cutoff", cutoff.Format(record.DateLayout)))
		}
	}

	for i, row := range table.Rows {
		if statusFilter && strings.TrimSpace(row[m.StatusColumn]) != m.CompletedCode {
			res.Dropped[DropStatus]++
			continue
		}

		var c record.Completion
		c.ActivityCode = strings.TrimSpace(row[activityCol])

		if dateCol != "" {
			raw := strings.TrimSpace(row[dateCol])
			if raw != "" {
				parsed, err := parseDate(raw)
				if err != nil {
					n.dropRow(ctx, i, DropBadDate, raw)
					res.Dropped[DropBadDate]++
					continue
				}
				c.CompletionDate = parsed
			}
		}

		if scoreCol != "" {
			raw := strings.TrimSpace(row[scoreCol])
			if raw != "" {
				score, err := parseScore(raw)
				if err != nil {
					n.dropRow(ctx, i, DropBadScore, raw)
					res.Dropped[DropBadScore]++
					continue
				}
				c.Score = score
			}
		}

		switch {
		case rawIdentity:
			c.Identity = row[m.RawIdentityColumn]
		case emailCol != "":
			email := strings.ToLower(strings.TrimSpace(row[emailCol]))
			if email == "" {
				email = record.BlankIdentity
			}
			c.Identity = email
		}

		if empIDCol != "" {
			raw := strings.TrimSpace(row[empIDCol])
			if raw != "" {
				id, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					n.dropRow(ctx, i, DropBadEmpID, raw)
					res.Dropped[DropBadEmpID]++
					continue
				}
				c.EmpID = id
			}
		}

		if m.RecencyDays > 0 && c.CompletionDate.Before(cutoff) {
			// Zero dates land here too: a dated window cannot admit an
			// undated completion.
			res.Dropped[DropStale]++
			continue
		}

		res.Records = append(res.Records, c)
	}

	return res, nil
}

func (n *Normalizer) dropRow(ctx context.Context, index int, reason, value string) {
	if n.log == nil {
		return
	}
	n.log.Warn(ctx, "dropping row",
		logger.String("source", n.mapping.Source),
		logger.Int("row", index),
		logger.String("reason", reason),
		logger.String("value", value))
}

func firstPresent(table Table, candidates []string) string {
	for _, c := range candidates {
		if table.HasColumn(c) {
			return c
		}
	}
	return ""
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable date %q", ErrBadValue, raw)
}

func parseScore(raw string) (int, error) {
	if v, err := strconv.Atoi(raw); err == nil {
		return v, nil
	}
	// Some feeds render scores as floats ("85.0").
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f), nil
	}
	return 0, fmt.Errorf("%w: unparseable score %q", ErrBadValue, raw)
}
