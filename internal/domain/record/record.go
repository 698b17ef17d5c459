// Package record contains domain models passed between pipeline layers.
package record

import "time"

// BlankIdentity marks a record whose email column was present but empty.
// Such records can never be accepted as genuine completions.
const BlankIdentity = "BLANK"

// DateLayout is the canonical rendering of a completion date inside keys and
// warehouse tables.
const DateLayout = "2006-01-02"

// Completion is the canonical shape both feeds normalize into.
type Completion struct {
	ActivityCode   string    // required, non-null
	CompletionDate time.Time // date only; zero means the feed had no date
	Score          int       // defaults to 0 when the feed omits it
	Identity       string    // lower-cased email, raw identifier, or BlankIdentity
	EmpID          int64     // 0 when the feed had no employee id column
}

// HasDate reports whether the completion date was supplied by the feed.
func (c Completion) HasDate() bool {
	return !c.CompletionDate.IsZero()
}

// DateString renders the completion date for keys and storage, or "" when
// the date is missing.
func (c Completion) DateString() string {
	if !c.HasDate() {
		return ""
	}
	return c.CompletionDate.Format(DateLayout)
}

// Key is the natural key identifying a unique completion.
type Key struct {
	ActivityCode string
	Identity     string
	Date         string // DateLayout rendering
}

// Key returns the completion's natural key.
func (c Completion) Key() Key {
	return Key{
		ActivityCode: c.ActivityCode,
		Identity:     c.Identity,
		Date:         c.DateString(),
	}
}
