package normalize

import "errors"

// Sentinel kinds for normalization errors.
var (
	// ErrMissingColumn aborts a file: a required column is absent from the feed.
	ErrMissingColumn = errors.New("required column missing")

	// ErrBadValue marks a row-level coercion failure; the row is dropped.
	ErrBadValue = errors.New("unparseable value")
)
