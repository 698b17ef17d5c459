package feed

import "errors"

// Sentinel kinds for feed I/O errors.
var (
	ErrReadFeed  = errors.New("read feed failed")
	ErrWriteFeed = errors.New("write feed failed")
)
