package service

import "errors"

var (
	// ErrNotConfigured indicates a required collaborator was never wired.
	ErrNotConfigured = errors.New("service not configured")

	// ErrRunFailed indicates the run could not start or finish.
	ErrRunFailed = errors.New("run failed")
)
