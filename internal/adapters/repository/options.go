package repository

import "github.com/efitzgerald-adot/tracorp-activity-completions/pkg/logger"

// Option configures a SQLStore.
type Option func(*SQLStore)

// WithLogger sets the logger used for insert progress and roster misses.
func WithLogger(log logger.Logger) Option {
	return func(s *SQLStore) {
		s.log = log
	}
}

// WithRoster overrides the roster table and column names.
func WithRoster(ref RosterRef) Option {
	return func(s *SQLStore) {
		s.roster = ref
	}
}
