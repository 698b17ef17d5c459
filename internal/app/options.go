package service

import (
	"time"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/adapters/repository"
	"github.com/efitzgerald-adot/tracorp-activity-completions/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the warehouse store. Required.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithTransfer sets the feed endpoints: report serves the spreadsheet feed,
// lms serves the completion feed and receives the output.
func WithTransfer(report, lms FileTransfer) Option {
	return func(s *Service) {
		s.reportXfer = report
		s.lmsXfer = lms
	}
}

// WithNotifier sets the run-summary notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithLogPath names the log file attached to notifications.
func WithLogPath(path string) Option {
	return func(s *Service) {
		s.logPath = path
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
