package notify

import (
	"github.com/wneessen/go-mail"

	"github.com/efitzgerald-adot/tracorp-activity-completions/pkg/logger"
)

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets the logger for send events.
func WithLogger(log logger.Logger) Option {
	return func(n *Notifier) {
		n.log = log
	}
}

// WithTLSPolicy overrides the TLS policy used against the relay.
func WithTLSPolicy(p mail.TLSPolicy) Option {
	return func(n *Notifier) {
		n.tlsPolicy = p
	}
}
