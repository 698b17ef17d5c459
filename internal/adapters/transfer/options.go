package transfer

import (
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/efitzgerald-adot/tracorp-activity-completions/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for transfer events.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithDialTimeout overrides the connection timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

// WithHostKeyCallback enables host key verification.
func WithHostKeyCallback(cb ssh.HostKeyCallback) Option {
	return func(c *Client) {
		if cb != nil {
			c.hostKey = cb
		}
	}
}
