// Package notify sends the end-of-run email with the log and output files
// attached.
package notify

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/efitzgerald-adot/tracorp-activity-completions/pkg/logger"
)

// Summary describes one run for the notification body.
type Summary struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Success  bool

	// Steps are human-readable per-step results, in run order.
	Steps []string

	// Err is the failure that ended the run, when Success is false.
	Err error
}

func (s Summary) outcome() string {
	if s.Success {
		return "success"
	}
	return "FAILED"
}

// Notifier sends run summaries over SMTP.
type Notifier struct {
	host string
	port int
	from string
	to   []string

	tlsPolicy mail.TLSPolicy
	log       logger.Logger
}

// New creates a Notifier. The relay is internal and unauthenticated;
// TLS is opportunistic by default.
func New(host string, port int, from string, to []string, opts ...Option) *Notifier {
	n := &Notifier{
		host:      host,
		port:      port,
		from:      from,
		to:        to,
		tlsPolicy: mail.TLSOpportunistic,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Send mails the summary with the given files attached. Attachments that do
// not exist are noted in the body instead of failing the send.
func (n *Notifier) Send(ctx context.Context, s Summary, attachments []string) error {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("%w: from %s: %w", ErrCompose, n.from, err)
	}
	if err := msg.To(n.to...); err != nil {
		return fmt.Errorf("%w: to %v: %w", ErrCompose, n.to, err)
	}
	msg.Subject(subject(s))

	var missing []string
	for _, path := range attachments {
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
			continue
		}
		msg.AttachFile(path)
	}
	msg.SetBodyString(mail.TypeTextPlain, buildBody(s, missing))

	client, err := mail.NewClient(n.host,
		mail.WithPort(n.port),
		mail.WithTLSPolicy(n.tlsPolicy),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: %s:%d: %w", ErrSend, n.host, n.port, err)
	}
	if n.log != nil {
		n.log.Info(ctx, "notification sent",
			logger.String("run_id", s.RunID),
			logger.String("outcome", s.outcome()),
			logger.Int("attachments", len(attachments)-len(missing)))
	}
	return nil
}

func subject(s Summary) string {
	return fmt.Sprintf("Training completions %s: %s",
		s.Finished.Format("2006-01-02"), s.outcome())
}

func buildBody(s Summary, missing []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s finished with %s.\n", s.RunID, s.outcome())
	fmt.Fprintf(&b, "Started:  %s\n", s.Started.Format(time.RFC3339))
	fmt.Fprintf(&b, "Finished: %s\n", s.Finished.Format(time.RFC3339))

	if len(s.Steps) > 0 {
		b.WriteString("\n")
		for _, step := range s.Steps {
			fmt.Fprintf(&b, "  - %s\n", step)
		}
	}
	if s.Err != nil {
		fmt.Fprintf(&b, "\nError: %v\n", s.Err)
	}
	if len(missing) > 0 {
		b.WriteString("\nMissing attachments:\n")
		for _, path := range missing {
			fmt.Fprintf(&b, "  - %s\n", path)
		}
	}
	return b.String()
}
