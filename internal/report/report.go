// Package report publishes dispatch outcomes to NATS.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/shineum/civicmail/internal/dispatch"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "civicmail.outcomes"

const (
	defaultFlushTimeout = 5 * time.Second
	minFlushTimeout     = 100 * time.Millisecond
)

// Publisher is the subset of *nats.Conn the reporter needs.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// flusher is implemented by *nats.Conn.
type flusher interface {
	FlushTimeout(timeout time.Duration) error
}

// Event is the JSON document published for each outcome.
type Event struct {
	RunID       string    `json:"run_id"`
	State       string    `json:"state"`
	Reason      string    `json:"reason,omitempty"`
	Error       string    `json:"error,omitempty"`
	Reference   string    `json:"reference,omitempty"`
	Account     string    `json:"account"`
	Sender      string    `json:"sender"`
	Transport   string    `json:"transport"`
	TemplateID  int       `json:"template_id"`
	SendDay     bool      `json:"send_day"`
	Recipients  int       `json:"recipients"`
	Attachments []string  `json:"attachments,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// NewEvent converts an outcome to its published form. The failure reason
// is only set for failed outcomes.
func NewEvent(out dispatch.Outcome) Event {
	ev := Event{
		RunID:       out.RunID,
		State:       string(out.State),
		Reference:   out.Reference,
		Account:     out.Account,
		Sender:      out.Sender,
		Transport:   out.Transport,
		TemplateID:  out.TemplateID,
		SendDay:     out.SendDay,
		Recipients:  out.Recipients,
		Attachments: out.Attachments,
		StartedAt:   out.StartedAt,
		FinishedAt:  out.FinishedAt,
	}
	if out.State == dispatch.StateFailed {
		ev.Reason = string(out.Reason)
		if out.Err != nil {
			ev.Error = out.Err.Error()
		}
	}
	return ev
}

// NATS publishes outcomes on a subject.
type NATS struct {
	pub     Publisher
	subject string
	logger  *slog.Logger
}

// New returns a reporter publishing on subject through pub.
func New(pub Publisher, subject string, logger *slog.Logger) *NATS {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATS{pub: pub, subject: subject, logger: logger}
}

// Connect dials the NATS server at url.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("civicmail"),
		nats.Timeout(10*time.Second),
		nats.MaxReconnects(5),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// Report publishes out and, when the publisher supports it, flushes so the
// event is on the wire before the process may exit.
func (n *NATS) Report(ctx context.Context, out dispatch.Outcome) error {
	data, err := json.Marshal(NewEvent(out))
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish outcome: %w", err)
	}

	if f, ok := n.pub.(flusher); ok {
		if err := f.FlushTimeout(flushTimeout(ctx)); err != nil {
			return fmt.Errorf("flush outcome: %w", err)
		}
	}

	n.logger.Debug("outcome reported", "subject", n.subject, "run_id", out.RunID, "state", out.State)
	return nil
}

// flushTimeout is the time left before ctx's deadline, never below
// minFlushTimeout so an expired context still gets a brief flush.
func flushTimeout(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return defaultFlushTimeout
	}
	return max(time.Until(deadline), minFlushTimeout)
}
