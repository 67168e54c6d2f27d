package dispatch

import (
	"time"

	"github.com/shineum/civicmail/internal/transport"
)

// State is a dispatch lifecycle state.
type State string

const (
	StateBuilding   State = "building"
	StateConnecting State = "connecting"
	StateSent       State = "sent"
	StateFailed     State = "failed"
	StateSkipped    State = "skipped"
)

// Outcome describes how a dispatch ended.
type Outcome struct {
	RunID       string
	State       State
	Reason      transport.Reason
	Err         error
	Reference   string
	Account     string
	Sender      string
	Transport   string
	TemplateID  int
	SendDay     bool
	Recipients  int
	Attachments []string
	StartedAt   time.Time
	FinishedAt  time.Time
	Delay       time.Duration
}

// OK reports whether the dispatch ended without failure.
func (o Outcome) OK() bool {
	return o.State == StateSent || o.State == StateSkipped
}
