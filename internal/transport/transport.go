// Package transport defines the interface for outbound delivery backends
// and the classified error they return.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/shineum/civicmail/internal/account"
	"github.com/shineum/civicmail/internal/email"
)

// Transport delivers one rendered message from one account.
type Transport interface {
	// Send delivers msg using acct's credentials. Failures are returned as
	// *Error so callers can read the Reason.
	Send(ctx context.Context, acct account.Account, msg *email.Email) error

	// Name returns the human-readable name of this transport.
	Name() string
}

// Reason classifies a delivery failure by the phase that failed.
type Reason string

const (
	ReasonConnection        Reason = "connection"
	ReasonAuthentication    Reason = "authentication"
	ReasonRecipientsRefused Reason = "recipients-refused"
	ReasonData              Reason = "data-error"
	ReasonUnknown           Reason = "unknown"
)

// Error is a classified delivery failure.
type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap classifies err under reason. A nil err stays nil.
func Wrap(reason Reason, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Reason: reason, Err: err}
}

// ReasonOf returns the classification of err, or ReasonUnknown when err
// carries none.
func ReasonOf(err error) Reason {
	var te *Error
	if errors.As(err, &te) {
		return te.Reason
	}
	return ReasonUnknown
}
