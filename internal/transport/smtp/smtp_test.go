package smtp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/shineum/civicmail/internal/account"
	"github.com/shineum/civicmail/internal/email"
	"github.com/shineum/civicmail/internal/smtptest"
	civictls "github.com/shineum/civicmail/internal/tls"
	"github.com/shineum/civicmail/internal/transport"
)

const (
	testUser = "sender@example.com"
	testPass = "app-password"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startServer runs an smtptest server with STARTTLS and AUTH and returns it
// with a transport that trusts its certificate.
func startServer(t *testing.T, cfg smtptest.Config) (*smtptest.Server, *Transport) {
	t.Helper()

	serverTLS, clientTLS, err := civictls.SelfSigned()
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	if cfg.Username == "" {
		cfg.Username, cfg.Password = testUser, testPass
	}
	cfg.TLSConfig = serverTLS
	cfg.Logger = discardLogger()

	srv := smtptest.New(cfg)
	if err := srv.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	t.Cleanup(func() { srv.Close() })

	tr := New(Config{
		Timeout:   5 * time.Second,
		TLSConfig: clientTLS,
		Logger:    discardLogger(),
	})
	return srv, tr
}

func accountFor(srv *smtptest.Server, password string) account.Account {
	return account.Account{
		Name:     "test",
		Address:  testUser,
		Password: password,
		Host:     "127.0.0.1",
		Port:     srv.Port(),
	}
}

func testMessage() *email.Email {
	return &email.Email{
		From:      testUser,
		To:        []string{"one@example.gov", "two@example.gov"},
		Bcc:       []string{"archive@example.com"},
		Subject:   "URGENT: Road Infrastructure Failure (Ref: ROAD-20240115-1234)",
		TextBody:  "Please act.\n.line starting with a dot",
		Reference: "ROAD-20240115-1234",
		Attachments: []email.Attachment{
			{Filename: "a.jpg", Content: []byte("jpeg")},
		},
	}
}

func TestSend_Success(t *testing.T) {
	t.Parallel()

	srv, tr := startServer(t, smtptest.Config{})

	if err := tr.Send(context.Background(), accountFor(srv, testPass), testMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := srv.Messages()
	if len(msgs) != 1 {
		t.Fatalf("messages: got %d, want 1", len(msgs))
	}
	m := msgs[0]
	if m.From != testUser {
		t.Errorf("envelope from: got %q", m.From)
	}
	if len(m.To) != 3 {
		t.Errorf("envelope recipients: got %v, want 3 including bcc", m.To)
	}
	if m.Header.Get("Bcc") != "" {
		t.Error("Bcc header leaked into the message")
	}
	if !strings.Contains(m.Subject, "ROAD-20240115-1234") {
		t.Errorf("Subject: got %q", m.Subject)
	}
	if m.Header.Get(email.ReferenceHeader) != "ROAD-20240115-1234" {
		t.Errorf("reference header: got %q", m.Header.Get(email.ReferenceHeader))
	}
	if !strings.Contains(m.TextBody, ".line starting with a dot") {
		t.Errorf("TextBody: got %q", m.TextBody)
	}
	if len(m.Attachments) != 1 || m.Attachments[0].Filename != "a.jpg" || string(m.Attachments[0].Content) != "jpeg" {
		t.Errorf("attachments: got %+v", m.Attachments)
	}
}

func TestSend_FailureClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      smtptest.Config
		password string
		want     transport.Reason
	}{
		{
			name:     "bad credentials",
			password: "wrong",
			want:     transport.ReasonAuthentication,
		},
		{
			name:     "every recipient refused",
			cfg:      smtptest.Config{RejectRecipients: []string{"one@example.gov", "two@example.gov", "archive@example.com"}},
			password: testPass,
			want:     transport.ReasonRecipientsRefused,
		},
		{
			name:     "message rejected after DATA",
			cfg:      smtptest.Config{RejectData: true},
			password: testPass,
			want:     transport.ReasonData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, tr := startServer(t, tt.cfg)
			err := tr.Send(context.Background(), accountFor(srv, tt.password), testMessage())
			if err == nil {
				t.Fatal("expected error")
			}
			var te *transport.Error
			if !errors.As(err, &te) {
				t.Fatalf("error is not classified: %v", err)
			}
			if te.Reason != tt.want {
				t.Errorf("reason: got %q, want %q (%v)", te.Reason, tt.want, err)
			}
			if len(srv.Messages()) != 0 {
				t.Error("no message should be recorded")
			}
		})
	}
}

func TestSend_PartialRecipientRefusal(t *testing.T) {
	t.Parallel()

	srv, tr := startServer(t, smtptest.Config{RejectRecipients: []string{"two@example.gov"}})

	if err := tr.Send(context.Background(), accountFor(srv, testPass), testMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msgs := srv.Messages()
	if len(msgs) != 1 {
		t.Fatalf("messages: got %d, want 1", len(msgs))
	}
	if len(msgs[0].To) != 2 {
		t.Errorf("accepted recipients: got %v, want 2", msgs[0].To)
	}
}

func TestSend_ConnectionRefused(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	tr := New(Config{Timeout: 2 * time.Second, Logger: discardLogger()})
	acct := account.Account{Address: testUser, Password: testPass, Host: "127.0.0.1", Port: port}

	err = tr.Send(context.Background(), acct, testMessage())
	if got := transport.ReasonOf(err); got != transport.ReasonConnection {
		t.Errorf("reason: got %q, want %q (%v)", got, transport.ReasonConnection, err)
	}
}

func TestSend_NoSTARTTLS(t *testing.T) {
	t.Parallel()

	srv := smtptest.New(smtptest.Config{Username: testUser, Password: testPass, Logger: discardLogger()})
	if err := srv.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { srv.Close() })

	tr := New(Config{Timeout: 2 * time.Second, Logger: discardLogger()})
	err := tr.Send(context.Background(), accountFor(srv, testPass), testMessage())
	if got := transport.ReasonOf(err); got != transport.ReasonConnection {
		t.Errorf("reason: got %q, want %q (%v)", got, transport.ReasonConnection, err)
	}
}

func TestSend_UntrustedCertificate(t *testing.T) {
	t.Parallel()

	srv, _ := startServer(t, smtptest.Config{})
	tr := New(Config{Timeout: 2 * time.Second, Logger: discardLogger()})

	err := tr.Send(context.Background(), accountFor(srv, testPass), testMessage())
	if got := transport.ReasonOf(err); got != transport.ReasonConnection {
		t.Errorf("reason: got %q, want %q (%v)", got, transport.ReasonConnection, err)
	}
}

func TestSend_ComposeFailure(t *testing.T) {
	t.Parallel()

	tr := New(Config{Logger: discardLogger()})
	msg := testMessage()
	msg.From = "not an address"

	err := tr.Send(context.Background(), account.Account{Host: "127.0.0.1", Port: 1}, msg)
	if got := transport.ReasonOf(err); got != transport.ReasonData {
		t.Errorf("reason: got %q, want %q", got, transport.ReasonData)
	}
}

func TestSend_NoRecipients(t *testing.T) {
	t.Parallel()

	srv, tr := startServer(t, smtptest.Config{})
	msg := testMessage()
	msg.To, msg.Cc, msg.Bcc = nil, nil, nil

	err := tr.Send(context.Background(), accountFor(srv, testPass), msg)
	if err == nil {
		t.Fatal("expected error for a message without recipients")
	}
	if got := transport.ReasonOf(err); got != transport.ReasonRecipientsRefused {
		t.Errorf("reason: got %q, want %q", got, transport.ReasonRecipientsRefused)
	}
	if n := len(srv.Messages()); n != 0 {
		t.Errorf("server recorded %d messages, want 0", n)
	}
}

func TestSend_CancelledContext(t *testing.T) {
	t.Parallel()

	srv, tr := startServer(t, smtptest.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tr.Send(ctx, accountFor(srv, testPass), testMessage())
	if got := transport.ReasonOf(err); got != transport.ReasonConnection {
		t.Errorf("reason: got %q, want %q (%v)", got, transport.ReasonConnection, err)
	}
}

func TestName(t *testing.T) {
	t.Parallel()
	if got := New(Config{}).Name(); got != "smtp" {
		t.Errorf("Name(): got %q, want smtp", got)
	}
}
