// Package smtp implements a Transport that submits mail over SMTP with
// STARTTLS and PLAIN authentication.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	netsmtp "net/smtp"
	"time"

	"github.com/shineum/civicmail/internal/account"
	"github.com/shineum/civicmail/internal/email"
	"github.com/shineum/civicmail/internal/transport"
)

// errNoRecipients is returned when the envelope would be empty.
var errNoRecipients = errors.New("message has no recipients")

// defaultTimeout bounds each of the connect, auth and transmit phases.
const defaultTimeout = 60 * time.Second

// Config holds the configuration for an SMTP Transport.
type Config struct {
	// Timeout applies to each phase separately. Zero means 60s.
	Timeout time.Duration

	// TLSConfig is cloned for STARTTLS. ServerName defaults to the account host.
	TLSConfig *tls.Config

	// AllowPlaintext permits servers that do not offer STARTTLS.
	AllowPlaintext bool

	// LocalName is sent in EHLO. Empty keeps the net/smtp default.
	LocalName string

	Logger *slog.Logger
}

// Transport submits messages to the account's SMTP server.
type Transport struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an SMTP Transport.
func New(cfg Config) *Transport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{cfg: cfg, logger: logger}
}

// Name returns the transport name.
func (t *Transport) Name() string {
	return "smtp"
}

// Send runs one SMTP transaction. Each phase gets a fresh deadline; a
// cancelled ctx closes the connection and fails whichever phase is running.
func (t *Transport) Send(ctx context.Context, acct account.Account, msg *email.Email) error {
	if len(msg.Recipients()) == 0 {
		return transport.Wrap(transport.ReasonRecipientsRefused, errNoRecipients)
	}

	raw, err := email.Compose(msg)
	if err != nil {
		return transport.Wrap(transport.ReasonData, fmt.Errorf("compose message: %w", err))
	}

	conn, client, err := t.connect(ctx, acct)
	if err != nil {
		return transport.Wrap(transport.ReasonConnection, err)
	}
	defer client.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := t.authenticate(conn, client, acct); err != nil {
		return transport.Wrap(transport.ReasonAuthentication, err)
	}

	if err := t.transmit(conn, client, acct.Address, msg.Recipients(), raw); err != nil {
		return err
	}

	if err := client.Quit(); err != nil {
		t.logger.Debug("QUIT failed after successful delivery", "error", err)
	}
	return nil
}

// connect dials the server and upgrades the session with STARTTLS.
func (t *Transport) connect(ctx context.Context, acct account.Account) (net.Conn, *netsmtp.Client, error) {
	dialer := &net.Dialer{Timeout: t.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", acct.Addr())
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", acct.Addr(), err)
	}
	if err := conn.SetDeadline(time.Now().Add(t.cfg.Timeout)); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("set deadline: %w", err)
	}

	client, err := netsmtp.NewClient(conn, acct.Host)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("smtp greeting: %w", err)
	}

	if t.cfg.LocalName != "" {
		if err := client.Hello(t.cfg.LocalName); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("EHLO: %w", err)
		}
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(t.tlsConfig(acct.Host)); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("STARTTLS: %w", err)
		}
	} else if !t.cfg.AllowPlaintext {
		client.Close()
		return nil, nil, errors.New("server does not offer STARTTLS")
	}

	return conn, client, nil
}

func (t *Transport) authenticate(conn net.Conn, client *netsmtp.Client, acct account.Account) error {
	if err := conn.SetDeadline(time.Now().Add(t.cfg.Timeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	if ok, _ := client.Extension("AUTH"); !ok {
		return errors.New("server does not offer AUTH")
	}
	auth := netsmtp.PlainAuth("", acct.Address, acct.Password, acct.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("AUTH PLAIN: %w", err)
	}
	return nil
}

// transmit sends the envelope and the message. Individually refused
// recipients are logged; the send fails only when every recipient is refused.
func (t *Transport) transmit(conn net.Conn, client *netsmtp.Client, from string, recipients []string, raw []byte) error {
	if len(recipients) == 0 {
		return transport.Wrap(transport.ReasonRecipientsRefused, errNoRecipients)
	}
	if err := conn.SetDeadline(time.Now().Add(t.cfg.Timeout)); err != nil {
		return transport.Wrap(transport.ReasonConnection, fmt.Errorf("set deadline: %w", err))
	}

	if err := client.Mail(from); err != nil {
		return transport.Wrap(transport.ReasonUnknown, fmt.Errorf("MAIL FROM refused: %w", err))
	}

	var refused []error
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			t.logger.Warn("recipient refused", "recipient", rcpt, "error", err)
			refused = append(refused, fmt.Errorf("%s: %w", rcpt, err))
		}
	}
	if len(refused) == len(recipients) {
		return transport.Wrap(transport.ReasonRecipientsRefused, errors.Join(refused...))
	}

	w, err := client.Data()
	if err != nil {
		return transport.Wrap(transport.ReasonData, fmt.Errorf("DATA: %w", err))
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return transport.Wrap(transport.ReasonData, fmt.Errorf("write message: %w", err))
	}
	if err := w.Close(); err != nil {
		return transport.Wrap(transport.ReasonData, fmt.Errorf("message rejected: %w", err))
	}

	t.logger.Debug("message accepted by server",
		"recipients", len(recipients)-len(refused),
		"refused", len(refused),
		"bytes", len(raw),
	)
	return nil
}

func (t *Transport) tlsConfig(host string) *tls.Config {
	var cfg *tls.Config
	if t.cfg.TLSConfig != nil {
		cfg = t.cfg.TLSConfig.Clone()
	} else {
		cfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if cfg.ServerName == "" {
		cfg.ServerName = host
	}
	return cfg
}
