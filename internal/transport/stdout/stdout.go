// Package stdout implements a Transport that prints messages instead of
// sending them. It backs dry-run mode and the render command.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shineum/civicmail/internal/account"
	"github.com/shineum/civicmail/internal/email"
)

// Transport writes messages in a human-readable format.
type Transport struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a Transport that writes to os.Stdout.
func New() *Transport {
	return &Transport{writer: os.Stdout}
}

// NewWithWriter creates a Transport that writes to w.
func NewWithWriter(w io.Writer) *Transport {
	return &Transport{writer: w}
}

// Send prints msg. It only fails if the writer does.
func (p *Transport) Send(_ context.Context, acct account.Account, msg *email.Email) error {
	var b strings.Builder

	b.WriteString("========================================\n")
	if acct.Name != "" {
		fmt.Fprintf(&b, "Account: %s (%s)\n", acct.Name, acct.Host)
	}
	fmt.Fprintf(&b, "From: %s\n", msg.From)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\n", strings.Join(msg.Cc, ", "))
	}
	if len(msg.Bcc) > 0 {
		fmt.Fprintf(&b, "Bcc: %d recipient(s)\n", len(msg.Bcc))
	}
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	if msg.Reference != "" {
		fmt.Fprintf(&b, "Reference: %s\n", msg.Reference)
	}
	if msg.ContentType != "" {
		fmt.Fprintf(&b, "Content-Type: %s\n", msg.ContentType)
	}
	b.WriteString("Body:\n")

	body := msg.TextBody
	if body == "" {
		body = msg.HtmlBody
	}
	b.WriteString(body + "\n")

	if len(msg.Attachments) > 0 {
		attachments := make([]string, 0, len(msg.Attachments))
		for _, att := range msg.Attachments {
			attachments = append(attachments, fmt.Sprintf("%s (%s)", att.Filename, formatSize(len(att.Content))))
		}
		fmt.Fprintf(&b, "Attachments: %s\n", strings.Join(attachments, ", "))
	}

	b.WriteString("========================================\n")

	if _, err := io.WriteString(p.writer, b.String()); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Name returns the transport name.
func (p *Transport) Name() string {
	return "stdout"
}

// formatSize formats a byte count into a human-readable string.
func formatSize(bytes int) string {
	const (
		kb = 1024
		mb = kb * 1024
	)

	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
