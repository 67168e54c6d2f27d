package smtptest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/emersion/go-message/mail"
)

// Message is a message accepted by the server.
type Message struct {
	From     string
	To       []string
	Raw      []byte
	Header   mail.Header
	Subject  string
	TextBody string
	HTMLBody string

	Attachments []Attachment
}

// Attachment is a decoded attachment part.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// parseMessage decodes raw into its text, HTML and attachment parts.
func parseMessage(from string, to []string, raw []byte) (*Message, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	msg := &Message{
		From:   from,
		To:     append([]string(nil), to...),
		Raw:    raw,
		Header: mr.Header,
	}
	if msg.Subject, err = mr.Header.Subject(); err != nil {
		return nil, fmt.Errorf("failed to decode subject: %w", err)
	}

	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read part: %w", err)
		}

		body, err := io.ReadAll(p.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read part body: %w", err)
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			ct, _, _ := h.ContentType()
			switch ct {
			case "text/html":
				msg.HTMLBody = string(body)
			default:
				msg.TextBody = string(body)
			}
		case *mail.AttachmentHeader:
			name, _ := h.Filename()
			ct, _, _ := h.ContentType()
			msg.Attachments = append(msg.Attachments, Attachment{
				Filename:    name,
				ContentType: ct,
				Content:     body,
			})
		}
	}

	return msg, nil
}
