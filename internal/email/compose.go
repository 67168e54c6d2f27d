package email

import (
	"bytes"
	"fmt"

	"github.com/wneessen/go-mail"
)

// ReferenceHeader carries the message reference token.
const ReferenceHeader = "X-Complaint-Reference"

// defaultAttachmentType is used for attachments without an explicit content type.
const defaultAttachmentType = "application/octet-stream"

// Compose renders msg as an RFC 5322 message. Plain messages get a single
// text/plain body; HTML messages get a multipart/alternative body with the
// plain-text fallback first. Attachments become base64 parts with a
// Content-Disposition filename. Bcc addresses are never written to the headers.
func Compose(msg *Email) ([]byte, error) {
	m := mail.NewMsg()

	if msg.FromName != "" {
		if err := m.FromFormat(msg.FromName, msg.From); err != nil {
			return nil, fmt.Errorf("invalid from address: %w", err)
		}
	} else if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	if len(msg.Cc) > 0 {
		if err := m.Cc(msg.Cc...); err != nil {
			return nil, fmt.Errorf("invalid cc address: %w", err)
		}
	}
	if len(msg.Bcc) > 0 {
		if err := m.Bcc(msg.Bcc...); err != nil {
			return nil, fmt.Errorf("invalid bcc address: %w", err)
		}
	}

	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	if msg.Reference != "" {
		m.SetGenHeader(mail.Header(ReferenceHeader), msg.Reference)
	}

	switch {
	case msg.HtmlBody != "" && msg.TextBody != "":
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HtmlBody)
	case msg.HtmlBody != "":
		m.SetBodyString(mail.TypeTextHTML, msg.HtmlBody)
	default:
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	}

	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = defaultAttachmentType
		}
		err := m.AttachReader(att.Filename, bytes.NewReader(att.Content),
			mail.WithFileContentType(mail.ContentType(contentType)))
		if err != nil {
			return nil, fmt.Errorf("failed to attach %s: %w", att.Filename, err)
		}
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write message: %w", err)
	}
	return buf.Bytes(), nil
}
