// Package email defines the outbound message model and its MIME composition.
package email

// Content types a rendered message body can carry.
const (
	ContentPlain = "plain"
	ContentHTML  = "html"
)

// Email is a fully rendered outbound message, built for exactly one send attempt.
type Email struct {
	From        string
	FromName    string
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	TextBody    string
	HtmlBody    string
	ContentType string
	Reference   string
	Attachments []Attachment
}

// Attachment represents a file attached to an email message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Recipients returns the envelope recipients: To, then Cc, then Bcc.
func (e *Email) Recipients() []string {
	out := make([]string, 0, len(e.To)+len(e.Cc)+len(e.Bcc))
	out = append(out, e.To...)
	out = append(out, e.Cc...)
	out = append(out, e.Bcc...)
	return out
}
