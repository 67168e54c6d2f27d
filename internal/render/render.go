package render

import (
	"html"
	"log/slog"
	"strings"

	"github.com/shineum/civicmail/internal/template"
)

// Rendered is a template after substitution.
type Rendered struct {
	Subject     string
	TextBody    string
	HTMLBody    string
	ContentType template.ContentType
	// Missing lists placeholders that had no value and were left verbatim.
	Missing []string
}

// Render substitutes vars into tpl. Unknown placeholders are logged and kept
// as written. For HTML templates, body values are HTML-escaped (except the
// pre-built *_items lists) and a plain-text fallback is derived from the
// rendered markup.
func Render(tpl template.Record, vars Vars, logger *slog.Logger) Rendered {
	out := Rendered{ContentType: tpl.ContentType}

	var missing []string
	note := func(name string) {
		for _, m := range missing {
			if m == name {
				return
			}
		}
		missing = append(missing, name)
	}

	out.Subject = substitute(tpl.Subject, func(name string) (string, bool) {
		val, ok := vars[name]
		if !ok {
			note(name)
		}
		return val, ok
	})

	escape := tpl.ContentType == template.HTML
	body := substitute(tpl.Body, func(name string) (string, bool) {
		val, ok := vars[name]
		if !ok {
			note(name)
			return "", false
		}
		if escape && !strings.HasSuffix(name, itemsSuffix) {
			val = html.EscapeString(val)
		}
		return val, true
	})

	if tpl.ContentType == template.HTML {
		out.HTMLBody = body
		out.TextBody = PlainText(body)
	} else {
		out.TextBody = body
	}

	for _, name := range missing {
		logger.Warn("template placeholder has no value", "template", tpl.ID, "placeholder", name)
	}
	out.Missing = missing
	return out
}

// substitute replaces every {name} in pattern for which lookup succeeds.
func substitute(pattern string, lookup func(string) (string, bool)) string {
	return template.PlaceholderPattern.ReplaceAllStringFunc(pattern, func(match string) string {
		name := match[1 : len(match)-1]
		if val, ok := lookup(name); ok {
			return val
		}
		return match
	})
}
