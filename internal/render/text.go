package render

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PlainText converts an HTML body to readable plain text: block elements
// become line breaks, list items become "- " bullets, and style, script and
// head content is dropped.
func PlainText(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return tidy(b.String())

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch a := atom.Lookup(name); a {
			case atom.Style, atom.Script, atom.Head, atom.Title:
				skip++
			case atom.Li:
				b.WriteString("\n- ")
			case atom.Br, atom.Tr:
				b.WriteString("\n")
			case atom.Td, atom.Th:
				b.WriteString(" ")
			default:
				if isBlock(a) {
					b.WriteString("\n\n")
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch a := atom.Lookup(name); a {
			case atom.Style, atom.Script, atom.Head, atom.Title:
				if skip > 0 {
					skip--
				}
			default:
				if isBlock(a) {
					b.WriteString("\n\n")
				}
			}

		case html.TextToken:
			if skip > 0 {
				continue
			}
			b.WriteString(collapse(string(z.Text())))
		}
	}
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Ul, atom.Ol, atom.Table, atom.Hr, atom.Blockquote, atom.Pre:
		return true
	}
	return false
}

// collapse folds whitespace runs to single spaces, keeping one space at each
// edge that had whitespace.
func collapse(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			return " "
		}
		return ""
	}
	out := strings.Join(fields, " ")
	if unicode.IsSpace(rune(s[0])) {
		out = " " + out
	}
	if unicode.IsSpace(rune(s[len(s)-1])) {
		out += " "
	}
	return out
}

// tidy trims every line and limits blank runs to a single empty line.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
