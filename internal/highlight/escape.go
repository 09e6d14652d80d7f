package highlight

import (
	"html"
	"strings"
)

// Escape converts text into HTML-safe text. It escapes &, <, >, " and '.
// Letters, digits and underscores are never changed.
func Escape(s string) string {
	return html.EscapeString(s)
}

var crEscaper = strings.NewReplacer("\r", "&#13;")

// escapeAttr is Escape for attribute values. A carriage return is written as
// a character reference because HTML parsers fold a literal "\r\n" in an
// attribute into "\n".
func escapeAttr(s string) string {
	s = Escape(s)
	if !strings.Contains(s, "\r") {
		return s
	}
	return crEscaper.Replace(s)
}
