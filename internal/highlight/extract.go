package highlight

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Extract reads the metadata of one rendered region. It reports false when n
// is not an element carrying MarkerClass, or when its category cannot be
// resolved from either data-type or the category class.
//
// Attribute values of a parsed node are already entity-decoded by the
// tokenizer, so text and justification round-trip exactly.
func Extract(n *html.Node) (Span, bool) {
	if n == nil || n.Type != html.ElementNode {
		return Span{}, false
	}
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		if a.Namespace == "" {
			attrs[a.Key] = a.Val
		}
	}
	return spanFromAttrs(attrs)
}

// ExtractAll parses a rendered fragment and returns the metadata of every
// region in document order.
func ExtractAll(markup string) ([]Span, error) {
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), root)
	if err != nil {
		return nil, fmt.Errorf("parse highlighted fragment: %w", err)
	}
	var spans []Span
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if s, ok := Extract(n); ok {
			spans = append(spans, s)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return spans, nil
}

func spanFromAttrs(attrs map[string]string) (Span, bool) {
	class := attrs["class"]
	if !hasClass(class, MarkerClass) {
		return Span{}, false
	}
	cat, err := ParseCategory(strings.TrimSpace(attrs["data-type"]))
	if err != nil {
		var ok bool
		if cat, ok = categoryFromClass(class); !ok {
			return Span{}, false
		}
	}
	return Span{
		Category:      cat,
		Text:          attrs["data-text"],
		Justification: attrs["data-reason"],
		ScoreWeight:   parseScore(attrs["data-scoring-point"]),
		Order:         parseOrder(attrs["data-order"]),
	}, true
}

func hasClass(class, want string) bool {
	for _, f := range strings.Fields(class) {
		if f == want {
			return true
		}
	}
	return false
}

func parseScore(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseOrder(v string) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return -1
	}
	return i
}
