package highlight

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Locate returns every occurrence of every excerpt text in content, in
// discovery order: categories in registry order, excerpts in annotation order,
// positions left to right. Overlapping repeats of the same text are all
// reported, so "aa" occurs in "aaa" at 0 and at 1.
func Locate(content string, a *Annotation) ([]Occurrence, error) {
	if a == nil || content == "" {
		return nil, validateCategories(a)
	}
	if err := validateCategories(a); err != nil {
		return nil, err
	}
	var out []Occurrence
	for _, cat := range Categories() {
		for _, ex := range a.Excerpts[cat] {
			out = appendMatches(out, content, cat, ex)
		}
	}
	return out, nil
}

func appendMatches(out []Occurrence, content string, cat Category, ex Excerpt) []Occurrence {
	if ex.Text == "" {
		return out
	}
	width := utf8.RuneCountInString(ex.Text)
	pos, runePos := 0, 0
	for pos <= len(content)-len(ex.Text) {
		i := strings.Index(content[pos:], ex.Text)
		if i < 0 {
			break
		}
		runePos += utf8.RuneCountInString(content[pos : pos+i])
		start := pos + i
		out = append(out, Occurrence{
			Start:         runePos,
			End:           runePos + width,
			Text:          ex.Text,
			Category:      cat,
			Justification: ex.Justification,
			ScoreWeight:   ex.ScoreWeight,
			byteStart:     start,
			byteEnd:       start + len(ex.Text),
		})
		_, size := utf8.DecodeRuneInString(content[start:])
		pos = start + size
		runePos++
	}
	return out
}

func validateCategories(a *Annotation) error {
	if a == nil {
		return nil
	}
	var bad []int
	for cat := range a.Excerpts {
		if !cat.Valid() {
			bad = append(bad, int(cat))
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Ints(bad)
	return fmt.Errorf("%w: %v", ErrUnknownCategory, bad)
}
