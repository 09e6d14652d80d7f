package highlight

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned when a category tag has no registry entry.
var ErrUnknownCategory = errors.New("unknown highlight category")

// Category is one of the fixed grading classifications.
type Category int

const (
	Correct Category = iota
	Wrong
	Unclear
	Redundant

	categoryCount
)

// Style holds the rendering attributes of a category.
type Style struct {
	Tag             string
	ClassName       string
	Background      string
	Border          string
	HoverBackground string
	HoverBorder     string
	Label           string
	LabelEN         string
}

var registry = [categoryCount]Style{
	Correct: {
		Tag:             "correct",
		ClassName:       "highlight-correct",
		Background:      "rgba(212, 237, 218, 1)",
		Border:          "rgba(40, 167, 69, 1)",
		HoverBackground: "rgba(195, 230, 203, 1)",
		HoverBorder:     "rgba(30, 126, 52, 1)",
		Label:           "正确",
		LabelEN:         "Correct",
	},
	Wrong: {
		Tag:             "wrong",
		ClassName:       "highlight-wrong",
		Background:      "rgba(248, 215, 218, 1)",
		Border:          "rgba(220, 53, 69, 1)",
		HoverBackground: "rgba(245, 198, 203, 1)",
		HoverBorder:     "rgba(200, 35, 51, 1)",
		Label:           "错误",
		LabelEN:         "Wrong",
	},
	Unclear: {
		Tag:             "unclear",
		ClassName:       "highlight-unclear",
		Background:      "rgba(255, 243, 205, 1)",
		Border:          "rgba(255, 193, 7, 1)",
		HoverBackground: "rgba(255, 234, 167, 1)",
		HoverBorder:     "rgba(224, 168, 0, 1)",
		Label:           "模糊",
		LabelEN:         "Unclear",
	},
	Redundant: {
		Tag:             "redundant",
		ClassName:       "highlight-redundant",
		Background:      "rgba(209, 236, 241, 1)",
		Border:          "rgba(23, 162, 184, 1)",
		HoverBackground: "rgba(190, 229, 235, 1)",
		HoverBorder:     "rgba(19, 132, 150, 1)",
		Label:           "冗余",
		LabelEN:         "Redundant",
	},
}

// Categories returns every category in registry order.
func Categories() []Category {
	return []Category{Correct, Wrong, Unclear, Redundant}
}

// Valid reports whether c has a registry entry.
func (c Category) Valid() bool {
	return c >= 0 && c < categoryCount
}

// Style returns the rendering attributes of c. It panics on an invalid category;
// use Lookup when the value did not come from ParseCategory.
func (c Category) Style() Style {
	s, err := Lookup(c)
	if err != nil {
		panic(err)
	}
	return s
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return registry[c].Tag
}

// MarshalText encodes the category as its tag.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return []byte(registry[c].Tag), nil
}

// UnmarshalText decodes a category tag.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Lookup returns the registry entry for c.
func Lookup(c Category) (Style, error) {
	if !c.Valid() {
		return Style{}, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return registry[c], nil
}

// ParseCategory maps a tag such as "correct" to its Category. Matching is exact.
func ParseCategory(tag string) (Category, error) {
	for i := range registry {
		if registry[i].Tag == tag {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, tag)
}

func categoryFromClass(class string) (Category, bool) {
	for _, field := range strings.Fields(class) {
		for i := range registry {
			if registry[i].ClassName == field {
				return Category(i), true
			}
		}
	}
	return 0, false
}
