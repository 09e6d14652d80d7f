package highlight

import (
	"strconv"
	"strings"
)

// Hover colors travel as CSS custom properties on each region; the rules in
// Stylesheet apply them on :hover.
const (
	hoverBackgroundVar = "--hl-hover-bg"
	hoverBorderVar     = "--hl-hover-border"
)

func inlineStyle(st Style, zIndex int) string {
	var b strings.Builder
	b.WriteString("background-color: ")
	b.WriteString(st.Background)
	b.WriteString("; border-left: 3px solid ")
	b.WriteString(st.Border)
	b.WriteString("; padding: 2px 4px; border-radius: 3px; cursor: pointer; margin: 0 1px; position: relative; z-index: ")
	b.WriteString(strconv.Itoa(zIndex))
	b.WriteString("; transition: all 0.2s ease; ")
	b.WriteString(hoverBackgroundVar)
	b.WriteString(": ")
	b.WriteString(st.HoverBackground)
	b.WriteString("; ")
	b.WriteString(hoverBorderVar)
	b.WriteString(": ")
	b.WriteString(st.HoverBorder)
	b.WriteString(";")
	return b.String()
}

// Stylesheet returns the CSS that gives rendered regions their hover behavior
// and a legend swatch per category.
func Stylesheet() string {
	var b strings.Builder
	b.WriteString(".")
	b.WriteString(MarkerClass)
	b.WriteString(":hover {\n")
	b.WriteString("  background-color: var(" + hoverBackgroundVar + ") !important;\n")
	b.WriteString("  border-left-color: var(" + hoverBorderVar + ") !important;\n")
	b.WriteString("  transform: translateY(-1px);\n")
	b.WriteString("  box-shadow: 0 2px 8px rgba(0, 0, 0, 0.15);\n")
	b.WriteString("}\n")
	for _, c := range Categories() {
		st := registry[c]
		b.WriteString(".legend ." + st.ClassName + " {\n")
		b.WriteString("  background-color: " + st.Background + ";\n")
		b.WriteString("  border-left: 3px solid " + st.Border + ";\n")
		b.WriteString("}\n")
	}
	return b.String()
}
