package highlight

import (
	"sort"
	"strconv"
	"strings"
)

// MarkerClass marks every rendered region; Extract keys on it.
const MarkerClass = "text-highlight"

const sentinelPrefix = "HL"

// Options tunes a Renderer.
type Options struct {
	// ZIndexCeiling is the layering value of render index 0. Zero means
	// DefaultZIndexCeiling.
	ZIndexCeiling int
}

// Renderer turns raw content plus an annotation into highlighted markup.
// A Renderer holds no per-call state and is safe for concurrent use.
type Renderer struct {
	ceiling int
}

// Result is the outcome of one render call.
type Result struct {
	HTML        string
	Occurrences []Occurrence
}

func NewRenderer(opts Options) *Renderer {
	ceiling := opts.ZIndexCeiling
	if ceiling == 0 {
		ceiling = DefaultZIndexCeiling
	}
	return &Renderer{ceiling: ceiling}
}

var defaultRenderer = NewRenderer(Options{})

// Render highlights content with the default options. A nil annotation yields
// Escape(content); empty content yields "".
func Render(content string, a *Annotation) (string, error) {
	return defaultRenderer.Render(content, a)
}

func (r *Renderer) Render(content string, a *Annotation) (string, error) {
	res, err := r.RenderResult(content, a)
	if err != nil {
		return "", err
	}
	return res.HTML, nil
}

// RenderResult is Render that also returns the occurrences in render order.
func (r *Renderer) RenderResult(content string, a *Annotation) (Result, error) {
	if content == "" {
		return Result{}, nil
	}
	if a == nil {
		return Result{HTML: Escape(content)}, nil
	}
	found, err := Locate(content, a)
	if err != nil {
		return Result{}, err
	}
	occs := Order(found)
	if len(occs) == 0 {
		return Result{HTML: Escape(content)}, nil
	}

	prefix := uniquePrefix(content)
	marked := mark(content, occs, prefix)
	escaped := Escape(marked)

	pairs := make([]string, 0, len(occs)*4)
	for i, o := range occs {
		start, end := sentinels(prefix, i)
		pairs = append(pairs, start, r.openTag(o, i), end, "</span>")
	}
	return Result{
		HTML:        strings.NewReplacer(pairs...).Replace(escaped),
		Occurrences: occs,
	}, nil
}

// uniquePrefix picks a sentinel prefix that never appears in content. Escaping
// only introduces lowercase entity names, digits, '#', '&' and ';', so a prefix
// absent from the raw content is also absent from its escaped form.
func uniquePrefix(content string) string {
	p := sentinelPrefix
	for strings.Contains(content, p) {
		p += "X"
	}
	return p
}

func sentinels(prefix string, i int) (string, string) {
	id := prefix + "_" + strconv.Itoa(i) + "_"
	return id + "START", id + "END"
}

type insertion struct {
	pos   int
	end   bool
	index int
}

// mark splices the START/END sentinel of every occurrence around its located
// bytes. At one position closing sentinels come first, latest region first, so
// regions sharing a start nest with the earlier-ordered one outside.
func mark(content string, occs []Occurrence, prefix string) string {
	ins := make([]insertion, 0, len(occs)*2)
	for i, o := range occs {
		ins = append(ins,
			insertion{pos: o.byteStart, index: i},
			insertion{pos: o.byteEnd, end: true, index: i},
		)
	}
	sort.Slice(ins, func(i, j int) bool {
		a, b := ins[i], ins[j]
		if a.pos != b.pos {
			return a.pos < b.pos
		}
		if a.end != b.end {
			return a.end
		}
		if a.end {
			return a.index > b.index
		}
		return a.index < b.index
	})

	var b strings.Builder
	b.Grow(len(content) + len(ins)*(len(prefix)+12))
	last := 0
	for _, in := range ins {
		b.WriteString(content[last:in.pos])
		last = in.pos
		start, end := sentinels(prefix, in.index)
		if in.end {
			b.WriteString(end)
		} else {
			b.WriteString(start)
		}
	}
	b.WriteString(content[last:])
	return b.String()
}

func (r *Renderer) openTag(o Occurrence, i int) string {
	st := registry[o.Category]
	var b strings.Builder
	b.WriteString(`<span class="`)
	b.WriteString(MarkerClass)
	b.WriteByte(' ')
	b.WriteString(st.ClassName)
	b.WriteString(`" data-type="`)
	b.WriteString(st.Tag)
	b.WriteString(`" data-text="`)
	b.WriteString(escapeAttr(o.Text))
	b.WriteString(`" data-reason="`)
	b.WriteString(escapeAttr(o.Justification))
	b.WriteString(`" data-scoring-point="`)
	b.WriteString(FormatScore(o.ScoreWeight))
	b.WriteString(`" data-order="`)
	b.WriteString(strconv.Itoa(i))
	b.WriteString(`" style="`)
	b.WriteString(inlineStyle(st, ZIndex(r.ceiling, i)))
	b.WriteString(`" title="`)
	b.WriteString(escapeAttr("【" + st.Label + "】" + o.Justification))
	b.WriteString(`">`)
	return b.String()
}

// FormatScore renders a score weight in its shortest decimal form.
func FormatScore(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}
