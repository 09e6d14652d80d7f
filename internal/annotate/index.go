package annotate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/solardome/answer-highlight/internal/highlight"
	"github.com/solardome/answer-highlight/internal/report"
)

const indexCSS = `
.summary { display: flex; flex-wrap: wrap; gap: 12px; }
.summary div { min-width: 120px; padding: 8px 12px; border: 1px solid var(--line); border-radius: 8px; }
.summary strong { display: block; font-size: 20px; }
.trace-item { border-left: 3px solid var(--line); padding: 4px 10px; margin: 6px 0; }
.trace-ok { border-left-color: rgba(40, 167, 69, 1); }
.trace-warn { border-left-color: rgba(255, 193, 7, 1); }
.trace-error { border-left-color: rgba(220, 53, 69, 1); }
.trace-detail pre { margin: 4px 0; white-space: pre-wrap; }
`

func writeIndexHTML(path, title string, rep Report) error {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html lang=\"zh-CN\"><head><meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width,initial-scale=1\">")
	fmt.Fprintf(&b, "<title>%s</title>", esc(title))
	b.WriteString("<style>")
	b.WriteString(pageCSS)
	b.WriteString(indexCSS)
	b.WriteString(highlight.Stylesheet())
	b.WriteString("</style></head><body><main>")
	fmt.Fprintf(&b, `<header><h1>%s</h1><div class="meta">Generated %s · run <span class="mono">%s</span></div></header>`,
		esc(title), esc(rep.GeneratedAt), esc(rep.RunID))

	s := rep.Summary
	b.WriteString(`<section><h2>Summary</h2><div class="summary">`)
	for _, kv := range []struct {
		label string
		n     int
	}{
		{"Students", s.Students},
		{"Questions", s.Questions},
		{"Answers", s.Answers},
		{"Graded", s.Graded},
		{"Highlights", s.Occurrences},
		{"Unmatched excerpts", s.Unmatched},
		{"Flagged gradings", s.Flagged},
	} {
		fmt.Fprintf(&b, `<div><strong>%d</strong>%s</div>`, kv.n, esc(kv.label))
	}
	b.WriteString(`</div></section>`)

	b.WriteString(`<section><h2>Answers</h2>`)
	b.WriteString(legendHTML())
	b.WriteString(`<table><thead><tr><th>Student</th><th>Question</th><th>Score</th>`)
	for _, c := range highlight.Categories() {
		fmt.Fprintf(&b, `<th>%s</th>`, esc(c.Style().Label))
	}
	b.WriteString(`<th>Unmatched</th><th>Checks</th></tr></thead><tbody>`)
	for _, a := range rep.Answers {
		score := "–"
		if !a.MissingGrading {
			score = highlight.FormatScore(a.TotalScore)
			if a.MaxScore > 0 {
				score += " / " + highlight.FormatScore(a.MaxScore)
			}
		}
		fmt.Fprintf(&b, `<tr><td><a href="%s">%d</a></td><td title="%s">%d</td><td class="num">%s</td>`,
			esc(a.HTMLPath), a.StudentID, esc(a.Question), a.QuestionID, esc(score))
		for _, c := range highlight.Categories() {
			fmt.Fprintf(&b, `<td class="num">%d</td>`, a.ByCategory[c.String()])
		}
		codes := make([]string, 0, len(a.Checks))
		for _, c := range a.Checks {
			codes = append(codes, c.Code)
		}
		fmt.Fprintf(&b, `<td class="num">%d</td><td class="mono">%s</td></tr>`, len(a.Unmatched), esc(strings.Join(codes, " ")))
	}
	b.WriteString(`</tbody></table></section>`)

	b.WriteString(`<section><h2>Run trace</h2>`)
	for _, t := range rep.Trace {
		tone := traceTone(t)
		fmt.Fprintf(&b, `<div class="trace-item %s"><strong>%d. %s</strong> <span class="mono">%s</span>%s</div>`,
			tone, t.Order, esc(strings.ReplaceAll(t.Phase, "_", " ")), traceLabel(tone), renderTraceDetails(t.Details))
	}
	b.WriteString(`</section>`)

	b.WriteString(`<section><h2>Inputs</h2><table><thead><tr><th>Kind</th><th>Path</th><th>SHA-256</th></tr></thead><tbody>`)
	for _, in := range rep.Inputs {
		fmt.Fprintf(&b, `<tr><td>%s</td><td class="mono">%s</td><td class="mono">%s</td></tr>`, esc(in.Kind), esc(in.Path), esc(in.SHA256))
	}
	b.WriteString(`</tbody></table></section>`)
	b.WriteString("</main></body></html>\n")
	return report.WriteFile(path, []byte(b.String()))
}

func traceTone(t TraceEntry) string {
	text := strings.ToLower(t.Result + " " + t.Phase)
	switch {
	case strings.Contains(text, "error"), strings.Contains(text, "failed"):
		return "trace-error"
	case strings.Contains(text, "warn"):
		return "trace-warn"
	case strings.Contains(text, "ok"):
		return "trace-ok"
	default:
		return "trace-warn"
	}
}

func traceLabel(tone string) string {
	switch tone {
	case "trace-ok":
		return "OK"
	case "trace-error":
		return "ERROR"
	default:
		return "WARN"
	}
}

func renderTraceDetails(details map[string]interface{}) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(`<div class="trace-meta">`)
	for _, k := range keys {
		v := fmt.Sprintf("%v", details[k])
		fmt.Fprintf(&b, `<details class="trace-detail"><summary><span class="mono">%s</span></summary><pre class="mono">%s</pre></details>`, esc(k), esc(v))
	}
	b.WriteString(`</div>`)
	return b.String()
}
