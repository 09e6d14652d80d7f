package annotate

import (
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"github.com/solardome/answer-highlight/internal/highlight"
	"github.com/solardome/answer-highlight/internal/report"
)

const pageCSS = `
:root {
  --bg: #f6f7fb;
  --panel: #ffffff;
  --ink: #1d2433;
  --muted: #5d6b82;
  --line: #dde3ee;
  --brand: #2f5bd3;
}
* { box-sizing: border-box; }
body {
  margin: 0;
  font: 15px/1.6 -apple-system, "Segoe UI", "PingFang SC", "Microsoft YaHei", sans-serif;
  color: var(--ink);
  background: var(--bg);
}
main { max-width: 960px; margin: 0 auto; padding: 24px 20px 48px; }
header h1 { margin: 0 0 4px; font-size: 22px; }
header .meta { color: var(--muted); font-size: 13px; }
section {
  background: var(--panel);
  border: 1px solid var(--line);
  border-radius: 10px;
  padding: 16px 18px;
  margin-top: 16px;
}
section h2 { margin: 0 0 10px; font-size: 16px; }
.score { font-weight: 600; color: var(--brand); }
.answer-content { white-space: pre-wrap; word-break: break-word; font-size: 16px; line-height: 2; }
.legend span { display: inline-block; margin: 0 8px 6px 0; padding: 2px 8px; border-radius: 4px; font-size: 13px; }
.missing { color: var(--muted); font-style: italic; }
table { width: 100%; border-collapse: collapse; font-size: 14px; }
th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid var(--line); vertical-align: top; }
th { color: var(--muted); font-weight: 600; }
td.num { text-align: right; font-variant-numeric: tabular-nums; }
tr.not-found td { color: var(--muted); }
.mono { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 12px; }
details summary { cursor: pointer; color: var(--muted); }
`

// writePages writes one file per answer under cfg.OutDir and returns the
// written paths in view order.
func writePages(cfg Config, views []answerView) ([]string, error) {
	written := make([]string, 0, len(views))
	for _, v := range views {
		p := filepath.Join(cfg.OutDir, filepath.FromSlash(v.Result.HTMLPath))
		content := v.Markup
		if !cfg.FragmentOnly {
			content = answerPageHTML(cfg.Title, v)
		}
		if err := report.WriteFile(p, []byte(content)); err != nil {
			return written, fmt.Errorf("write answer page %s: %w", p, err)
		}
		written = append(written, p)
	}
	return written, nil
}

func answerPageHTML(title string, v answerView) string {
	r := v.Result
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html lang=\"zh-CN\"><head><meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width,initial-scale=1\">")
	fmt.Fprintf(&b, "<title>%s · student %d · question %d</title>", esc(title), r.StudentID, r.QuestionID)
	b.WriteString("<style>")
	b.WriteString(pageCSS)
	b.WriteString(highlight.Stylesheet())
	b.WriteString("</style></head><body><main>")

	fmt.Fprintf(&b, `<header><h1>%s</h1><div class="meta">Student %d · Question %d</div></header>`, esc(title), r.StudentID, r.QuestionID)

	b.WriteString(`<section class="question"><h2>Question</h2>`)
	if v.Question != nil {
		fmt.Fprintf(&b, `<p>%s</p><div class="meta">Full marks: <span class="score">%s</span></div>`, esc(v.Question.Text), highlight.FormatScore(v.Question.Score))
	} else {
		b.WriteString(`<p class="missing">Question text not available.</p>`)
	}
	if v.Reference != "" {
		fmt.Fprintf(&b, `<details><summary>Reference answer</summary><p>%s</p></details>`, esc(v.Reference))
	}
	b.WriteString(`</section>`)

	b.WriteString(`<section class="answer"><h2>Student answer</h2>`)
	b.WriteString(legendHTML())
	if r.MissingGrading {
		b.WriteString(`<p class="missing">No grading result for this answer.</p>`)
	} else {
		fmt.Fprintf(&b, `<div class="meta">Score: <span class="score">%s</span></div>`, highlight.FormatScore(r.TotalScore))
	}
	b.WriteString(`<div class="answer-content">`)
	b.WriteString(v.Markup)
	b.WriteString(`</div></section>`)

	if len(r.Checks) > 0 {
		b.WriteString(`<section class="checks"><h2>Grading checks</h2><ul>`)
		for _, c := range r.Checks {
			fmt.Fprintf(&b, `<li><span class="mono">%s</span> %s</li>`, esc(c.Code), esc(c.Detail))
		}
		b.WriteString(`</ul></section>`)
	}
	if v.Annotation != nil && v.Annotation.ExcerptCount() > 0 {
		b.WriteString(`<section class="excerpts"><h2>Scoring points</h2>`)
		b.WriteString(excerptTableHTML(v))
		b.WriteString(`</section>`)
	}
	b.WriteString("</main></body></html>\n")
	return b.String()
}

func legendHTML() string {
	var b strings.Builder
	b.WriteString(`<div class="legend">`)
	for _, c := range highlight.Categories() {
		st := c.Style()
		fmt.Fprintf(&b, `<span class="%s">%s %s</span>`, st.ClassName, esc(st.Label), esc(st.LabelEN))
	}
	b.WriteString(`</div>`)
	return b.String()
}

// excerptTableHTML lists every excerpt with how often it was found. Excerpts
// with no match are kept so a grader can spot paraphrased citations.
func excerptTableHTML(v answerView) string {
	found := map[string]int{}
	for _, o := range v.Found {
		found[o.Category.String()+"\x00"+o.Text]++
	}
	var b strings.Builder
	b.WriteString(`<table><thead><tr><th>Category</th><th>Excerpt</th><th>Reason</th><th>Points</th><th>Found</th></tr></thead><tbody>`)
	for _, c := range highlight.Categories() {
		st := c.Style()
		for _, e := range v.Annotation.Excerpts[c] {
			n := found[c.String()+"\x00"+e.Text]
			row := ""
			if n == 0 {
				row = ` class="not-found"`
			}
			fmt.Fprintf(&b, `<tr%s><td>%s</td><td>%s</td><td>%s</td><td class="num">%s</td><td class="num">%d</td></tr>`,
				row, esc(st.Label), esc(e.Text), esc(e.Justification), highlight.FormatScore(e.ScoreWeight), n)
		}
	}
	b.WriteString(`</tbody></table>`)
	return b.String()
}

func esc(s string) string {
	return html.EscapeString(s)
}
