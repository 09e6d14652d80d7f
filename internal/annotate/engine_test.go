package annotate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/solardome/answer-highlight/internal/exam"
	"github.com/solardome/answer-highlight/internal/highlight"
	"github.com/solardome/answer-highlight/internal/report"
)

const (
	paperFixture     = `{"questions":[{"question_id":1,"question":"Where is ATP made?","score":10}]}`
	referenceFixture = `{"answers":[{"question_id":1,"answer":"In the mitochondria."}]}`
	studentsFixture  = `[
  {"student_id": 2, "question_id": 1, "answer": "In the nucleus & cytoplasm"},
  {"student_id": 1, "question_id": 1, "answer": "The mitochondria produce ATP. ATP is energy."}
]`
	gradingFixture = `[{
  "student_id": 1,
  "question_id": 1,
  "answer": {
    "correct": [
      {"Student answer": "mitochondria", "Scoring point": 5, "reason": "right organelle"},
      {"Student answer": "ATP", "Scoring point": 2, "reason": "names the product"}
    ],
    "wrong": [{"Student answer": "nucleus", "Scoring point": 0, "reason": "not this one"}],
    "unclear": [{"Student answer": "energy", "Scoring point": 0, "reason": "vague"}]
  },
  "total_score": 7
}]`
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
}

func baseConfig(t *testing.T) Config {
	t.Helper()
	in := t.TempDir()
	return Config{
		PaperPath:     writeFixture(t, in, "paper.json", paperFixture),
		ReferencePath: writeFixture(t, in, "reference.json", referenceFixture),
		StudentsPath:  writeFixture(t, in, "students.json", studentsFixture),
		GradingPath:   writeFixture(t, in, "grading.json", gradingFixture),
		OutDir:        filepath.Join(t.TempDir(), "out"),
		Title:         "Biology quiz",
		WriteHTML:     true,
		Concurrency:   2,
		Now:           fixedNow,
	}
}

func TestRunWritesReportPagesAndChecksums(t *testing.T) {
	cfg := baseConfig(t)
	rep, err := Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	if rep.GeneratedAt != "2024-05-01T08:00:00Z" {
		t.Fatalf("unexpected generated_at %q", rep.GeneratedAt)
	}
	if len(rep.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(rep.Answers))
	}
	first, second := rep.Answers[0], rep.Answers[1]
	if first.StudentID != 1 || second.StudentID != 2 {
		t.Fatalf("answers not sorted by student: %+v", rep.Answers)
	}
	if first.Occurrences != 4 || first.TotalScore != 7 || first.MaxScore != 10 {
		t.Fatalf("unexpected first answer: %+v", first)
	}
	if first.ByCategory["correct"] != 3 || first.ByCategory["unclear"] != 1 || first.ByCategory["wrong"] != 0 {
		t.Fatalf("unexpected category counts: %v", first.ByCategory)
	}
	if len(first.Unmatched) != 1 || first.Unmatched[0] != "wrong: nucleus" {
		t.Fatalf("unexpected unmatched excerpts: %v", first.Unmatched)
	}
	if first.CitedPoints != 7 || len(first.Checks) != 0 {
		t.Fatalf("unexpected grading checks: %+v", first.Checks)
	}
	if !second.MissingGrading || second.Occurrences != 0 {
		t.Fatalf("expected missing grading for student 2: %+v", second)
	}
	if rep.Summary.Graded != 1 || rep.Summary.Occurrences != 4 || rep.Summary.Unmatched != 1 {
		t.Fatalf("unexpected summary: %+v", rep.Summary)
	}

	raw, err := os.ReadFile(filepath.Join(cfg.OutDir, "report.json"))
	if err != nil {
		t.Fatal(err)
	}
	var decoded Report
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("report.json is not valid json: %v", err)
	}
	if decoded.RunID != rep.RunID || len(decoded.Inputs) != 4 {
		t.Fatalf("report.json does not match returned report: %+v", decoded)
	}

	sums, err := os.ReadFile(report.DefaultChecksumsPath(cfg.OutDir))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"  answers/s1_q1.html", "  answers/s2_q1.html", "  index.html", "  report.json"} {
		if !strings.Contains(string(sums), want) {
			t.Fatalf("checksums missing %q:\n%s", want, sums)
		}
	}
	if _, err := os.Stat(report.DefaultRunLogPath(cfg.OutDir)); err != nil {
		t.Fatalf("run log not written: %v", err)
	}
}

func TestRunAnswerPageCarriesRecoverableRegions(t *testing.T) {
	cfg := baseConfig(t)
	if _, err := Run(context.Background(), cfg, nil); err != nil {
		t.Fatal(err)
	}
	page, err := os.ReadFile(filepath.Join(cfg.OutDir, "answers", "s1_q1.html"))
	if err != nil {
		t.Fatal(err)
	}
	doc := string(page)
	for _, want := range []string{
		"<title>Biology quiz · student 1 · question 1</title>",
		".text-highlight:hover",
		"Where is ATP made?",
		"In the mitochondria.",
		`<tr class="not-found"><td>错误</td><td>nucleus</td>`,
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("answer page missing %q", want)
		}
	}
	spans, err := highlight.ExtractAll(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 4 {
		t.Fatalf("expected 4 recoverable regions, got %d", len(spans))
	}
	if spans[0].Text != "mitochondria" || spans[0].ScoreWeight != 5 || spans[0].Order != 0 {
		t.Fatalf("unexpected first region: %+v", spans[0])
	}

	ungraded, err := os.ReadFile(filepath.Join(cfg.OutDir, "answers", "s2_q1.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(ungraded), "In the nucleus &amp; cytoplasm") || !strings.Contains(string(ungraded), "No grading result") {
		t.Fatalf("ungraded page should show escaped answer")
	}
}

func TestRunIDStableForSameInputs(t *testing.T) {
	cfg := baseConfig(t)
	a, err := Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg.OutDir = filepath.Join(t.TempDir(), "again")
	cfg.Now = func() time.Time { return fixedNow().Add(time.Hour) }
	b, err := Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.RunID != b.RunID {
		t.Fatalf("run id changed between identical runs: %s vs %s", a.RunID, b.RunID)
	}
}

func TestRunSingleAnswerFragment(t *testing.T) {
	in := t.TempDir()
	content := "Plants <3 light"
	cfg := Config{
		AnswerPath:   writeFixture(t, in, "answer.txt", content),
		StudentID:    5,
		QuestionID:   3,
		GradingPath:  writeFixture(t, in, "grading.json", `{"student_id":5,"question_id":3,"answer":{"correct":[{"Student answer":"light","Scoring point":1,"reason":"ok"}]}}`),
		OutDir:       filepath.Join(t.TempDir(), "out"),
		WriteHTML:    true,
		FragmentOnly: true,
		Now:          fixedNow,
	}
	rep, err := Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Answers) != 1 || rep.Answers[0].HTMLPath != "answers/s5_q3.html" {
		t.Fatalf("unexpected answers: %+v", rep.Answers)
	}
	got, err := os.ReadFile(filepath.Join(cfg.OutDir, "answers", "s5_q3.html"))
	if err != nil {
		t.Fatal(err)
	}
	a := highlight.Annotation{StudentID: 5, QuestionID: 3}
	a.Add(highlight.Excerpt{Text: "light", Category: highlight.Correct, Justification: "ok", ScoreWeight: 1})
	want, err := highlight.Render(content, &a)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != want {
		t.Fatalf("fragment mismatch:\n got %s\nwant %s", got, want)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutDir, IndexFileName)); !os.IsNotExist(err) {
		t.Fatalf("fragment mode should not write an index page")
	}
}

func TestRunWithoutHTMLWritesOnlyReport(t *testing.T) {
	cfg := baseConfig(t)
	cfg.WriteHTML = false
	if _, err := Run(context.Background(), cfg, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutDir, AnswersDirName)); !os.IsNotExist(err) {
		t.Fatalf("answers dir should not exist without html output")
	}
	sums, err := os.ReadFile(report.DefaultChecksumsPath(cfg.OutDir))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(sums)) == "" || strings.Count(string(sums), "\n") != 1 {
		t.Fatalf("expected a single checksum line, got:\n%s", sums)
	}
	raw, err := os.ReadFile(report.DefaultReportPath(cfg.OutDir))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "html_path") {
		t.Fatalf("report must not point at pages that were not written:\n%s", raw)
	}
}

func TestRunRejectsUnknownCategory(t *testing.T) {
	cfg := baseConfig(t)
	cfg.GradingPath = writeFixture(t, t.TempDir(), "grading.json",
		`{"student_id":1,"question_id":1,"answer":{"partial":[{"Student answer":"ATP"}]}}`)
	_, err := Run(context.Background(), cfg, nil)
	if !errors.Is(err, highlight.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if _, statErr := os.Stat(report.DefaultReportPath(cfg.OutDir)); !os.IsNotExist(statErr) {
		t.Fatalf("report must not be written on load failure")
	}
}

func TestRunRequiredInputs(t *testing.T) {
	cases := map[string]func(*Config){
		"grading":   func(c *Config) { c.GradingPath = "" },
		"answers":   func(c *Config) { c.StudentsPath = "" },
		"exclusive": func(c *Config) { c.AnswerPath = "answer.txt" },
		"ids":       func(c *Config) { c.StudentsPath = ""; c.AnswerPath = "answer.txt" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := baseConfig(t)
			mutate(&cfg)
			if _, err := Run(context.Background(), cfg, nil); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestRunHonorsCanceledContext(t *testing.T) {
	cfg := baseConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, cfg, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoadRecordsCoverageWarnings(t *testing.T) {
	cfg := baseConfig(t)
	cfg.GradingPath = writeFixture(t, t.TempDir(), "grading.json",
		`[{"student_id":1,"question_id":1,"answer":{}},{"student_id":9,"question_id":1,"answer":{}}]`)
	state, err := Load(cfg)
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(state.Warnings, "\n")
	for _, want := range []string{
		"student 2 question 1: no grading result",
		"student 9 question 1: grading result has no answer",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing warning %q in:\n%s", want, joined)
		}
	}
	if len(state.Trace) != 1 || state.Trace[0].Result != "validation_warn" {
		t.Fatalf("unexpected trace: %+v", state.Trace)
	}
}

func TestLoadWarnsOnDuplicateGrading(t *testing.T) {
	cfg := baseConfig(t)
	cfg.GradingPath = writeFixture(t, t.TempDir(), "grading.json",
		`[{"student_id":1,"question_id":1,"answer":{},"total_score":3},{"student_id":1,"question_id":1,"answer":{},"total_score":8}]`)
	state, err := Load(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(strings.Join(state.Warnings, "\n"), "student 1 question 1: duplicate grading result") {
		t.Fatalf("missing duplicate warning in %v", state.Warnings)
	}
	if got := state.Dataset.GradingCount(); got != 1 {
		t.Fatalf("expected 1 grading after upsert, got %d", got)
	}
	g, ok := state.Dataset.Grading(exam.Key{StudentID: 1, QuestionID: 1})
	if !ok || g.TotalScore != 8 {
		t.Fatalf("expected the later grading to win, got %+v", g)
	}
}
