package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solardome/answer-highlight/internal/config"
)

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func singleAnswerInputs(t *testing.T) (answer, grading string) {
	t.Helper()
	dir := t.TempDir()
	answer = writeInput(t, dir, "answer.txt", "The mitochondria make ATP from glucose.")
	grading = writeInput(t, dir, "grading.json", `{
  "student_id": 3,
  "question_id": 1,
  "answer": {
    "correct": [{"Student answer": "mitochondria", "Scoring point": 4, "reason": "organelle"}],
    "redundant": [{"Student answer": "from glucose", "Scoring point": 0, "reason": "not asked"}]
  },
  "total_score": 4
}`)
	return answer, grading
}

func TestRenderThenExtract(t *testing.T) {
	answer, grading := singleAnswerInputs(t)
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := execute(t, "render", "--answer", answer, "--student", "3", "--question", "1",
		"--grading", grading, "--out-dir", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "answers=1 graded=1 occurrences=2 unmatched=0")
	assert.Contains(t, out, "report="+filepath.Join(outDir, "report.json"))

	page := filepath.Join(outDir, "answers", "s3_q1.html")
	require.FileExists(t, page)
	require.FileExists(t, filepath.Join(outDir, "checksums.sha256"))

	out, err = execute(t, "extract", page)
	require.NoError(t, err)
	var spans []struct {
		Category    string  `json:"category"`
		Text        string  `json:"text"`
		ScoreWeight float64 `json:"score_weight"`
		Order       int     `json:"order"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &spans))
	require.Len(t, spans, 2)
	assert.Equal(t, "correct", spans[0].Category)
	assert.Equal(t, "mitochondria", spans[0].Text)
	assert.Equal(t, 4.0, spans[0].ScoreWeight)
	assert.Equal(t, "redundant", spans[1].Category)
	assert.Equal(t, 1, spans[1].Order)
}

func TestExtractPlainFilePrintsEmptyList(t *testing.T) {
	p := writeInput(t, t.TempDir(), "plain.html", "<p>nothing here</p>")
	out, err := execute(t, "extract", p)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestRenderRequiresGrading(t *testing.T) {
	answer, _ := singleAnswerInputs(t)
	_, err := execute(t, "render", "--answer", answer, "--student", "3", "--question", "1",
		"--out-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--grading is required")
}

func TestValidateReportsWarnings(t *testing.T) {
	dir := t.TempDir()
	students := writeInput(t, dir, "students.json", `[{"student_id":1,"question_id":1,"answer":"x"},{"student_id":2,"question_id":1,"answer":"y"}]`)
	grading := writeInput(t, dir, "grading.json", `{"student_id":1,"question_id":1,"answer":{}}`)

	out, err := execute(t, "validate", "--students", students, "--grading", grading)
	require.NoError(t, err)
	assert.Contains(t, out, "warning: student 2 question 1: no grading result")
	assert.Contains(t, out, "inputs=2 questions=0 answers=2 gradings=1 warnings=1 complete=false")
}

func TestResolveConfigPrecedence(t *testing.T) {
	cfgPath := writeInput(t, t.TempDir(), "config.yaml", `render:
  title: From file
  z_index_ceiling: 40
run:
  concurrency: 3
  out_dir: file-out
`)
	cmd := newRenderCmd(&app{logger: zap.NewNop()})
	require.NoError(t, cmd.ParseFlags([]string{"--title", "From flag", "--no-html"}))

	opts := &renderOptions{configPath: cfgPath, title: "From flag", noHTML: true}
	env := map[string]string{config.EnvOutDir: "env-out", config.EnvConcurrency: "6"}
	cfg, err := resolveConfig(cmd, opts, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.NoError(t, err)
	assert.Equal(t, "From flag", cfg.Render.Title)
	assert.Equal(t, 40, cfg.Render.ZIndexCeiling)
	assert.Equal(t, "env-out", cfg.Run.OutDir)
	assert.Equal(t, 6, cfg.Run.Concurrency)
	assert.False(t, cfg.Render.WriteHTML)
}
