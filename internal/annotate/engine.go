package annotate

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/solardome/answer-highlight/internal/exam"
	"github.com/solardome/answer-highlight/internal/highlight"
	"github.com/solardome/answer-highlight/internal/ingest"
	"github.com/solardome/answer-highlight/internal/report"
	"github.com/solardome/answer-highlight/internal/scoring"
)

const (
	AnswersDirName = "answers"
	IndexFileName  = "index.html"
)

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.OutDir) == "" {
		cfg.OutDir = "out"
	}
	if strings.TrimSpace(cfg.ReportPath) == "" {
		cfg.ReportPath = report.DefaultReportPath(cfg.OutDir)
	}
	if strings.TrimSpace(cfg.ChecksumsPath) == "" {
		cfg.ChecksumsPath = report.DefaultChecksumsPath(cfg.OutDir)
	}
	if strings.TrimSpace(cfg.RunLogPath) == "" {
		cfg.RunLogPath = report.DefaultRunLogPath(cfg.OutDir)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if strings.TrimSpace(cfg.Title) == "" {
		cfg.Title = "Graded answers"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
}

// Run loads the exam inputs, renders every graded answer and writes the
// answer pages, report.json, the checksum file and the run log.
func Run(ctx context.Context, cfg Config, logger *zap.Logger) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	applyDefaults(&cfg)

	log, logErr := report.NewAuditLogger(cfg.RunLogPath, logger)
	if logErr != nil {
		logger.Warn("run log unavailable", zap.String("path", cfg.RunLogPath), zap.Error(logErr))
	}
	defer log.Close()
	log.Info("run.start", map[string]interface{}{
		"paper":       cfg.PaperPath,
		"reference":   cfg.ReferencePath,
		"students":    cfg.StudentsPath,
		"answer":      cfg.AnswerPath,
		"grading":     cfg.GradingPath,
		"out_dir":     cfg.OutDir,
		"write_html":  cfg.WriteHTML,
		"fragment":    cfg.FragmentOnly,
		"concurrency": cfg.Concurrency,
	})

	state, err := Load(cfg)
	if err != nil {
		log.Warn("run.load_inputs.error", map[string]interface{}{"error": err.Error()})
		return Report{}, err
	}
	log.Info("run.load_inputs.ok", map[string]interface{}{
		"input_count": len(state.InputDigests),
		"answers":     state.Dataset.AnswerCount(),
		"gradings":    state.Dataset.GradingCount(),
		"warnings":    len(state.Warnings),
	})
	for _, w := range state.Warnings {
		logger.Debug("input warning", zap.String("warning", w))
	}

	views, err := renderAll(ctx, state.Dataset, cfg, logger)
	if err != nil {
		addTrace(state, "render", "error", map[string]interface{}{"error": err.Error()})
		log.Warn("run.render.error", map[string]interface{}{"error": err.Error()})
		return Report{}, err
	}

	rep := buildReport(state, views, cfg.Now().UTC())
	addTrace(state, "render", "ok", map[string]interface{}{
		"answers":     rep.Summary.Answers,
		"graded":      rep.Summary.Graded,
		"occurrences": rep.Summary.Occurrences,
		"unmatched":   rep.Summary.Unmatched,
		"flagged":     rep.Summary.Flagged,
	})

	artifactPaths := []string{}
	if cfg.WriteHTML {
		written, err := writePages(cfg, views)
		if err != nil {
			addTrace(state, "answer_pages", "error", map[string]interface{}{"error": err.Error()})
			log.Warn("run.answer_pages.error", map[string]interface{}{"error": err.Error()})
			return Report{}, err
		}
		artifactPaths = append(artifactPaths, written...)
		addTrace(state, "answer_pages", "ok", map[string]interface{}{"pages": len(written)})
	}
	addTrace(state, "report_json", "ok", map[string]interface{}{"path": cfg.ReportPath})
	rep.Trace = state.Trace

	if err := report.WriteJSON(cfg.ReportPath, rep); err != nil {
		log.Warn("run.report_json.error", map[string]interface{}{"error": err.Error()})
		return Report{}, err
	}
	artifactPaths = append(artifactPaths, cfg.ReportPath)

	if cfg.WriteHTML && !cfg.FragmentOnly {
		indexPath := filepath.Join(cfg.OutDir, IndexFileName)
		if err := writeIndexHTML(indexPath, cfg.Title, rep); err != nil {
			log.Warn("run.index_html.error", map[string]interface{}{"error": err.Error(), "path": indexPath})
		} else {
			artifactPaths = append(artifactPaths, indexPath)
		}
	}

	if err := report.WriteChecksums(cfg.ChecksumsPath, artifactPaths); err != nil {
		log.Warn("run.checksums.error", map[string]interface{}{"error": err.Error()})
		return Report{}, err
	}
	log.Info("run.complete", map[string]interface{}{
		"run_id":      rep.RunID,
		"answers":     rep.Summary.Answers,
		"graded":      rep.Summary.Graded,
		"occurrences": rep.Summary.Occurrences,
		"report_json": cfg.ReportPath,
		"checksums":   cfg.ChecksumsPath,
		"artifacts":   len(artifactPaths),
	})
	return rep, nil
}

// answerView is everything one answer page shows.
type answerView struct {
	Result     AnswerResult
	Question   *exam.Question
	Reference  string
	Answer     string
	Markup     string
	Annotation *highlight.Annotation
	Found      []highlight.Occurrence
}

// renderAll renders every answer concurrently. Views keep the order of
// Dataset.Pairs regardless of completion order.
func renderAll(ctx context.Context, ds *exam.Dataset, cfg Config, logger *zap.Logger) ([]answerView, error) {
	pairs := ds.Pairs()
	views := make([]answerView, len(pairs))
	r := highlight.NewRenderer(highlight.Options{ZIndexCeiling: cfg.ZIndexCeiling})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i, k := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := renderAnswer(r, ds, k)
			if err != nil {
				return fmt.Errorf("student %d question %d: %w", k.StudentID, k.QuestionID, err)
			}
			if cfg.WriteHTML {
				v.Result.HTMLPath = pagePath(k)
			}
			logger.Debug("answer rendered",
				zap.Int("student_id", k.StudentID),
				zap.Int("question_id", k.QuestionID),
				zap.Int("occurrences", v.Result.Occurrences))
			views[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

func renderAnswer(r *highlight.Renderer, ds *exam.Dataset, k exam.Key) (answerView, error) {
	sa, _ := ds.StudentAnswer(k)
	v := answerView{
		Answer: sa.Answer,
		Result: AnswerResult{
			StudentID:  k.StudentID,
			QuestionID: k.QuestionID,
			ByCategory: map[string]int{},
		},
	}
	for _, c := range highlight.Categories() {
		v.Result.ByCategory[c.String()] = 0
	}
	if q, ok := ds.Question(k.QuestionID); ok {
		v.Question = &q
		v.Result.Question = q.Text
		v.Result.MaxScore = q.Score
	}
	if ref, ok := ds.ReferenceAnswer(k.QuestionID); ok {
		v.Reference = ref.Answer
	}

	a, ok := ds.Grading(k)
	if !ok {
		v.Result.MissingGrading = true
		v.Markup = highlight.Escape(sa.Answer)
		return v, nil
	}
	res, err := r.RenderResult(sa.Answer, a)
	if err != nil {
		return answerView{}, err
	}
	v.Annotation = a
	v.Markup = res.HTML
	v.Found = res.Occurrences
	v.Result.TotalScore = a.TotalScore
	v.Result.Occurrences = len(res.Occurrences)
	for _, o := range res.Occurrences {
		v.Result.ByCategory[o.Category.String()]++
	}
	v.Result.Unmatched = unmatchedExcerpts(a, res.Occurrences)

	full := scoring.MaxScore{}
	if v.Question != nil {
		full = scoring.MaxScore{Value: v.Question.Score, Known: true}
	}
	tally := scoring.TallyAnnotation(a, full, res.Occurrences)
	v.Result.CitedPoints = tally.CitedPoints
	v.Result.Checks = tally.Checks
	return v, nil
}

// pagePath is the answer page location relative to the output directory.
func pagePath(k exam.Key) string {
	return AnswersDirName + "/" + fmt.Sprintf("s%d_q%d.html", k.StudentID, k.QuestionID)
}

// unmatchedExcerpts lists "<category>: <text>" for every excerpt that was
// not found in the answer, in registry then grader order.
func unmatchedExcerpts(a *highlight.Annotation, found []highlight.Occurrence) []string {
	type key struct {
		cat  highlight.Category
		text string
	}
	hit := map[key]bool{}
	for _, o := range found {
		hit[key{o.Category, o.Text}] = true
	}
	var out []string
	for _, c := range highlight.Categories() {
		for _, e := range a.Excerpts[c] {
			if !hit[key{c, e.Text}] {
				out = append(out, c.String()+": "+e.Text)
			}
		}
	}
	return out
}

func buildReport(state *EngineState, views []answerView, now time.Time) Report {
	rep := Report{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   now.Format(time.RFC3339),
		RunID:         stableRunID(state.InputDigests),
		Inputs:        append([]ingest.Digest{}, state.InputDigests...),
		Answers:       make([]AnswerResult, 0, len(views)),
	}
	rep.Summary.Students = state.Dataset.StudentCount()
	rep.Summary.Questions = state.Dataset.QuestionCount()
	for _, v := range views {
		rep.Answers = append(rep.Answers, v.Result)
		rep.Summary.Answers++
		if !v.Result.MissingGrading {
			rep.Summary.Graded++
		}
		rep.Summary.Occurrences += v.Result.Occurrences
		rep.Summary.Unmatched += len(v.Result.Unmatched)
		if len(v.Result.Checks) > 0 {
			rep.Summary.Flagged++
		}
	}
	return rep
}

// stableRunID derives a name-based UUID from the input digests, so the same
// inputs always yield the same id.
func stableRunID(inputs []ingest.Digest) string {
	parts := make([]string, 0, len(inputs))
	for _, in := range inputs {
		parts = append(parts, in.Kind+":"+in.Path+":"+in.SHA256)
	}
	sort.Strings(parts)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.Join(parts, "|"))).String()
}

func addTrace(state *EngineState, phase, result string, details map[string]interface{}) {
	state.Trace = append(state.Trace, TraceEntry{
		Order:   len(state.Trace) + 1,
		Phase:   phase,
		Result:  result,
		Details: details,
	})
}
