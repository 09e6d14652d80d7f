package annotate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/solardome/answer-highlight/internal/exam"
	"github.com/solardome/answer-highlight/internal/ingest"
)

// EngineState carries everything a run accumulates before output is written.
type EngineState struct {
	Dataset      *exam.Dataset
	InputDigests []ingest.Digest
	Warnings     []string
	Trace        []TraceEntry
}

// Load reads and validates every input named by cfg into a fresh dataset
// without rendering anything.
func Load(cfg Config) (*EngineState, error) {
	state := &EngineState{Dataset: exam.NewDataset()}
	if err := loadInputs(state, cfg); err != nil {
		return state, err
	}
	return state, nil
}

func loadInputs(state *EngineState, cfg Config) error {
	if strings.TrimSpace(cfg.GradingPath) == "" {
		return errors.New("--grading is required")
	}
	single := strings.TrimSpace(cfg.AnswerPath) != ""
	if single && strings.TrimSpace(cfg.StudentsPath) != "" {
		return errors.New("--answer and --students are mutually exclusive")
	}
	if !single && strings.TrimSpace(cfg.StudentsPath) == "" {
		return errors.New("either --students or --answer is required")
	}
	if single && (cfg.StudentID == 0 || cfg.QuestionID == 0) {
		return errors.New("--answer requires --student and --question")
	}

	if cfg.PaperPath != "" {
		if err := loadPaper(state, cfg.PaperPath); err != nil {
			return err
		}
	}
	if cfg.ReferencePath != "" {
		if err := loadReferences(state, cfg.ReferencePath); err != nil {
			return err
		}
	}
	if single {
		if err := loadAnswerText(state, cfg); err != nil {
			return err
		}
	} else if err := loadStudents(state, cfg.StudentsPath); err != nil {
		return err
	}
	if err := loadGradings(state, cfg.GradingPath); err != nil {
		return err
	}

	validateCoverage(state)
	addTrace(state, "input_validation", inputValidationTraceResult(state), map[string]interface{}{
		"input_count":   len(state.InputDigests),
		"questions":     state.Dataset.QuestionCount(),
		"references":    state.Dataset.ReferenceAnswerCount(),
		"answers":       state.Dataset.AnswerCount(),
		"gradings":      state.Dataset.GradingCount(),
		"warning_count": len(state.Warnings),
		"warnings":      append([]string{}, state.Warnings...),
	})
	return nil
}

func inputValidationTraceResult(state *EngineState) string {
	if len(state.Warnings) > 0 {
		return "validation_warn"
	}
	return "validation_ok"
}

func readInput(state *EngineState, kind, path string) ([]byte, error) {
	b, d, err := ingest.ReadFile(kind, path)
	state.InputDigests = append(state.InputDigests, d)
	if err != nil {
		return nil, fmt.Errorf("%s unreadable %s: %w", kind, path, err)
	}
	return b, nil
}

func loadPaper(state *EngineState, path string) error {
	b, err := readInput(state, "paper", path)
	if err != nil {
		return err
	}
	qs, err := ingest.ParsePaper(path, b)
	if err != nil {
		return fmt.Errorf("paper load failed: %w", err)
	}
	state.Dataset.SetQuestions(qs)
	return nil
}

func loadReferences(state *EngineState, path string) error {
	b, err := readInput(state, "reference_answers", path)
	if err != nil {
		return err
	}
	refs, err := ingest.ParseReferenceAnswers(path, b)
	if err != nil {
		return fmt.Errorf("reference answers load failed: %w", err)
	}
	state.Dataset.SetReferenceAnswers(refs)
	return nil
}

func loadStudents(state *EngineState, path string) error {
	b, err := readInput(state, "student_answers", path)
	if err != nil {
		return err
	}
	answers, err := ingest.ParseStudentAnswers(path, b)
	if err != nil {
		return fmt.Errorf("student answers load failed: %w", err)
	}
	state.Dataset.SetStudentAnswers(answers)
	return nil
}

func loadAnswerText(state *EngineState, cfg Config) error {
	b, err := readInput(state, "answer_text", cfg.AnswerPath)
	if err != nil {
		return err
	}
	text, err := ingest.ParseAnswerText(cfg.AnswerPath, b)
	if err != nil {
		return fmt.Errorf("answer text load failed: %w", err)
	}
	state.Dataset.SetStudentAnswers([]exam.StudentAnswer{{
		StudentID:  cfg.StudentID,
		QuestionID: cfg.QuestionID,
		Answer:     text,
	}})
	return nil
}

func loadGradings(state *EngineState, path string) error {
	b, err := readInput(state, "grading", path)
	if err != nil {
		return err
	}
	gs, err := ingest.ParseGradings(path, b)
	if err != nil {
		return fmt.Errorf("grading load failed: %w", err)
	}
	for _, g := range gs {
		k := exam.Key{StudentID: g.StudentID, QuestionID: g.QuestionID}
		if _, ok := state.Dataset.Grading(k); ok {
			state.Warnings = append(state.Warnings, fmt.Sprintf("student %d question %d: duplicate grading result, the later one wins", k.StudentID, k.QuestionID))
		}
		state.Dataset.UpsertGrading(g)
	}
	return nil
}

// validateCoverage records answers without a grading result and gradings
// without an answer. Neither stops the run.
func validateCoverage(state *EngineState) {
	ds := state.Dataset
	answered := map[exam.Key]bool{}
	for _, k := range ds.Pairs() {
		answered[k] = true
		if _, ok := ds.Grading(k); !ok {
			state.Warnings = append(state.Warnings, fmt.Sprintf("student %d question %d: no grading result", k.StudentID, k.QuestionID))
		}
		if ds.QuestionCount() > 0 {
			if _, ok := ds.Question(k.QuestionID); !ok {
				state.Warnings = append(state.Warnings, fmt.Sprintf("student %d question %d: question not in paper", k.StudentID, k.QuestionID))
			}
		}
	}
	for _, k := range ds.GradingKeys() {
		if !answered[k] {
			state.Warnings = append(state.Warnings, fmt.Sprintf("student %d question %d: grading result has no answer", k.StudentID, k.QuestionID))
		}
	}
}
