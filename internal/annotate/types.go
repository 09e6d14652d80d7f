package annotate

import (
	"time"

	"github.com/solardome/answer-highlight/internal/ingest"
	"github.com/solardome/answer-highlight/internal/scoring"
)

const SchemaVersion = "1.0.0"

type Config struct {
	PaperPath     string
	ReferencePath string
	StudentsPath  string
	GradingPath   string

	// AnswerPath renders a single plain-text answer instead of a students
	// file; StudentID and QuestionID name it.
	AnswerPath string
	StudentID  int
	QuestionID int

	OutDir        string
	ReportPath    string
	ChecksumsPath string
	RunLogPath    string

	Title         string
	ZIndexCeiling int
	FragmentOnly  bool
	WriteHTML     bool
	Concurrency   int

	// Now defaults to time.Now.
	Now func() time.Time
}

type Report struct {
	SchemaVersion string          `json:"schema_version"`
	GeneratedAt   string          `json:"generated_at"`
	RunID         string          `json:"run_id"`
	Inputs        []ingest.Digest `json:"inputs"`
	Summary       Summary         `json:"summary"`
	Answers       []AnswerResult  `json:"answers"`
	Trace         []TraceEntry    `json:"trace"`
}

type Summary struct {
	Students    int `json:"students"`
	Questions   int `json:"questions"`
	Answers     int `json:"answers"`
	Graded      int `json:"graded"`
	Occurrences int `json:"occurrences"`
	Unmatched   int `json:"unmatched_excerpts"`
	Flagged     int `json:"flagged"`
}

type AnswerResult struct {
	StudentID      int             `json:"student_id"`
	QuestionID     int             `json:"question_id"`
	Question       string          `json:"question,omitempty"`
	MaxScore       float64         `json:"score"`
	TotalScore     float64         `json:"total_score"`
	CitedPoints    float64         `json:"cited_points"`
	HTMLPath       string          `json:"html_path,omitempty"`
	Occurrences    int             `json:"occurrences"`
	ByCategory     map[string]int  `json:"by_category"`
	Unmatched      []string        `json:"unmatched_excerpts,omitempty"`
	Checks         []scoring.Check `json:"checks,omitempty"`
	MissingGrading bool            `json:"missing_grading"`
}

type TraceEntry struct {
	Order   int                    `json:"order"`
	Phase   string                 `json:"phase"`
	Result  string                 `json:"result"`
	Details map[string]interface{} `json:"details,omitempty"`
}
