package ingest

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/solardome/answer-highlight/internal/exam"
)

type paperFile struct {
	Questions *[]paperQuestion `json:"questions"`
}

type paperQuestion struct {
	QuestionID int      `json:"question_id"`
	Question   string   `json:"question"`
	Score      *float64 `json:"score"`
}

// ParsePaper decodes an exam paper: {"questions":[{"question_id","question","score"}]}.
func ParsePaper(path string, payload []byte) ([]exam.Question, error) {
	var f paperFile
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, fmt.Errorf("parse paper json %s: %w", path, err)
	}
	if f.Questions == nil {
		return nil, fmt.Errorf("%w: %s: paper must contain a questions array", ErrInvalid, path)
	}
	out := make([]exam.Question, 0, len(*f.Questions))
	for i, q := range *f.Questions {
		if q.QuestionID == 0 || q.Question == "" || q.Score == nil {
			return nil, fmt.Errorf("%w: %s: questions[%d] needs question_id, question and score", ErrInvalid, path, i)
		}
		out = append(out, exam.Question{ID: q.QuestionID, Text: q.Question, Score: *q.Score})
	}
	return out, nil
}
