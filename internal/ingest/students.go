package ingest

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/solardome/answer-highlight/internal/exam"
)

type studentAnswer struct {
	StudentID  int     `json:"student_id"`
	QuestionID int     `json:"question_id"`
	Answer     *string `json:"answer"`
}

// ParseStudentAnswers decodes a non-empty array of
// {"student_id","question_id","answer"}. An empty answer string is allowed;
// a missing answer key is not.
func ParseStudentAnswers(path string, payload []byte) ([]exam.StudentAnswer, error) {
	if firstByte(payload) != '[' {
		return nil, fmt.Errorf("%w: %s: student answers must be a JSON array", ErrInvalid, path)
	}
	var items []studentAnswer
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("parse student answers json %s: %w", path, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s: student answers are empty", ErrInvalid, path)
	}
	out := make([]exam.StudentAnswer, 0, len(items))
	for i, it := range items {
		if it.StudentID == 0 || it.QuestionID == 0 || it.Answer == nil {
			return nil, fmt.Errorf("%w: %s: [%d] needs student_id, question_id and answer", ErrInvalid, path, i)
		}
		out = append(out, exam.StudentAnswer{StudentID: it.StudentID, QuestionID: it.QuestionID, Answer: *it.Answer})
	}
	return out, nil
}
