package ingest

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/solardome/answer-highlight/internal/exam"
)

type referenceFile struct {
	Answers *[]exam.ReferenceAnswer `json:"answers"`
}

// ParseReferenceAnswers decodes {"answers":[{"question_id","answer"}]}.
func ParseReferenceAnswers(path string, payload []byte) ([]exam.ReferenceAnswer, error) {
	var f referenceFile
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, fmt.Errorf("parse reference answers json %s: %w", path, err)
	}
	if f.Answers == nil {
		return nil, fmt.Errorf("%w: %s: reference file must contain an answers array", ErrInvalid, path)
	}
	for i, a := range *f.Answers {
		if a.QuestionID == 0 || a.Answer == "" {
			return nil, fmt.Errorf("%w: %s: answers[%d] needs question_id and answer", ErrInvalid, path, i)
		}
	}
	return append([]exam.ReferenceAnswer(nil), *f.Answers...), nil
}
