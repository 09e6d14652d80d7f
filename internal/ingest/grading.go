package ingest

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/solardome/answer-highlight/internal/highlight"
	"github.com/solardome/answer-highlight/internal/schema"
)

type gradingItem struct {
	StudentAnswer string  `json:"Student answer"`
	ScoringPoint  float64 `json:"Scoring point"`
	Reason        string  `json:"reason"`
}

type gradingRecord struct {
	StudentID  *int                     `json:"student_id"`
	QuestionID *int                     `json:"question_id"`
	Answer     map[string][]gradingItem `json:"answer"`
	TotalScore float64                  `json:"total_score"`
}

var (
	gradingFields         = []string{"student_id", "question_id", "answer", "total_score"}
	gradingRequiredFields = []string{"student_id", "question_id", "answer"}
	itemFields            = []string{"Student answer", "Scoring point", "reason"}
)

// ParseGradings decodes grading results, either one record or an array of
// records. Files ending in .yaml or .yml are parsed as strict YAML, anything
// else as JSON. A category key outside the registry fails the whole file.
func ParseGradings(path string, payload []byte) ([]highlight.Annotation, error) {
	var raw json.RawMessage
	if isYAML(path) {
		if err := schema.DecodeYAML(path, payload, validateGradingYAML, &raw); err != nil {
			return nil, err
		}
	} else {
		raw = payload
	}
	var records []gradingRecord
	switch firstByte(raw) {
	case '[':
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("parse grading %s: %w", path, err)
		}
	case '{':
		var r gradingRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("parse grading %s: %w", path, err)
		}
		records = []gradingRecord{r}
	default:
		return nil, fmt.Errorf("%w: %s: grading must be an object or an array of objects", ErrInvalid, path)
	}

	out := make([]highlight.Annotation, 0, len(records))
	for i, r := range records {
		a, err := r.annotation()
		if err != nil {
			return nil, fmt.Errorf("%s: grading[%d]: %w", path, i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (r gradingRecord) annotation() (highlight.Annotation, error) {
	if r.StudentID == nil || r.QuestionID == nil {
		return highlight.Annotation{}, fmt.Errorf("%w: student_id and question_id are required", ErrInvalid)
	}
	if r.Answer == nil {
		return highlight.Annotation{}, fmt.Errorf("%w: answer is required", ErrInvalid)
	}
	a := highlight.Annotation{
		StudentID:  *r.StudentID,
		QuestionID: *r.QuestionID,
		TotalScore: r.TotalScore,
	}
	tags := make([]string, 0, len(r.Answer))
	for tag := range r.Answer {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		cat, err := highlight.ParseCategory(tag)
		if err != nil {
			return highlight.Annotation{}, fmt.Errorf("answer: %w", err)
		}
		for _, it := range r.Answer[tag] {
			a.Add(highlight.Excerpt{
				Text:          it.StudentAnswer,
				Category:      cat,
				Justification: it.Reason,
				ScoreWeight:   it.ScoringPoint,
			})
		}
	}
	return a, nil
}

func validateGradingYAML(node *yaml.Node) []schema.Error {
	errs := []schema.Error{}
	if node.Kind == yaml.SequenceNode {
		for i, item := range schema.Sequence(node, "grading", &errs) {
			validateGradingRecordYAML(item, fmt.Sprintf("grading[%d]", i), &errs)
		}
		return errs
	}
	validateGradingRecordYAML(node, "grading", &errs)
	return errs
}

func validateGradingRecordYAML(node *yaml.Node, path string, errs *[]schema.Error) {
	m := schema.Map(node, path, gradingFields, gradingRequiredFields, errs)
	answer, ok := m["answer"]
	if !ok {
		return
	}
	cats := schema.Map(answer, path+".answer", nil, nil, errs)
	for i := 0; answer.Kind == yaml.MappingNode && i+1 < len(answer.Content); i += 2 {
		k := answer.Content[i]
		if _, err := highlight.ParseCategory(k.Value); err != nil {
			*errs = append(*errs, schema.Error{Path: path + ".answer." + k.Value, Line: k.Line, Message: "unknown highlight category"})
		}
	}
	for tag, list := range cats {
		if list.Kind == yaml.ScalarNode && list.Tag == "!!null" {
			continue
		}
		for j, item := range schema.Sequence(list, path+".answer."+tag, errs) {
			itemPath := fmt.Sprintf("%s.answer.%s[%d]", path, tag, j)
			fields := schema.Map(item, itemPath, itemFields, itemFields[:1], errs)
			for _, name := range []string{"Student answer", "reason"} {
				if v, ok := fields[name]; ok {
					schema.Text(v, itemPath+"."+name, errs)
				}
			}
		}
	}
}
