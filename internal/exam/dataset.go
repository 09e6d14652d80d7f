package exam

import (
	"sort"
	"sync"

	"github.com/solardome/answer-highlight/internal/highlight"
)

type Question struct {
	ID    int     `json:"question_id"`
	Text  string  `json:"question"`
	Score float64 `json:"score"`
}

type ReferenceAnswer struct {
	QuestionID int    `json:"question_id"`
	Answer     string `json:"answer"`
}

type StudentAnswer struct {
	StudentID  int    `json:"student_id"`
	QuestionID int    `json:"question_id"`
	Answer     string `json:"answer"`
}

// Key identifies one student's answer to one question.
type Key struct {
	StudentID  int
	QuestionID int
}

// Dataset holds one exam's questions, answers and grading results. It is safe
// for concurrent use; getters return copies or values, never internal slices.
type Dataset struct {
	mu         sync.RWMutex
	questions  []Question
	references []ReferenceAnswer
	answers    []StudentAnswer
	students   []int
	gradings   []highlight.Annotation
}

func NewDataset() *Dataset {
	return &Dataset{}
}

func (d *Dataset) SetQuestions(qs []Question) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.questions = append([]Question(nil), qs...)
}

func (d *Dataset) SetReferenceAnswers(refs []ReferenceAnswer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.references = append([]ReferenceAnswer(nil), refs...)
}

// SetStudentAnswers replaces the answers and rebuilds the student list from
// the distinct student ids, ascending.
func (d *Dataset) SetStudentAnswers(answers []StudentAnswer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.answers = append([]StudentAnswer(nil), answers...)
	seen := map[int]bool{}
	d.students = d.students[:0]
	for _, a := range answers {
		if !seen[a.StudentID] {
			seen[a.StudentID] = true
			d.students = append(d.students, a.StudentID)
		}
	}
	sort.Ints(d.students)
}

// UpsertGrading replaces the grading for the same (student, question) pair or
// appends it.
func (d *Dataset) UpsertGrading(g highlight.Annotation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.gradings {
		if d.gradings[i].StudentID == g.StudentID && d.gradings[i].QuestionID == g.QuestionID {
			d.gradings[i] = g
			return
		}
	}
	d.gradings = append(d.gradings, g)
}

func (d *Dataset) Question(id int) (Question, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, q := range d.questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

func (d *Dataset) ReferenceAnswer(questionID int) (ReferenceAnswer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.references {
		if r.QuestionID == questionID {
			return r, true
		}
	}
	return ReferenceAnswer{}, false
}

func (d *Dataset) StudentAnswer(k Key) (StudentAnswer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, a := range d.answers {
		if a.StudentID == k.StudentID && a.QuestionID == k.QuestionID {
			return a, true
		}
	}
	return StudentAnswer{}, false
}

// Grading returns the grading for k. The returned annotation shares its
// excerpt slices with the dataset and must be treated as read-only.
func (d *Dataset) Grading(k Key) (*highlight.Annotation, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for i := range d.gradings {
		if d.gradings[i].StudentID == k.StudentID && d.gradings[i].QuestionID == k.QuestionID {
			g := d.gradings[i]
			return &g, true
		}
	}
	return nil, false
}

func (d *Dataset) Students() []int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]int(nil), d.students...)
}

func (d *Dataset) QuestionCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.questions)
}

func (d *Dataset) ReferenceAnswerCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.references)
}

func (d *Dataset) StudentCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.students)
}

func (d *Dataset) AnswerCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.answers)
}

func (d *Dataset) GradingCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.gradings)
}

// IsComplete reports whether both questions and student answers are loaded.
func (d *Dataset) IsComplete() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.questions) > 0 && len(d.answers) > 0
}

// Pairs returns the key of every student answer, sorted by student then
// question, without duplicates.
func (d *Dataset) Pairs() []Key {
	d.mu.RLock()
	defer d.mu.RUnlock()
	seen := map[Key]bool{}
	out := make([]Key, 0, len(d.answers))
	for _, a := range d.answers {
		k := Key{StudentID: a.StudentID, QuestionID: a.QuestionID}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sortKeys(out)
	return out
}

// GradingKeys returns the key of every grading result, sorted like Pairs.
func (d *Dataset) GradingKeys() []Key {
	d.mu.RLock()
	defer d.mu.RUnlock()
	seen := map[Key]bool{}
	out := make([]Key, 0, len(d.gradings))
	for _, g := range d.gradings {
		k := Key{StudentID: g.StudentID, QuestionID: g.QuestionID}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sortKeys(out)
	return out
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].StudentID != keys[j].StudentID {
			return keys[i].StudentID < keys[j].StudentID
		}
		return keys[i].QuestionID < keys[j].QuestionID
	})
}
