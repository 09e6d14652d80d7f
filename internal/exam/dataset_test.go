package exam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solardome/answer-highlight/internal/highlight"
)

func sampleDataset() *Dataset {
	d := NewDataset()
	d.SetQuestions([]Question{{ID: 1, Text: "What is ATP?", Score: 10}, {ID: 2, Text: "Define osmosis", Score: 5}})
	d.SetReferenceAnswers([]ReferenceAnswer{{QuestionID: 1, Answer: "energy currency"}})
	d.SetStudentAnswers([]StudentAnswer{
		{StudentID: 7, QuestionID: 2, Answer: "water moves"},
		{StudentID: 3, QuestionID: 1, Answer: "energy"},
		{StudentID: 7, QuestionID: 1, Answer: "a sugar"},
	})
	return d
}

func TestDatasetLookups(t *testing.T) {
	d := sampleDataset()

	q, ok := d.Question(2)
	require.True(t, ok)
	assert.Equal(t, "Define osmosis", q.Text)
	_, ok = d.Question(99)
	assert.False(t, ok)

	ref, ok := d.ReferenceAnswer(1)
	require.True(t, ok)
	assert.Equal(t, "energy currency", ref.Answer)
	_, ok = d.ReferenceAnswer(2)
	assert.False(t, ok)

	a, ok := d.StudentAnswer(Key{StudentID: 7, QuestionID: 1})
	require.True(t, ok)
	assert.Equal(t, "a sugar", a.Answer)

	assert.Equal(t, []int{3, 7}, d.Students())
	assert.Equal(t, 2, d.QuestionCount())
	assert.Equal(t, 1, d.ReferenceAnswerCount())
	assert.Equal(t, 2, d.StudentCount())
	assert.Equal(t, 3, d.AnswerCount())
	assert.True(t, d.IsComplete())
}

func TestDatasetIncompleteWithoutPaper(t *testing.T) {
	d := NewDataset()
	d.SetStudentAnswers([]StudentAnswer{{StudentID: 1, QuestionID: 1, Answer: "x"}})
	assert.False(t, d.IsComplete())
	d.SetQuestions([]Question{{ID: 1, Text: "q", Score: 1}})
	assert.True(t, d.IsComplete())
}

func TestDatasetPairsSorted(t *testing.T) {
	d := sampleDataset()
	assert.Equal(t, []Key{
		{StudentID: 3, QuestionID: 1},
		{StudentID: 7, QuestionID: 1},
		{StudentID: 7, QuestionID: 2},
	}, d.Pairs())
}

func TestDatasetUpsertGrading(t *testing.T) {
	d := sampleDataset()
	first := highlight.Annotation{StudentID: 3, QuestionID: 1, TotalScore: 4}
	d.UpsertGrading(first)
	d.UpsertGrading(highlight.Annotation{StudentID: 7, QuestionID: 1, TotalScore: 1})
	require.Equal(t, 2, d.GradingCount())

	replaced := highlight.Annotation{StudentID: 3, QuestionID: 1, TotalScore: 9}
	d.UpsertGrading(replaced)
	assert.Equal(t, 2, d.GradingCount())

	g, ok := d.Grading(Key{StudentID: 3, QuestionID: 1})
	require.True(t, ok)
	assert.Equal(t, 9.0, g.TotalScore)

	_, ok = d.Grading(Key{StudentID: 3, QuestionID: 2})
	assert.False(t, ok)

	assert.Equal(t, []Key{{StudentID: 3, QuestionID: 1}, {StudentID: 7, QuestionID: 1}}, d.GradingKeys())
}
