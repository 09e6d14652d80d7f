package highlight

// Excerpt is one scored fragment of a grading result.
type Excerpt struct {
	Text          string   `json:"text"`
	Category      Category `json:"category"`
	Justification string   `json:"justification"`
	ScoreWeight   float64  `json:"score_weight"`
}

// Annotation is the grading result for one student answer to one question.
// Excerpts are grouped per category; slice order is the order the grader
// produced them.
type Annotation struct {
	StudentID  int                    `json:"student_id"`
	QuestionID int                    `json:"question_id"`
	Excerpts   map[Category][]Excerpt `json:"excerpts"`
	TotalScore float64                `json:"total_score"`
}

// Add files e under its own category.
func (a *Annotation) Add(e Excerpt) {
	if a.Excerpts == nil {
		a.Excerpts = make(map[Category][]Excerpt, int(categoryCount))
	}
	a.Excerpts[e.Category] = append(a.Excerpts[e.Category], e)
}

// ExcerptCount returns the number of excerpts across all categories.
func (a *Annotation) ExcerptCount() int {
	if a == nil {
		return 0
	}
	n := 0
	for _, list := range a.Excerpts {
		n += len(list)
	}
	return n
}

// Occurrence is one location of an excerpt inside the raw content.
// Start and End are code point offsets, End exclusive.
type Occurrence struct {
	Start         int
	End           int
	Text          string
	Category      Category
	Justification string
	ScoreWeight   float64

	byteStart int
	byteEnd   int
}

// Len returns the length of the match in code points.
func (o Occurrence) Len() int {
	return o.End - o.Start
}

// Span is the metadata carried by one rendered region.
type Span struct {
	Category      Category `json:"category"`
	Text          string   `json:"text"`
	Justification string   `json:"justification"`
	ScoreWeight   float64  `json:"score_weight"`
	Order         int      `json:"order"`
}
