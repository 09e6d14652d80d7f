package scoring

import (
	"fmt"
	"math"

	"github.com/solardome/answer-highlight/internal/highlight"
)

const (
	CodeNegativeTotal       = "NEGATIVE_TOTAL"
	CodeTotalExceedsMax     = "TOTAL_EXCEEDS_MAX"
	CodeCitedPointsMismatch = "CITED_POINTS_MISMATCH"
	CodeScoredNotFound      = "SCORED_EXCERPT_NOT_FOUND"
)

const epsilon = 1e-9

// Check is one inconsistency between a grading result and the answer it
// grades.
type Check struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// Tally sums the points a grader attached to cited excerpts.
type Tally struct {
	CitedPoints float64            `json:"cited_points"`
	ByCategory  map[string]float64 `json:"by_category"`
	Checks      []Check            `json:"checks,omitempty"`
}

// MaxScore is the full marks of a question, when the paper is known.
type MaxScore struct {
	Value float64
	Known bool
}

// TallyAnnotation totals a's excerpt points per category and checks them
// against a's total score, the question's full marks and the excerpts that
// were actually found in the answer.
func TallyAnnotation(a *highlight.Annotation, full MaxScore, found []highlight.Occurrence) Tally {
	t := Tally{ByCategory: map[string]float64{}}
	if a == nil {
		return t
	}
	add := func(code, detail string) {
		t.Checks = append(t.Checks, Check{Code: code, Detail: detail})
	}

	located := map[string]bool{}
	for _, o := range found {
		located[o.Category.String()+"\x00"+o.Text] = true
	}
	for _, c := range highlight.Categories() {
		t.ByCategory[c.String()] = 0
		for _, e := range a.Excerpts[c] {
			t.ByCategory[c.String()] += e.ScoreWeight
			t.CitedPoints += e.ScoreWeight
			if !nearlyZero(e.ScoreWeight) && !located[c.String()+"\x00"+e.Text] {
				add(CodeScoredNotFound, fmt.Sprintf("%s excerpt %q carries %s points but is not in the answer",
					c, e.Text, highlight.FormatScore(e.ScoreWeight)))
			}
		}
	}

	if a.TotalScore < 0 {
		add(CodeNegativeTotal, "total score "+highlight.FormatScore(a.TotalScore)+" is below zero")
	}
	if full.Known && a.TotalScore > full.Value+epsilon {
		add(CodeTotalExceedsMax, fmt.Sprintf("total score %s exceeds full marks %s",
			highlight.FormatScore(a.TotalScore), highlight.FormatScore(full.Value)))
	}
	if a.ExcerptCount() > 0 && !nearlyZero(t.CitedPoints-a.TotalScore) {
		add(CodeCitedPointsMismatch, fmt.Sprintf("cited points sum to %s, total score is %s",
			highlight.FormatScore(round(t.CitedPoints)), highlight.FormatScore(a.TotalScore)))
	}
	return t
}

func nearlyZero(v float64) bool {
	return math.Abs(v) < epsilon
}

// round trims float noise from summed weights such as 0.1+0.2.
func round(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
