package assessment

import "math"

// PassThreshold is the inclusive percentage at which a run counts as passed.
const PassThreshold = 70

// Verdict classifies a score.
type Verdict string

// Verdicts
const (
	VerdictPassed Verdict = "Passed"
	VerdictReview Verdict = "Review"
)

// Score is the projection of a ledger onto a question count.
type Score struct {
	CorrectCount int     `json:"correct_count"`
	Total        int     `json:"total"`
	Percentage   int     `json:"percentage"`
	Verdict      Verdict `json:"verdict"`
}

// NewScore computes the rounded percentage and verdict.
func NewScore(correct, total int) Score {
	pct := 0
	if total > 0 {
		pct = int(math.Round(100 * float64(correct) / float64(total)))
	}

	verdict := VerdictReview
	if pct >= PassThreshold {
		verdict = VerdictPassed
	}

	return Score{
		CorrectCount: correct,
		Total:        total,
		Percentage:   pct,
		Verdict:      verdict,
	}
}

// Passed reports whether the score meets PassThreshold.
func (s Score) Passed() bool {
	return s.Verdict == VerdictPassed
}
