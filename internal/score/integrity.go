// Package score maps violation counters to an integrity score.
package score

import "github.com/raysh454/proctor/internal/model"

// Weights is the per-violation deduction.
type Weights struct {
	LookAway      int `json:"look_away"`
	NoFace        int `json:"no_face"`
	MultipleFaces int `json:"multiple_faces"`
	Phone         int `json:"phone"`
	Book          int `json:"book"`
	Device        int `json:"device"`
}

// DefaultWeights are the production deductions.
func DefaultWeights() Weights {
	return Weights{
		LookAway:      2,
		NoFace:        5,
		MultipleFaces: 10,
		Phone:         10,
		Book:          8,
		Device:        7,
	}
}

// MaxScore is the score of a session with no violations.
const MaxScore = 100

// Labels on the score scale.
const (
	LabelExcellent = "Excellent"
	LabelGood      = "Good"
	LabelFair      = "Fair"
	LabelPoor      = "Poor"
)

// Recommendations on their own scale.
const (
	Recommended              = "Recommended"
	ConditionallyRecommended = "Conditionally recommended"
	NotRecommended           = "Not recommended"
)

// Result is a scored set of counters.
type Result struct {
	Score          int    `json:"score"`
	Deductions     int    `json:"deductions"`
	Label          string `json:"label"`
	Recommendation string `json:"recommendation"`
}

// Deductions returns the weighted sum of c.
func (w Weights) Deductions(c model.ViolationCounters) int {
	return w.LookAway*c.LookAway +
		w.NoFace*c.NoFace +
		w.MultipleFaces*c.MultipleFaces +
		w.Phone*c.Phone +
		w.Book*c.Book +
		w.Device*c.Device
}

// Score returns max(0, 100 - deductions).
func (w Weights) Score(c model.ViolationCounters) int {
	s := MaxScore - w.Deductions(c)
	if s < 0 {
		return 0
	}
	return s
}

// Evaluate scores c with w.
func (w Weights) Evaluate(c model.ViolationCounters) Result {
	s := w.Score(c)
	return Result{
		Score:          s,
		Deductions:     w.Deductions(c),
		Label:          Label(s),
		Recommendation: Recommendation(s),
	}
}

// Evaluate scores c with the default weights.
func Evaluate(c model.ViolationCounters) Result {
	return DefaultWeights().Evaluate(c)
}

// Integrity is the default-weight score of c.
func Integrity(c model.ViolationCounters) int {
	return DefaultWeights().Score(c)
}

// Label names a score.
func Label(s int) string {
	switch {
	case s >= 90:
		return LabelExcellent
	case s >= 70:
		return LabelGood
	case s >= 50:
		return LabelFair
	default:
		return LabelPoor
	}
}

// Recommendation gives the hiring recommendation for a score.
func Recommendation(s int) string {
	switch {
	case s >= 80:
		return Recommended
	case s >= 60:
		return ConditionallyRecommended
	default:
		return NotRecommended
	}
}
