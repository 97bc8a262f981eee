// Package condition holds the ordered symptom rule table and the scorer
// that picks the leading condition for a feature vector.
package condition

import (
	"math"
	"strings"

	"leaf-doctor/internal/features"
	"leaf-doctor/internal/types"
)

const (
	// BonusPoints is added for every bonus predicate that holds.
	BonusPoints = 15
	// MaxConfidence caps every rule score.
	MaxConfidence = 100
)

// Predicate is a boolean test over a feature vector.
type Predicate func(fv features.FeatureVector) bool

// Rule is one symptom condition. Rules are evaluated in Rank order.
type Rule struct {
	Rank     int
	ID       string
	Name     string
	Emoji    string
	Severity types.Severity
	Clues    string

	Base     int
	Guard    Predicate
	Bonuses  []Predicate
	Evidence func(fv features.FeatureVector) []string

	Advice    string
	Treatment string
	FollowUp  string
}

// Score returns the rule's confidence for fv and whether its guard held.
func (r *Rule) Score(fv features.FeatureVector) (int, bool) {
	if !r.Guard(fv) {
		return 0, false
	}
	score := r.Base
	for _, bonus := range r.Bonuses {
		if bonus(fv) {
			score += BonusPoints
		}
	}
	return min(MaxConfidence, max(0, score)), true
}

// Detection converts the rule and a confidence into a result detection.
func (r *Rule) Detection(confidence int) types.Detection {
	return types.Detection{
		ConditionID:       r.ID,
		Name:              r.Name,
		Emoji:             r.Emoji,
		Severity:          r.Severity,
		ConfidencePercent: confidence,
		Clues:             strings.Split(r.Clues, ", "),
		Advice:            r.Advice,
		Treatment:         r.Treatment,
	}
}

// pct formats a ratio as a whole percentage.
func pct(v float64) int {
	return int(math.Round(v * 100))
}
