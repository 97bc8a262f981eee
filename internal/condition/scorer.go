package condition

import (
	"sort"

	"leaf-doctor/internal/features"
)

// Match is a scored rule. The zero Match means no guard held.
type Match struct {
	Rule       *Rule
	Confidence int
	Evidence   []string
}

// Found reports whether a rule matched.
func (m Match) Found() bool {
	return m.Rule != nil
}

// ID returns the matched rule id, or "".
func (m Match) ID() string {
	if m.Rule == nil {
		return ""
	}
	return m.Rule.ID
}

// Score folds the rule table over fv and returns the leading match.
func Score(fv features.FeatureVector) Match {
	return ScoreWith(table, fv)
}

// ScoreWith folds rules in slice order. A later rule takes the lead only
// with a strictly greater confidence, so ties keep the earlier rule.
func ScoreWith(rules []Rule, fv features.FeatureVector) Match {
	var best Match
	for i := range rules {
		best = lead(best, &rules[i], fv)
	}
	return best
}

func lead(best Match, r *Rule, fv features.FeatureVector) Match {
	confidence, ok := r.Score(fv)
	if !ok || confidence <= best.Confidence {
		return best
	}
	return Match{Rule: r, Confidence: confidence, Evidence: r.Evidence(fv)}
}

// Candidates returns every rule whose guard holds, ordered by confidence
// descending and rank ascending.
func Candidates(fv features.FeatureVector) []Match {
	var out []Match
	for i := range table {
		r := &table[i]
		if confidence, ok := r.Score(fv); ok {
			out = append(out, Match{Rule: r, Confidence: confidence, Evidence: r.Evidence(fv)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}
