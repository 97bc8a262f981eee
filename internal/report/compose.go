// Package report turns scorer output into the DiagnosisResult handed back
// to callers, and renders results as chat-style markdown.
package report

import (
	"fmt"
	"math"

	"leaf-doctor/internal/condition"
	"leaf-doctor/internal/features"
	"leaf-doctor/internal/presence"
	"leaf-doctor/internal/types"
)

const (
	// DiagnosisThreshold is the minimum leading confidence reported as a diagnosis.
	DiagnosisThreshold = 45
	// HealthyGreenRatio is the green share above which an undiagnosed leaf is healthy.
	HealthyGreenRatio = 0.40

	yellowNoteRatio = 0.05
	brownNoteRatio  = 0.01

	// Engine identifies results produced by the local heuristic pipeline.
	Engine = "leafdoctor heuristic"
)

var retakeTips = []string{
	"Better lighting (natural daylight works best)",
	"Closer angle on the affected leaf",
	"Clear focus on problem areas",
}

// Compose builds the result for a scored feature vector. candidates are the
// scorer's guard matches and only feed the secondary detection list.
func Compose(fv features.FeatureVector, leader condition.Match, candidates []condition.Match) types.DiagnosisResult {
	if fv.TotalWeight == 0 {
		return Inconclusive(fv, 0)
	}
	if leader.Found() && leader.Confidence >= DiagnosisThreshold {
		return diagnosed(fv, leader, candidates)
	}
	if fv.GreenRatio > HealthyGreenRatio {
		return Healthy(fv)
	}
	return Inconclusive(fv, leader.Confidence)
}

func diagnosed(fv features.FeatureVector, leader condition.Match, candidates []condition.Match) types.DiagnosisResult {
	r := leader.Rule
	res := types.DiagnosisResult{
		Outcome:           types.OutcomeDiagnosed,
		ConditionID:       r.ID,
		ConditionName:     r.Name,
		Emoji:             r.Emoji,
		Severity:          r.Severity,
		ConfidencePercent: leader.Confidence,
		Evidence:          leader.Evidence,
		Advice:            r.Advice,
		Treatment:         r.Treatment,
		FollowUp:          r.FollowUp,
		Variegated:        fv.IsVariegated,
		Metrics:           Metrics(fv),
		Engine:            Engine,
	}
	for _, c := range candidates {
		if c.Confidence >= DiagnosisThreshold {
			res.Detections = append(res.Detections, c.Rule.Detection(c.Confidence))
		}
	}
	return res
}

// Healthy reports a leaf with no significant condition.
func Healthy(fv features.FeatureVector) types.DiagnosisResult {
	score := percent(fv.GreenRatio)
	coloration := "Vibrant green coloration"
	if fv.IsVariegated {
		coloration += " with beautiful variegation"
	}
	return types.DiagnosisResult{
		Outcome:           types.OutcomeHealthy,
		ConfidencePercent: score,
		HealthScore:       score,
		Variegated:        fv.IsVariegated,
		Evidence: []string{
			coloration,
			fmt.Sprintf("Good color saturation (%d%%)", percent(fv.AvgSaturation)),
			"Smooth, healthy texture",
			"Normal leaf structure",
			"No disease or pest signs detected",
		},
		Advice:  "Your plant is thriving. Continue your current care routine.",
		Metrics: Metrics(fv),
		Engine:  Engine,
	}
}

// Inconclusive reports a leaf that could not be diagnosed with confidence.
// confidence is the best sub-threshold rule score, if any.
func Inconclusive(fv features.FeatureVector, confidence int) types.DiagnosisResult {
	var evidence []string
	if fv.TotalWeight == 0 {
		evidence = append(evidence, "No leaf tissue visible against the background")
	}
	evidence = append(evidence, fmt.Sprintf("Healthy green tissue: %d%% (below typical)", percent(fv.GreenRatio)))
	if fv.YellowRatio > yellowNoteRatio {
		evidence = append(evidence, fmt.Sprintf("Some yellowing present: %d%%", percent(fv.YellowRatio)))
	}
	if fv.BrownRatio > brownNoteRatio {
		evidence = append(evidence, fmt.Sprintf("Brown areas detected: %d%%", percent(fv.BrownRatio)))
	}

	return types.DiagnosisResult{
		Outcome:           types.OutcomeInconclusive,
		ConfidencePercent: confidence,
		Evidence:          evidence,
		Suggestions:       append([]string(nil), retakeTips...),
		Metrics:           Metrics(fv),
		Engine:            Engine,
	}
}

// NotAPlant reports an image rejected by the presence gate.
func NotAPlant(p presence.Result) types.DiagnosisResult {
	return types.DiagnosisResult{
		Outcome:             types.OutcomeNotAPlant,
		ConfidencePercent:   p.Confidence,
		DetectionConfidence: types.IntPtr(p.Confidence),
		Evidence:            p.Reasons(),
		Advice:              "Please upload a clear photo of an actual plant.",
		Engine:              Engine,
	}
}

// Metrics summarizes the headline ratios as display strings.
func Metrics(fv features.FeatureVector) map[string]string {
	return map[string]string{
		"green":          fmt.Sprintf("%.1f%%", fv.GreenRatio*100),
		"yellow":         fmt.Sprintf("%.1f%%", fv.YellowRatio*100),
		"brown":          fmt.Sprintf("%.1f%%", fv.BrownRatio*100),
		"white":          fmt.Sprintf("%.1f%%", fv.WhiteRatio*100),
		"avg_brightness": fmt.Sprintf("%d%%", percent(fv.AvgBrightness)),
		"avg_saturation": fmt.Sprintf("%d%%", percent(fv.AvgSaturation)),
	}
}

func percent(v float64) int {
	return int(math.Round(v * 100))
}
