package deepscan

import (
	"strconv"
	"strings"

	"leaf-doctor/internal/types"
)

const healthyID = "healthy"

// Response is the deep scan service's JSON answer.
type Response struct {
	Status        string            `json:"status"`
	Diagnosis     string            `json:"diagnosis,omitempty"`
	Emoji         string            `json:"emoji,omitempty"`
	Severity      string            `json:"severity,omitempty"`
	Confidence    string            `json:"confidence,omitempty"`
	Signals       []string          `json:"signals,omitempty"`
	Clues         []string          `json:"clues,omitempty"`
	Advice        string            `json:"advice,omitempty"`
	Treatment     string            `json:"treatment,omitempty"`
	AllDetections []WireDetection   `json:"all_detections,omitempty"`
	Metrics       map[string]string `json:"metrics,omitempty"`
	Engine        string            `json:"engine,omitempty"`
	Fallback      bool              `json:"fallback,omitempty"`
	Message       string            `json:"message,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// WireDetection is one entry of all_detections.
type WireDetection struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Emoji      string   `json:"emoji,omitempty"`
	Severity   string   `json:"severity,omitempty"`
	Confidence string   `json:"confidence,omitempty"`
	Clues      []string `json:"clues,omitempty"`
	Advice     string   `json:"advice,omitempty"`
	Treatment  string   `json:"treatment,omitempty"`
}

// ParseConfidence reads a confidence such as "87%" or "87". Words like
// "Low" read as 0. The result is clamped to [0,100].
func ParseConfidence(s string) int {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return min(100, max(0, int(v+0.5)))
}

func (d WireDetection) detection() types.Detection {
	return types.Detection{
		ConditionID:       d.ID,
		Name:              d.Name,
		Emoji:             d.Emoji,
		Severity:          types.ParseSeverity(d.Severity),
		ConfidencePercent: ParseConfidence(d.Confidence),
		Clues:             d.Clues,
		Advice:            d.Advice,
		Treatment:         d.Treatment,
	}
}

// detections returns all_detections, or the top-level diagnosis when the
// list is absent. A top-level answer without a numeric confidence, such as
// "Needs Closer Examination" at "Low", is the service finding nothing.
func (r *Response) detections() []WireDetection {
	if len(r.AllDetections) > 0 {
		return r.AllDetections
	}
	if r.Diagnosis == "" || ParseConfidence(r.Confidence) == 0 {
		return nil
	}
	return []WireDetection{{
		ID:         strings.ToLower(r.Diagnosis),
		Name:       r.Diagnosis,
		Emoji:      r.Emoji,
		Severity:   r.Severity,
		Confidence: r.Confidence,
		Clues:      r.Clues,
		Advice:     r.Advice,
		Treatment:  r.Treatment,
	}}
}

// Result converts a successful response. The first detection is the
// primary one and the full list is kept in Detections.
func (r *Response) Result() types.DiagnosisResult {
	wire := r.detections()
	res := types.DiagnosisResult{
		Signals: r.Signals,
		Metrics: r.Metrics,
		Engine:  r.Engine,
	}

	if len(wire) == 0 {
		res.Outcome = types.OutcomeInconclusive
		res.Evidence = append([]string(nil), r.Signals...)
		res.Advice = r.Advice
		return res
	}

	for _, d := range wire {
		res.Detections = append(res.Detections, d.detection())
	}
	primary := res.Detections[0]

	if primary.ConditionID == healthyID {
		res.Outcome = types.OutcomeHealthy
		res.HealthScore = primary.ConfidencePercent
		res.ConfidencePercent = primary.ConfidencePercent
		res.Evidence = primary.Clues
		res.Advice = primary.Advice
		return res
	}

	res.Outcome = types.OutcomeDiagnosed
	res.ConditionID = primary.ConditionID
	res.ConditionName = primary.Name
	res.Emoji = primary.Emoji
	res.Severity = primary.Severity
	res.ConfidencePercent = primary.ConfidencePercent
	res.Evidence = primary.Clues
	res.Advice = primary.Advice
	res.Treatment = primary.Treatment
	return res
}
