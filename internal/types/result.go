// Package types defines the result and error contracts shared by the
// diagnostic engine and its collaborators.
package types

// Outcome is the top-level category of a diagnosis.
type Outcome string

const (
	OutcomeDiagnosed    Outcome = "diagnosed"
	OutcomeHealthy      Outcome = "healthy"
	OutcomeInconclusive Outcome = "inconclusive"
	OutcomeNotAPlant    Outcome = "not-a-plant"
)

// Detection is a single condition found by a scorer. The local engine
// attaches secondary candidates here and the deep scan reports every
// significant detection.
type Detection struct {
	ConditionID       string   `json:"conditionId"`
	Name              string   `json:"name"`
	Emoji             string   `json:"emoji,omitempty"`
	Severity          Severity `json:"severity,omitempty"`
	ConfidencePercent int      `json:"confidencePercent"`
	Clues             []string `json:"clues,omitempty"`
	Advice            string   `json:"advice,omitempty"`
	Treatment         string   `json:"treatment,omitempty"`
}

// DiagnosisResult is the single record produced per diagnosis call.
type DiagnosisResult struct {
	Outcome           Outcome  `json:"outcome"`
	ConditionID       string   `json:"conditionId,omitempty"`
	ConditionName     string   `json:"conditionName,omitempty"`
	Emoji             string   `json:"emoji,omitempty"`
	Severity          Severity `json:"severity,omitempty"`
	ConfidencePercent int      `json:"confidencePercent"`
	Evidence          []string `json:"evidence"`
	Advice            string   `json:"advice,omitempty"`
	Treatment         string   `json:"treatment,omitempty"`
	FollowUp          string   `json:"followUp,omitempty"`

	// DetectionConfidence is the presence gate confidence, set when the
	// gate ran.
	DetectionConfidence *int `json:"detectionConfidence,omitempty"`

	HealthScore int      `json:"healthScore,omitempty"`
	Variegated  bool     `json:"variegated,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`

	Detections []Detection       `json:"detections,omitempty"`
	Signals    []string          `json:"signals,omitempty"`
	Metrics    map[string]string `json:"metrics,omitempty"`
	Engine     string            `json:"engine,omitempty"`

	// Fallback marks a collaborator answer that carries only Message.
	Fallback bool   `json:"fallback,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Primary returns the result's own condition as a Detection.
func (r DiagnosisResult) Primary() (Detection, bool) {
	if r.Outcome != OutcomeDiagnosed {
		return Detection{}, false
	}
	return Detection{
		ConditionID:       r.ConditionID,
		Name:              r.ConditionName,
		Emoji:             r.Emoji,
		Severity:          r.Severity,
		ConfidencePercent: r.ConfidencePercent,
		Advice:            r.Advice,
		Treatment:         r.Treatment,
	}, true
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
