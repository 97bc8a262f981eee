package symptoms

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"leaf-doctor/internal/types"
)

const (
	baseConfidence = 50
	perKeyword     = 15
	maxSecondary   = 2

	// Engine identifies results produced by keyword matching.
	Engine = "leafdoctor symptom matcher"

	GreetingMessage = "Hello! I'm your advanced AI Plant Doctor. I can help diagnose plant issues, provide treatment plans, and answer care questions. Describe any symptoms you're seeing, or ask about specific plants."
	ClarifyMessage  = "I want to help you accurately! Could you provide more details?"
)

var greeting = regexp.MustCompile(`^(hello|hi|hey|greetings)`)

var clarifyingQuestions = []string{
	"What symptoms are you seeing? (color changes, spots, wilting, etc.)",
	"Which part of the plant? (leaves, stems, roots, flowers)",
	"When did you first notice this?",
	"Any recent changes in care or environment?",
}

// Diagnoser answers free-text symptom descriptions.
type Diagnoser struct {
	kb     *KnowledgeBase
	logger *zap.Logger
}

// NewDiagnoser returns a Diagnoser over kb. A nil logger logs nothing.
func NewDiagnoser(kb *KnowledgeBase, logger *zap.Logger) *Diagnoser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Diagnoser{kb: kb, logger: logger}
}

// Confidence maps a keyword match count onto a percentage.
func Confidence(count int) int {
	if count <= 0 {
		return 0
	}
	return min(100, baseConfidence+perKeyword*(count-1))
}

// Diagnose matches query against the knowledge base. Queries with no
// match get a greeting or a request for detail.
func (d *Diagnoser) Diagnose(query string) types.DiagnosisResult {
	matches := d.kb.Match(query)
	d.logger.Debug("symptom query matched",
		zap.Int("matches", len(matches)),
		zap.Int("length", len(query)))

	if len(matches) == 0 {
		return d.unmatched(query)
	}

	primary := matches[0]
	secondary := matches[1:min(len(matches), 1+maxSecondary)]
	e := primary.Entry

	evidence := []string{
		fmt.Sprintf("Described symptoms: %s", strings.Join(primary.Keywords, ", ")),
	}
	if len(secondary) > 0 {
		names := make([]string, len(secondary))
		for i, m := range secondary {
			names[i] = m.Entry.Keywords[0]
		}
		evidence = append(evidence, fmt.Sprintf("I also notice signs of: %s. This suggests a compound issue.", strings.Join(names, ", ")))
	}

	res := types.DiagnosisResult{
		Outcome:           types.OutcomeDiagnosed,
		ConditionID:       e.ID,
		ConditionName:     strings.Join(e.Causes[:min(2, len(e.Causes))], " or "),
		Emoji:             e.Severity.Emoji(),
		Severity:          e.Severity,
		ConfidencePercent: Confidence(primary.Count()),
		Evidence:          evidence,
		Advice:            e.Advice,
		Treatment:         e.Treatment,
		FollowUp:          e.FollowUp,
		Engine:            Engine,
	}
	for _, m := range matches[:1+len(secondary)] {
		res.Detections = append(res.Detections, detection(m))
	}
	return res
}

func (d *Diagnoser) unmatched(query string) types.DiagnosisResult {
	res := types.DiagnosisResult{
		Outcome: types.OutcomeInconclusive,
		Engine:  Engine,
	}
	if greeting.MatchString(strings.ToLower(query)) {
		res.Evidence = []string{}
		res.Advice = GreetingMessage
		return res
	}
	res.Evidence = append([]string(nil), clarifyingQuestions...)
	res.Advice = ClarifyMessage
	return res
}

func detection(m Match) types.Detection {
	e := m.Entry
	return types.Detection{
		ConditionID:       e.ID,
		Name:              e.Name,
		Emoji:             e.Severity.Emoji(),
		Severity:          e.Severity,
		ConfidencePercent: Confidence(m.Count()),
		Clues:             m.Keywords,
		Advice:            e.Advice,
		Treatment:         e.Treatment,
	}
}
