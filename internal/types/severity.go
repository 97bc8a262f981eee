package types

import "strings"

// Severity is the urgency tier attached to every condition.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// ParseSeverity maps a free-form tier name onto a Severity. Unknown
// names map to moderate.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityMild:
		return SeverityMild
	case SeverityHigh:
		return SeverityHigh
	default:
		return SeverityModerate
	}
}

// Emoji returns the traffic-light marker for the tier.
func (s Severity) Emoji() string {
	switch s {
	case SeverityHigh:
		return "🔴"
	case SeverityMild:
		return "🟢"
	default:
		return "🟡"
	}
}

// Banner returns the headline shown above a diagnosed condition.
func (s Severity) Banner() string {
	switch s {
	case SeverityHigh:
		return "🔴 Urgent Attention Needed"
	case SeverityModerate:
		return "🟡 Moderate Concern"
	default:
		return "🟢 Minor Issue"
	}
}
