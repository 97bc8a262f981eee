package report

import (
	"fmt"
	"strings"

	"leaf-doctor/internal/types"
)

const divider = "━━━━━━━━━━━━━━━━━━━━━━"

// Render formats a result as the markdown message shown to the user.
func Render(res types.DiagnosisResult) string {
	var b strings.Builder

	if res.Fallback {
		fmt.Fprintf(&b, "⚠️ **Deep Scan Unavailable**\n\n%s", res.Message)
		return b.String()
	}

	switch res.Outcome {
	case types.OutcomeDiagnosed:
		renderDiagnosed(&b, res)
	case types.OutcomeHealthy:
		renderHealthy(&b, res)
	case types.OutcomeNotAPlant:
		renderNotAPlant(&b, res)
	default:
		renderInconclusive(&b, res)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderDiagnosed(b *strings.Builder, res types.DiagnosisResult) {
	fmt.Fprintf(b, "%s **%s**\n", res.Emoji, res.ConditionName)
	fmt.Fprintf(b, "%s • Confidence: %d%%\n\n", res.Severity.Banner(), res.ConfidencePercent)
	fmt.Fprintf(b, "%s\n\n", divider)

	b.WriteString("📊 **What We Found:**\n")
	bullets(b, "•", res.Evidence)

	if others := secondary(res); len(others) > 0 {
		b.WriteString("\n🔎 **Also Considered:**\n")
		for _, d := range others {
			fmt.Fprintf(b, "   • %s %s (%d%%)\n", d.Emoji, d.Name, d.ConfidencePercent)
		}
	}

	fmt.Fprintf(b, "\n💡 **What This Means:**\n   %s\n\n", res.Advice)
	fmt.Fprintf(b, "🩹 **Recommended Treatment:**\n   %s\n\n", res.Treatment)
	fmt.Fprintf(b, "%s\n\n", divider)
	if res.FollowUp != "" {
		fmt.Fprintf(b, "❓ **Quick Question:**\n   %s\n", res.FollowUp)
	}
}

func renderHealthy(b *strings.Builder, res types.DiagnosisResult) {
	b.WriteString("✅ **Healthy Plant**\n")
	fmt.Fprintf(b, "🟢 Looking Great! • Health Score: %d%%\n\n", res.HealthScore)
	fmt.Fprintf(b, "%s\n\n", divider)
	b.WriteString("📊 **Health Check Results:**\n")
	bullets(b, "✓", res.Evidence)
	fmt.Fprintf(b, "\n🌱 **Keep It Up!**\n   %s\n", res.Advice)
}

func renderInconclusive(b *strings.Builder, res types.DiagnosisResult) {
	b.WriteString("🔍 **Needs Closer Examination**\n")
	b.WriteString("⚪ Unable to make confident diagnosis\n\n")
	fmt.Fprintf(b, "%s\n\n", divider)
	b.WriteString("📊 **What We Detected:**\n")
	bullets(b, "•", res.Evidence)
	if len(res.Suggestions) > 0 {
		b.WriteString("\n📷 **Try Again With:**\n")
		bullets(b, "•", res.Suggestions)
	}
}

func renderNotAPlant(b *strings.Builder, res types.DiagnosisResult) {
	b.WriteString("❌ **Plant Not Detected**\n\n")
	b.WriteString("This image doesn't meet the criteria for plant detection.\n\n")
	bullets(b, "•", res.Evidence)
	if res.Advice != "" {
		fmt.Fprintf(b, "\n%s\n", res.Advice)
	}
}

func bullets(b *strings.Builder, mark string, lines []string) {
	for _, line := range lines {
		fmt.Fprintf(b, "   %s %s\n", mark, line)
	}
}

// secondary returns detections other than the primary condition.
func secondary(res types.DiagnosisResult) []types.Detection {
	var out []types.Detection
	for _, d := range res.Detections {
		if d.ConditionID != res.ConditionID {
			out = append(out, d)
		}
	}
	return out
}
