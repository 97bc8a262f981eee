package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"leaf-doctor/internal/report"
	"leaf-doctor/internal/symptoms"
	"leaf-doctor/internal/types"
)

var describeCmd = &cobra.Command{
	Use:   "describe [symptoms...]",
	Short: "Diagnose from a free-text symptom description",
	Long: `Matches a description against the symptom knowledge base.

Example:
  leafdoctor describe "lower leaves turning yellow and drooping"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDescribe,
}

func init() {
	describeCmd.Flags().Bool("json", false, "Print the result as JSON")
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	kb, err := symptoms.Load()
	if err != nil {
		return err
	}
	res := symptoms.NewDiagnoser(kb, logger).Diagnose(strings.Join(args, " "))

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), renderText(res))
	return err
}

// renderText formats a keyword diagnosis. Unmatched queries print their
// prompt followed by any questions.
func renderText(res types.DiagnosisResult) string {
	if res.Outcome == types.OutcomeDiagnosed {
		return report.Render(res)
	}
	var b strings.Builder
	b.WriteString(res.Advice)
	if len(res.Evidence) > 0 {
		b.WriteString("\n\n**Please describe:**")
		for _, q := range res.Evidence {
			b.WriteString("\n• " + q)
		}
	}
	return b.String()
}
