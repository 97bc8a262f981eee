package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"leaf-doctor/internal/overlay"
	"leaf-doctor/internal/report"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [image]",
	Short: "Diagnose a leaf photo",
	Long: `Runs the full pipeline over one image: sampling, plant detection,
feature extraction, rule scoring and report composition.

Example:
  leafdoctor diagnose monstera.jpg --overlay monstera-buckets.png`,
	Args: cobra.ExactArgs(1),
	RunE: runDiagnose,
}

var detectCmd = &cobra.Command{
	Use:   "detect [image]",
	Short: "Run only the plant detection gate",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetect,
}

func init() {
	diagnoseCmd.Flags().Bool("json", false, "Print the result as JSON")
	diagnoseCmd.Flags().String("overlay", "", "Write a PNG with the color classification painted over the image")
	addEngineFlags(diagnoseCmd)
	addEngineFlags(detectCmd)

	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(detectCmd)
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	asJSON, _ := cmd.Flags().GetBool("json")
	overlayPath, _ := cmd.Flags().GetString("overlay")

	a, err := newEngine(cmd).AnalyzeFile(ctx, args[0])
	if err != nil {
		return err
	}

	if overlayPath != "" {
		img := overlay.Render(a.Buffer, a.Samples, a.Stride)
		if err := overlay.Save(img, overlayPath); err != nil {
			return err
		}
		logger.Debug("overlay written", zap.String("path", overlayPath))
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), a.Result)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), report.Render(a.Result))
	return err
}

func runDetect(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := newEngine(cmd).AnalyzeFile(ctx, args[0])
	if err != nil {
		return err
	}
	p := a.Presence
	m := p.Metrics

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Plant detected: %v (confidence %d%%, score %d)\n\n", p.Detected, p.Confidence, p.Score)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CRITERION\tMET")
	for _, c := range p.Criteria {
		fmt.Fprintf(w, "%s\t%v\n", c.Name, c.Met)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "green ratio\t%.3f\n", m.GreenRatio)
	fmt.Fprintf(w, "brown ratio\t%.3f\n", m.BrownRatio)
	fmt.Fprintf(w, "edge ratio\t%.3f\n", m.EdgeRatio)
	fmt.Fprintf(w, "texture\t%.2f\n", m.TextureComplexity)
	fmt.Fprintf(w, "uniformity\t%.2f\n", m.ColorUniformity)
	fmt.Fprintf(w, "green shades\t%d\n", m.GreenShadeDiversity)
	fmt.Fprintf(w, "samples\t%d\n", m.SampleCount)
	return w.Flush()
}
