package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"leaf-doctor/internal/deepscan"
	"leaf-doctor/internal/report"
	"leaf-doctor/internal/usage"
)

var deepscanCmd = &cobra.Command{
	Use:   "deepscan [image]",
	Short: "Send a leaf photo to the remote deep scan service",
	Long: `Submits the image to the service at LEAFDOC_DEEPSCAN_URL, subject to
the tier's deep scan allowance. When the service refuses or fails, the
fallback message is printed followed by the local diagnosis.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeepscan,
}

func init() {
	deepscanCmd.Flags().String("user", "local", "User id sent to the service")
	deepscanCmd.Flags().String("tier", string(deepscan.TierFree), "Subscription tier (free, steward, premium)")
	deepscanCmd.Flags().Bool("json", false, "Print the result as JSON")
	addEngineFlags(deepscanCmd)

	rootCmd.AddCommand(deepscanCmd)
}

func runDeepscan(cmd *cobra.Command, args []string) error {
	if !cfg.DeepScan.Enabled() {
		return errors.New("deep scan is not configured: set LEAFDOC_DEEPSCAN_URL")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	user, _ := cmd.Flags().GetString("user")
	tier, _ := cmd.Flags().GetString("tier")
	asJSON, _ := cmd.Flags().GetBool("json")

	client := deepscan.NewClient(cfg.DeepScan.URL,
		deepscan.WithTimeout(cfg.DeepScan.Timeout),
		deepscan.WithClientLogger(logger))
	plans := deepscan.NewPlanRegistry(cfg.DeepScan.FreeScans, cfg.DeepScan.StewardScans, cfg.DeepScan.PremiumScans)
	svc := deepscan.NewService(client, plans, quotaStore(), deepscan.WithLogger(logger))

	out := cmd.OutOrStdout()
	req := deepscan.Request{
		UserID: user,
		Tier:   deepscan.ParseTier(tier),
		Image:  image,
	}
	res, err := svc.Diagnose(ctx, req)
	if err == nil && !res.Fallback {
		if asJSON {
			return writeJSON(out, res)
		}
		if _, err := fmt.Fprintln(out, report.Render(res)); err != nil {
			return err
		}
		return printRemaining(ctx, cmd, svc, req)
	}

	fallback := res
	if err != nil {
		logger.Warn("deep scan unavailable", zap.Error(err))
		fallback = deepscan.FallbackResult(err)
	}
	local, lerr := newEngine(cmd).DiagnoseFile(ctx, args[0])
	if lerr != nil {
		return lerr
	}
	if asJSON {
		return writeJSON(out, []any{fallback, local})
	}
	fmt.Fprintln(out, report.Render(fallback))
	fmt.Fprintln(out)
	_, err = fmt.Fprintln(out, report.Render(local))
	return err
}

func printRemaining(ctx context.Context, cmd *cobra.Command, svc *deepscan.Service, req deepscan.Request) error {
	left, err := svc.Remaining(ctx, req.UserID, req.Tier)
	if err != nil {
		return err
	}
	if left == deepscan.Unlimited {
		return nil
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "\nDeep scans remaining this period: %d\n", left)
	return err
}

func quotaStore() deepscan.QuotaStore {
	if cfg.DeepScan.UsageFile != "" {
		return usage.Open(cfg.DeepScan.UsageFile)
	}
	return deepscan.NewMemoryQuotaStore()
}
