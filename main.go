// Package main provides the leafdoctor command line interface.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"leaf-doctor/internal/config"
	"leaf-doctor/internal/diagnosis"
	"leaf-doctor/internal/version"
)

var (
	// Global flags
	verbose bool
	timeout time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "leafdoctor",
	Short: "Diagnose plant leaf photos with a deterministic color heuristic",
	Long: `leafdoctor inspects a leaf photograph, checks that it shows a plant,
and scores it against a fixed table of symptom rules. Identical pixels
always produce the identical diagnosis.

Free-text symptom descriptions and the remote deep scan service are
available through the describe and deepscan commands.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		zcfg := zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(cfg.Level())
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext returns a context bounded by --timeout and cancelled on
// SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// engineParams maps configuration onto engine parameters, with command
// flags taking precedence when set.
func engineParams(cmd *cobra.Command) diagnosis.Params {
	p := diagnosis.DefaultParams().
		WithStride(cfg.Engine.Stride).
		WithWorkers(cfg.Engine.Workers).
		WithMaxDimension(cfg.Engine.MaxDimension)

	flags := cmd.Flags()
	if flags.Changed("stride") {
		n, _ := flags.GetInt("stride")
		p = p.WithStride(n)
	}
	if flags.Changed("workers") {
		n, _ := flags.GetInt("workers")
		p = p.WithWorkers(n)
	}
	if flags.Changed("max-dim") {
		n, _ := flags.GetInt("max-dim")
		p = p.WithMaxDimension(n)
	}
	return p
}

func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().Int("stride", 0, "Sampling stride in pixels (default from LEAFDOC_STRIDE)")
	cmd.Flags().Int("workers", 0, "Concurrent accumulation workers (default from LEAFDOC_WORKERS)")
	cmd.Flags().Int("max-dim", 0, "Downscale the longer side to this many pixels (0 keeps full size)")
}

func newEngine(cmd *cobra.Command) *diagnosis.Engine {
	return diagnosis.New(
		diagnosis.WithLogger(logger),
		diagnosis.WithParams(engineParams(cmd)),
	)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
