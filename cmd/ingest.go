package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/seasonscope/internal/ingest"
	"github.com/sells-group/seasonscope/internal/resilience"
)

var ingestConnectors []string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Sync datasets from upstream sources into the store",
	Long:  "Runs the dataset connectors in dependency order. Each connector probes its upstream source and falls back to its embedded snapshot when the source is unreachable.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("ingest"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		f, err := newFetcher(cfg)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.Ingest.TempDir, 0o755); err != nil {
			return fmt.Errorf("create temp dir: %w", err)
		}

		eng := ingest.NewEngine(ingest.EngineOptions{
			Store:            st,
			Fetcher:          f,
			TempDir:          cfg.Ingest.TempDir,
			SnapshotFallback: cfg.Ingest.SnapshotFallback,
			Backoff: resilience.BackoffFromConfig(
				cfg.Ingest.Retry.MaxAttempts,
				cfg.Ingest.Retry.InitialBackoffMs,
				cfg.Ingest.Retry.MaxBackoffMs,
				cfg.Ingest.Retry.Multiplier,
				cfg.Ingest.Retry.JitterFraction,
			),
			Breaker: resilience.BreakerFromConfig(
				cfg.Ingest.Circuit.FailureThreshold,
				cfg.Ingest.Circuit.ResetTimeoutSecs,
			),
		}, ingest.DefaultConnectors(cfg.Ingest.ComtradeKey)...)

		report, err := eng.Run(ctx, ingestConnectors...)
		if err != nil {
			return err
		}

		for _, r := range report.Results {
			if r.Err != nil {
				fmt.Printf("✗ %-12s %s\n", r.Name, r.Err)
				continue
			}
			fmt.Printf("✓ %-12s %6d rows  %s\n", r.Name, r.Rows, r.Elapsed.Round(time.Millisecond))
		}

		if failed := report.Failed(); len(failed) > 0 {
			zap.L().Warn("some connectors failed", zap.Strings("connectors", failed))
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestConnectors, "only", nil, "run only the named connectors")
	rootCmd.AddCommand(ingestCmd)
}
