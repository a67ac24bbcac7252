package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/seasonscope/internal/ingest"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run data-quality checks against the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("validate"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		report, err := ingest.Validate(ctx, st)
		if err != nil {
			return err
		}

		marks := map[ingest.CheckStatus]string{
			ingest.StatusPass: "✓",
			ingest.StatusWarn: "!",
			ingest.StatusFail: "✗",
			ingest.StatusInfo: "·",
		}
		for _, c := range report.Checks {
			fmt.Printf("%s %-32s %s\n", marks[c.Status], c.Name, c.Message)
		}

		if report.Failed() {
			return eris.New("validation failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
