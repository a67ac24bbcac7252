package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/seasonscope/internal/region"
	"github.com/sells-group/seasonscope/internal/resolve"
)

var (
	recommendRegion string
	recommendMonth  int
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank foods for a location and month",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("recommend"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		rankCfg, err := rankConfig(cfg)
		if err != nil {
			return err
		}

		month := recommendMonth
		if month == 0 {
			month = int(time.Now().Month())
		}
		if month < 1 || month > 12 {
			return eris.Errorf("invalid month %d", month)
		}

		q := resolve.Query{Region: region.Global(), Month: month}
		if recommendRegion != "" {
			q.Region = region.Parse(recommendRegion)
		}

		cards, err := buildAllCards(ctx, st, q)
		if err != nil {
			return err
		}
		recs := resolve.BuildRecommendations(cards, q.Region.Code(), month, rankCfg)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	},
}

func init() {
	recommendCmd.Flags().StringVar(&recommendRegion, "region", "", "region code (US, US-CA, EU, GLOBAL)")
	recommendCmd.Flags().IntVar(&recommendMonth, "month", 0, "month 1-12 (default current)")
	rootCmd.AddCommand(recommendCmd)
}
