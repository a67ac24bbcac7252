package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/seasonscope/internal/region"
	"github.com/sells-group/seasonscope/internal/resolve"
	"github.com/sells-group/seasonscope/internal/search"
)

var (
	resolveRegion string
	resolveMonth  int
	resolveSystem string
	resolveLat    float64
	resolveLon    float64
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <food>",
	Short: "Resolve a food card for a location and month",
	Long:  "Looks up a food by id, canonical name, or synonym and prints its resolved card: GHG factor, seasonality, likely origins, and provenance.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("resolve"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		foods, err := st.ListFoods(ctx)
		if err != nil {
			return eris.Wrap(err, "list foods")
		}
		food, ok := search.NewIndex(foods).Lookup(args[0])
		if !ok {
			return eris.Errorf("no food matching %q", args[0])
		}

		q := resolve.Query{
			Region:     region.Global(),
			Month:      resolveMonth,
			SystemCode: resolveSystem,
		}
		if resolveRegion != "" {
			q.Region = region.Parse(resolveRegion)
		}
		if q.Month == 0 {
			q.Month = int(time.Now().Month())
		}
		if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
			q.Coords = &resolve.Coords{Lat: resolveLat, Lon: resolveLon}
		}

		ds, err := loadDataset(ctx, st, food)
		if err != nil {
			return err
		}
		card := resolve.BuildCard(q, ds)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(card)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveRegion, "region", "", "region code (US, US-CA, EU, GLOBAL)")
	resolveCmd.Flags().IntVar(&resolveMonth, "month", 0, "month 1-12 (default current)")
	resolveCmd.Flags().StringVar(&resolveSystem, "system", "", "production system code")
	resolveCmd.Flags().Float64Var(&resolveLat, "lat", 0, "latitude for climate estimation")
	resolveCmd.Flags().Float64Var(&resolveLon, "lon", 0, "longitude for climate estimation")
	rootCmd.AddCommand(resolveCmd)
}
