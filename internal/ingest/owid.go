package ingest

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/seasonscope/internal/fetcher"
	"github.com/sells-group/seasonscope/internal/model"
	"github.com/sells-group/seasonscope/internal/store"
)

const owidCSVURL = "https://catalog.ourworldindata.org/garden/faostat/latest/food_emissions/food_emissions.csv"

// Owid loads GLOBAL baseline GHG factors from the Poore & Nemecek (2018)
// meta-analysis as distributed by Our World in Data. It runs before every
// region-specific factor connector so the global fallback tier always exists.
//
// When the published CSV downloads, its per-product totals refresh the mid
// values; the min/max spread always comes from the tabulated meta-analysis
// snapshot, scaled to the fresher mid.
type Owid struct{}

func (c *Owid) Name() string  { return "owid" }
func (c *Owid) Table() string { return "ghg_factors" }
func (c *Owid) Order() int    { return 1 }

// owidValues holds the tabulated Poore & Nemecek (2018) global means,
// kg CO2e per kg of food.
type owidEntry struct {
	min, mid, max float64
	foodIDs       []string
}

var owidValues = map[string]owidEntry{
	"Apples":           {0.22, 0.43, 0.85, []string{"apple"}},
	"Bananas":          {0.43, 0.86, 1.72, []string{"banana"}},
	"Beef (beef herd)": {26.0, 59.6, 105.0, []string{"beef_general"}},
	"Berries & Grapes": {0.57, 1.13, 2.26, []string{"strawberry", "grape"}},
	"Brassicas":        {0.20, 0.51, 1.20, []string{"broccoli", "cauliflower", "cabbage", "kale"}},
	"Cheese":           {8.55, 21.2, 42.40, []string{"cheddar_cheese"}},
	"Citrus Fruit":     {0.20, 0.39, 0.78, []string{"orange"}},
	"Eggs":             {2.34, 4.67, 9.34, []string{"egg_chicken"}},
	"Lamb & Mutton":    {12.3, 24.5, 49.0, []string{"lamb"}},
	"Maize":            {0.85, 1.70, 3.40, []string{"corn_sweet"}},
	"Milk":             {1.58, 3.15, 6.30, []string{"milk_whole"}},
	"Oatmeal":          {0.80, 1.60, 3.20, []string{"oats"}},
	"Onions & Leeks":   {0.20, 0.39, 0.78, []string{"onion"}},
	"Other Fruit":      {0.34, 0.68, 1.36, []string{"mango", "watermelon"}},
	"Other Pulses":     {0.42, 0.84, 1.68, []string{"chickpeas", "lentils_green"}},
	"Other Vegetables": {0.27, 0.53, 1.06, []string{"bell_pepper", "cucumber", "eggplant", "zucchini", "lettuce", "spinach", "green_bean", "avocado"}},
	"Pig Meat":         {3.80, 7.61, 15.22, []string{"pork"}},
	"Potatoes":         {0.23, 0.46, 0.92, []string{"potato"}},
	"Poultry Meat":     {3.45, 6.90, 13.80, []string{"chicken_breast"}},
	"Rice":             {1.78, 3.55, 7.10, []string{"white_rice"}},
	"Root Vegetables":  {0.22, 0.43, 0.86, []string{"carrot"}},
	"Soy":              {1.00, 2.00, 4.00, []string{"soybeans", "tofu"}},
	"Tomatoes":         {0.70, 1.40, 2.80, []string{"tomato"}},
	"Wheat & Rye":      {0.65, 1.29, 2.58, []string{"wheat_flour", "pasta"}},
}

func (c *Owid) Sync(ctx context.Context, st store.Store, f fetcher.Fetcher, opts SyncOptions) (*SyncResult, error) {
	log := zap.L().With(zap.String("connector", "owid"))

	if err := upsertConnectorSources(ctx, st, "poore_nemecek_2018", "owid_food_impacts"); err != nil {
		return nil, err
	}

	values := owidValues
	if mids, err := fetchOwidMids(ctx, f); err != nil {
		if !opts.SnapshotFallback {
			return nil, err
		}
		log.Warn("owid csv unreachable, using tabulated snapshot", zap.Error(err))
	} else if len(mids) > 0 {
		values = make(map[string]owidEntry, len(owidValues))
		for product, entry := range owidValues {
			if mid, ok := mids[product]; ok && mid > 0 {
				// Keep the published min/max spread around the fresher mid.
				scale := mid / entry.mid
				entry.min *= scale
				entry.mid = mid
				entry.max *= scale
			}
			values[product] = entry
		}
		log.Info("parsed owid per-product emissions", zap.Int("products", len(mids)))
	}

	known, err := knownFoods(ctx, st)
	if err != nil {
		return nil, err
	}

	var factors []model.GhgFactor
	for product, entry := range values {
		for _, foodID := range entry.foodIDs {
			if !known[foodID] {
				log.Warn("skipping unknown food", zap.String("food_id", foodID), zap.String("product", product))
				continue
			}
			factors = append(factors, model.GhgFactor{
				FoodID:     foodID,
				RegionCode: "GLOBAL",
				SystemCode: model.SystemUnknown,
				ValueMin:   entry.min,
				ValueMid:   entry.mid,
				ValueMax:   entry.max,
				Unit:       model.GhgUnit,
				Year:       2018,
				SourceID:   "poore_nemecek_2018",
				Quality:    model.QualityMedium,
			})
		}
	}

	n, err := upsertParallel(ctx, factors, st.UpsertFactors)
	if err != nil {
		return nil, err
	}

	return &SyncResult{
		RowsSynced: n,
		Metadata:   map[string]any{"year": 2018, "region": "GLOBAL"},
	}, nil
}

// fetchOwidMids downloads the OWID emissions CSV and returns per-product
// total emissions per kg. Products the tabulated snapshot does not track
// are ignored.
func fetchOwidMids(ctx context.Context, f fetcher.Fetcher) (map[string]float64, error) {
	body, err := f.Download(ctx, owidCSVURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	productCol, valueCol := 0, 1
	mids := make(map[string]float64)
	err = fetcher.EachCSVRow(ctx, body, fetcher.CSVOptions{
		HasHeader: true,
		TrimSpace: true,
		Header: func(header []string) {
			for i, name := range header {
				switch strings.ToLower(name) {
				case "product", "entity", "food":
					productCol = i
				case "emissions_per_kg", "ghg_per_kg", "total_emissions":
					valueCol = i
				}
			}
		},
	}, func(row []string) error {
		if len(row) <= productCol || len(row) <= valueCol {
			return nil
		}
		product := row[productCol]
		if _, tracked := owidValues[product]; !tracked {
			return nil
		}
		mid, parseErr := strconv.ParseFloat(row[valueCol], 64)
		if parseErr != nil || mid <= 0 {
			return nil
		}
		mids[product] = mid
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mids, nil
}
