package ingest

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/seasonscope/internal/fetcher"
	"github.com/sells-group/seasonscope/internal/model"
	"github.com/sells-group/seasonscope/internal/store"
)

const agribalyseXLSXURL = "https://data.ademe.fr/data-fair/api/v1/datasets/agribalyse-31-synthese/data-files/AGRIBALYSE3.1_produits%20alimentaires.xlsx"

// Agribalyse loads FR/EU GHG factors from the ADEME AGRIBALYSE 3.1 life
// cycle assessment dataset. The portal distributes an XLSX workbook; when
// the download or parse fails the connector falls back to the curated
// snapshot extracted from the same release.
type Agribalyse struct{}

func (c *Agribalyse) Name() string  { return "agribalyse" }
func (c *Agribalyse) Table() string { return "ghg_factors" }
func (c *Agribalyse) Order() int    { return 2 }

// agriRow is one curated AGRIBALYSE climate-change value, kg CO2e per kg at
// consumer, France/EU production context.
type agriRow struct {
	foodID        string
	min, mid, max float64
}

var agribalyseSnapshot = []agriRow{
	{"apple", 0.28, 0.36, 0.52},
	{"avocado", 0.90, 1.31, 1.85},
	{"banana", 0.62, 0.91, 1.25},
	{"bell_pepper", 0.65, 0.94, 1.40},
	{"broccoli", 0.33, 0.48, 0.72},
	{"cabbage", 0.18, 0.27, 0.42},
	{"carrot", 0.20, 0.30, 0.46},
	{"cauliflower", 0.30, 0.44, 0.65},
	{"cucumber", 0.28, 0.41, 0.62},
	{"eggplant", 0.30, 0.44, 0.66},
	{"grape", 0.42, 0.59, 0.85},
	{"green_bean", 0.32, 0.47, 0.70},
	{"kale", 0.22, 0.35, 0.55},
	{"lettuce", 0.20, 0.31, 0.48},
	{"mango", 0.68, 0.95, 1.35},
	{"onion", 0.22, 0.32, 0.48},
	{"orange", 0.28, 0.40, 0.60},
	{"potato", 0.18, 0.27, 0.42},
	{"spinach", 0.22, 0.34, 0.52},
	{"strawberry", 0.42, 0.60, 0.88},
	{"tomato", 0.62, 0.90, 2.20},
	{"watermelon", 0.20, 0.32, 0.50},
	{"zucchini", 0.24, 0.36, 0.55},
	{"beef_general", 18.0, 26.0, 42.0},
	{"chicken_breast", 3.8, 5.7, 8.5},
	{"pork", 4.2, 6.3, 9.5},
	{"lamb", 15.0, 22.5, 35.0},
	{"egg_chicken", 2.5, 3.8, 5.7},
	{"milk_whole", 1.2, 1.32, 1.80},
	{"yogurt", 1.4, 1.95, 2.80},
	{"butter", 6.8, 9.5, 13.5},
	{"cheddar_cheese", 7.5, 11.8, 17.5},
	{"pasta", 0.75, 1.10, 1.65},
	{"white_rice", 2.20, 3.20, 4.80},
	{"wheat_flour", 0.55, 0.82, 1.25},
	{"lentils_green", 0.50, 0.72, 1.08},
	{"chickpeas", 0.45, 0.65, 0.98},
	{"tofu", 1.50, 2.20, 3.30},
}

// agribalyseNames maps the workbook's French product labels (lowercased)
// to canonical food ids. Only exact-ingredient rows are mapped; recipes,
// brands, and SKUs are ignored.
var agribalyseNames = map[string]string{
	"pomme":            "apple",
	"avocat":           "avocado",
	"banane":           "banana",
	"poivron":          "bell_pepper",
	"brocoli":          "broccoli",
	"chou":             "cabbage",
	"carotte":          "carrot",
	"chou-fleur":       "cauliflower",
	"concombre":        "cucumber",
	"aubergine":        "eggplant",
	"raisin":           "grape",
	"haricot vert":     "green_bean",
	"chou frisé":       "kale",
	"laitue":           "lettuce",
	"mangue":           "mango",
	"oignon":           "onion",
	"orange":           "orange",
	"pomme de terre":   "potato",
	"épinard":          "spinach",
	"fraise":           "strawberry",
	"tomate":           "tomato",
	"pastèque":         "watermelon",
	"courgette":        "zucchini",
	"boeuf":            "beef_general",
	"blanc de poulet":  "chicken_breast",
	"porc":             "pork",
	"agneau":           "lamb",
	"oeuf":             "egg_chicken",
	"lait entier":      "milk_whole",
	"yaourt":           "yogurt",
	"beurre":           "butter",
	"cheddar":          "cheddar_cheese",
	"pâtes":            "pasta",
	"riz blanc":        "white_rice",
	"farine de blé":    "wheat_flour",
	"lentille verte":   "lentils_green",
	"pois chiche":      "chickpeas",
	"tofu":             "tofu",
}

func (c *Agribalyse) Sync(ctx context.Context, st store.Store, f fetcher.Fetcher, opts SyncOptions) (*SyncResult, error) {
	log := zap.L().With(zap.String("connector", "agribalyse"))

	if err := upsertConnectorSources(ctx, st, "agribalyse_3"); err != nil {
		return nil, err
	}

	rows, fetchErr := c.fetchWorkbook(ctx, f, opts.TempDir, log)
	fromUpstream := fetchErr == nil
	if !fromUpstream {
		if !opts.SnapshotFallback {
			return nil, fetchErr
		}
		rows = agribalyseSnapshot
	}

	known, err := knownFoods(ctx, st)
	if err != nil {
		return nil, err
	}

	var factors []model.GhgFactor
	for _, row := range rows {
		if !known[row.foodID] {
			log.Warn("skipping unknown food", zap.String("food_id", row.foodID))
			continue
		}
		// One row per region tier: France exact, EU continent fallback.
		for _, regionCode := range []string{"FR", "EU"} {
			factors = append(factors, model.GhgFactor{
				FoodID:     row.foodID,
				RegionCode: regionCode,
				SystemCode: model.SystemBaseline,
				ValueMin:   row.min,
				ValueMid:   row.mid,
				ValueMax:   row.max,
				Unit:       model.GhgUnit,
				Year:       2023,
				SourceID:   "agribalyse_3",
				Quality:    model.QualityHigh,
			})
		}
	}

	n, err := upsertParallel(ctx, factors, st.UpsertFactors)
	if err != nil {
		return nil, err
	}

	return &SyncResult{
		RowsSynced: n,
		Metadata:   map[string]any{"upstream": fromUpstream, "regions": []string{"FR", "EU"}},
	}, nil
}

// fetchWorkbook downloads and parses the AGRIBALYSE workbook. A non-nil error
// means the caller should use the curated snapshot instead.
func (c *Agribalyse) fetchWorkbook(ctx context.Context, f fetcher.Fetcher, tempDir string, log *zap.Logger) ([]agriRow, error) {
	path := filepath.Join(tempDir, "agribalyse_synthese.xlsx")
	if _, err := f.DownloadToFile(ctx, agribalyseXLSXURL, path); err != nil {
		log.Warn("agribalyse workbook unreachable", zap.Error(err))
		return nil, err
	}

	raw, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SheetName: "Synthese", SkipRows: 3})
	if err != nil {
		log.Warn("agribalyse workbook parse failed", zap.Error(err))
		return nil, err
	}

	var rows []agriRow
	for _, rec := range raw {
		// Columns: product label (FR), ... climate change total kg CO2e/kg.
		if len(rec) < 3 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(rec[0]))
		foodID, ok := agribalyseNames[name]
		if !ok {
			continue
		}
		mid, err := strconv.ParseFloat(strings.Replace(rec[2], ",", ".", 1), 64)
		if err != nil || mid <= 0 {
			continue
		}
		// The synthesis sheet publishes a single value; spread the range the
		// same way the release notes describe uncertainty, roughly -30%/+50%.
		rows = append(rows, agriRow{foodID: foodID, min: mid * 0.7, mid: mid, max: mid * 1.5})
	}

	if len(rows) == 0 {
		return nil, eris.New("agribalyse workbook yielded no mapped rows")
	}
	log.Info("parsed agribalyse workbook", zap.Int("rows", len(rows)))
	return rows, nil
}
