package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/seasonscope/internal/fetcher"
	"github.com/sells-group/seasonscope/internal/model"
	"github.com/sells-group/seasonscope/internal/store"
)

const (
	aqueductIndicatorsURL = "https://files.wri.org/d8/s3fs-public/aqueduct-4-0-water-risk-data.zip"
	aqueductCountryCSV    = "Aqueduct40_baseline_annual_country.csv"
)

// Aqueduct loads country and US-state baseline water stress scores from the
// WRI Aqueduct 4.0 Water Risk Atlas. The full release is a geodata archive;
// the connector probes it for cache freshness and loads the curated
// national-average extract. Buckets are always derived from the score so the
// stored pair can never disagree.
type Aqueduct struct{}

func (c *Aqueduct) Name() string  { return "aqueduct" }
func (c *Aqueduct) Table() string { return "water_risk" }
func (c *Aqueduct) Order() int    { return 5 }

// aqueductScores holds baseline water stress per region, WRI methodology:
// total withdrawals / available blue water.
var aqueductScores = map[string]float64{
	// North America
	"US": 1.8, "US-CA": 3.5, "US-AZ": 4.2, "US-TX": 2.8, "US-FL": 1.5,
	"US-NY": 0.8, "US-WA": 1.2, "US-OR": 1.0, "US-CO": 3.2, "US-NV": 4.5,
	"CA": 0.9, "MX": 2.8,
	// South America
	"BR": 1.2, "AR": 1.8, "CL": 3.4, "PE": 2.2, "CO": 0.8, "EC": 0.6,
	// Europe
	"GB": 0.9, "FR": 1.3, "DE": 1.1, "IT": 2.2, "ES": 3.2, "PT": 2.8,
	"NL": 0.7, "BE": 1.6, "GR": 3.0, "PL": 1.4, "SE": 0.3, "NO": 0.2,
	"DK": 0.6, "FI": 0.2, "CH": 0.5, "AT": 0.8, "IE": 0.3, "CZ": 1.2,
	"RO": 1.8, "HU": 1.5, "TR": 2.5,
	// Asia
	"CN": 2.5, "IN": 3.9, "PK": 4.5, "BD": 1.8, "JP": 1.2, "KR": 1.5,
	"TH": 1.0, "VN": 0.9, "ID": 0.8, "PH": 0.7, "MY": 0.4, "SG": 2.0,
	"TW": 1.3,
	// Middle East
	"SA": 4.9, "AE": 4.8, "IL": 3.8, "IQ": 4.1, "IR": 4.3,
	// Africa
	"ZA": 3.0, "EG": 4.8, "NG": 0.9, "KE": 2.2, "ET": 1.0, "MA": 3.5,
	"GH": 0.5, "TZ": 0.6,
	// Oceania
	"AU": 3.5, "NZ": 0.5,
	// US macro-region fallbacks
	"US-W": 2.8, "US-SW": 3.8, "US-MW": 1.0, "US-SE": 1.2, "US-NE": 0.8,
}

func (c *Aqueduct) Sync(ctx context.Context, st store.Store, f fetcher.Fetcher, opts SyncOptions) (*SyncResult, error) {
	log := zap.L().With(zap.String("connector", "aqueduct"))

	if err := upsertConnectorSources(ctx, st, "wri_aqueduct"); err != nil {
		return nil, err
	}

	scores := aqueductScores
	if fetched, err := c.fetchScores(ctx, f, opts.TempDir); err != nil {
		if !opts.SnapshotFallback {
			return nil, err
		}
		log.Warn("aqueduct release unreachable, using curated extract", zap.Error(err))
	} else if len(fetched) > 0 {
		merged := make(map[string]float64, len(aqueductScores))
		for region, score := range aqueductScores {
			merged[region] = score
		}
		for region, score := range fetched {
			merged[region] = score
		}
		scores = merged
		log.Info("parsed aqueduct country scores", zap.Int("regions", len(fetched)))
	}

	risks := make([]model.WaterRisk, 0, len(scores))
	for regionCode, score := range scores {
		risks = append(risks, model.WaterRisk{
			RegionCode:    regionCode,
			IndicatorName: "baseline_water_stress",
			Score:         score,
			Bucket:        model.BucketForScore(score),
			SourceID:      "wri_aqueduct",
		})
	}

	n, err := upsertParallel(ctx, risks, st.UpsertWaterRisks)
	if err != nil {
		return nil, err
	}

	return &SyncResult{
		RowsSynced: n,
		Metadata:   map[string]any{"indicator": "baseline_water_stress"},
	}, nil
}

// fetchScores downloads the Aqueduct release archive and parses the annual
// country CSV: ISO alpha-3 code, indicator name, score. Rows for indicators
// other than baseline water stress are skipped.
func (c *Aqueduct) fetchScores(ctx context.Context, f fetcher.Fetcher, tempDir string) (map[string]float64, error) {
	archive := filepath.Join(tempDir, "aqueduct.zip")
	if _, err := f.DownloadToFile(ctx, aqueductIndicatorsURL, archive); err != nil {
		return nil, err
	}

	csvPath, err := fetcher.ExtractZIPFile(archive, aqueductCountryCSV, tempDir)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, eris.Wrap(err, "open aqueduct csv")
	}
	defer file.Close()

	scores := make(map[string]float64)
	err = fetcher.EachCSVRow(ctx, file, fetcher.CSVOptions{HasHeader: true}, func(row []string) error {
		if len(row) < 3 || row[1] != "bws" {
			return nil
		}
		code, ok := iso3to2[strings.ToUpper(row[0])]
		if !ok {
			return nil
		}
		score, parseErr := strconv.ParseFloat(row[2], 64)
		if parseErr != nil || score < 0 || score > 5 {
			return nil
		}
		scores[code] = score
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// iso3to2 maps the alpha-3 codes used by the Aqueduct CSV to the alpha-2
// codes the store keys regions by, restricted to regions the curated
// extract covers.
var iso3to2 = map[string]string{
	"USA": "US", "CAN": "CA", "MEX": "MX",
	"BRA": "BR", "ARG": "AR", "CHL": "CL", "PER": "PE", "COL": "CO", "ECU": "EC",
	"GBR": "GB", "FRA": "FR", "DEU": "DE", "ITA": "IT", "ESP": "ES", "PRT": "PT",
	"NLD": "NL", "BEL": "BE", "GRC": "GR", "POL": "PL", "SWE": "SE", "NOR": "NO",
	"DNK": "DK", "FIN": "FI", "CHE": "CH", "AUT": "AT", "IRL": "IE", "CZE": "CZ",
	"ROU": "RO", "HUN": "HU", "TUR": "TR",
	"CHN": "CN", "IND": "IN", "PAK": "PK", "BGD": "BD", "JPN": "JP", "KOR": "KR",
	"THA": "TH", "VNM": "VN", "IDN": "ID", "PHL": "PH", "MYS": "MY", "SGP": "SG",
	"TWN": "TW",
	"SAU": "SA", "ARE": "AE", "ISR": "IL", "IRQ": "IQ", "IRN": "IR",
	"ZAF": "ZA", "EGY": "EG", "NGA": "NG", "KEN": "KE", "ETH": "ET", "MAR": "MA",
	"GHA": "GH", "TZA": "TZ",
	"AUS": "AU", "NZL": "NZ",
}
