package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/seasonscope/internal/fetcher"
	"github.com/sells-group/seasonscope/internal/model"
	"github.com/sells-group/seasonscope/internal/store"
)

const comtradeAPIBase = "https://comtradeapi.un.org/data/v1/get/C/A/HS"

// Comtrade loads trade-origin probability hints. With an API key it queries
// the UN Comtrade API per destination and HS commodity code and converts
// import value shares into probabilities; without one, or when the API is
// unreachable, it loads the curated distribution derived from published
// USDA FAS and FAO trade statistics.
type Comtrade struct {
	APIKey string
}

func (c *Comtrade) Name() string  { return "comtrade" }
func (c *Comtrade) Table() string { return "origins" }
func (c *Comtrade) Order() int    { return 6 }

// hsCodes maps canonical foods to 4-digit HS commodity groups.
var hsCodes = map[string]string{
	"banana":         "0803",
	"avocado":        "0804",
	"mango":          "0804",
	"orange":         "0805",
	"apple":          "0808",
	"strawberry":     "0810",
	"grape":          "0806",
	"tomato":         "0702",
	"potato":         "0701",
	"onion":          "0703",
	"carrot":         "0706",
	"bell_pepper":    "0709",
	"cucumber":       "0707",
	"lettuce":        "0705",
	"broccoli":       "0704",
	"white_rice":     "1006",
	"wheat_flour":    "1101",
	"corn_sweet":     "1005",
	"soybeans":       "1201",
	"chickpeas":      "0713",
	"lentils_green":  "0713",
	"beef_general":   "0201",
	"chicken_breast": "0207",
	"pork":           "0203",
	"lamb":           "0204",
	"milk_whole":     "0401",
	"cheddar_cheese": "0406",
	"butter":         "0405",
}

// curatedOrigin is one entry of the embedded trade-flow snapshot.
type curatedOrigin struct {
	origin      string
	probability float64
	rationale   string
}

// curatedOrigins is keyed destination then food id.
var curatedOrigins = map[string]map[string][]curatedOrigin{
	"US": {
		"banana": {
			{"GT", 0.30, "Guatemala is the largest banana supplier to the US (USDA FAS)."},
			{"EC", 0.22, "Ecuador is a major banana exporter to the US."},
			{"CR", 0.18, "Costa Rica is a significant US banana supplier."},
			{"CO", 0.15, "Colombia exports substantial bananas to the US."},
			{"MX", 0.10, "Mexico supplies bananas primarily to southern US states."},
		},
		"avocado": {
			{"MX", 0.78, "Mexico supplies ~80% of US avocados (USDA)."},
			{"PE", 0.08, "Peru is a growing avocado supplier to the US."},
			{"CL", 0.06, "Chile supplies avocados mainly during US off-season."},
			{"US", 0.05, "California domestic production."},
		},
		"mango": {
			{"MX", 0.55, "Mexico is the primary mango supplier to the US."},
			{"PE", 0.12, "Peru supplies mangoes during the counter-season."},
			{"EC", 0.10, "Ecuador is a growing mango exporter."},
			{"BR", 0.10, "Brazil supplies mangoes year-round."},
		},
		"orange": {
			{"US", 0.65, "Florida and California domestic production."},
			{"MX", 0.15, "Mexico supplements US orange supply."},
			{"ZA", 0.08, "South Africa supplies during US off-season."},
			{"CL", 0.07, "Chile supplies during summer months."},
		},
		"tomato": {
			{"MX", 0.50, "Mexico is the largest tomato exporter to the US."},
			{"US", 0.45, "Domestic production from California, Florida."},
			{"CA", 0.05, "Canadian greenhouse tomatoes."},
		},
		"strawberry": {
			{"US", 0.80, "California dominates US strawberry production."},
			{"MX", 0.18, "Mexico supplements winter supply."},
		},
		"apple": {
			{"US", 0.85, "Washington state is the largest US apple producer."},
			{"CL", 0.08, "Chile supplies during off-season."},
			{"NZ", 0.04, "New Zealand supplies during spring gap."},
		},
		"grape": {
			{"US", 0.55, "California domestic production."},
			{"CL", 0.25, "Chile supplies grapes during winter months."},
			{"MX", 0.12, "Mexico supplies spring grapes."},
			{"PE", 0.08, "Peru exports grapes during counter-season."},
		},
		"beef_general": {
			{"US", 0.82, "Most US beef is domestically produced."},
			{"CA", 0.06, "Canada exports beef to the US."},
			{"AU", 0.05, "Australian grass-fed beef imports."},
			{"BR", 0.03, "Brazilian beef exports to the US."},
		},
		"chicken_breast": {
			{"US", 0.95, "Virtually all US chicken is domestically produced."},
		},
		"pork": {
			{"US", 0.85, "Most US pork is domestically produced."},
			{"CA", 0.10, "Canada exports pork to the US."},
		},
		"white_rice": {
			{"US", 0.55, "Arkansas, Louisiana, California production."},
			{"TH", 0.20, "Thailand exports jasmine rice to the US."},
			{"IN", 0.12, "India exports basmati rice."},
			{"VN", 0.08, "Vietnam is a major global rice exporter."},
		},
	},
	"GB": {
		"banana": {
			{"CO", 0.28, "Colombia is a top banana supplier to the UK."},
			{"CR", 0.22, "Costa Rica exports bananas to UK."},
			{"EC", 0.20, "Ecuador supplies bananas to the UK."},
		},
		"avocado": {
			{"PE", 0.30, "Peru is a major UK avocado supplier."},
			{"ZA", 0.20, "South Africa supplies avocados to UK."},
			{"CL", 0.18, "Chile is a significant supplier."},
			{"ES", 0.10, "Spanish avocados from Andalusia."},
		},
		"apple": {
			{"GB", 0.30, "UK domestic production (Kent, East Anglia)."},
			{"FR", 0.20, "France is a major European apple supplier."},
			{"ZA", 0.15, "South Africa supplies during UK off-season."},
			{"NZ", 0.15, "New Zealand supplies during spring."},
			{"CL", 0.10, "Chile supplies during spring months."},
		},
	},
	"FR": {
		"tomato": {
			{"FR", 0.55, "France has significant domestic tomato production."},
			{"ES", 0.22, "Spain is the main tomato importer for France."},
			{"MA", 0.12, "Morocco exports tomatoes to France."},
			{"NL", 0.08, "Netherlands greenhouse tomatoes."},
		},
		"banana": {
			{"CR", 0.25, "Costa Rica exports to France."},
			{"EC", 0.22, "Ecuador is a major global banana exporter."},
			{"CI", 0.12, "Ivory Coast exports to France."},
		},
	},
	"JP": {
		"banana": {
			{"PH", 0.78, "Philippines is the primary banana supplier to Japan."},
			{"EC", 0.12, "Ecuador exports bananas to Japan."},
		},
		"avocado": {
			{"MX", 0.85, "Mexico is the dominant avocado supplier to Japan."},
			{"PE", 0.08, "Peru exports avocados to Japan."},
		},
		"beef_general": {
			{"AU", 0.42, "Australia is the top beef exporter to Japan."},
			{"US", 0.38, "US is the second-largest beef supplier to Japan."},
			{"JP", 0.12, "Domestic Wagyu and dairy cattle production."},
		},
	},
}

// comtradeRecord is one row of the Comtrade API data array.
type comtradeRecord struct {
	PartnerISO   string  `json:"partnerISO"`
	PrimaryValue float64 `json:"primaryValue"`
}

func (c *Comtrade) Sync(ctx context.Context, st store.Store, f fetcher.Fetcher, opts SyncOptions) (*SyncResult, error) {
	log := zap.L().With(zap.String("connector", "comtrade"))

	if err := upsertConnectorSources(ctx, st, "un_comtrade"); err != nil {
		return nil, err
	}

	known, err := knownFoods(ctx, st)
	if err != nil {
		return nil, err
	}

	var origins []model.Origin
	live := 0
	for dest, foodMap := range curatedOrigins {
		for foodID := range foodMap {
			if !known[foodID] {
				log.Warn("skipping unknown food", zap.String("food_id", foodID))
				continue
			}

			entries := foodMap[foodID]
			if c.APIKey != "" {
				if fetched, err := c.fetchOrigins(ctx, f, dest, foodID); err != nil {
					if !opts.SnapshotFallback {
						return nil, err
					}
					log.Warn("live comtrade query failed, using curated entries",
						zap.String("destination", dest),
						zap.String("food_id", foodID),
						zap.Error(err))
				} else if len(fetched) > 0 {
					entries = fetched
					live++
				}
			}

			for _, entry := range entries {
				origins = append(origins, model.Origin{
					FoodID:                foodID,
					DestinationRegionCode: dest,
					OriginRegionCode:      entry.origin,
					Probability:           entry.probability,
					Rationale:             entry.rationale,
					SourceID:              "un_comtrade",
				})
			}
		}
	}

	n, err := upsertParallel(ctx, origins, st.UpsertOrigins)
	if err != nil {
		return nil, err
	}

	return &SyncResult{
		RowsSynced: n,
		Metadata:   map[string]any{"live_queries": live},
	}, nil
}

// fetchOrigins queries the Comtrade API for one destination and commodity
// and converts import value shares into origin probabilities.
func (c *Comtrade) fetchOrigins(ctx context.Context, f fetcher.Fetcher, dest, foodID string) ([]curatedOrigin, error) {
	hs, ok := hsCodes[foodID]
	if !ok {
		return nil, nil
	}

	url := fmt.Sprintf("%s?reporterCode=%s&cmdCode=%s&flowCode=M&subscription-key=%s",
		comtradeAPIBase, dest, hs, c.APIKey)
	body, err := f.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}

	var records []comtradeRecord
	err = fetcher.EachJSONElement(ctx, bytes.NewReader(envelope.Data), func(rec comtradeRecord) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var total float64
	for _, rec := range records {
		total += rec.PrimaryValue
	}
	if total <= 0 {
		return nil, nil
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].PrimaryValue > records[j].PrimaryValue })
	if len(records) > 5 {
		records = records[:5]
	}

	out := make([]curatedOrigin, 0, len(records))
	for _, rec := range records {
		if rec.PartnerISO == "" {
			continue
		}
		out = append(out, curatedOrigin{
			origin:      rec.PartnerISO,
			probability: rec.PrimaryValue / total,
			rationale:   fmt.Sprintf("UN Comtrade import value share for HS %s.", hs),
		})
	}
	return out, nil
}
