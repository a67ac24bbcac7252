package resolve

import (
	"fmt"
	"sort"

	"github.com/sells-group/seasonscope/internal/model"
	"github.com/sells-group/seasonscope/internal/region"
)

// Coords is an optional caller location used for the climate-zone fallback.
type Coords struct {
	Lat float64
	Lon float64
}

// SeasonalitySelection is the outcome of seasonality resolution. Record is
// nil when no citable data exists at any fallback level; FallbackNote then
// says so explicitly, and the caller must render "no data" rather than guess.
type SeasonalitySelection struct {
	Record       *model.Seasonality
	FallbackNote string
}

// SelectSeasonality picks the best month-probability record for a region and
// month. Fallback order: exact (region, month); US state mapped through its
// macro-region; bare country; CLIMATE:<zone> estimated from coordinates;
// GLOBAL. Every step other than the exact match attaches a human-readable
// fallback note.
func SelectSeasonality(records []model.Seasonality, userRegion region.Ref, month int, coords *Coords) SeasonalitySelection {
	if month < 1 || month > 12 {
		return SeasonalitySelection{
			FallbackNote: fmt.Sprintf("No seasonality data: month %d is invalid.", month),
		}
	}

	// Exact (region, month).
	if rec := matchSeasonality(records, userRegion, month); rec != nil {
		return SeasonalitySelection{Record: rec}
	}

	// US state through the fixed macro-region table.
	if userRegion.Kind == region.KindSubdivision && userRegion.Country == "US" {
		if macro, ok := region.MacroRegionForState(userRegion.Subdivision); ok {
			if rec := matchSeasonality(records, region.Parse(macro), month); rec != nil {
				return SeasonalitySelection{
					Record:       rec,
					FallbackNote: fmt.Sprintf("US region fallback: using %s data for %s.", macro, userRegion.Code()),
				}
			}
		}
	}

	// Bare country.
	if userRegion.Kind == region.KindSubdivision {
		country := region.Country(userRegion.Country)
		if rec := matchSeasonality(records, country, month); rec != nil {
			return SeasonalitySelection{
				Record:       rec,
				FallbackNote: fmt.Sprintf("Using %s country-level seasonality (no data for %s).", country.Code(), userRegion.Code()),
			}
		}
	}

	// Climate-zone pseudo-region, when coordinates were supplied.
	if coords != nil {
		zone := region.EstimateZone(coords.Lat, coords.Lon)
		if rec := matchSeasonality(records, region.ClimateZone(zone), month); rec != nil {
			note := fmt.Sprintf("Using %s climate-zone seasonality estimated from coordinates.", zone)
			if desc, ok := region.ZoneDescriptions[zone]; ok {
				note = fmt.Sprintf("Using %s (%s) climate-zone seasonality estimated from coordinates.", zone, desc)
			}
			return SeasonalitySelection{Record: rec, FallbackNote: note}
		}
	}

	// Global sentinel.
	if rec := matchSeasonality(records, region.Global(), month); rec != nil {
		return SeasonalitySelection{
			Record:       rec,
			FallbackNote: fmt.Sprintf("Using global seasonality estimate (no regional data for %s).", userRegion.Code()),
		}
	}

	return SeasonalitySelection{
		FallbackNote: fmt.Sprintf("No citable seasonality data for %s in %s.", userRegion.Code(), model.MonthName(month)),
	}
}

func matchSeasonality(records []model.Seasonality, r region.Ref, month int) *model.Seasonality {
	for i := range records {
		if records[i].Month == month && r.Matches(records[i].RegionCode) {
			return &records[i]
		}
	}
	return nil
}

// BestMonths returns the months whose in-season probability for a region
// meets the threshold, most-likely first. Ties preserve month order. Each
// month runs through the same fallback chain as SelectSeasonality, so a
// region served by macro-region or country data gets best months from the
// rows its curve is drawn from.
func BestMonths(records []model.Seasonality, userRegion region.Ref, coords *Coords, threshold float64) []int {
	type monthProb struct {
		month int
		prob  float64
	}
	var hits []monthProb
	for month := 1; month <= 12; month++ {
		sel := SelectSeasonality(records, userRegion, month, coords)
		if sel.Record != nil && sel.Record.Probability >= threshold {
			hits = append(hits, monthProb{month, sel.Record.Probability})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].prob > hits[j].prob
	})
	months := make([]int, len(hits))
	for i, h := range hits {
		months[i] = h.month
	}
	return months
}
