package resolve

import (
	"github.com/sells-group/seasonscope/internal/model"
	"github.com/sells-group/seasonscope/internal/region"
)

// Query describes one card lookup: where the user is, which month, and
// optionally a production-system preference and coordinates for climate
// estimation.
type Query struct {
	Region     region.Ref
	Month      int
	SystemCode string
	Coords     *Coords
}

// Dataset bundles everything known about a single food. The resolvers never
// touch storage; the caller loads the rows and hands them over.
type Dataset struct {
	Food        model.Food
	Factors     []model.GhgFactor
	Seasonality []model.Seasonality
	Origins     []model.Origin
	WaterRisks  []model.WaterRisk
}

// BuildCard resolves the three datasets independently and assembles the
// card. Each section is nil when its chain exhausts without a match; a
// missing section never blanks out the others.
func BuildCard(q Query, ds Dataset) model.FoodCard {
	card := model.FoodCard{Food: ds.Food}

	if sel := SelectFactor(ds.Factors, q.Region, q.SystemCode); sel != nil {
		card.Ghg = &model.GhgInfo{
			ValueMin:    sel.Factor.ValueMin,
			ValueMid:    sel.Factor.ValueMid,
			ValueMax:    sel.Factor.ValueMax,
			Unit:        sel.Factor.Unit,
			Quality:     sel.Quality,
			Resolution:  sel.Resolution,
			Explanation: sel.Explanation,
			SourceIDs:   []string{sel.Factor.SourceID},
		}
	}

	seasonSel := SelectSeasonality(ds.Seasonality, q.Region, q.Month, q.Coords)
	if seasonSel.Record != nil {
		card.Seasonality = &model.SeasonalityInfo{
			Probability:  seasonSel.Record.Probability,
			Confidence:   seasonSel.Record.Confidence,
			SourceID:     seasonSel.Record.SourceID,
			FallbackNote: seasonSel.FallbackNote,
		}
	} else {
		card.SeasonalityNote = seasonSel.FallbackNote
	}

	if originSel := SelectOrigins(ds.Origins, q.Region); originSel != nil {
		card.OriginNote = originSel.Explanation
		for _, o := range originSel.Origins {
			info := model.OriginInfo{
				RegionCode:  o.OriginRegionCode,
				Probability: o.Probability,
				Rationale:   o.Rationale,
				SourceID:    o.SourceID,
			}
			if risk := WaterRiskForRegion(o.OriginRegionCode, ds.WaterRisks); risk != nil {
				bucket := risk.Bucket
				score := risk.Score
				info.RiskBucket = &bucket
				info.RiskScore = &score
			}
			card.Origins = append(card.Origins, info)
		}
	}

	card.BestMonths = BestMonths(ds.Seasonality, q.Region, q.Coords, DefaultRankConfig().InSeasonThreshold)
	card.SeasonalityCurve = seasonalityCurve(ds.Seasonality, q.Region, q.Coords)

	if q.Coords != nil {
		zone := region.EstimateZone(q.Coords.Lat, q.Coords.Lon)
		card.GreenhouseLikely = HeatedGreenhouseLikely(ds.Food.CanonicalName, zone, q.Month, q.Coords.Lat)
	}

	card.SourceIDs = collectSources(card)
	return card
}

// seasonalityCurve resolves all twelve months through the same fallback
// chain the headline month uses. Months with no citable record are omitted.
func seasonalityCurve(records []model.Seasonality, r region.Ref, coords *Coords) []model.MonthProbability {
	var curve []model.MonthProbability
	for month := 1; month <= 12; month++ {
		sel := SelectSeasonality(records, r, month, coords)
		if sel.Record == nil {
			continue
		}
		curve = append(curve, model.MonthProbability{
			Month:       month,
			Probability: sel.Record.Probability,
		})
	}
	return curve
}

// collectSources gathers every citation the card's sections used, first
// occurrence order, deduplicated.
func collectSources(card model.FoodCard) []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if card.Ghg != nil {
		for _, id := range card.Ghg.SourceIDs {
			add(id)
		}
	}
	if card.Seasonality != nil {
		add(card.Seasonality.SourceID)
	}
	for _, o := range card.Origins {
		add(o.SourceID)
	}
	return ids
}
