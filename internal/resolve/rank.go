package resolve

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/seasonscope/internal/model"
)

// RankConfig holds the recommendation scoring constants. The weights and the
// CO2e band thresholds are fixed heuristics carried over from the source
// methodology; they are configuration, not something the ranker derives.
type RankConfig struct {
	SeasonWeight      float64 `yaml:"season_weight"`
	Co2eWeight        float64 `yaml:"co2e_weight"`
	WaterWeight       float64 `yaml:"water_weight"`
	InSeasonThreshold float64 `yaml:"in_season_threshold"`
	Co2eLowMax        float64 `yaml:"co2e_low_max"`
	Co2eMediumMax     float64 `yaml:"co2e_medium_max"`
	ListLimit         int     `yaml:"list_limit"`
}

// DefaultRankConfig returns the standard scoring constants.
func DefaultRankConfig() RankConfig {
	return RankConfig{
		SeasonWeight:      0.5,
		Co2eWeight:        0.35,
		WaterWeight:       0.15,
		InSeasonThreshold: 0.5,
		Co2eLowMax:        2.0,
		Co2eMediumMax:     10.0,
		ListLimit:         20,
	}
}

// LoadRankConfig reads scoring constants from a YAML file, filling missing
// values from the defaults.
func LoadRankConfig(path string) (RankConfig, error) {
	cfg := DefaultRankConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, eris.Wrapf(err, "rank: read config %s", path)
	}

	var wrapper struct {
		Ranking RankConfig `yaml:"ranking"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return cfg, eris.Wrap(err, "rank: parse config")
	}

	loaded := wrapper.Ranking
	if loaded.SeasonWeight != 0 {
		cfg.SeasonWeight = loaded.SeasonWeight
	}
	if loaded.Co2eWeight != 0 {
		cfg.Co2eWeight = loaded.Co2eWeight
	}
	if loaded.WaterWeight != 0 {
		cfg.WaterWeight = loaded.WaterWeight
	}
	if loaded.InSeasonThreshold != 0 {
		cfg.InSeasonThreshold = loaded.InSeasonThreshold
	}
	if loaded.Co2eLowMax != 0 {
		cfg.Co2eLowMax = loaded.Co2eLowMax
	}
	if loaded.Co2eMediumMax != 0 {
		cfg.Co2eMediumMax = loaded.Co2eMediumMax
	}
	if loaded.ListLimit != 0 {
		cfg.ListLimit = loaded.ListLimit
	}
	return cfg, nil
}

// Co2eBand is the coarse emissions band used for UI badges.
type Co2eBand string

const (
	Co2eBandLow    Co2eBand = "low"
	Co2eBandMedium Co2eBand = "medium"
	Co2eBandHigh   Co2eBand = "high"
)

// Co2eBandFor maps a mid CO2e value to its band using the configured
// thresholds. Finite mapping, no string interpolation.
func (c RankConfig) Co2eBandFor(valueMid float64) Co2eBand {
	switch {
	case valueMid < c.Co2eLowMax:
		return Co2eBandLow
	case valueMid < c.Co2eMediumMax:
		return Co2eBandMedium
	default:
		return Co2eBandHigh
	}
}

// Rank orders cards for "best this month": higher in-season probability,
// lower CO2e relative to the candidate set, soft water-risk penalty. The
// CO2e normalization is recomputed over the given candidates on every call,
// so the score is relative, not absolute. The sort is stable: ties preserve
// input order, and ranking twice yields an identical order.
func Rank(cards []model.FoodCard, cfg RankConfig) []model.FoodCard {
	if len(cards) == 0 {
		return nil
	}

	minMid, maxMid := co2eRange(cards)
	co2eSpread := maxMid - minMid

	type scored struct {
		card  model.FoodCard
		score float64
	}
	items := make([]scored, len(cards))
	for i, c := range cards {
		var seasonScore float64
		if c.Seasonality != nil {
			seasonScore = c.Seasonality.Probability
		}

		// A card with no emissions factor earns nothing on the CO2e term;
		// treating unknown as best-in-set would rank it above real low
		// emitters. When every candidate shares the same CO2e the term is a
		// constant 1.0 instead of a division by zero.
		co2eScore := 0.0
		if c.Ghg != nil {
			co2eScore = 1.0
			if co2eSpread > 0 {
				co2eScore = 1 - (c.Ghg.ValueMid-minMid)/co2eSpread
			}
		}

		score := cfg.SeasonWeight*seasonScore + cfg.Co2eWeight*co2eScore - cfg.WaterWeight*waterPenalty(c)
		items[i] = scored{card: c, score: score}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	out := make([]model.FoodCard, len(items))
	for i, it := range items {
		out[i] = it.card
	}
	return out
}

// waterPenalty maps the worst water-risk bucket among a card's origins to a
// penalty factor: 0 for none/low, 0.15 for medium_high, 0.3 for high and
// extremely_high.
func waterPenalty(c model.FoodCard) float64 {
	penalty := 0.0
	for _, o := range c.Origins {
		if o.RiskBucket == nil {
			continue
		}
		var p float64
		switch *o.RiskBucket {
		case model.WaterRiskHigh, model.WaterRiskExtremelyHigh:
			p = 0.3
		case model.WaterRiskMediumHigh:
			p = 0.15
		}
		if p > penalty {
			penalty = p
		}
	}
	return penalty
}

// BuildRecommendations ranks the cards and derives the four named sub-lists,
// each independently sorted by its own criterion and capped at the list
// limit.
func BuildRecommendations(cards []model.FoodCard, regionCode string, month int, cfg RankConfig) model.MonthlyRecommendations {
	rec := model.MonthlyRecommendations{
		Month:      month,
		RegionCode: regionCode,
		Ranked:     capList(Rank(cards, cfg), cfg.ListLimit),
	}

	var inSeason []model.FoodCard
	for _, c := range cards {
		if c.Seasonality != nil && c.Seasonality.Probability >= cfg.InSeasonThreshold {
			inSeason = append(inSeason, c)
		}
	}
	sort.SliceStable(inSeason, func(i, j int) bool {
		return inSeason[i].Seasonality.Probability > inSeason[j].Seasonality.Probability
	})
	rec.InSeason = capList(inSeason, cfg.ListLimit)

	var withGhg []model.FoodCard
	for _, c := range cards {
		if c.Ghg != nil {
			withGhg = append(withGhg, c)
		}
	}
	lowest := make([]model.FoodCard, len(withGhg))
	copy(lowest, withGhg)
	sortByMid(lowest)
	rec.LowestCo2e = capList(lowest, cfg.ListLimit)

	rec.Protein = capList(filterSortByMid(withGhg, model.CategoryMeat, model.CategoryDairy, model.CategoryLegumes), cfg.ListLimit)
	rec.Staples = capList(filterSortByMid(withGhg, model.CategoryGrains, model.CategoryLegumes), cfg.ListLimit)

	return rec
}

func co2eRange(cards []model.FoodCard) (minMid, maxMid float64) {
	first := true
	for _, c := range cards {
		if c.Ghg == nil {
			continue
		}
		if first {
			minMid, maxMid = c.Ghg.ValueMid, c.Ghg.ValueMid
			first = false
			continue
		}
		if c.Ghg.ValueMid < minMid {
			minMid = c.Ghg.ValueMid
		}
		if c.Ghg.ValueMid > maxMid {
			maxMid = c.Ghg.ValueMid
		}
	}
	return minMid, maxMid
}

func filterSortByMid(cards []model.FoodCard, categories ...model.Category) []model.FoodCard {
	var out []model.FoodCard
	for _, c := range cards {
		for _, cat := range categories {
			if c.Food.Category == cat {
				out = append(out, c)
				break
			}
		}
	}
	sortByMid(out)
	return out
}

func sortByMid(cards []model.FoodCard) {
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].Ghg.ValueMid < cards[j].Ghg.ValueMid
	})
}

func capList(cards []model.FoodCard, limit int) []model.FoodCard {
	if limit > 0 && len(cards) > limit {
		return cards[:limit]
	}
	return cards
}
