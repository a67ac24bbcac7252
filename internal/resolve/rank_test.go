package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seasonscope/internal/model"
)

func card(id string, category model.Category, seasonProb, mid float64) model.FoodCard {
	return model.FoodCard{
		Food: model.Food{ID: id, CanonicalName: id, Category: category},
		Ghg: &model.GhgInfo{
			ValueMid: mid,
			Unit:     model.GhgUnit,
			Quality:  model.QualityMedium,
		},
		Seasonality: &model.SeasonalityInfo{Probability: seasonProb, Confidence: 0.7},
	}
}

func TestRankOrdersBySeasonAndCo2e(t *testing.T) {
	cards := []model.FoodCard{
		card("beef", model.CategoryMeat, 0.5, 60.0),
		card("lentils", model.CategoryLegumes, 0.5, 0.9),
		card("strawberry", model.CategoryProduce, 0.95, 1.5),
	}

	ranked := Rank(cards, DefaultRankConfig())
	require.Len(t, ranked, 3)
	assert.Equal(t, "strawberry", ranked[0].Food.ID)
	assert.Equal(t, "lentils", ranked[1].Food.ID)
	assert.Equal(t, "beef", ranked[2].Food.ID)
}

func TestRankMissingGhgScoresWorstOnCo2e(t *testing.T) {
	unknown := card("mystery", model.CategoryProduce, 0.5, 0)
	unknown.Ghg = nil

	cards := []model.FoodCard{
		unknown,
		card("beef", model.CategoryMeat, 0.5, 60.0),
		card("lentils", model.CategoryLegumes, 0.5, 0.9),
	}

	ranked := Rank(cards, DefaultRankConfig())
	require.Len(t, ranked, 3)

	// With season probability equal across the set, a card without an
	// emissions factor must not outrank the known low emitter. It lands in
	// the same band as the worst emitter, not the best.
	assert.Equal(t, "lentils", ranked[0].Food.ID)
	assert.Equal(t, "mystery", ranked[1].Food.ID)
	assert.Equal(t, "beef", ranked[2].Food.ID)
}

func TestRankIsStableOnTies(t *testing.T) {
	cards := []model.FoodCard{
		card("a", model.CategoryProduce, 0.8, 1.0),
		card("b", model.CategoryProduce, 0.8, 1.0),
		card("c", model.CategoryProduce, 0.8, 1.0),
	}

	first := Rank(cards, DefaultRankConfig())
	second := Rank(first, DefaultRankConfig())
	for i := range first {
		assert.Equal(t, cards[i].Food.ID, first[i].Food.ID)
		assert.Equal(t, first[i].Food.ID, second[i].Food.ID)
	}
}

func TestRankZeroCo2eRange(t *testing.T) {
	// All candidates share the same mid value; the CO2e term must not blow
	// up and the season probability alone decides the order.
	cards := []model.FoodCard{
		card("a", model.CategoryProduce, 0.2, 2.0),
		card("b", model.CategoryProduce, 0.9, 2.0),
	}

	ranked := Rank(cards, DefaultRankConfig())
	assert.Equal(t, "b", ranked[0].Food.ID)
}

func TestRankWaterPenalty(t *testing.T) {
	high := model.WaterRiskHigh
	risky := card("almond", model.CategoryProduce, 0.7, 1.0)
	risky.Origins = []model.OriginInfo{{RegionCode: "US", RiskBucket: &high}}
	safe := card("hazelnut", model.CategoryProduce, 0.7, 1.0)

	ranked := Rank([]model.FoodCard{risky, safe}, DefaultRankConfig())
	assert.Equal(t, "hazelnut", ranked[0].Food.ID)
}

func TestRankEmpty(t *testing.T) {
	assert.Nil(t, Rank(nil, DefaultRankConfig()))
}

func TestBuildRecommendations(t *testing.T) {
	cards := []model.FoodCard{
		card("beef", model.CategoryMeat, 0.5, 60.0),
		card("lentils", model.CategoryLegumes, 0.6, 0.9),
		card("oats", model.CategoryGrains, 0.5, 1.7),
		card("strawberry", model.CategoryProduce, 0.95, 1.5),
		card("tomato", model.CategoryProduce, 0.2, 1.4),
	}

	rec := BuildRecommendations(cards, "FR", 6, DefaultRankConfig())
	assert.Equal(t, 6, rec.Month)
	assert.Equal(t, "FR", rec.RegionCode)
	assert.Len(t, rec.Ranked, 5)

	// In-season excludes the 0.2 tomato and sorts by probability.
	require.Len(t, rec.InSeason, 4)
	assert.Equal(t, "strawberry", rec.InSeason[0].Food.ID)

	require.NotEmpty(t, rec.LowestCo2e)
	assert.Equal(t, "lentils", rec.LowestCo2e[0].Food.ID)

	// Protein includes meat, dairy, and legumes sorted by emissions.
	require.Len(t, rec.Protein, 2)
	assert.Equal(t, "lentils", rec.Protein[0].Food.ID)
	assert.Equal(t, "beef", rec.Protein[1].Food.ID)

	// Staples are grains and legumes.
	require.Len(t, rec.Staples, 2)
	assert.Equal(t, "lentils", rec.Staples[0].Food.ID)
}

func TestBuildRecommendationsListLimit(t *testing.T) {
	cfg := DefaultRankConfig()
	cfg.ListLimit = 2

	cards := []model.FoodCard{
		card("a", model.CategoryProduce, 0.9, 1.0),
		card("b", model.CategoryProduce, 0.8, 2.0),
		card("c", model.CategoryProduce, 0.7, 3.0),
	}

	rec := BuildRecommendations(cards, "FR", 6, cfg)
	assert.Len(t, rec.Ranked, 2)
	assert.Len(t, rec.InSeason, 2)
	assert.Len(t, rec.LowestCo2e, 2)
}

func TestCo2eBandFor(t *testing.T) {
	cfg := DefaultRankConfig()
	assert.Equal(t, Co2eBandLow, cfg.Co2eBandFor(0.9))
	assert.Equal(t, Co2eBandMedium, cfg.Co2eBandFor(2.0))
	assert.Equal(t, Co2eBandMedium, cfg.Co2eBandFor(9.9))
	assert.Equal(t, Co2eBandHigh, cfg.Co2eBandFor(10.0))
	assert.Equal(t, Co2eBandHigh, cfg.Co2eBandFor(60.0))
}

func TestLoadRankConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rank.yaml")
	content := "ranking:\n  season_weight: 0.6\n  list_limit: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadRankConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.6, cfg.SeasonWeight)
	assert.Equal(t, 5, cfg.ListLimit)
	// Unspecified fields keep their defaults.
	assert.Equal(t, 0.35, cfg.Co2eWeight)
	assert.Equal(t, 0.5, cfg.InSeasonThreshold)
}

func TestLoadRankConfigMissingFile(t *testing.T) {
	cfg, err := LoadRankConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
	// Defaults come back so the caller can proceed.
	assert.Equal(t, DefaultRankConfig(), cfg)
}
