package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seasonscope/internal/model"
)

func TestSeedFoodsValid(t *testing.T) {
	foods := seedFoods()
	require.NotEmpty(t, foods)

	seen := make(map[string]bool)
	for _, f := range foods {
		assert.NoError(t, f.Validate(), "food %s", f.ID)
		assert.False(t, seen[f.ID], "duplicate food id %s", f.ID)
		seen[f.ID] = true
	}
}

func TestSeedSourcesValid(t *testing.T) {
	sources := seedSources()
	require.GreaterOrEqual(t, len(sources), 4)

	seen := make(map[string]bool)
	for _, s := range sources {
		assert.NoError(t, s.Validate(), "source %s", s.ID)
		assert.False(t, seen[s.ID], "duplicate source id %s", s.ID)
		seen[s.ID] = true
	}
}

func TestSeedCoversAllCategories(t *testing.T) {
	byCategory := make(map[model.Category]int)
	for _, f := range seedFoods() {
		byCategory[f.Category]++
	}

	for _, cat := range []model.Category{
		model.CategoryProduce,
		model.CategoryMeat,
		model.CategoryDairy,
		model.CategoryGrains,
		model.CategoryLegumes,
	} {
		assert.Positive(t, byCategory[cat], "no seeded foods in category %s", cat)
	}
}

func TestConnectorSourcesAreSeeded(t *testing.T) {
	seeded := make(map[string]bool)
	for _, s := range seedSources() {
		seeded[s.ID] = true
	}

	for _, id := range []string{
		"poore_nemecek_2018",
		"agribalyse_3",
		"fao_crop_calendar",
		"koppen_beck_2018",
		"wri_aqueduct",
		"un_comtrade",
	} {
		assert.True(t, seeded[id], "connector cites unseeded source %s", id)
	}
}
