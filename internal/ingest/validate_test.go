package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seasonscope/internal/model"
	"github.com/sells-group/seasonscope/internal/store"
)

// listStore serves canned rows for the validation checks. The embedded
// interface panics on anything Validate does not call.
type listStore struct {
	store.Store
	foods       []model.Food
	sources     []model.Source
	factors     []model.GhgFactor
	seasonality []model.Seasonality
	origins     []model.Origin
	waterRisks  []model.WaterRisk
}

func (s *listStore) ListFoods(context.Context) ([]model.Food, error)             { return s.foods, nil }
func (s *listStore) ListSources(context.Context) ([]model.Source, error)         { return s.sources, nil }
func (s *listStore) ListFactors(context.Context) ([]model.GhgFactor, error)      { return s.factors, nil }
func (s *listStore) ListSeasonality(context.Context) ([]model.Seasonality, error) {
	return s.seasonality, nil
}
func (s *listStore) ListOrigins(context.Context) ([]model.Origin, error)       { return s.origins, nil }
func (s *listStore) ListWaterRisks(context.Context) ([]model.WaterRisk, error) { return s.waterRisks, nil }

func checkByName(t *testing.T, r *ValidationReport, name string) Check {
	t.Helper()
	for _, c := range r.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %s not in report", name)
	return Check{}
}

func TestValidateEmptyStore(t *testing.T) {
	r, err := Validate(context.Background(), &listStore{})
	require.NoError(t, err)

	assert.True(t, r.Failed())
	assert.Equal(t, StatusFail, checkByName(t, r, "food_count").Status)
	assert.Equal(t, StatusWarn, checkByName(t, r, "source_count").Status)
}

func TestValidateBrokenCitation(t *testing.T) {
	st := &listStore{
		foods:   []model.Food{{ID: "tomato", CanonicalName: "Tomato", Category: model.CategoryProduce}},
		sources: []model.Source{{ID: "poore_nemecek_2018"}},
		factors: []model.GhgFactor{{
			FoodID: "tomato", RegionCode: "GLOBAL", ValueMin: 1, ValueMid: 2, ValueMax: 3,
			Unit: model.GhgUnit, SourceID: "nonexistent_source",
		}},
	}

	r, err := Validate(context.Background(), st)
	require.NoError(t, err)

	assert.True(t, r.Failed())
	assert.Equal(t, StatusFail, checkByName(t, r, "citation_integrity_ghg_factors").Status)
}

func TestValidateRangeViolation(t *testing.T) {
	st := &listStore{
		foods:   []model.Food{{ID: "tomato", CanonicalName: "Tomato", Category: model.CategoryProduce}},
		sources: []model.Source{{ID: "poore_nemecek_2018"}},
		factors: []model.GhgFactor{{
			FoodID: "tomato", RegionCode: "GLOBAL", ValueMin: 5, ValueMid: 2, ValueMax: 3,
			Unit: model.GhgUnit, SourceID: "poore_nemecek_2018",
		}},
	}

	r, err := Validate(context.Background(), st)
	require.NoError(t, err)

	assert.True(t, r.Failed())
	assert.Equal(t, StatusFail, checkByName(t, r, "ghg_range_validity").Status)
}

func TestValidateWrongUnit(t *testing.T) {
	st := &listStore{
		foods:   []model.Food{{ID: "tomato", CanonicalName: "Tomato", Category: model.CategoryProduce}},
		sources: []model.Source{{ID: "poore_nemecek_2018"}},
		factors: []model.GhgFactor{{
			FoodID: "tomato", RegionCode: "GLOBAL", ValueMin: 1, ValueMid: 2, ValueMax: 3,
			Unit: "g CO2e / serving", SourceID: "poore_nemecek_2018",
		}},
	}

	r, err := Validate(context.Background(), st)
	require.NoError(t, err)

	assert.True(t, r.Failed())
	assert.Equal(t, StatusFail, checkByName(t, r, "ghg_unit_consistency").Status)
}

func TestValidateCoverageWarnings(t *testing.T) {
	st := &listStore{
		foods: []model.Food{
			{ID: "tomato", CanonicalName: "Tomato", Category: model.CategoryProduce},
			{ID: "kale", CanonicalName: "Kale", Category: model.CategoryProduce},
		},
		sources: []model.Source{
			{ID: "poore_nemecek_2018"}, {ID: "agribalyse_3"},
			{ID: "fao_crop_calendar"}, {ID: "un_comtrade"},
		},
		factors: []model.GhgFactor{{
			FoodID: "tomato", RegionCode: "GLOBAL", ValueMin: 1, ValueMid: 2, ValueMax: 3,
			Unit: model.GhgUnit, SourceID: "poore_nemecek_2018",
		}},
		seasonality: []model.Seasonality{{
			FoodID: "tomato", RegionCode: "US", Month: 7, Probability: 0.9,
			Confidence: 0.75, SourceID: "fao_crop_calendar",
		}},
	}

	r, err := Validate(context.Background(), st)
	require.NoError(t, err)

	assert.False(t, r.Failed())
	ghg := checkByName(t, r, "ghg_coverage")
	assert.Equal(t, StatusWarn, ghg.Status)
	assert.Contains(t, ghg.Message, "kale")

	season := checkByName(t, r, "produce_seasonality_coverage")
	assert.Equal(t, StatusWarn, season.Status)
	assert.Contains(t, season.Message, "kale")

	assert.Equal(t, StatusPass, checkByName(t, r, "source_count").Status)
}
