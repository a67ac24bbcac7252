package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seasonscope/internal/model"
	"github.com/sells-group/seasonscope/internal/region"
)

func TestBuildCard(t *testing.T) {
	ds := Dataset{
		Food: model.Food{ID: "tomato", CanonicalName: "Tomato", Category: model.CategoryProduce},
		Factors: []model.GhgFactor{
			factor("GLOBAL", model.SystemUnknown, 1.4, model.QualityMedium),
			factor("EU", model.SystemBaseline, 0.9, model.QualityHigh),
		},
		Seasonality: []model.Seasonality{
			{FoodID: "tomato", RegionCode: "FR", Month: 7, Probability: 0.85, Confidence: 0.8, SourceID: "fao_crop_calendar"},
			{FoodID: "tomato", RegionCode: "FR", Month: 1, Probability: 0.05, Confidence: 0.6, SourceID: "fao_crop_calendar"},
		},
		Origins: []model.Origin{
			{FoodID: "tomato", DestinationRegionCode: "FR", OriginRegionCode: "ES", Probability: 0.6, SourceID: "un_comtrade"},
			{FoodID: "tomato", DestinationRegionCode: "FR", OriginRegionCode: "MA", Probability: 0.3, SourceID: "un_comtrade"},
		},
		WaterRisks: []model.WaterRisk{
			{RegionCode: "ES", IndicatorName: "baseline_water_stress", Score: 3.4, Bucket: model.WaterRiskHigh, SourceID: "wri_aqueduct"},
		},
	}

	q := Query{
		Region: region.Country("FR"),
		Month:  7,
		Coords: &Coords{Lat: 48.86, Lon: 2.35},
	}

	card := BuildCard(q, ds)

	require.NotNil(t, card.Ghg)
	assert.Equal(t, model.ResolutionContinent, card.Ghg.Resolution)
	assert.Equal(t, 0.9, card.Ghg.ValueMid)

	require.NotNil(t, card.Seasonality)
	assert.Equal(t, 0.85, card.Seasonality.Probability)
	assert.Empty(t, card.SeasonalityNote)

	require.Len(t, card.Origins, 2)
	assert.Equal(t, "ES", card.Origins[0].RegionCode)
	require.NotNil(t, card.Origins[0].RiskBucket)
	assert.Equal(t, model.WaterRiskHigh, *card.Origins[0].RiskBucket)
	// Morocco has no water-risk record, so no badge.
	assert.Nil(t, card.Origins[1].RiskBucket)

	assert.Equal(t, []int{7}, card.BestMonths)

	require.Len(t, card.SeasonalityCurve, 2)
	assert.Equal(t, model.MonthProbability{Month: 1, Probability: 0.05}, card.SeasonalityCurve[0])
	assert.Equal(t, model.MonthProbability{Month: 7, Probability: 0.85}, card.SeasonalityCurve[1])

	assert.Equal(t, []string{"agribalyse_3_1", "fao_crop_calendar", "un_comtrade"}, card.SourceIDs)

	// Paris in July: no greenhouse flag even for a warm-season crop.
	assert.False(t, card.GreenhouseLikely)
}

func TestBuildCardMissingSectionsIndependent(t *testing.T) {
	ds := Dataset{
		Food: model.Food{ID: "quince", CanonicalName: "Quince", Category: model.CategoryProduce},
		Factors: []model.GhgFactor{
			factor("GLOBAL", model.SystemUnknown, 1.1, model.QualityMedium),
		},
	}

	card := BuildCard(Query{Region: region.Country("FR"), Month: 3}, ds)

	require.NotNil(t, card.Ghg)
	assert.Nil(t, card.Seasonality)
	assert.Contains(t, card.SeasonalityNote, "No citable seasonality data")
	assert.Empty(t, card.Origins)
	assert.Empty(t, card.OriginNote)
}

func TestBuildCardBestMonthsFollowCurveFallback(t *testing.T) {
	ds := Dataset{
		Food: model.Food{ID: "strawberry", CanonicalName: "Strawberry", Category: model.CategoryProduce},
		Seasonality: []model.Seasonality{
			{FoodID: "strawberry", RegionCode: "US-SE", Month: 3, Probability: 0.7, Confidence: 0.7, SourceID: "fao_crop_calendar"},
			{FoodID: "strawberry", RegionCode: "US-SE", Month: 4, Probability: 0.9, Confidence: 0.7, SourceID: "fao_crop_calendar"},
			{FoodID: "strawberry", RegionCode: "US-SE", Month: 10, Probability: 0.1, Confidence: 0.7, SourceID: "fao_crop_calendar"},
		},
	}

	card := BuildCard(Query{Region: region.Subdivision("US", "FL"), Month: 4}, ds)

	// The curve resolves through the macro-region; best months must come
	// from the same rows instead of turning up empty.
	require.Len(t, card.SeasonalityCurve, 3)
	assert.Equal(t, []int{4, 3}, card.BestMonths)
}

func TestBuildCardGreenhouseFlag(t *testing.T) {
	ds := Dataset{
		Food: model.Food{ID: "tomato", CanonicalName: "Tomato", Category: model.CategoryProduce},
	}
	// Minneapolis in January: Dfb city entry, northern winter.
	q := Query{
		Region: region.Subdivision("US", "MN"),
		Month:  1,
		Coords: &Coords{Lat: 44.98, Lon: -93.27},
	}

	card := BuildCard(q, ds)
	assert.True(t, card.GreenhouseLikely)
}
