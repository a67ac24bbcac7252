package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seasonscope/internal/model"
	"github.com/sells-group/seasonscope/internal/region"
)

func season(regionCode string, month int, prob float64) model.Seasonality {
	return model.Seasonality{
		ID:          "s",
		FoodID:      "strawberry",
		RegionCode:  regionCode,
		Month:       month,
		Probability: prob,
		Confidence:  0.75,
		SourceID:    "fao_crop_calendar",
	}
}

func TestSelectSeasonalityExactMatch(t *testing.T) {
	records := []model.Seasonality{
		season("US-SE", 3, 0.9),
		season("US", 3, 0.5),
	}

	sel := SelectSeasonality(records, region.Parse("US-SE"), 3, nil)
	require.NotNil(t, sel.Record)
	assert.Equal(t, 0.9, sel.Record.Probability)
	assert.Empty(t, sel.FallbackNote)
}

func TestSelectSeasonalityFloridaUsesSoutheast(t *testing.T) {
	records := []model.Seasonality{
		season("US-SE", 3, 0.9),
		season("US", 3, 0.5),
	}

	sel := SelectSeasonality(records, region.Subdivision("US", "FL"), 3, nil)
	require.NotNil(t, sel.Record)
	assert.Equal(t, "US-SE", sel.Record.RegionCode)
	assert.Contains(t, sel.FallbackNote, "US region fallback")
}

func TestSelectSeasonalitySubdivisionFallsBackToCountry(t *testing.T) {
	records := []model.Seasonality{
		season("FR", 6, 0.8),
	}

	sel := SelectSeasonality(records, region.Subdivision("FR", "BRE"), 6, nil)
	require.NotNil(t, sel.Record)
	assert.Equal(t, "FR", sel.Record.RegionCode)
	assert.Contains(t, sel.FallbackNote, "country-level")
}

func TestSelectSeasonalityClimateZoneFromCoords(t *testing.T) {
	// Berlin sits in the Cfb city table; only a climate-zone record exists.
	records := []model.Seasonality{
		season("CLIMATE:Cfb", 7, 0.7),
	}
	coords := &Coords{Lat: 52.52, Lon: 13.40}

	sel := SelectSeasonality(records, region.Country("DE"), 7, coords)
	require.NotNil(t, sel.Record)
	assert.Equal(t, "CLIMATE:Cfb", sel.Record.RegionCode)
	assert.Contains(t, sel.FallbackNote, "Cfb")
}

func TestSelectSeasonalityGlobalFallback(t *testing.T) {
	records := []model.Seasonality{
		season("GLOBAL", 1, 0.4),
	}

	sel := SelectSeasonality(records, region.Country("JP"), 1, nil)
	require.NotNil(t, sel.Record)
	assert.Contains(t, sel.FallbackNote, "global seasonality estimate")
}

func TestSelectSeasonalityNoData(t *testing.T) {
	sel := SelectSeasonality(nil, region.Country("JP"), 4, nil)
	assert.Nil(t, sel.Record)
	assert.Contains(t, sel.FallbackNote, "No citable seasonality data")
	assert.Contains(t, sel.FallbackNote, "April")
}

func TestSelectSeasonalityInvalidMonth(t *testing.T) {
	records := []model.Seasonality{season("FR", 6, 0.8)}
	sel := SelectSeasonality(records, region.Country("FR"), 13, nil)
	assert.Nil(t, sel.Record)
}

func TestBestMonths(t *testing.T) {
	records := []model.Seasonality{
		season("FR", 5, 0.55),
		season("FR", 6, 0.9),
		season("FR", 7, 0.9),
		season("FR", 8, 0.6),
		season("FR", 12, 0.05),
		season("DE", 6, 0.95),
	}

	months := BestMonths(records, region.Country("FR"), nil, 0.5)
	// Sorted by probability descending; the 0.9 tie keeps month order.
	assert.Equal(t, []int{6, 7, 8, 5}, months)
}

func TestBestMonthsUsesFallbackChain(t *testing.T) {
	// Only macro-region rows exist; a state in that macro-region still gets
	// best months, from the same rows its curve resolves to.
	records := []model.Seasonality{
		season("US-SE", 4, 0.85),
		season("US-SE", 5, 0.9),
		season("US-SE", 11, 0.2),
	}

	months := BestMonths(records, region.Parse("US-FL"), nil, 0.5)
	assert.Equal(t, []int{5, 4}, months)
}

func TestBestMonthsEmpty(t *testing.T) {
	assert.Empty(t, BestMonths(nil, region.Country("FR"), nil, 0.5))
}
