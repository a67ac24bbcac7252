package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seasonscope/internal/model"
	"github.com/sells-group/seasonscope/internal/resolve"
	"github.com/sells-group/seasonscope/internal/store"
)

func newServerStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))

	_, err = s.UpsertSources(ctx, []model.Source{
		{ID: "poore_nemecek_2018", Title: "Reducing food's environmental impacts", Publisher: "Science"},
		{ID: "fao_crop_calendar", Title: "FAO Crop Calendar", Publisher: "FAO"},
	})
	require.NoError(t, err)

	_, err = s.UpsertFoods(ctx, []model.Food{
		{ID: "tomato", CanonicalName: "Tomato", Category: model.CategoryProduce, Synonyms: []string{"roma tomato"}, EdiblePortionPct: 0.91},
		{ID: "lentils_green", CanonicalName: "Green Lentils", Category: model.CategoryLegumes, EdiblePortionPct: 1.0},
	})
	require.NoError(t, err)

	_, err = s.UpsertFactors(ctx, []model.GhgFactor{{
		FoodID: "tomato", RegionCode: "GLOBAL", SystemCode: model.SystemUnknown,
		ValueMin: 0.7, ValueMid: 1.4, ValueMax: 2.8,
		Unit: model.GhgUnit, Year: 2018, SourceID: "poore_nemecek_2018",
		Quality: model.QualityMedium,
	}})
	require.NoError(t, err)

	_, err = s.UpsertSeasonality(ctx, []model.Seasonality{{
		FoodID: "tomato", RegionCode: "US", Month: 7, Probability: 0.9,
		Confidence: 0.75, SourceID: "fao_crop_calendar",
	}})
	require.NoError(t, err)

	return s
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	return newRouter(newServerStore(t), resolve.DefaultRankConfig(), []string{"*"})
}

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doGet(t, testRouter(t), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestFoodsListAndSearch(t *testing.T) {
	h := testRouter(t)

	rec := doGet(t, h, "/v1/foods")
	require.Equal(t, http.StatusOK, rec.Code)
	var foods []model.Food
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &foods))
	assert.Len(t, foods, 2)

	rec = doGet(t, h, "/v1/foods?q=roma")
	require.Equal(t, http.StatusOK, rec.Code)
	var matches []struct {
		Food model.Food `json:"food"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matches))
	require.NotEmpty(t, matches)
	assert.Equal(t, "tomato", matches[0].Food.ID)
}

func TestCardEndpoint(t *testing.T) {
	h := testRouter(t)

	rec := doGet(t, h, "/v1/foods/tomato/card?region=US&month=7")
	require.Equal(t, http.StatusOK, rec.Code)

	var card model.FoodCard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, "tomato", card.Food.ID)
	require.NotNil(t, card.Ghg)
	assert.Equal(t, 1.4, card.Ghg.ValueMid)
	require.NotNil(t, card.Seasonality)
	assert.Equal(t, 0.9, card.Seasonality.Probability)
}

func TestCardUnknownFood(t *testing.T) {
	rec := doGet(t, testRouter(t), "/v1/foods/durian/card")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCardBadMonth(t *testing.T) {
	rec := doGet(t, testRouter(t), "/v1/foods/tomato/card?month=13")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendationsEndpoint(t *testing.T) {
	rec := doGet(t, testRouter(t), "/v1/recommendations?region=US&month=7")
	require.Equal(t, http.StatusOK, rec.Code)

	var recs model.MonthlyRecommendations
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	assert.Equal(t, 7, recs.Month)
	assert.Equal(t, "US", recs.RegionCode)
	assert.NotEmpty(t, recs.Ranked)
}

func TestQueryFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/recommendations?region=US-CA&month=3&lat=34.05&lon=-118.24", nil)
	q, err := queryFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "US-CA", q.Region.Code())
	assert.Equal(t, 3, q.Month)
	require.NotNil(t, q.Coords)
	assert.Equal(t, 34.05, q.Coords.Lat)

	req = httptest.NewRequest(http.MethodGet, "/v1/recommendations?lat=abc&lon=1", nil)
	_, err = queryFromRequest(req)
	assert.Error(t, err)
}
