package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seasonscope/internal/model"
)

func TestCachedStoreServesFromCache(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	cached := NewCached(s, time.Minute)

	first, err := cached.ListFoods(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)

	// A write through the raw store is invisible until the TTL lapses.
	_, err = s.UpsertFoods(ctx, []model.Food{
		{ID: "oats", CanonicalName: "Oats", Category: model.CategoryGrains, EdiblePortionPct: 1.0},
	})
	require.NoError(t, err)

	second, err := cached.ListFoods(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 2)
}

func TestCachedStoreExpiry(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	cached := NewCached(s, time.Minute)
	base := time.Now()
	cached.foods.now = func() time.Time { return base }

	_, err := cached.ListFoods(ctx)
	require.NoError(t, err)

	_, err = s.UpsertFoods(ctx, []model.Food{
		{ID: "oats", CanonicalName: "Oats", Category: model.CategoryGrains, EdiblePortionPct: 1.0},
	})
	require.NoError(t, err)

	// Advance past the TTL; the next read refetches.
	cached.foods.now = func() time.Time { return base.Add(2 * time.Minute) }

	foods, err := cached.ListFoods(ctx)
	require.NoError(t, err)
	assert.Len(t, foods, 3)
}

func TestCachedStoreWriteInvalidates(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	cached := NewCached(s, time.Hour)

	_, err := cached.ListFoods(ctx)
	require.NoError(t, err)

	// Writing through the cached store drops all cached reads.
	_, err = cached.UpsertFoods(ctx, []model.Food{
		{ID: "oats", CanonicalName: "Oats", Category: model.CategoryGrains, EdiblePortionPct: 1.0},
	})
	require.NoError(t, err)

	foods, err := cached.ListFoods(ctx)
	require.NoError(t, err)
	assert.Len(t, foods, 3)
}

// rereadStore issues a cached read in the middle of its own write, standing
// in for a reader that races an ingest run.
type rereadStore struct {
	Store
	cached *CachedStore
}

func (r *rereadStore) UpsertFoods(ctx context.Context, foods []model.Food) (int64, error) {
	if _, err := r.cached.ListFoods(ctx); err != nil {
		return 0, err
	}
	return r.Store.UpsertFoods(ctx, foods)
}

func TestCachedStoreReadDuringWriteCannotPinStaleRows(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	inner := &rereadStore{Store: s}
	cached := NewCached(inner, time.Hour)
	inner.cached = cached

	_, err := cached.ListFoods(ctx)
	require.NoError(t, err)

	// The mid-write read re-caches the pre-write listing; invalidation
	// after the write returns must still flush it.
	_, err = cached.UpsertFoods(ctx, []model.Food{
		{ID: "oats", CanonicalName: "Oats", Category: model.CategoryGrains, EdiblePortionPct: 1.0},
	})
	require.NoError(t, err)

	foods, err := cached.ListFoods(ctx)
	require.NoError(t, err)
	assert.Len(t, foods, 3)
}

func TestCachedStorePerFoodReads(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	cached := NewCached(s, time.Hour)

	_, err := cached.UpsertFactors(ctx, []model.GhgFactor{{
		FoodID:     "tomato",
		RegionCode: "GLOBAL",
		SystemCode: model.SystemUnknown,
		ValueMin:   0.8,
		ValueMid:   1.4,
		ValueMax:   2.6,
		Unit:       model.GhgUnit,
		SourceID:   "poore_nemecek_2018",
		Quality:    model.QualityMedium,
	}})
	require.NoError(t, err)

	got, err := cached.FactorsForFood(ctx, "tomato")
	require.NoError(t, err)
	require.Len(t, got, 1)

	again, err := cached.FactorsForFood(ctx, "tomato")
	require.NoError(t, err)
	assert.Equal(t, got, again)
}
