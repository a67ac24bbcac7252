package store

import (
	"context"
	"sync"
	"time"

	"github.com/sells-group/seasonscope/internal/model"
)

// ttlCache is a small in-memory cache with per-entry expiry.
type ttlCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]ttlEntry[V]
	ttl     time.Duration
	now     func() time.Time
}

type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func newTTLCache[V any](ttl time.Duration) *ttlCache[V] {
	return &ttlCache[V]{
		entries: make(map[string]ttlEntry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *ttlCache[V]) get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *ttlCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = ttlEntry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

func (c *ttlCache[V]) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]ttlEntry[V])
}

// CachedStore wraps a Store with a TTL read cache over the per-food dataset
// queries and the catalog listing. The resolved card itself is never cached,
// only the stored rows it is built from; writes invalidate everything, so a
// re-ingest is visible on the next read.
type CachedStore struct {
	Store
	foods       *ttlCache[[]model.Food]
	factors     *ttlCache[[]model.GhgFactor]
	seasonality *ttlCache[[]model.Seasonality]
	origins     *ttlCache[[]model.Origin]
	waterRisks  *ttlCache[[]model.WaterRisk]
}

// NewCached wraps a Store with the given read TTL.
func NewCached(s Store, ttl time.Duration) *CachedStore {
	return &CachedStore{
		Store:       s,
		foods:       newTTLCache[[]model.Food](ttl),
		factors:     newTTLCache[[]model.GhgFactor](ttl),
		seasonality: newTTLCache[[]model.Seasonality](ttl),
		origins:     newTTLCache[[]model.Origin](ttl),
		waterRisks:  newTTLCache[[]model.WaterRisk](ttl),
	}
}

const allKey = "\x00all"

func (c *CachedStore) ListFoods(ctx context.Context) ([]model.Food, error) {
	if v, ok := c.foods.get(allKey); ok {
		return v, nil
	}
	v, err := c.Store.ListFoods(ctx)
	if err != nil {
		return nil, err
	}
	c.foods.put(allKey, v)
	return v, nil
}

func (c *CachedStore) FactorsForFood(ctx context.Context, foodID string) ([]model.GhgFactor, error) {
	if v, ok := c.factors.get(foodID); ok {
		return v, nil
	}
	v, err := c.Store.FactorsForFood(ctx, foodID)
	if err != nil {
		return nil, err
	}
	c.factors.put(foodID, v)
	return v, nil
}

func (c *CachedStore) SeasonalityForFood(ctx context.Context, foodID string) ([]model.Seasonality, error) {
	if v, ok := c.seasonality.get(foodID); ok {
		return v, nil
	}
	v, err := c.Store.SeasonalityForFood(ctx, foodID)
	if err != nil {
		return nil, err
	}
	c.seasonality.put(foodID, v)
	return v, nil
}

func (c *CachedStore) OriginsForFood(ctx context.Context, foodID string) ([]model.Origin, error) {
	if v, ok := c.origins.get(foodID); ok {
		return v, nil
	}
	v, err := c.Store.OriginsForFood(ctx, foodID)
	if err != nil {
		return nil, err
	}
	c.origins.put(foodID, v)
	return v, nil
}

func (c *CachedStore) ListWaterRisks(ctx context.Context) ([]model.WaterRisk, error) {
	if v, ok := c.waterRisks.get(allKey); ok {
		return v, nil
	}
	v, err := c.Store.ListWaterRisks(ctx)
	if err != nil {
		return nil, err
	}
	c.waterRisks.put(allKey, v)
	return v, nil
}

// Writes invalidate after the underlying store returns. Invalidating first
// would let a concurrent read re-cache the pre-write rows while the write is
// still in flight.

func (c *CachedStore) UpsertFoods(ctx context.Context, foods []model.Food) (int64, error) {
	n, err := c.Store.UpsertFoods(ctx, foods)
	c.invalidate()
	return n, err
}

func (c *CachedStore) UpsertFactors(ctx context.Context, factors []model.GhgFactor) (int64, error) {
	n, err := c.Store.UpsertFactors(ctx, factors)
	c.invalidate()
	return n, err
}

func (c *CachedStore) UpsertSeasonality(ctx context.Context, records []model.Seasonality) (int64, error) {
	n, err := c.Store.UpsertSeasonality(ctx, records)
	c.invalidate()
	return n, err
}

func (c *CachedStore) UpsertOrigins(ctx context.Context, origins []model.Origin) (int64, error) {
	n, err := c.Store.UpsertOrigins(ctx, origins)
	c.invalidate()
	return n, err
}

func (c *CachedStore) UpsertWaterRisks(ctx context.Context, risks []model.WaterRisk) (int64, error) {
	n, err := c.Store.UpsertWaterRisks(ctx, risks)
	c.invalidate()
	return n, err
}

func (c *CachedStore) invalidate() {
	c.foods.invalidateAll()
	c.factors.invalidateAll()
	c.seasonality.invalidateAll()
	c.origins.invalidateAll()
	c.waterRisks.invalidateAll()
}
