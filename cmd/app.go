package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/seasonscope/internal/config"
	"github.com/sells-group/seasonscope/internal/fetcher"
	"github.com/sells-group/seasonscope/internal/model"
	"github.com/sells-group/seasonscope/internal/resolve"
	"github.com/sells-group/seasonscope/internal/store"
)

// openStore connects the configured backend and wraps it with the read-path
// TTL cache.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		s, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		s, err = store.NewSQLite(cfg.Store.Path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "open %s store", cfg.Store.Driver)
	}

	if cfg.Store.TTLMinutes > 0 {
		s = store.NewCached(s, time.Duration(cfg.Store.TTLMinutes)*time.Minute)
	}
	return s, nil
}

// newFetcher builds the download stack: HTTP with per-host rate limiting,
// FTP for the bulk mirrors, and a disk content cache over both.
func newFetcher(cfg *config.Config) (fetcher.Fetcher, error) {
	dispatch := fetcher.NewSchemeFetcher(
		fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}),
		fetcher.NewFTPFetcher(fetcher.FTPOptions{}),
	)

	maxAge := time.Duration(cfg.Cache.MaxAgeHours) * time.Hour
	cached, err := fetcher.NewCaching(dispatch, cfg.Cache.Dir, maxAge)
	if err != nil {
		return nil, eris.Wrap(err, "init download cache")
	}
	return cached, nil
}

// loadDataset collects everything the resolvers need for one food.
func loadDataset(ctx context.Context, st store.Store, food model.Food) (resolve.Dataset, error) {
	ds := resolve.Dataset{Food: food}

	var err error
	if ds.Factors, err = st.FactorsForFood(ctx, food.ID); err != nil {
		return ds, eris.Wrapf(err, "load factors for %s", food.ID)
	}
	if ds.Seasonality, err = st.SeasonalityForFood(ctx, food.ID); err != nil {
		return ds, eris.Wrapf(err, "load seasonality for %s", food.ID)
	}
	if ds.Origins, err = st.OriginsForFood(ctx, food.ID); err != nil {
		return ds, eris.Wrapf(err, "load origins for %s", food.ID)
	}
	if ds.WaterRisks, err = st.ListWaterRisks(ctx); err != nil {
		return ds, eris.Wrapf(err, "load water risks")
	}
	return ds, nil
}

// buildAllCards resolves a card for every food in the catalog.
func buildAllCards(ctx context.Context, st store.Store, q resolve.Query) ([]model.FoodCard, error) {
	foods, err := st.ListFoods(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "list foods")
	}

	cards := make([]model.FoodCard, 0, len(foods))
	for _, f := range foods {
		ds, err := loadDataset(ctx, st, f)
		if err != nil {
			return nil, err
		}
		cards = append(cards, resolve.BuildCard(q, ds))
	}
	return cards, nil
}

// rankConfig loads weight overrides when a config path is set.
func rankConfig(cfg *config.Config) (resolve.RankConfig, error) {
	if cfg.Ranking.ConfigPath == "" {
		return resolve.DefaultRankConfig(), nil
	}
	return resolve.LoadRankConfig(cfg.Ranking.ConfigPath)
}
