// Package store persists the food catalog and the three resolved datasets.
// Two backends exist: SQLite for local single-user use and Postgres for
// shared deployments. All writes are idempotent upserts keyed on the natural
// key of each dataset, so re-running ingestion converges instead of
// duplicating.
package store

import (
	"context"

	"github.com/sells-group/seasonscope/internal/model"
)

// Store is the persistence interface for the catalog and datasets. Upserts
// validate every record and reject the batch on the first invalid one;
// partial batches are never written.
type Store interface {
	// Catalog
	UpsertFoods(ctx context.Context, foods []model.Food) (int64, error)
	GetFood(ctx context.Context, id string) (*model.Food, error)
	ListFoods(ctx context.Context) ([]model.Food, error)

	UpsertSources(ctx context.Context, sources []model.Source) (int64, error)
	GetSource(ctx context.Context, id string) (*model.Source, error)
	ListSources(ctx context.Context) ([]model.Source, error)

	// GHG emission factors, keyed (food, region, system, source).
	UpsertFactors(ctx context.Context, factors []model.GhgFactor) (int64, error)
	FactorsForFood(ctx context.Context, foodID string) ([]model.GhgFactor, error)
	ListFactors(ctx context.Context) ([]model.GhgFactor, error)

	// Seasonality, keyed (food, region, month).
	UpsertSeasonality(ctx context.Context, records []model.Seasonality) (int64, error)
	SeasonalityForFood(ctx context.Context, foodID string) ([]model.Seasonality, error)
	ListSeasonality(ctx context.Context) ([]model.Seasonality, error)

	// Import origins, keyed (food, destination, origin).
	UpsertOrigins(ctx context.Context, origins []model.Origin) (int64, error)
	OriginsForFood(ctx context.Context, foodID string) ([]model.Origin, error)
	ListOrigins(ctx context.Context) ([]model.Origin, error)

	// Water risk, keyed by region.
	UpsertWaterRisks(ctx context.Context, risks []model.WaterRisk) (int64, error)
	ListWaterRisks(ctx context.Context) ([]model.WaterRisk, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func validateFoods(foods []model.Food) error {
	for _, f := range foods {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateSources(sources []model.Source) error {
	for _, s := range sources {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateFactors(factors []model.GhgFactor) error {
	for _, f := range factors {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateSeasonality(records []model.Seasonality) error {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateOrigins(origins []model.Origin) error {
	for _, o := range origins {
		if err := o.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateWaterRisks(risks []model.WaterRisk) error {
	for _, r := range risks {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}
