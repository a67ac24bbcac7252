package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/seasonscope/internal/db"
	"github.com/sells-group/seasonscope/internal/model"
)

// PostgresStore implements Store using pgxpool. Dataset upserts go through
// the bulk COPY-then-merge path, which matters when a crop-calendar import
// writes tens of thousands of month rows.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sources (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	publisher      TEXT NOT NULL,
	url            TEXT,
	published_date TEXT,
	accessed_date  TEXT,
	license        TEXT,
	notes          TEXT
);

CREATE TABLE IF NOT EXISTS foods (
	id                 TEXT PRIMARY KEY,
	canonical_name     TEXT NOT NULL,
	category           TEXT NOT NULL,
	synonyms           JSONB NOT NULL DEFAULT '[]',
	typical_serving_g  DOUBLE PRECISION,
	edible_portion_pct DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS ghg_factors (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	food_id     TEXT NOT NULL REFERENCES foods(id),
	region_code TEXT NOT NULL,
	system_code TEXT NOT NULL,
	value_min   DOUBLE PRECISION NOT NULL,
	value_mid   DOUBLE PRECISION NOT NULL,
	value_max   DOUBLE PRECISION NOT NULL,
	unit        TEXT NOT NULL,
	year        INTEGER,
	source_id   TEXT NOT NULL REFERENCES sources(id),
	quality     TEXT NOT NULL,
	UNIQUE (food_id, region_code, system_code)
);

CREATE TABLE IF NOT EXISTS seasonality (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	food_id     TEXT NOT NULL REFERENCES foods(id),
	region_code TEXT NOT NULL,
	month       INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
	probability DOUBLE PRECISION NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	source_id   TEXT NOT NULL REFERENCES sources(id),
	UNIQUE (food_id, region_code, month)
);

CREATE TABLE IF NOT EXISTS origins (
	id                      TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	food_id                 TEXT NOT NULL REFERENCES foods(id),
	destination_region_code TEXT NOT NULL,
	origin_region_code      TEXT NOT NULL,
	probability             DOUBLE PRECISION NOT NULL,
	rationale               TEXT,
	source_id               TEXT NOT NULL REFERENCES sources(id),
	UNIQUE (food_id, destination_region_code, origin_region_code)
);

CREATE TABLE IF NOT EXISTS water_risk (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	region_code    TEXT NOT NULL,
	indicator_name TEXT NOT NULL,
	score          DOUBLE PRECISION NOT NULL,
	bucket         TEXT NOT NULL,
	source_id      TEXT NOT NULL REFERENCES sources(id),
	UNIQUE (region_code, indicator_name)
);

CREATE INDEX IF NOT EXISTS idx_ghg_factors_food ON ghg_factors(food_id);
CREATE INDEX IF NOT EXISTS idx_seasonality_food ON seasonality(food_id);
CREATE INDEX IF NOT EXISTS idx_seasonality_region_month ON seasonality(region_code, month);
CREATE INDEX IF NOT EXISTS idx_origins_food ON origins(food_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertFoods(ctx context.Context, foods []model.Food) (int64, error) {
	if err := validateFoods(foods); err != nil {
		return 0, err
	}

	rows := make([][]any, 0, len(foods))
	for _, f := range foods {
		synonyms, err := json.Marshal(f.Synonyms)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal synonyms for %s", f.ID)
		}
		rows = append(rows, []any{f.ID, f.CanonicalName, string(f.Category), synonyms, f.TypicalServingG, f.EdiblePortionPct})
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "foods",
		Columns:      []string{"id", "canonical_name", "category", "synonyms", "typical_serving_g", "edible_portion_pct"},
		ConflictKeys: []string{"id"},
	}, rows)
}

func (s *PostgresStore) GetFood(ctx context.Context, id string) (*model.Food, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, canonical_name, category, synonyms, typical_serving_g, edible_portion_pct
		 FROM foods WHERE id = $1`, id)
	f, err := scanPgFood(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get food %s", id)
	}
	return f, nil
}

func (s *PostgresStore) ListFoods(ctx context.Context) ([]model.Food, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, canonical_name, category, synonyms, typical_serving_g, edible_portion_pct
		 FROM foods ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list foods")
	}
	defer rows.Close()

	var foods []model.Food
	for rows.Next() {
		f, err := scanPgFood(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan food")
		}
		foods = append(foods, *f)
	}
	return foods, eris.Wrap(rows.Err(), "postgres: list foods")
}

func (s *PostgresStore) UpsertSources(ctx context.Context, sources []model.Source) (int64, error) {
	if err := validateSources(sources); err != nil {
		return 0, err
	}

	rows := make([][]any, 0, len(sources))
	for _, src := range sources {
		rows = append(rows, []any{src.ID, src.Title, src.Publisher, src.URL, src.PublishedDate, src.AccessedDate, src.License, src.Notes})
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "sources",
		Columns:      []string{"id", "title", "publisher", "url", "published_date", "accessed_date", "license", "notes"},
		ConflictKeys: []string{"id"},
	}, rows)
}

func (s *PostgresStore) GetSource(ctx context.Context, id string) (*model.Source, error) {
	var src model.Source
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, publisher, url, published_date, accessed_date, license, notes
		 FROM sources WHERE id = $1`, id).
		Scan(&src.ID, &src.Title, &src.Publisher, &src.URL, &src.PublishedDate, &src.AccessedDate, &src.License, &src.Notes)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get source %s", id)
	}
	return &src, nil
}

func (s *PostgresStore) ListSources(ctx context.Context) ([]model.Source, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, publisher, url, published_date, accessed_date, license, notes
		 FROM sources ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sources")
	}
	defer rows.Close()

	var sources []model.Source
	for rows.Next() {
		var src model.Source
		if err := rows.Scan(&src.ID, &src.Title, &src.Publisher, &src.URL, &src.PublishedDate, &src.AccessedDate, &src.License, &src.Notes); err != nil {
			return nil, eris.Wrap(err, "postgres: scan source")
		}
		sources = append(sources, src)
	}
	return sources, eris.Wrap(rows.Err(), "postgres: list sources")
}

func (s *PostgresStore) UpsertFactors(ctx context.Context, factors []model.GhgFactor) (int64, error) {
	if err := validateFactors(factors); err != nil {
		return 0, err
	}

	rows := make([][]any, 0, len(factors))
	for _, f := range factors {
		rows = append(rows, []any{orNewID(f.ID), f.FoodID, f.RegionCode, f.SystemCode, f.ValueMin, f.ValueMid, f.ValueMax, f.Unit, f.Year, f.SourceID, string(f.Quality)})
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "ghg_factors",
		Columns:      []string{"id", "food_id", "region_code", "system_code", "value_min", "value_mid", "value_max", "unit", "year", "source_id", "quality"},
		ConflictKeys: []string{"food_id", "region_code", "system_code"},
		UpdateCols:   []string{"value_min", "value_mid", "value_max", "unit", "year", "source_id", "quality"},
	}, rows)
}

func (s *PostgresStore) FactorsForFood(ctx context.Context, foodID string) ([]model.GhgFactor, error) {
	return s.queryFactors(ctx,
		`SELECT id, food_id, region_code, system_code, value_min, value_mid, value_max, unit, year, source_id, quality
		 FROM ghg_factors WHERE food_id = $1 ORDER BY region_code, system_code`, foodID)
}

func (s *PostgresStore) ListFactors(ctx context.Context) ([]model.GhgFactor, error) {
	return s.queryFactors(ctx,
		`SELECT id, food_id, region_code, system_code, value_min, value_mid, value_max, unit, year, source_id, quality
		 FROM ghg_factors ORDER BY food_id, region_code`)
}

func (s *PostgresStore) queryFactors(ctx context.Context, query string, args ...any) ([]model.GhgFactor, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query factors")
	}
	defer rows.Close()

	var factors []model.GhgFactor
	for rows.Next() {
		var f model.GhgFactor
		if err := rows.Scan(&f.ID, &f.FoodID, &f.RegionCode, &f.SystemCode, &f.ValueMin, &f.ValueMid, &f.ValueMax, &f.Unit, &f.Year, &f.SourceID, &f.Quality); err != nil {
			return nil, eris.Wrap(err, "postgres: scan factor")
		}
		factors = append(factors, f)
	}
	return factors, eris.Wrap(rows.Err(), "postgres: query factors")
}

func (s *PostgresStore) UpsertSeasonality(ctx context.Context, records []model.Seasonality) (int64, error) {
	if err := validateSeasonality(records); err != nil {
		return 0, err
	}

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{orNewID(r.ID), r.FoodID, r.RegionCode, r.Month, r.Probability, r.Confidence, r.SourceID})
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "seasonality",
		Columns:      []string{"id", "food_id", "region_code", "month", "probability", "confidence", "source_id"},
		ConflictKeys: []string{"food_id", "region_code", "month"},
		UpdateCols:   []string{"probability", "confidence", "source_id"},
	}, rows)
}

func (s *PostgresStore) SeasonalityForFood(ctx context.Context, foodID string) ([]model.Seasonality, error) {
	return s.querySeasonality(ctx,
		`SELECT id, food_id, region_code, month, probability, confidence, source_id
		 FROM seasonality WHERE food_id = $1 ORDER BY region_code, month`, foodID)
}

func (s *PostgresStore) ListSeasonality(ctx context.Context) ([]model.Seasonality, error) {
	return s.querySeasonality(ctx,
		`SELECT id, food_id, region_code, month, probability, confidence, source_id
		 FROM seasonality ORDER BY food_id, region_code, month`)
}

func (s *PostgresStore) querySeasonality(ctx context.Context, query string, args ...any) ([]model.Seasonality, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query seasonality")
	}
	defer rows.Close()

	var records []model.Seasonality
	for rows.Next() {
		var r model.Seasonality
		if err := rows.Scan(&r.ID, &r.FoodID, &r.RegionCode, &r.Month, &r.Probability, &r.Confidence, &r.SourceID); err != nil {
			return nil, eris.Wrap(err, "postgres: scan seasonality")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: query seasonality")
}

func (s *PostgresStore) UpsertOrigins(ctx context.Context, origins []model.Origin) (int64, error) {
	if err := validateOrigins(origins); err != nil {
		return 0, err
	}

	rows := make([][]any, 0, len(origins))
	for _, o := range origins {
		rows = append(rows, []any{orNewID(o.ID), o.FoodID, o.DestinationRegionCode, o.OriginRegionCode, o.Probability, o.Rationale, o.SourceID})
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "origins",
		Columns:      []string{"id", "food_id", "destination_region_code", "origin_region_code", "probability", "rationale", "source_id"},
		ConflictKeys: []string{"food_id", "destination_region_code", "origin_region_code"},
		UpdateCols:   []string{"probability", "rationale", "source_id"},
	}, rows)
}

func (s *PostgresStore) OriginsForFood(ctx context.Context, foodID string) ([]model.Origin, error) {
	return s.queryOrigins(ctx,
		`SELECT id, food_id, destination_region_code, origin_region_code, probability, rationale, source_id
		 FROM origins WHERE food_id = $1 ORDER BY destination_region_code, probability DESC`, foodID)
}

func (s *PostgresStore) ListOrigins(ctx context.Context) ([]model.Origin, error) {
	return s.queryOrigins(ctx,
		`SELECT id, food_id, destination_region_code, origin_region_code, probability, rationale, source_id
		 FROM origins ORDER BY food_id, destination_region_code`)
}

func (s *PostgresStore) queryOrigins(ctx context.Context, query string, args ...any) ([]model.Origin, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query origins")
	}
	defer rows.Close()

	var origins []model.Origin
	for rows.Next() {
		var o model.Origin
		if err := rows.Scan(&o.ID, &o.FoodID, &o.DestinationRegionCode, &o.OriginRegionCode, &o.Probability, &o.Rationale, &o.SourceID); err != nil {
			return nil, eris.Wrap(err, "postgres: scan origin")
		}
		origins = append(origins, o)
	}
	return origins, eris.Wrap(rows.Err(), "postgres: query origins")
}

func (s *PostgresStore) UpsertWaterRisks(ctx context.Context, risks []model.WaterRisk) (int64, error) {
	if err := validateWaterRisks(risks); err != nil {
		return 0, err
	}

	rows := make([][]any, 0, len(risks))
	for _, r := range risks {
		rows = append(rows, []any{orNewID(r.ID), r.RegionCode, r.IndicatorName, r.Score, string(r.Bucket), r.SourceID})
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "water_risk",
		Columns:      []string{"id", "region_code", "indicator_name", "score", "bucket", "source_id"},
		ConflictKeys: []string{"region_code", "indicator_name"},
		UpdateCols:   []string{"score", "bucket", "source_id"},
	}, rows)
}

func (s *PostgresStore) ListWaterRisks(ctx context.Context) ([]model.WaterRisk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, region_code, indicator_name, score, bucket, source_id FROM water_risk ORDER BY region_code, indicator_name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list water risk")
	}
	defer rows.Close()

	var risks []model.WaterRisk
	for rows.Next() {
		var r model.WaterRisk
		if err := rows.Scan(&r.ID, &r.RegionCode, &r.IndicatorName, &r.Score, &r.Bucket, &r.SourceID); err != nil {
			return nil, eris.Wrap(err, "postgres: scan water risk")
		}
		risks = append(risks, r)
	}
	return risks, eris.Wrap(rows.Err(), "postgres: list water risk")
}

func scanPgFood(row pgx.Row) (*model.Food, error) {
	var f model.Food
	var synonyms []byte
	if err := row.Scan(&f.ID, &f.CanonicalName, &f.Category, &synonyms, &f.TypicalServingG, &f.EdiblePortionPct); err != nil {
		return nil, err
	}
	if len(synonyms) > 0 {
		if err := json.Unmarshal(synonyms, &f.Synonyms); err != nil {
			return nil, eris.Wrapf(err, "unmarshal synonyms for %s", f.ID)
		}
	}
	return &f, nil
}
