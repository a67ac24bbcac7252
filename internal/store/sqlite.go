package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/seasonscope/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	// Pragmas go in the DSN so they apply to every pooled connection, not
	// just the one a plain db.Exec would configure.
	db, err := sql.Open("sqlite", dsn+
		"?_pragma=journal_mode(WAL)"+
		"&_pragma=busy_timeout(5000)"+
		"&_pragma=synchronous(NORMAL)"+
		"&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	synonyms           TEXT NOT NULL DEFAULT '[]',
	typical_serving_g  REAL,
	edible_portion_pct REAL
);

CREATE TABLE IF NOT EXISTS ghg_factors (
	id          TEXT PRIMARY KEY,
	food_id     TEXT NOT NULL REFERENCES foods(id),
	region_code TEXT NOT NULL,
	system_code TEXT NOT NULL,
	value_min   REAL NOT NULL,
	value_mid   REAL NOT NULL,
	value_max   REAL NOT NULL,
	unit        TEXT NOT NULL,
	year        INTEGER,
	source_id   TEXT NOT NULL REFERENCES sources(id),
	quality     TEXT NOT NULL,
	UNIQUE (food_id, region_code, system_code)
);

CREATE TABLE IF NOT EXISTS seasonality (
	id          TEXT PRIMARY KEY,
	food_id     TEXT NOT NULL REFERENCES foods(id),
	region_code TEXT NOT NULL,
	month       INTEGER NOT NULL,
	probability REAL NOT NULL,
	confidence  REAL NOT NULL,
	source_id   TEXT NOT NULL REFERENCES sources(id),
	UNIQUE (food_id, region_code, month)
);

CREATE TABLE IF NOT EXISTS origins (
	id                      TEXT PRIMARY KEY,
	food_id                 TEXT NOT NULL REFERENCES foods(id),
	destination_region_code TEXT NOT NULL,
	origin_region_code      TEXT NOT NULL,
	probability             REAL NOT NULL,
	rationale               TEXT,
	source_id               TEXT NOT NULL REFERENCES sources(id),
	UNIQUE (food_id, destination_region_code, origin_region_code)
);

CREATE TABLE IF NOT EXISTS water_risk (
	id             TEXT PRIMARY KEY,
	region_code    TEXT NOT NULL,
	indicator_name TEXT NOT NULL,
	score          REAL NOT NULL,
	bucket         TEXT NOT NULL,
	source_id      TEXT NOT NULL REFERENCES sources(id),
	UNIQUE (region_code, indicator_name)
);

CREATE INDEX IF NOT EXISTS idx_ghg_factors_food ON ghg_factors(food_id);
CREATE INDEX IF NOT EXISTS idx_seasonality_food ON seasonality(food_id);
CREATE INDEX IF NOT EXISTS idx_seasonality_region_month ON seasonality(region_code, month);
CREATE INDEX IF NOT EXISTS idx_origins_food ON origins(food_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertFoods(ctx context.Context, foods []model.Food) (int64, error) {
	if err := validateFoods(foods); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	var n int64
	for _, f := range foods {
		synonyms, err := json.Marshal(f.Synonyms)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: marshal synonyms for %s", f.ID)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO foods (id, canonical_name, category, synonyms, typical_serving_g, edible_portion_pct)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			   canonical_name = excluded.canonical_name,
			   category = excluded.category,
			   synonyms = excluded.synonyms,
			   typical_serving_g = excluded.typical_serving_g,
			   edible_portion_pct = excluded.edible_portion_pct`,
			f.ID, f.CanonicalName, string(f.Category), string(synonyms), nullFloat(f.TypicalServingG), nullFloat(f.EdiblePortionPct),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert food %s", f.ID)
		}
		n += rowsAffected(res)
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit foods")
	}
	return n, nil
}

func (s *SQLiteStore) GetFood(ctx context.Context, id string) (*model.Food, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, canonical_name, category, synonyms, typical_serving_g, edible_portion_pct
		 FROM foods WHERE id = ?`, id)
	f, err := scanFood(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get food %s", id)
	}
	return f, nil
}

func (s *SQLiteStore) ListFoods(ctx context.Context) ([]model.Food, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, canonical_name, category, synonyms, typical_serving_g, edible_portion_pct
		 FROM foods ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list foods")
	}
	defer rows.Close()

	var foods []model.Food
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan food")
		}
		foods = append(foods, *f)
	}
	return foods, eris.Wrap(rows.Err(), "sqlite: list foods")
}

func (s *SQLiteStore) UpsertSources(ctx context.Context, sources []model.Source) (int64, error) {
	if err := validateSources(sources); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	var n int64
	for _, src := range sources {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO sources (id, title, publisher, url, published_date, accessed_date, license, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			   title = excluded.title,
			   publisher = excluded.publisher,
			   url = excluded.url,
			   published_date = excluded.published_date,
			   accessed_date = excluded.accessed_date,
			   license = excluded.license,
			   notes = excluded.notes`,
			src.ID, src.Title, src.Publisher, src.URL, src.PublishedDate, src.AccessedDate, src.License, src.Notes,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert source %s", src.ID)
		}
		n += rowsAffected(res)
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit sources")
	}
	return n, nil
}

func (s *SQLiteStore) GetSource(ctx context.Context, id string) (*model.Source, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, publisher, url, published_date, accessed_date, license, notes
		 FROM sources WHERE id = ?`, id)
	var src model.Source
	err := row.Scan(&src.ID, &src.Title, &src.Publisher, &src.URL, &src.PublishedDate, &src.AccessedDate, &src.License, &src.Notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get source %s", id)
	}
	return &src, nil
}

func (s *SQLiteStore) ListSources(ctx context.Context) ([]model.Source, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, publisher, url, published_date, accessed_date, license, notes
		 FROM sources ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sources")
	}
	defer rows.Close()

	var sources []model.Source
	for rows.Next() {
		var src model.Source
		if err := rows.Scan(&src.ID, &src.Title, &src.Publisher, &src.URL, &src.PublishedDate, &src.AccessedDate, &src.License, &src.Notes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan source")
		}
		sources = append(sources, src)
	}
	return sources, eris.Wrap(rows.Err(), "sqlite: list sources")
}

func (s *SQLiteStore) UpsertFactors(ctx context.Context, factors []model.GhgFactor) (int64, error) {
	if err := validateFactors(factors); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	var n int64
	for _, f := range factors {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO ghg_factors (id, food_id, region_code, system_code, value_min, value_mid, value_max, unit, year, source_id, quality)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (food_id, region_code, system_code) DO UPDATE SET
			   value_min = excluded.value_min,
			   value_mid = excluded.value_mid,
			   value_max = excluded.value_max,
			   unit = excluded.unit,
			   year = excluded.year,
			   source_id = excluded.source_id,
			   quality = excluded.quality`,
			orNewID(f.ID), f.FoodID, f.RegionCode, f.SystemCode, f.ValueMin, f.ValueMid, f.ValueMax, f.Unit, f.Year, f.SourceID, string(f.Quality),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert factor %s/%s", f.FoodID, f.RegionCode)
		}
		n += rowsAffected(res)
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit factors")
	}
	return n, nil
}

func (s *SQLiteStore) FactorsForFood(ctx context.Context, foodID string) ([]model.GhgFactor, error) {
	return s.queryFactors(ctx,
		`SELECT id, food_id, region_code, system_code, value_min, value_mid, value_max, unit, year, source_id, quality
		 FROM ghg_factors WHERE food_id = ? ORDER BY region_code, system_code`, foodID)
}

func (s *SQLiteStore) ListFactors(ctx context.Context) ([]model.GhgFactor, error) {
	return s.queryFactors(ctx,
		`SELECT id, food_id, region_code, system_code, value_min, value_mid, value_max, unit, year, source_id, quality
		 FROM ghg_factors ORDER BY food_id, region_code`)
}

func (s *SQLiteStore) queryFactors(ctx context.Context, query string, args ...any) ([]model.GhgFactor, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query factors")
	}
	defer rows.Close()

	var factors []model.GhgFactor
	for rows.Next() {
		var f model.GhgFactor
		var year sql.NullInt64
		if err := rows.Scan(&f.ID, &f.FoodID, &f.RegionCode, &f.SystemCode, &f.ValueMin, &f.ValueMid, &f.ValueMax, &f.Unit, &year, &f.SourceID, &f.Quality); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan factor")
		}
		f.Year = int(year.Int64)
		factors = append(factors, f)
	}
	return factors, eris.Wrap(rows.Err(), "sqlite: query factors")
}

func (s *SQLiteStore) UpsertSeasonality(ctx context.Context, records []model.Seasonality) (int64, error) {
	if err := validateSeasonality(records); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	var n int64
	for _, r := range records {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO seasonality (id, food_id, region_code, month, probability, confidence, source_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (food_id, region_code, month) DO UPDATE SET
			   probability = excluded.probability,
			   confidence = excluded.confidence,
			   source_id = excluded.source_id`,
			orNewID(r.ID), r.FoodID, r.RegionCode, r.Month, r.Probability, r.Confidence, r.SourceID,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert seasonality %s/%s/%d", r.FoodID, r.RegionCode, r.Month)
		}
		n += rowsAffected(res)
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit seasonality")
	}
	return n, nil
}

func (s *SQLiteStore) SeasonalityForFood(ctx context.Context, foodID string) ([]model.Seasonality, error) {
	return s.querySeasonality(ctx,
		`SELECT id, food_id, region_code, month, probability, confidence, source_id
		 FROM seasonality WHERE food_id = ? ORDER BY region_code, month`, foodID)
}

func (s *SQLiteStore) ListSeasonality(ctx context.Context) ([]model.Seasonality, error) {
	return s.querySeasonality(ctx,
		`SELECT id, food_id, region_code, month, probability, confidence, source_id
		 FROM seasonality ORDER BY food_id, region_code, month`)
}

func (s *SQLiteStore) querySeasonality(ctx context.Context, query string, args ...any) ([]model.Seasonality, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query seasonality")
	}
	defer rows.Close()

	var records []model.Seasonality
	for rows.Next() {
		var r model.Seasonality
		if err := rows.Scan(&r.ID, &r.FoodID, &r.RegionCode, &r.Month, &r.Probability, &r.Confidence, &r.SourceID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan seasonality")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: query seasonality")
}

func (s *SQLiteStore) UpsertOrigins(ctx context.Context, origins []model.Origin) (int64, error) {
	if err := validateOrigins(origins); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	var n int64
	for _, o := range origins {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO origins (id, food_id, destination_region_code, origin_region_code, probability, rationale, source_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (food_id, destination_region_code, origin_region_code) DO UPDATE SET
			   probability = excluded.probability,
			   rationale = excluded.rationale,
			   source_id = excluded.source_id`,
			orNewID(o.ID), o.FoodID, o.DestinationRegionCode, o.OriginRegionCode, o.Probability, o.Rationale, o.SourceID,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert origin %s/%s/%s", o.FoodID, o.DestinationRegionCode, o.OriginRegionCode)
		}
		n += rowsAffected(res)
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit origins")
	}
	return n, nil
}

func (s *SQLiteStore) OriginsForFood(ctx context.Context, foodID string) ([]model.Origin, error) {
	return s.queryOrigins(ctx,
		`SELECT id, food_id, destination_region_code, origin_region_code, probability, rationale, source_id
		 FROM origins WHERE food_id = ? ORDER BY destination_region_code, probability DESC`, foodID)
}

func (s *SQLiteStore) ListOrigins(ctx context.Context) ([]model.Origin, error) {
	return s.queryOrigins(ctx,
		`SELECT id, food_id, destination_region_code, origin_region_code, probability, rationale, source_id
		 FROM origins ORDER BY food_id, destination_region_code`)
}

func (s *SQLiteStore) queryOrigins(ctx context.Context, query string, args ...any) ([]model.Origin, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query origins")
	}
	defer rows.Close()

	var origins []model.Origin
	for rows.Next() {
		var o model.Origin
		if err := rows.Scan(&o.ID, &o.FoodID, &o.DestinationRegionCode, &o.OriginRegionCode, &o.Probability, &o.Rationale, &o.SourceID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan origin")
		}
		origins = append(origins, o)
	}
	return origins, eris.Wrap(rows.Err(), "sqlite: query origins")
}

func (s *SQLiteStore) UpsertWaterRisks(ctx context.Context, risks []model.WaterRisk) (int64, error) {
	if err := validateWaterRisks(risks); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	var n int64
	for _, r := range risks {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO water_risk (id, region_code, indicator_name, score, bucket, source_id)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (region_code, indicator_name) DO UPDATE SET
			   score = excluded.score,
			   bucket = excluded.bucket,
			   source_id = excluded.source_id`,
			orNewID(r.ID), r.RegionCode, r.IndicatorName, r.Score, string(r.Bucket), r.SourceID,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert water risk %s", r.RegionCode)
		}
		n += rowsAffected(res)
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit water risk")
	}
	return n, nil
}

func (s *SQLiteStore) ListWaterRisks(ctx context.Context) ([]model.WaterRisk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, region_code, indicator_name, score, bucket, source_id FROM water_risk ORDER BY region_code, indicator_name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list water risk")
	}
	defer rows.Close()

	var risks []model.WaterRisk
	for rows.Next() {
		var r model.WaterRisk
		if err := rows.Scan(&r.ID, &r.RegionCode, &r.IndicatorName, &r.Score, &r.Bucket, &r.SourceID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan water risk")
		}
		risks = append(risks, r)
	}
	return risks, eris.Wrap(rows.Err(), "sqlite: list water risk")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanFood(row scannable) (*model.Food, error) {
	var f model.Food
	var synonyms string
	var serving, edible sql.NullFloat64

	if err := row.Scan(&f.ID, &f.CanonicalName, &f.Category, &synonyms, &serving, &edible); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(synonyms), &f.Synonyms); err != nil {
		return nil, eris.Wrapf(err, "unmarshal synonyms for %s", f.ID)
	}
	f.TypicalServingG = serving.Float64
	f.EdiblePortionPct = edible.Float64
	return &f, nil
}

func orNewID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}

func nullFloat(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
