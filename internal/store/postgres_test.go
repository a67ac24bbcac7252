package store

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seasonscope/internal/model"
)

func TestPostgresMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sources").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	s := NewPostgresFromPool(mock)
	assert.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetSource(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, title, publisher").
		WithArgs("wri_aqueduct").
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "publisher", "url", "published_date", "accessed_date", "license", "notes"}).
			AddRow("wri_aqueduct", "Aqueduct Water Risk Atlas", "WRI", "", "", "", "", ""))

	s := NewPostgresFromPool(mock)
	src, err := s.GetSource(context.Background(), "wri_aqueduct")
	require.NoError(t, err)
	require.NotNil(t, src)
	assert.Equal(t, "WRI", src.Publisher)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetSourceMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, title, publisher").
		WithArgs("absent").
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "publisher", "url", "published_date", "accessed_date", "license", "notes"}))

	s := NewPostgresFromPool(mock)
	src, err := s.GetSource(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, src)
}

func TestPostgresUpsertRejectsInvalidBeforeQuery(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// No expectations: an invalid record must never reach the database.
	s := NewPostgresFromPool(mock)
	_, err = s.UpsertFactors(context.Background(), []model.GhgFactor{{
		FoodID:     "tomato",
		RegionCode: "GLOBAL",
		SystemCode: model.SystemUnknown,
		ValueMin:   3.0,
		ValueMid:   1.0,
		ValueMax:   2.0,
		Unit:       model.GhgUnit,
		SourceID:   "poore_nemecek_2018",
		Quality:    model.QualityMedium,
	}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListWaterRisks(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, region_code, indicator_name").
		WillReturnRows(pgxmock.NewRows([]string{"id", "region_code", "indicator_name", "score", "bucket", "source_id"}).
			AddRow("wr-1", "ES", "baseline_water_stress", 3.2, "high", "wri_aqueduct"))

	s := NewPostgresFromPool(mock)
	risks, err := s.ListWaterRisks(context.Background())
	require.NoError(t, err)
	require.Len(t, risks, 1)
	assert.Equal(t, model.WaterRiskHigh, risks[0].Bucket)
}
