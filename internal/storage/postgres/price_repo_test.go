package postgres

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/caldera-energy/pricefeed/internal/model"
)

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	return New(sqlxDB, 5*time.Second), mock
}

func TestUpsertBatchEmptyIsNoop(t *testing.T) {
	a, mock := newMockAdapter(t)
	stored, err := a.UpsertBatch(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 0, stored)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBatchInsertsAndCommits(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO price_data")
	mock.ExpectExec("INSERT INTO price_data").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	records := []model.PriceRecord{
		{Timestamp: time.Now(), Commodity: "WTI_CRUDE", Source: "eia", Price: 71.5},
	}
	stored, err := a.UpsertBatch(context.Background(), records)
	require.NoError(t, err)
	require.Equal(t, 1, stored)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBatchRollsBackOnExecError(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO price_data")
	mock.ExpectExec("INSERT INTO price_data").WillReturnError(assertError{})
	mock.ExpectRollback()

	records := []model.PriceRecord{
		{Timestamp: time.Now(), Commodity: "WTI_CRUDE", Source: "eia", Price: 71.5},
	}
	_, err := a.UpsertBatch(context.Background(), records)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestTimestampNoRows(t *testing.T) {
	a, mock := newMockAdapter(t)
	mock.ExpectQuery("SELECT p.ts FROM price_data").
		WithArgs("WTI_CRUDE", "eia").
		WillReturnRows(sqlmock.NewRows([]string{"ts"}))

	_, found, err := a.GetLatestTimestamp(context.Background(), "WTI_CRUDE", "eia")
	require.NoError(t, err)
	require.False(t, found)
}

func TestGetStatisticsAggregatesAcrossSources(t *testing.T) {
	a, mock := newMockAdapter(t)

	rows := sqlmock.NewRows([]string{"count", "min_price", "max_price", "avg_price", "total_volume", "earliest_at", "latest_at"}).
		AddRow(20, 68.5, 82.0, 75.1, 123456.0, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("WTI_CRUDE", nil, nil).
		WillReturnRows(rows)

	stats, err := a.GetStatistics(context.Background(), "WTI_CRUDE", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, 20, stats.Count)
	require.Equal(t, 123456.0, stats.TotalVolume)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStatisticsWithBoundedWindow(t *testing.T) {
	a, mock := newMockAdapter(t)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"count", "min_price", "max_price", "avg_price", "total_volume", "earliest_at", "latest_at"}).
		AddRow(10, 70.0, 78.0, 74.0, 0.0, start, end)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("WTI_CRUDE", start, end).
		WillReturnRows(rows)

	stats, err := a.GetStatistics(context.Background(), "WTI_CRUDE", start, end)
	require.NoError(t, err)
	require.Equal(t, 10, stats.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

type assertError struct{}

func (assertError) Error() string { return "mock exec failure" }
