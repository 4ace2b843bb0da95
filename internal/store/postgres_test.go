package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/buildinghawk/deedwatch/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *PostgresStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresFromPool(mock)
}

// anyArgs builds n pgxmock.AnyArg matchers; pgxmock requires the expected
// argument count to match even when individual values are not asserted.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

// --- SQL content tests ---

func TestReviewQueueSQL_Ordering(t *testing.T) {
	assert.Contains(t, reviewQueueSQL, "match_status = 'needs_review'")
	assert.Contains(t, reviewQueueSQL, "ORDER BY recording_date DESC, calculated_sale_price DESC NULLS LAST")
}

func TestLookupLotTractAnyCitySQL_TieBreak(t *testing.T) {
	assert.Contains(t, lookupLotTractAnyCitySQL, "ORDER BY sourced_at DESC, apn")
}

func TestAddressCandidatesSQL_CoarseFilter(t *testing.T) {
	assert.Contains(t, addressCandidatesSQL, "substring(address_normalized FROM '^[0-9]+') = $1")
	assert.Contains(t, addressCandidatesSQL, "lower(city) = lower($2)")
	assert.Contains(t, addressCandidatesSQL, "ORDER BY id")
}

func TestMigrationSQL_Schema(t *testing.T) {
	assert.Contains(t, postgresMigration, "CREATE EXTENSION IF NOT EXISTS pg_trgm")
	assert.Contains(t, postgresMigration, "apn TEXT NOT NULL UNIQUE")
	assert.Contains(t, postgresMigration, "PRIMARY KEY (lot_number, tract_number, city)")
	assert.Contains(t, postgresMigration, "UNIQUE (doc_number, recording_date)")
	assert.Contains(t, postgresMigration, "UNIQUE (watchlist_id, deed_id)")
	assert.Contains(t, postgresMigration, "gin_trgm_ops")
}

// --- Pool-backed tests ---

func TestMigrate(t *testing.T) {
	mock, st := newMockStore(t)
	mock.ExpectExec("CREATE EXTENSION IF NOT EXISTS pg_trgm").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func watchlistRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "apn", "apn_normalized", "address", "address_normalized", "city",
		"state", "zip", "building_sf", "assessed_total", "is_listed_for_sale",
		"listing_price", "last_sale_date", "last_sale_price",
		"last_sale_doc_number", "updated_at",
	})
}

func TestGetWatchlistByAPN_Found(t *testing.T) {
	mock, st := newMockStore(t)
	mock.ExpectQuery("SELECT id, apn, apn_normalized").
		WithArgs("02345678").
		WillReturnRows(watchlistRows().AddRow(
			"w-1", "023-456-78", "02345678", "100 S Anaheim Blvd", "100 s anaheim blvd",
			"Anaheim", "CA", "92805", nil, nil, false, nil, nil, nil, nil, time.Now(),
		))

	e, err := st.GetWatchlistByAPN(context.Background(), "02345678")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "023-456-78", e.APN)
	assert.Equal(t, "Anaheim", e.City)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetWatchlistByAPN_Missing(t *testing.T) {
	mock, st := newMockStore(t)
	mock.ExpectQuery("SELECT id, apn, apn_normalized").
		WithArgs("00000000").
		WillReturnError(pgx.ErrNoRows)

	e, err := st.GetWatchlistByAPN(context.Background(), "00000000")
	require.NoError(t, err, "absence is a data outcome, not an error")
	assert.Nil(t, e)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountWatchlist(t *testing.T) {
	mock, st := newMockStore(t)
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))

	n, err := st.CountWatchlist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordWatchlistSale(t *testing.T) {
	mock, st := newMockStore(t)
	price := 8_000_000.0
	when := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE apn_watchlist").
		WithArgs("w-1", when, &price, "2026-000130").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := st.RecordWatchlistSale(context.Background(), "w-1", when, &price, "2026-000130")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupLotTract(t *testing.T) {
	mock, st := newMockStore(t)
	sourced := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT lot_number, tract_number").
		WithArgs("1", "9436", "Anaheim").
		WillReturnRows(pgxmock.NewRows([]string{
			"lot_number", "tract_number", "city", "apn", "apn_normalized",
			"centroid_lat", "centroid_lng", "sourced_at",
		}).AddRow("1", "9436", "Anaheim", "023-456-78", "02345678", nil, nil, sourced))

	got, err := st.LookupLotTract(context.Background(), "1", "9436", "Anaheim")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "023-456-78", got[0].APN)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkDeedMatched(t *testing.T) {
	mock, st := newMockStore(t)
	price := 1_000_000.0
	mock.ExpectExec("UPDATE deed_recordings").
		WithArgs("d-1", "023-456-78", "02345678", "w-1", "exact_matched", "lot_tract", 1.0, &price).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := st.MarkDeedMatched(context.Background(), MatchUpdate{
		DeedID:              "d-1",
		APN:                 "023-456-78",
		APNNormalized:       "02345678",
		WatchlistID:         "w-1",
		Status:              model.MatchStatusExactMatched,
		Method:              model.MatchMethodLotTract,
		Confidence:          1.0,
		CalculatedSalePrice: &price,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkDeedNeedsReview(t *testing.T) {
	mock, st := newMockStore(t)
	price := 5_000_000.0
	mock.ExpectExec("UPDATE deed_recordings").
		WithArgs("d-1", "needs_review", &price).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, st.MarkDeedNeedsReview(context.Background(), "d-1", &price))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func deedRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "doc_number", "recording_date", "doc_type", "apn", "apn_normalized",
		"address", "city", "grantor", "grantee", "documentary_transfer_tax",
		"calculated_sale_price", "matched_watchlist_id", "match_status",
		"match_method", "match_confidence", "raw_data", "source", "processed_at",
	})
}

func TestReviewQueue(t *testing.T) {
	mock, st := newMockStore(t)
	when := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	tax := 5500.0
	mock.ExpectQuery("FROM deed_recordings").
		WithArgs(25).
		WillReturnRows(deedRows().AddRow(
			"d-1", "2026-000126", when, "Grant Deed", nil, nil, nil, nil, nil, nil,
			&tax, nil, nil, "needs_review", nil, nil, nil, "grantlist", nil,
		))

	got, err := st.ReviewQueue(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.MatchStatusNeedsReview, got[0].MatchStatus)
	assert.Nil(t, got[0].MatchMethod)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewQueue_DefaultLimit(t *testing.T) {
	mock, st := newMockStore(t)
	mock.ExpectQuery("FROM deed_recordings").
		WithArgs(50).
		WillReturnRows(deedRows())

	got, err := st.ReviewQueue(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDeeds_Filters(t *testing.T) {
	mock, st := newMockStore(t)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM deed_recordings WHERE 1=1 AND match_status").
		WithArgs("unmatched", from, 100).
		WillReturnRows(deedRows())

	_, err := st.ListDeeds(context.Background(), DeedFilter{
		Status: model.MatchStatusUnmatched,
		From:   &from,
		Limit:  100,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddressCandidates(t *testing.T) {
	mock, st := newMockStore(t)
	mock.ExpectQuery("FROM apn_watchlist").
		WithArgs("515", "Fullerton").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "apn", "address", "address_normalized", "city",
		}).AddRow("w-2", "033-104-14", "515 East Walnut Avenue", "515 e walnut ave", "Fullerton"))

	got, err := st.AddressCandidates(context.Background(), "515", "Fullerton")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "515 e walnut ave", got[0].AddressNormalized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAndCompleteMatchRun(t *testing.T) {
	mock, st := newMockStore(t)
	mock.ExpectExec("INSERT INTO match_runs").
		WithArgs(pgxmock.AnyArg(), "Orange", pgxmock.AnyArg(), "running").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := st.CreateMatchRun(context.Background(), "Orange")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.MatchRunRunning, run.Status)

	run.RecordsProcessed = 3
	run.ExactMatched = 1
	run.FuzzyMatched = 1
	run.NeedsReview = 1
	mock.ExpectExec("UPDATE match_runs").
		WithArgs(run.ID, "completed", 3, 1, 1, 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, st.CompleteMatchRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailMatchRun(t *testing.T) {
	mock, st := newMockStore(t)
	mock.ExpectExec("UPDATE match_runs").
		WithArgs("run-1", "failed", "boom").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, st.FailMatchRun(context.Background(), "run-1", "boom"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSaleAlert_CreatedAndDeduplicated(t *testing.T) {
	mock, st := newMockStore(t)
	alert := &model.SaleAlert{WatchlistID: "w-1", DeedID: "d-1", APN: "023-456-78", Priority: "normal"}

	mock.ExpectExec("INSERT INTO sale_alerts").
		WithArgs(anyArgs(15)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	created, err := st.UpsertSaleAlert(context.Background(), alert)
	require.NoError(t, err)
	assert.True(t, created)

	mock.ExpectExec("INSERT INTO sale_alerts").
		WithArgs(anyArgs(15)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	created, err = st.UpsertSaleAlert(context.Background(), alert)
	require.NoError(t, err)
	assert.False(t, created, "conflict on the pair must not create a second alert")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertDeed_ReturnsCanonicalID(t *testing.T) {
	mock, st := newMockStore(t)
	when := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO deed_recordings").
		WithArgs(anyArgs(15)...).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("existing-id"))

	id, err := st.UpsertDeed(context.Background(), &model.DeedRecording{
		DocNumber:     "2026-000123",
		RecordingDate: when,
		DocType:       "Grant Deed",
	})
	require.NoError(t, err)
	assert.Equal(t, "existing-id", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
