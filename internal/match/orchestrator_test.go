package match

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildinghawk/deedwatch/internal/config"
	"github.com/buildinghawk/deedwatch/internal/model"
)

func testMatcher(st *memStore) *Matcher {
	return NewMatcher(st,
		config.MatchConfig{SimilarityThreshold: 0.85, MaxCandidates: 10},
		config.MonitorConfig{County: "Orange", State: "CA", DTTRate: 1.10})
}

func sptr(s string) *string   { return &s }
func fval(v float64) *float64 { return &v }

func recordingDate() time.Time {
	return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
}

func TestMatchDeed_LotTractExact(t *testing.T) {
	st := newMemStore()
	st.addWatchlist(model.WatchlistEntry{
		APN: "023-456-78", Address: "100 S Anaheim Blvd", City: "Anaheim",
	})
	st.addLotTract(model.LotTractMapping{
		LotNumber: "1", TractNumber: "9436", City: "Anaheim", APN: "023-456-78",
	})
	deedID := st.addDeed(model.DeedRecording{
		DocNumber:              "2026-000123",
		RecordingDate:          recordingDate(),
		City:                   sptr("Anaheim"),
		DocumentaryTransferTax: fval(1100),
		RawData:                []byte(`{"lot_number":"1","tract_number":"9436"}`),
	})

	out, err := testMatcher(st).MatchDeed(context.Background(), st.deed(deedID), false)
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusExactMatched, out.Status)
	require.NotNil(t, out.Method)
	assert.Equal(t, model.MatchMethodLotTract, *out.Method)
	require.NotNil(t, out.Confidence)
	assert.Equal(t, 1.0, *out.Confidence)
	assert.Equal(t, "023-456-78", out.APN)

	d := st.deed(deedID)
	assert.Equal(t, model.MatchStatusExactMatched, d.MatchStatus)
	require.NotNil(t, d.CalculatedSalePrice)
	assert.InDelta(t, 1_000_000, *d.CalculatedSalePrice, 0.5)
	require.NotNil(t, d.MatchedWatchlistID)
}

func TestMatchDeed_FuzzyAddress(t *testing.T) {
	st := newMemStore()
	st.addWatchlist(model.WatchlistEntry{
		APN: "033-104-14", Address: "515 East Walnut Avenue", City: "Fullerton",
	})
	deedID := st.addDeed(model.DeedRecording{
		DocNumber:     "2026-000124",
		RecordingDate: recordingDate(),
		Address:       sptr("515 E Walnut Ave"),
		City:          sptr("Fullerton"),
	})

	out, err := testMatcher(st).MatchDeed(context.Background(), st.deed(deedID), false)
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusFuzzyMatched, out.Status)
	require.NotNil(t, out.Method)
	assert.Equal(t, model.MatchMethodAddress, *out.Method)
	require.NotNil(t, out.Confidence)
	assert.GreaterOrEqual(t, *out.Confidence, 0.85)
	assert.Equal(t, "033-104-14", out.APN)
}

func TestMatchDeed_DirectAPN(t *testing.T) {
	st := newMemStore()
	st.addWatchlist(model.WatchlistEntry{
		APN: "023-456-78", Address: "100 S Anaheim Blvd", City: "Anaheim",
	})
	deedID := st.addDeed(model.DeedRecording{
		DocNumber:     "2026-000125",
		RecordingDate: recordingDate(),
		APN:           sptr("02345678"), // recorder strips dashes
	})

	out, err := testMatcher(st).MatchDeed(context.Background(), st.deed(deedID), false)
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusExactMatched, out.Status)
	require.NotNil(t, out.Method)
	assert.Equal(t, model.MatchMethodAPN, *out.Method)
}

func TestMatchDeed_TaxedDeedNeedsReview(t *testing.T) {
	st := newMemStore()
	st.addWatchlist(model.WatchlistEntry{
		APN: "023-456-78", Address: "100 S Anaheim Blvd", City: "Anaheim",
	})
	deedID := st.addDeed(model.DeedRecording{
		DocNumber:              "2026-000126",
		RecordingDate:          recordingDate(),
		DocumentaryTransferTax: fval(5500),
	})

	out, err := testMatcher(st).MatchDeed(context.Background(), st.deed(deedID), false)
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusNeedsReview, out.Status)

	d := st.deed(deedID)
	assert.Equal(t, model.MatchStatusNeedsReview, d.MatchStatus)
	require.NotNil(t, d.CalculatedSalePrice, "unresolved sales keep their price for queue ordering")
	assert.InDelta(t, 5_000_000, *d.CalculatedSalePrice, 0.5)
}

func TestMatchDeed_ReviewQueueOrdersByPrice(t *testing.T) {
	st := newMemStore()
	st.addWatchlist(model.WatchlistEntry{
		APN: "023-456-78", Address: "100 S Anaheim Blvd", City: "Anaheim",
	})
	lowID := st.addDeed(model.DeedRecording{
		DocNumber:              "2026-000140",
		RecordingDate:          recordingDate(),
		DocumentaryTransferTax: fval(110),
	})
	highID := st.addDeed(model.DeedRecording{
		DocNumber:              "2026-000141",
		RecordingDate:          recordingDate(),
		DocumentaryTransferTax: fval(5500),
	})

	m := testMatcher(st)
	for _, id := range []string{lowID, highID} {
		out, err := m.MatchDeed(context.Background(), st.deed(id), false)
		require.NoError(t, err)
		assert.Equal(t, model.MatchStatusNeedsReview, out.Status)
	}

	queue, err := st.ReviewQueue(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, highID, queue[0].ID, "same-day deeds surface highest sale price first")
	assert.Equal(t, lowID, queue[1].ID)
}

func TestMatchDeed_UntaxedDeedStaysUnmatched(t *testing.T) {
	st := newMemStore()
	st.addWatchlist(model.WatchlistEntry{
		APN: "023-456-78", Address: "100 S Anaheim Blvd", City: "Anaheim",
	})
	deedID := st.addDeed(model.DeedRecording{
		DocNumber:     "2026-000127",
		RecordingDate: recordingDate(),
	})

	out, err := testMatcher(st).MatchDeed(context.Background(), st.deed(deedID), false)
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusUnmatched, out.Status)
	assert.Equal(t, model.MatchStatusUnmatched, st.deed(deedID).MatchStatus)
}

func TestMatchDeed_TerminalSkippedUnlessForced(t *testing.T) {
	st := newMemStore()
	st.addWatchlist(model.WatchlistEntry{
		APN: "023-456-78", Address: "100 S Anaheim Blvd", City: "Anaheim",
	})
	deedID := st.addDeed(model.DeedRecording{
		DocNumber:     "2026-000128",
		RecordingDate: recordingDate(),
		MatchStatus:   model.MatchStatusNeedsReview,
		APN:           sptr("023-456-78"),
	})

	m := testMatcher(st)
	out, err := m.MatchDeed(context.Background(), st.deed(deedID), false)
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Equal(t, model.MatchStatusNeedsReview, out.Status)

	out, err = m.MatchDeed(context.Background(), st.deed(deedID), true)
	require.NoError(t, err)
	assert.False(t, out.Skipped)
	assert.Equal(t, model.MatchStatusExactMatched, out.Status)
}

func TestMatchDeed_MappingToUnwatchedAPN(t *testing.T) {
	st := newMemStore()
	st.addWatchlist(model.WatchlistEntry{
		APN: "023-456-78", Address: "100 S Anaheim Blvd", City: "Anaheim",
	})
	// Lot/tract resolves to an APN that is not on the watchlist.
	st.addLotTract(model.LotTractMapping{
		LotNumber: "2", TractNumber: "9436", City: "Anaheim", APN: "888-888-88",
	})
	deedID := st.addDeed(model.DeedRecording{
		DocNumber:              "2026-000129",
		RecordingDate:          recordingDate(),
		City:                   sptr("Anaheim"),
		DocumentaryTransferTax: fval(550),
		RawData:                []byte(`{"lot_number":"2","tract_number":"9436"}`),
	})

	out, err := testMatcher(st).MatchDeed(context.Background(), st.deed(deedID), false)
	require.NoError(t, err)
	assert.Equal(t, model.MatchStatusNeedsReview, out.Status)
}

func TestMatchDeed_SaleAlertAndWatchlistUpdate(t *testing.T) {
	st := newMemStore()
	st.addWatchlist(model.WatchlistEntry{
		APN: "023-456-78", Address: "100 S Anaheim Blvd", City: "Anaheim",
		AssessedTotal: fval(4_000_000), IsListedForSale: true, ListingPrice: fval(7_500_000),
	})
	st.addLotTract(model.LotTractMapping{
		LotNumber: "1", TractNumber: "9436", City: "Anaheim", APN: "023-456-78",
	})
	// $8,800 of DTT implies an $8M sale, above the high-priority line.
	deedID := st.addDeed(model.DeedRecording{
		DocNumber:              "2026-000130",
		RecordingDate:          recordingDate(),
		City:                   sptr("Anaheim"),
		Grantor:                sptr("OLD OWNER LLC"),
		Grantee:                sptr("NEW OWNER LP"),
		DocumentaryTransferTax: fval(8800),
		RawData:                []byte(`{"lot_number":"1","tract_number":"9436"}`),
	})

	out, err := testMatcher(st).MatchDeed(context.Background(), st.deed(deedID), false)
	require.NoError(t, err)
	assert.True(t, out.Alerted)

	require.Len(t, st.alerts, 1)
	a := st.alerts[0]
	assert.Equal(t, "023-456-78", a.APN)
	assert.Equal(t, "high", a.Priority)
	assert.True(t, a.WasListed)
	require.NotNil(t, a.SalePrice)
	assert.InDelta(t, 8_000_000, *a.SalePrice, 0.5)
	require.NotNil(t, a.PriceVsAssessed)
	assert.InDelta(t, 2.0, *a.PriceVsAssessed, 0.001)
	require.NotNil(t, a.Buyer)
	assert.Equal(t, "NEW OWNER LP", *a.Buyer)

	entry, err := st.GetWatchlistByAPN(context.Background(), "02345678")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.False(t, entry.IsListedForSale)
	require.NotNil(t, entry.LastSalePrice)
	assert.InDelta(t, 8_000_000, *entry.LastSalePrice, 0.5)
	require.NotNil(t, entry.LastSaleDocNumber)
	assert.Equal(t, "2026-000130", *entry.LastSaleDocNumber)
}

func TestMatchDeed_AlertNotDuplicated(t *testing.T) {
	st := newMemStore()
	st.addWatchlist(model.WatchlistEntry{
		APN: "023-456-78", Address: "100 S Anaheim Blvd", City: "Anaheim",
	})
	st.addLotTract(model.LotTractMapping{
		LotNumber: "1", TractNumber: "9436", City: "Anaheim", APN: "023-456-78",
	})
	deedID := st.addDeed(model.DeedRecording{
		DocNumber:              "2026-000131",
		RecordingDate:          recordingDate(),
		City:                   sptr("Anaheim"),
		DocumentaryTransferTax: fval(1100),
		RawData:                []byte(`{"lot_number":"1","tract_number":"9436"}`),
	})

	m := testMatcher(st)
	out, err := m.MatchDeed(context.Background(), st.deed(deedID), false)
	require.NoError(t, err)
	assert.True(t, out.Alerted)

	out, err = m.MatchDeed(context.Background(), st.deed(deedID), true)
	require.NoError(t, err)
	assert.False(t, out.Alerted)
	assert.Len(t, st.alerts, 1)
}

func TestRunner_EmptyWatchlistAborts(t *testing.T) {
	st := newMemStore()
	st.addDeed(model.DeedRecording{DocNumber: "2026-000132", RecordingDate: recordingDate()})

	runner := NewRunner(st, testMatcher(st), "Orange")
	_, err := runner.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watchlist is empty")
	assert.Empty(t, st.runs, "no run should be recorded for an aborted pass")
}

func TestRunner_BatchPass(t *testing.T) {
	st := newMemStore()
	st.addWatchlist(
		model.WatchlistEntry{APN: "023-456-78", Address: "100 S Anaheim Blvd", City: "Anaheim"},
		model.WatchlistEntry{APN: "033-104-14", Address: "515 East Walnut Avenue", City: "Fullerton"},
	)
	st.addLotTract(model.LotTractMapping{
		LotNumber: "1", TractNumber: "9436", City: "Anaheim", APN: "023-456-78",
	})

	st.addDeed(model.DeedRecording{
		DocNumber: "2026-000133", RecordingDate: recordingDate(),
		City:    sptr("Anaheim"),
		RawData: []byte(`{"lot_number":"1","tract_number":"9436"}`),
	})
	st.addDeed(model.DeedRecording{
		DocNumber: "2026-000134", RecordingDate: recordingDate(),
		Address: sptr("515 E Walnut Ave"), City: sptr("Fullerton"),
	})
	st.addDeed(model.DeedRecording{
		DocNumber: "2026-000135", RecordingDate: recordingDate(),
		DocumentaryTransferTax: fval(2200),
	})

	runner := NewRunner(st, testMatcher(st), "Orange")
	run, err := runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, run.RecordsProcessed)
	assert.Equal(t, 1, run.ExactMatched)
	assert.Equal(t, 1, run.FuzzyMatched)
	assert.Equal(t, 1, run.NeedsReview)
	assert.Equal(t, model.MatchRunCompleted, run.Status)
	require.Len(t, st.runs, 1)
	assert.Equal(t, model.MatchRunCompleted, st.runs[0].Status)
}

func TestRunner_DateWindow(t *testing.T) {
	st := newMemStore()
	st.addWatchlist(model.WatchlistEntry{APN: "023-456-78", Address: "1 Main St", City: "Anaheim"})

	inside := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	outside := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	st.addDeed(model.DeedRecording{DocNumber: "A", RecordingDate: inside, DocumentaryTransferTax: fval(100)})
	st.addDeed(model.DeedRecording{DocNumber: "B", RecordingDate: outside, DocumentaryTransferTax: fval(100)})

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	runner := NewRunner(st, testMatcher(st), "Orange")
	run, err := runner.Run(context.Background(), RunOptions{From: &from})
	require.NoError(t, err)
	assert.Equal(t, 1, run.RecordsProcessed)
}

func TestRunner_DryRunWritesNothing(t *testing.T) {
	st := newMemStore()
	st.addWatchlist(model.WatchlistEntry{APN: "023-456-78", Address: "100 S Anaheim Blvd", City: "Anaheim"})
	st.addLotTract(model.LotTractMapping{
		LotNumber: "1", TractNumber: "9436", City: "Anaheim", APN: "023-456-78",
	})
	deedID := st.addDeed(model.DeedRecording{
		DocNumber: "2026-000136", RecordingDate: recordingDate(),
		City:                   sptr("Anaheim"),
		DocumentaryTransferTax: fval(1100),
		RawData:                []byte(`{"lot_number":"1","tract_number":"9436"}`),
	})

	runner := NewRunner(st, testMatcher(st), "Orange")
	run, err := runner.Run(context.Background(), RunOptions{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 1, run.ExactMatched)
	assert.Equal(t, model.MatchStatusUnmatched, st.deed(deedID).MatchStatus)
	assert.Empty(t, st.runs)
	assert.Empty(t, st.alerts)
}
