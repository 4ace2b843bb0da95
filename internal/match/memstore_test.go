package match

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/buildinghawk/deedwatch/internal/model"
	"github.com/buildinghawk/deedwatch/internal/normalize"
	"github.com/buildinghawk/deedwatch/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// memStore is an in-memory Store used to exercise the matching engine
// without a database. Slices preserve insertion order, matching the
// deterministic ordering the SQL drivers guarantee.
type memStore struct {
	watchlist []model.WatchlistEntry
	lotTract  []model.LotTractMapping
	deeds     []model.DeedRecording
	runs      []model.MatchRun
	alerts    []model.SaleAlert
	seq       int
}

var _ store.Store = (*memStore)(nil)

func newMemStore() *memStore { return &memStore{} }

func (m *memStore) nextID() string {
	m.seq++
	return fmt.Sprintf("id-%d", m.seq)
}

func (m *memStore) addWatchlist(entries ...model.WatchlistEntry) {
	for _, e := range entries {
		e.ID = m.nextID()
		e.APNNormalized = normalize.APN(e.APN)
		e.AddressNormalized = normalize.Address(e.Address)
		m.watchlist = append(m.watchlist, e)
	}
}

func (m *memStore) addLotTract(mappings ...model.LotTractMapping) {
	for _, lt := range mappings {
		lt.APNNormalized = normalize.APN(lt.APN)
		if lt.SourcedAt.IsZero() {
			lt.SourcedAt = time.Now()
		}
		m.lotTract = append(m.lotTract, lt)
	}
}

func (m *memStore) addDeed(d model.DeedRecording) string {
	if d.ID == "" {
		d.ID = m.nextID()
	}
	if d.MatchStatus == "" {
		d.MatchStatus = model.MatchStatusUnmatched
	}
	m.deeds = append(m.deeds, d)
	return d.ID
}

func (m *memStore) deed(id string) *model.DeedRecording {
	for i := range m.deeds {
		if m.deeds[i].ID == id {
			return &m.deeds[i]
		}
	}
	return nil
}

func (m *memStore) UpsertWatchlist(_ context.Context, entries []model.WatchlistEntry) (int64, error) {
	m.addWatchlist(entries...)
	return int64(len(entries)), nil
}

func (m *memStore) GetWatchlistByAPN(_ context.Context, apnNormalized string) (*model.WatchlistEntry, error) {
	for i := range m.watchlist {
		if m.watchlist[i].APNNormalized == apnNormalized {
			e := m.watchlist[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (m *memStore) CountWatchlist(_ context.Context) (int64, error) {
	return int64(len(m.watchlist)), nil
}

func (m *memStore) RecordWatchlistSale(_ context.Context, watchlistID string, saleDate time.Time, salePrice *float64, docNumber string) error {
	for i := range m.watchlist {
		if m.watchlist[i].ID == watchlistID {
			m.watchlist[i].LastSaleDate = &saleDate
			m.watchlist[i].LastSalePrice = salePrice
			m.watchlist[i].LastSaleDocNumber = &docNumber
			m.watchlist[i].IsListedForSale = false
		}
	}
	return nil
}

func (m *memStore) UpsertLotTract(_ context.Context, mappings []model.LotTractMapping) (int64, error) {
	m.addLotTract(mappings...)
	return int64(len(mappings)), nil
}

func (m *memStore) LookupLotTract(_ context.Context, lot, tract, city string) ([]model.LotTractMapping, error) {
	var out []model.LotTractMapping
	for _, lt := range m.lotTract {
		if lt.LotNumber == lot && lt.TractNumber == tract && strings.EqualFold(lt.City, city) {
			out = append(out, lt)
		}
	}
	return out, nil
}

func (m *memStore) LookupLotTractAnyCity(_ context.Context, lot, tract string) ([]model.LotTractMapping, error) {
	var out []model.LotTractMapping
	for _, lt := range m.lotTract {
		if lt.LotNumber == lot && lt.TractNumber == tract {
			out = append(out, lt)
		}
	}
	// sourced_at DESC, apn ASC, mirroring the SQL tie-break.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			a, b := out[j-1], out[j]
			if b.SourcedAt.After(a.SourcedAt) || (b.SourcedAt.Equal(a.SourcedAt) && b.APN < a.APN) {
				out[j-1], out[j] = b, a
			} else {
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) UpsertDeed(_ context.Context, deed *model.DeedRecording) (string, error) {
	return m.addDeed(*deed), nil
}

func (m *memStore) GetDeed(_ context.Context, id string) (*model.DeedRecording, error) {
	if d := m.deed(id); d != nil {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) ListDeeds(_ context.Context, filter store.DeedFilter) ([]model.DeedRecording, error) {
	var out []model.DeedRecording
	for _, d := range m.deeds {
		if filter.Status != "" && d.MatchStatus != filter.Status {
			continue
		}
		if filter.From != nil && d.RecordingDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && d.RecordingDate.After(*filter.To) {
			continue
		}
		out = append(out, d)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memStore) MarkDeedMatched(_ context.Context, u store.MatchUpdate) error {
	d := m.deed(u.DeedID)
	if d == nil {
		return fmt.Errorf("deed %s not found", u.DeedID)
	}
	now := time.Now()
	d.APN = &u.APN
	d.APNNormalized = &u.APNNormalized
	d.MatchedWatchlistID = &u.WatchlistID
	d.MatchStatus = u.Status
	method := u.Method
	d.MatchMethod = &method
	conf := u.Confidence
	d.MatchConfidence = &conf
	d.CalculatedSalePrice = u.CalculatedSalePrice
	d.ProcessedAt = &now
	return nil
}

func (m *memStore) MarkDeedNeedsReview(_ context.Context, deedID string, salePrice *float64) error {
	d := m.deed(deedID)
	if d == nil {
		return fmt.Errorf("deed %s not found", deedID)
	}
	now := time.Now()
	d.MatchStatus = model.MatchStatusNeedsReview
	if salePrice != nil {
		d.CalculatedSalePrice = salePrice
	}
	d.ProcessedAt = &now
	return nil
}

// ReviewQueue mirrors the SQL ordering: recording_date DESC, then
// calculated_sale_price DESC with NULLs last.
func (m *memStore) ReviewQueue(_ context.Context, limit int) ([]model.DeedRecording, error) {
	var out []model.DeedRecording
	for _, d := range m.deeds {
		if d.MatchStatus == model.MatchStatusNeedsReview {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].RecordingDate.Equal(out[j].RecordingDate) {
			return out[i].RecordingDate.After(out[j].RecordingDate)
		}
		pi, pj := out[i].CalculatedSalePrice, out[j].CalculatedSalePrice
		if pi == nil {
			return false
		}
		if pj == nil {
			return true
		}
		return *pi > *pj
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) AddressCandidates(_ context.Context, streetNumber, city string) ([]store.AddressCandidate, error) {
	var out []store.AddressCandidate
	for _, e := range m.watchlist {
		if normalize.StreetNumber(e.AddressNormalized) != streetNumber {
			continue
		}
		if !strings.EqualFold(e.City, city) {
			continue
		}
		out = append(out, store.AddressCandidate{
			WatchlistID:       e.ID,
			APN:               e.APN,
			Address:           e.Address,
			AddressNormalized: e.AddressNormalized,
			City:              e.City,
		})
	}
	return out, nil
}

func (m *memStore) CreateMatchRun(_ context.Context, county string) (*model.MatchRun, error) {
	run := model.MatchRun{
		ID:        m.nextID(),
		County:    county,
		StartedAt: time.Now(),
		Status:    model.MatchRunRunning,
	}
	m.runs = append(m.runs, run)
	cp := run
	return &cp, nil
}

func (m *memStore) CompleteMatchRun(_ context.Context, run *model.MatchRun) error {
	for i := range m.runs {
		if m.runs[i].ID == run.ID {
			now := time.Now()
			m.runs[i] = *run
			m.runs[i].Status = model.MatchRunCompleted
			m.runs[i].CompletedAt = &now
		}
	}
	return nil
}

func (m *memStore) FailMatchRun(_ context.Context, runID string, errMsg string) error {
	for i := range m.runs {
		if m.runs[i].ID == runID {
			now := time.Now()
			m.runs[i].Status = model.MatchRunFailed
			m.runs[i].CompletedAt = &now
			m.runs[i].ErrorMessage = &errMsg
		}
	}
	return nil
}

func (m *memStore) ListMatchRuns(_ context.Context, limit int) ([]model.MatchRun, error) {
	out := append([]model.MatchRun(nil), m.runs...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) UpsertSaleAlert(_ context.Context, a *model.SaleAlert) (bool, error) {
	for _, existing := range m.alerts {
		if existing.WatchlistID == a.WatchlistID && existing.DeedID == a.DeedID {
			return false, nil
		}
	}
	cp := *a
	cp.ID = m.nextID()
	cp.CreatedAt = time.Now()
	m.alerts = append(m.alerts, cp)
	return true, nil
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Ping(context.Context) error    { return nil }
func (m *memStore) Close() error                  { return nil }
