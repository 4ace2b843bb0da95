package store

import (
	"context"
	"time"

	"github.com/buildinghawk/deedwatch/internal/model"
)

// AddressCandidate is one watchlist row eligible for fuzzy comparison
// against an incoming deed address. The coarse filter (street number +
// city) happens in the store; scoring happens in the matcher.
type AddressCandidate struct {
	WatchlistID       string
	APN               string
	Address           string
	AddressNormalized string
	City              string
}

// MatchUpdate carries the single-row mutation applied when a deed resolves.
type MatchUpdate struct {
	DeedID              string
	APN                 string
	APNNormalized       string
	WatchlistID         string
	Status              model.MatchStatus
	Method              model.MatchMethod
	Confidence          float64
	CalculatedSalePrice *float64
}

// DeedFilter selects deeds for a matching pass.
type DeedFilter struct {
	Status model.MatchStatus
	From   *time.Time // recording_date lower bound, inclusive
	To     *time.Time // recording_date upper bound, inclusive
	Limit  int
	Offset int
}

// Store defines the persistence interface for the deed matching engine.
type Store interface {
	// Watchlist (reference data, bulk-imported)
	UpsertWatchlist(ctx context.Context, entries []model.WatchlistEntry) (int64, error)
	GetWatchlistByAPN(ctx context.Context, apnNormalized string) (*model.WatchlistEntry, error)
	CountWatchlist(ctx context.Context) (int64, error)
	RecordWatchlistSale(ctx context.Context, watchlistID string, saleDate time.Time, salePrice *float64, docNumber string) error

	// Lot/tract mappings (reference data, bulk-imported)
	UpsertLotTract(ctx context.Context, mappings []model.LotTractMapping) (int64, error)
	LookupLotTract(ctx context.Context, lot, tract, city string) ([]model.LotTractMapping, error)
	LookupLotTractAnyCity(ctx context.Context, lot, tract string) ([]model.LotTractMapping, error)

	// Deeds
	UpsertDeed(ctx context.Context, deed *model.DeedRecording) (string, error)
	GetDeed(ctx context.Context, id string) (*model.DeedRecording, error)
	ListDeeds(ctx context.Context, filter DeedFilter) ([]model.DeedRecording, error)
	MarkDeedMatched(ctx context.Context, update MatchUpdate) error
	MarkDeedNeedsReview(ctx context.Context, deedID string, salePrice *float64) error
	ReviewQueue(ctx context.Context, limit int) ([]model.DeedRecording, error)

	// Fuzzy match support
	AddressCandidates(ctx context.Context, streetNumber, city string) ([]AddressCandidate, error)

	// Match runs (audit)
	CreateMatchRun(ctx context.Context, county string) (*model.MatchRun, error)
	CompleteMatchRun(ctx context.Context, run *model.MatchRun) error
	FailMatchRun(ctx context.Context, runID string, errMsg string) error
	ListMatchRuns(ctx context.Context, limit int) ([]model.MatchRun, error)

	// Sale alerts
	UpsertSaleAlert(ctx context.Context, alert *model.SaleAlert) (bool, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
