package match

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/buildinghawk/deedwatch/internal/normalize"
	"github.com/buildinghawk/deedwatch/internal/store"
)

// Candidate is one watchlist entry scored against a deed address.
type Candidate struct {
	WatchlistID string
	APN         string
	Address     string
	City        string
	Score       float64
}

// FuzzyMatcher resolves free-text deed addresses to watchlist entries by
// trigram similarity over normalized addresses. The street number acts as
// a hard gate: candidates whose leading digit run differs are never
// considered, regardless of how similar the rest of the address looks.
type FuzzyMatcher struct {
	store         store.Store
	threshold     float64
	maxCandidates int
	log           *zap.Logger
}

func NewFuzzyMatcher(st store.Store, threshold float64, maxCandidates int) *FuzzyMatcher {
	if maxCandidates <= 0 {
		maxCandidates = 10
	}
	return &FuzzyMatcher{
		store:         st,
		threshold:     threshold,
		maxCandidates: maxCandidates,
		log:           zap.L().With(zap.String("component", "fuzzy_matcher")),
	}
}

// Match returns candidates scoring at or above the threshold, best first.
// An empty result is a data outcome, not an error. Addresses without a
// leading street number cannot be gated and produce no candidates.
func (f *FuzzyMatcher) Match(ctx context.Context, address, city string) ([]Candidate, error) {
	norm := normalize.Address(address)
	if norm == "" {
		return nil, nil
	}
	streetNum := normalize.StreetNumber(norm)
	if streetNum == "" {
		f.log.Debug("address has no street number, skipping fuzzy match",
			zap.String("address", address))
		return nil, nil
	}

	rows, err := f.store.AddressCandidates(ctx, streetNum, city)
	if err != nil {
		return nil, eris.Wrap(err, "match: load address candidates")
	}

	var out []Candidate
	for _, c := range rows {
		score := Similarity(norm, c.AddressNormalized)
		if score >= f.threshold {
			out = append(out, Candidate{
				WatchlistID: c.WatchlistID,
				APN:         c.APN,
				Address:     c.Address,
				City:        c.City,
				Score:       score,
			})
		}
	}

	// Ties keep store order, so repeated runs pick the same winner.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > f.maxCandidates {
		out = out[:f.maxCandidates]
	}
	return out, nil
}
