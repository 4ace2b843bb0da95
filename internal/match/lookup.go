package match

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/buildinghawk/deedwatch/internal/normalize"
	"github.com/buildinghawk/deedwatch/internal/store"
)

// LookupResult is a resolved lot/tract reference.
type LookupResult struct {
	APN           string
	APNNormalized string
	// CityMatched is false when the hit came from the city-agnostic
	// fallback rather than an exact (lot, tract, city) row.
	CityMatched bool
	// Candidates counts the rows the fallback had to choose between.
	// Anything above 1 means the mapping data is ambiguous; the winner
	// is the most recently sourced row, lowest APN on a timestamp tie.
	Candidates int
}

// LookupAPN resolves a (lot, tract) pair to an APN. When a city is given
// the exact triple is tried first; otherwise, or on a miss, the lookup
// falls back to matching lot and tract across all cities. A nil result
// with nil error means no mapping exists.
func LookupAPN(ctx context.Context, st store.Store, lot, tract, city string) (*LookupResult, error) {
	lot = normalize.LotTract(lot)
	tract = normalize.LotTract(tract)
	if lot == "" || tract == "" {
		return nil, nil
	}

	if city != "" {
		rows, err := st.LookupLotTract(ctx, lot, tract, city)
		if err != nil {
			return nil, eris.Wrap(err, "match: lot/tract city lookup")
		}
		if len(rows) > 0 {
			return &LookupResult{
				APN:           rows[0].APN,
				APNNormalized: rows[0].APNNormalized,
				CityMatched:   true,
				Candidates:    len(rows),
			}, nil
		}
	}

	rows, err := st.LookupLotTractAnyCity(ctx, lot, tract)
	if err != nil {
		return nil, eris.Wrap(err, "match: lot/tract fallback lookup")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &LookupResult{
		APN:           rows[0].APN,
		APNNormalized: rows[0].APNNormalized,
		CityMatched:   false,
		Candidates:    len(rows),
	}, nil
}
