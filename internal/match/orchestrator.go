package match

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/buildinghawk/deedwatch/internal/config"
	"github.com/buildinghawk/deedwatch/internal/model"
	"github.com/buildinghawk/deedwatch/internal/normalize"
	"github.com/buildinghawk/deedwatch/internal/store"
)

// Confidence values recorded per strategy. Direct APN and city-exact
// lot/tract hits are certain; a city-agnostic lot/tract fallback carries a
// small haircut so reviewers can spot it. Fuzzy matches record their
// similarity score.
const (
	confidenceExact          = 1.0
	confidenceLotTractNoCity = 0.95
)

// Outcome summarizes what the matcher did with one deed.
type Outcome struct {
	DeedID     string
	Status     model.MatchStatus
	Method     *model.MatchMethod
	Confidence *float64
	APN        string
	Skipped    bool
	Alerted    bool
}

// Matcher runs the per-deed strategy chain: direct APN, then lot/tract via
// the legal reference, then fuzzy address, then review fallback for deeds
// that look like real sales.
type Matcher struct {
	store   store.Store
	fuzzy   *FuzzyMatcher
	dttRate float64
	dryRun  bool
	log     *zap.Logger
}

func NewMatcher(st store.Store, matchCfg config.MatchConfig, monitorCfg config.MonitorConfig) *Matcher {
	return &Matcher{
		store:   st,
		fuzzy:   NewFuzzyMatcher(st, matchCfg.SimilarityThreshold, matchCfg.MaxCandidates),
		dttRate: monitorCfg.DTTRate,
		log:     zap.L().With(zap.String("component", "matcher")),
	}
}

// SetDryRun makes MatchDeed evaluate strategies without writing results.
func (m *Matcher) SetDryRun(v bool) { m.dryRun = v }

// MatchDeed evaluates one deed. Terminal deeds are skipped unless force is
// set. No-match is not an error: the deed either lands in needs_review
// (when it carries transfer tax) or stays unmatched.
func (m *Matcher) MatchDeed(ctx context.Context, deed *model.DeedRecording, force bool) (*Outcome, error) {
	if deed.MatchStatus.Terminal() && !force {
		return &Outcome{DeedID: deed.ID, Status: deed.MatchStatus, Skipped: true}, nil
	}

	salePrice := deed.CalculateSalePrice(m.dttRate)
	ref := model.ParseLegalRef(deed.RawData)

	// Strategy 0: the deed already names an APN.
	if deed.APN != nil && *deed.APN != "" {
		apnNorm := normalize.APN(*deed.APN)
		entry, err := m.store.GetWatchlistByAPN(ctx, apnNorm)
		if err != nil {
			return nil, eris.Wrap(err, "match: direct apn lookup")
		}
		if entry != nil {
			return m.commit(ctx, deed, entry, *deed.APN, apnNorm,
				model.MatchStatusExactMatched, model.MatchMethodAPN, confidenceExact, salePrice)
		}
	}

	// Strategy 1: lot/tract reference resolved through the lookup table.
	if ref.Kind == model.LegalRefLotTract {
		city := ""
		if deed.City != nil {
			city = *deed.City
		}
		res, err := LookupAPN(ctx, m.store, ref.LotNumber, ref.TractNumber, city)
		if err != nil {
			return nil, err
		}
		if res != nil {
			if !res.CityMatched && res.Candidates > 1 {
				m.log.Warn("ambiguous lot/tract mapping, using most recent",
					zap.String("deed_id", deed.ID),
					zap.String("lot", ref.LotNumber),
					zap.String("tract", ref.TractNumber),
					zap.Int("candidates", res.Candidates))
			}
			entry, err := m.store.GetWatchlistByAPN(ctx, res.APNNormalized)
			if err != nil {
				return nil, eris.Wrap(err, "match: lot/tract watchlist lookup")
			}
			if entry != nil {
				conf := confidenceExact
				if !res.CityMatched {
					conf = confidenceLotTractNoCity
				}
				return m.commit(ctx, deed, entry, res.APN, res.APNNormalized,
					model.MatchStatusExactMatched, model.MatchMethodLotTract, conf, salePrice)
			}
		}
	}

	// Strategy 2: fuzzy address. Needs both an address and a city; the
	// address can come from the deed row or the legal reference.
	address := ""
	if deed.Address != nil {
		address = *deed.Address
	}
	if address == "" && ref.Kind == model.LegalRefAddressOnly {
		address = ref.Address
	}
	if address != "" && deed.City != nil && *deed.City != "" {
		candidates, err := m.fuzzy.Match(ctx, address, *deed.City)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			best := candidates[0]
			entry, err := m.store.GetWatchlistByAPN(ctx, normalize.APN(best.APN))
			if err != nil {
				return nil, eris.Wrap(err, "match: fuzzy watchlist lookup")
			}
			if entry != nil {
				return m.commit(ctx, deed, entry, best.APN, normalize.APN(best.APN),
					model.MatchStatusFuzzyMatched, model.MatchMethodAddress, best.Score, salePrice)
			}
		}
	}

	// Fallback: a deed with real transfer tax and no resolvable parcel
	// needs human eyes. Tax-free transfers stay unmatched.
	if deed.IsSale() {
		if !m.dryRun {
			if err := m.store.MarkDeedNeedsReview(ctx, deed.ID, salePrice); err != nil {
				return nil, err
			}
		}
		return &Outcome{DeedID: deed.ID, Status: model.MatchStatusNeedsReview}, nil
	}
	return &Outcome{DeedID: deed.ID, Status: model.MatchStatusUnmatched}, nil
}

func (m *Matcher) commit(ctx context.Context, deed *model.DeedRecording, entry *model.WatchlistEntry,
	apn, apnNorm string, status model.MatchStatus, method model.MatchMethod,
	confidence float64, salePrice *float64) (*Outcome, error) {

	out := &Outcome{
		DeedID:     deed.ID,
		Status:     status,
		Method:     &method,
		Confidence: &confidence,
		APN:        apn,
	}
	if m.dryRun {
		return out, nil
	}

	err := m.store.MarkDeedMatched(ctx, store.MatchUpdate{
		DeedID:              deed.ID,
		APN:                 apn,
		APNNormalized:       apnNorm,
		WatchlistID:         entry.ID,
		Status:              status,
		Method:              method,
		Confidence:          confidence,
		CalculatedSalePrice: salePrice,
	})
	if err != nil {
		return nil, err
	}

	if deed.IsSale() {
		alerted, err := m.alert(ctx, deed, entry, salePrice)
		if err != nil {
			return nil, err
		}
		out.Alerted = alerted
	}
	return out, nil
}

// alert records the sale against the watchlist entry and raises an alert.
func (m *Matcher) alert(ctx context.Context, deed *model.DeedRecording, entry *model.WatchlistEntry, salePrice *float64) (bool, error) {
	var priceVsAssessed *float64
	if salePrice != nil && entry.AssessedTotal != nil && *entry.AssessedTotal > 0 {
		ratio := *salePrice / *entry.AssessedTotal
		priceVsAssessed = &ratio
	}

	created, err := m.store.UpsertSaleAlert(ctx, &model.SaleAlert{
		WatchlistID:     entry.ID,
		DeedID:          deed.ID,
		APN:             entry.APN,
		Address:         entry.Address,
		City:            entry.City,
		SalePrice:       salePrice,
		SaleDate:        deed.RecordingDate,
		Buyer:           deed.Grantee,
		Seller:          deed.Grantor,
		WasListed:       entry.IsListedForSale,
		ListingPrice:    entry.ListingPrice,
		AssessedValue:   entry.AssessedTotal,
		PriceVsAssessed: priceVsAssessed,
		Priority:        model.AlertPriority(salePrice),
	})
	if err != nil {
		return false, eris.Wrap(err, "match: record sale alert")
	}

	if err := m.store.RecordWatchlistSale(ctx, entry.ID, deed.RecordingDate, salePrice, deed.DocNumber); err != nil {
		return false, err
	}
	return created, nil
}

// RunOptions control one batch matching pass.
type RunOptions struct {
	From   *time.Time
	To     *time.Time
	Force  bool
	DryRun bool
	Limit  int
}

// Runner executes batch matching passes with audit bookkeeping.
type Runner struct {
	store   store.Store
	matcher *Matcher
	county  string
	log     *zap.Logger
}

func NewRunner(st store.Store, matcher *Matcher, county string) *Runner {
	return &Runner{
		store:   st,
		matcher: matcher,
		county:  county,
		log:     zap.L().With(zap.String("component", "match_runner")),
	}
}

// Run processes every unmatched deed in the window sequentially. An empty
// watchlist aborts the pass: running the matcher against nothing would
// silently push every taxed deed into review.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*model.MatchRun, error) {
	count, err := r.store.CountWatchlist(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "match: count watchlist")
	}
	if count == 0 {
		return nil, eris.New("match: watchlist is empty, refusing to run")
	}

	r.matcher.SetDryRun(opts.DryRun)

	var run *model.MatchRun
	if opts.DryRun {
		run = &model.MatchRun{County: r.county, StartedAt: time.Now().UTC(), Status: model.MatchRunRunning}
	} else {
		run, err = r.store.CreateMatchRun(ctx, r.county)
		if err != nil {
			return nil, err
		}
	}

	status := model.MatchStatusUnmatched
	if opts.Force {
		status = "" // re-evaluate everything in the window
	}
	deeds, err := r.store.ListDeeds(ctx, store.DeedFilter{
		Status: status,
		From:   opts.From,
		To:     opts.To,
		Limit:  opts.Limit,
	})
	if err != nil {
		return r.fail(ctx, run, opts.DryRun, eris.Wrap(err, "match: list deeds"))
	}

	for i := range deeds {
		if err := ctx.Err(); err != nil {
			return r.fail(ctx, run, opts.DryRun, eris.Wrap(err, "match: run canceled"))
		}
		out, err := r.matcher.MatchDeed(ctx, &deeds[i], opts.Force)
		if err != nil {
			return r.fail(ctx, run, opts.DryRun, err)
		}
		if out.Skipped {
			continue
		}
		run.RecordsProcessed++
		switch out.Status {
		case model.MatchStatusExactMatched:
			run.ExactMatched++
		case model.MatchStatusFuzzyMatched:
			run.FuzzyMatched++
		case model.MatchStatusNeedsReview:
			run.NeedsReview++
		}
	}

	run.Status = model.MatchRunCompleted
	if !opts.DryRun {
		if err := r.store.CompleteMatchRun(ctx, run); err != nil {
			return nil, err
		}
	}
	r.log.Info("match pass complete",
		zap.Int("processed", run.RecordsProcessed),
		zap.Int("exact", run.ExactMatched),
		zap.Int("fuzzy", run.FuzzyMatched),
		zap.Int("needs_review", run.NeedsReview),
		zap.Bool("dry_run", opts.DryRun))
	return run, nil
}

func (r *Runner) fail(ctx context.Context, run *model.MatchRun, dryRun bool, cause error) (*model.MatchRun, error) {
	if !dryRun && run.ID != "" {
		if ferr := r.store.FailMatchRun(ctx, run.ID, cause.Error()); ferr != nil {
			r.log.Error("failed to record run failure", zap.Error(ferr))
		}
	}
	return nil, cause
}
