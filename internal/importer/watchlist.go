package importer

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/buildinghawk/deedwatch/internal/config"
	"github.com/buildinghawk/deedwatch/internal/model"
	"github.com/buildinghawk/deedwatch/internal/store"
)

// Importer loads reference data files into the store.
type Importer struct {
	store store.Store
	cfg   config.ImportConfig
	log   *zap.Logger
}

func New(st store.Store, cfg config.ImportConfig) *Importer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Importer{
		store: st,
		cfg:   cfg,
		log:   zap.L().With(zap.String("component", "importer")),
	}
}

// ImportWatchlist loads watchlist parcels from a CSV or XLSX export.
// Rows without an APN are skipped and counted, not fatal. Returns the
// number of rows written.
func (im *Importer) ImportWatchlist(ctx context.Context, path, sheet, mappingPath string) (int64, error) {
	mapping, err := LoadMapping(mappingPath, defaultWatchlistMapping)
	if err != nil {
		return 0, err
	}
	table, err := ReadTable(path, sheet)
	if err != nil {
		return 0, err
	}

	cols := mapping.Resolve(table.Headers)
	if _, ok := cols["apn"]; !ok {
		return 0, eris.Errorf("importer: no APN column found in %s", path)
	}

	titled := cases.Title(language.English)
	var entries []model.WatchlistEntry
	skipped := 0
	for _, row := range table.Rows {
		apn := cell(row, cols, "apn")
		if apn == "" {
			skipped++
			continue
		}
		e := model.WatchlistEntry{
			APN:             apn,
			Address:         cell(row, cols, "address"),
			City:            titled.String(strings.ToLower(cell(row, cols, "city"))),
			State:           strings.ToUpper(cell(row, cols, "state")),
			Zip:             cell(row, cols, "zip"),
			BuildingSF:      parseFloat(cell(row, cols, "building_sf")),
			AssessedTotal:   parseFloat(cell(row, cols, "assessed_total")),
			IsListedForSale: parseBool(cell(row, cols, "listed")),
			ListingPrice:    parseFloat(cell(row, cols, "listing_price")),
		}
		if e.State == "" {
			e.State = "CA"
		}
		entries = append(entries, e)
	}
	if skipped > 0 {
		im.log.Warn("skipped rows without APN", zap.Int("count", skipped))
	}

	total, err := upsertBatches(ctx, entries, im.cfg, im.store.UpsertWatchlist)
	if err != nil {
		return total, err
	}
	im.log.Info("watchlist import complete",
		zap.String("file", path), zap.Int64("rows", total), zap.Int("skipped", skipped))
	return total, nil
}

// upsertBatches splits rows into batches and writes them concurrently.
// Reference tables are import-owned, so concurrent batch writes never race
// with a match pass.
func upsertBatches[T any](ctx context.Context, rows []T, cfg config.ImportConfig, write func(context.Context, []T) (int64, error)) (int64, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	var total atomic.Int64
	for start := 0; start < len(rows); start += cfg.BatchSize {
		end := start + cfg.BatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]
		g.Go(func() error {
			n, err := write(ctx, batch)
			if err != nil {
				return err
			}
			total.Add(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return total.Load(), err
	}
	return total.Load(), nil
}

// parseFloat handles the $1,234,567.00 formatting county exports use.
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", ""))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "listed":
		return true
	}
	return false
}
