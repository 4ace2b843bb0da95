package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/buildinghawk/deedwatch/internal/db"
	"github.com/buildinghawk/deedwatch/internal/model"
	"github.com/buildinghawk/deedwatch/internal/normalize"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// preparedStatements lists queries to prepare on each new connection for
// the hot path of a matching pass.
var preparedStatements = map[string]string{
	"get_watchlist_by_apn": getWatchlistByAPNSQL,
	"address_candidates":   addressCandidatesSQL,
	"lookup_lot_tract":     lookupLotTractSQL,
	"mark_deed_matched":    markDeedMatchedSQL,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests (pgxmock) and
// by callers that manage the pool themselves; Close becomes a no-op.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need
// direct query access (bulk importers).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS pg_trgm;

CREATE TABLE IF NOT EXISTS apn_watchlist (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	apn TEXT NOT NULL UNIQUE,
	apn_normalized       TEXT NOT NULL,
	address              TEXT NOT NULL DEFAULT '',
	address_normalized   TEXT NOT NULL DEFAULT '',
	city                 TEXT NOT NULL DEFAULT '',
	state                TEXT NOT NULL DEFAULT 'CA',
	zip                  TEXT NOT NULL DEFAULT '',
	building_sf          DOUBLE PRECISION,
	assessed_total       DOUBLE PRECISION,
	is_listed_for_sale   BOOLEAN NOT NULL DEFAULT FALSE,
	listing_price        DOUBLE PRECISION,
	last_sale_date       DATE,
	last_sale_price      DOUBLE PRECISION,
	last_sale_doc_number TEXT,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_watchlist_apn_normalized ON apn_watchlist(apn_normalized);
CREATE INDEX IF NOT EXISTS idx_watchlist_city ON apn_watchlist(lower(city));
CREATE INDEX IF NOT EXISTS idx_watchlist_addr_trgm ON apn_watchlist USING gin (address_normalized gin_trgm_ops);

CREATE TABLE IF NOT EXISTS lot_tract_lookup (
	lot_number     TEXT NOT NULL,
	tract_number   TEXT NOT NULL,
	city           TEXT NOT NULL DEFAULT '',
	apn            TEXT NOT NULL,
	apn_normalized TEXT NOT NULL,
	centroid_lat   DOUBLE PRECISION,
	centroid_lng   DOUBLE PRECISION,
	sourced_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (lot_number, tract_number, city)
);

CREATE INDEX IF NOT EXISTS idx_lot_tract_pair ON lot_tract_lookup(lot_number, tract_number);

CREATE TABLE IF NOT EXISTS deed_recordings (
	id                       TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	doc_number               TEXT NOT NULL,
	recording_date           DATE NOT NULL,
	doc_type                 TEXT NOT NULL DEFAULT 'Grant Deed',
	apn                      TEXT,
	apn_normalized           TEXT,
	address                  TEXT,
	city                     TEXT,
	grantor                  TEXT,
	grantee                  TEXT,
	documentary_transfer_tax DOUBLE PRECISION,
	calculated_sale_price    DOUBLE PRECISION,
	matched_watchlist_id     TEXT REFERENCES apn_watchlist(id),
	match_status             TEXT NOT NULL DEFAULT 'unmatched',
	match_method             TEXT,
	match_confidence         DOUBLE PRECISION,
	raw_data                 JSONB,
	source                   TEXT NOT NULL DEFAULT '',
	processed_at             TIMESTAMPTZ,
	UNIQUE (doc_number, recording_date)
);

CREATE INDEX IF NOT EXISTS idx_deeds_status ON deed_recordings(match_status);
CREATE INDEX IF NOT EXISTS idx_deeds_review_order ON deed_recordings(recording_date DESC, calculated_sale_price DESC) WHERE match_status = 'needs_review';

CREATE TABLE IF NOT EXISTS match_runs (
	id                TEXT PRIMARY KEY,
	county            TEXT NOT NULL,
	started_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at      TIMESTAMPTZ,
	status            TEXT NOT NULL DEFAULT 'running',
	records_processed INTEGER NOT NULL DEFAULT 0,
	exact_matched     INTEGER NOT NULL DEFAULT 0,
	fuzzy_matched     INTEGER NOT NULL DEFAULT 0,
	needs_review      INTEGER NOT NULL DEFAULT 0,
	error_message     TEXT
);

CREATE TABLE IF NOT EXISTS sale_alerts (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	watchlist_id      TEXT NOT NULL REFERENCES apn_watchlist(id),
	deed_id           TEXT NOT NULL REFERENCES deed_recordings(id),
	apn               TEXT NOT NULL,
	address           TEXT NOT NULL DEFAULT '',
	city              TEXT NOT NULL DEFAULT '',
	sale_price        DOUBLE PRECISION,
	sale_date         DATE NOT NULL,
	buyer             TEXT,
	seller            TEXT,
	was_listed        BOOLEAN NOT NULL DEFAULT FALSE,
	listing_price     DOUBLE PRECISION,
	assessed_value    DOUBLE PRECISION,
	price_vs_assessed DOUBLE PRECISION,
	priority          TEXT NOT NULL DEFAULT 'normal',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (watchlist_id, deed_id)
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- Watchlist ---

var watchlistColumns = []string{
	"apn", "apn_normalized", "address", "address_normalized", "city", "state",
	"zip", "building_sf", "assessed_total", "is_listed_for_sale", "listing_price",
	"updated_at",
}

// UpsertWatchlist bulk-writes watchlist entries. The normalized columns are
// recomputed here from the raw values; address_normalized stays a pure
// function of address.
func (s *PostgresStore) UpsertWatchlist(ctx context.Context, entries []model.WatchlistEntry) (int64, error) {
	rows := make([][]any, 0, len(entries))
	now := time.Now().UTC()
	for _, e := range entries {
		rows = append(rows, []any{
			e.APN,
			normalize.APN(e.APN),
			e.Address,
			normalize.Address(e.Address),
			e.City,
			e.State,
			e.Zip,
			e.BuildingSF,
			e.AssessedTotal,
			e.IsListedForSale,
			e.ListingPrice,
			now,
		})
	}

	n, err := db.Upsert{
		Table:        "apn_watchlist",
		Columns:      watchlistColumns,
		ConflictKeys: []string{"apn"},
	}.Run(ctx, s.pool, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert watchlist")
	}
	return n, nil
}

const getWatchlistByAPNSQL = `
SELECT id, apn, apn_normalized, address, address_normalized, city, state, zip,
       building_sf, assessed_total, is_listed_for_sale, listing_price,
       last_sale_date, last_sale_price, last_sale_doc_number, updated_at
FROM apn_watchlist
WHERE apn_normalized = $1`

// GetWatchlistByAPN looks up a watchlist entry by normalized APN.
// Absence is a normal outcome and returns (nil, nil).
func (s *PostgresStore) GetWatchlistByAPN(ctx context.Context, apnNormalized string) (*model.WatchlistEntry, error) {
	row := s.pool.QueryRow(ctx, getWatchlistByAPNSQL, apnNormalized)

	var e model.WatchlistEntry
	err := row.Scan(
		&e.ID, &e.APN, &e.APNNormalized, &e.Address, &e.AddressNormalized,
		&e.City, &e.State, &e.Zip, &e.BuildingSF, &e.AssessedTotal,
		&e.IsListedForSale, &e.ListingPrice, &e.LastSaleDate, &e.LastSalePrice,
		&e.LastSaleDocNumber, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get watchlist entry")
	}
	return &e, nil
}

func (s *PostgresStore) CountWatchlist(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM apn_watchlist").Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: count watchlist")
	}
	return n, nil
}

func (s *PostgresStore) RecordWatchlistSale(ctx context.Context, watchlistID string, saleDate time.Time, salePrice *float64, docNumber string) error {
	_, err := s.pool.Exec(ctx, `
UPDATE apn_watchlist
SET last_sale_date = $2, last_sale_price = $3, last_sale_doc_number = $4,
    is_listed_for_sale = FALSE, updated_at = now()
WHERE id = $1`,
		watchlistID, saleDate, salePrice, docNumber)
	return eris.Wrap(err, "postgres: record watchlist sale")
}

// --- Lot/tract lookup ---

var lotTractColumns = []string{
	"lot_number", "tract_number", "city", "apn", "apn_normalized",
	"centroid_lat", "centroid_lng", "sourced_at",
}

func (s *PostgresStore) UpsertLotTract(ctx context.Context, mappings []model.LotTractMapping) (int64, error) {
	rows := make([][]any, 0, len(mappings))
	now := time.Now().UTC()
	for _, m := range mappings {
		sourced := m.SourcedAt
		if sourced.IsZero() {
			sourced = now
		}
		rows = append(rows, []any{
			m.LotNumber,
			m.TractNumber,
			m.City,
			m.APN,
			normalize.APN(m.APN),
			m.CentroidLat,
			m.CentroidLng,
			sourced,
		})
	}

	n, err := db.Upsert{
		Table:        "lot_tract_lookup",
		Columns:      lotTractColumns,
		ConflictKeys: []string{"lot_number", "tract_number", "city"},
	}.Run(ctx, s.pool, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert lot/tract mappings")
	}
	return n, nil
}

const lookupLotTractSQL = `
SELECT lot_number, tract_number, city, apn, apn_normalized, centroid_lat, centroid_lng, sourced_at
FROM lot_tract_lookup
WHERE lot_number = $1 AND tract_number = $2 AND lower(city) = lower($3)`

func (s *PostgresStore) LookupLotTract(ctx context.Context, lot, tract, city string) ([]model.LotTractMapping, error) {
	rows, err := s.pool.Query(ctx, lookupLotTractSQL, lot, tract, city)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: lot/tract lookup")
	}
	defer rows.Close()
	return scanLotTractRows(rows)
}

// lookupLotTractAnyCitySQL falls back to a city-less match. Competing
// mappings are ordered newest-sourced first so the tie-break is
// deterministic instead of whatever the planner returns.
const lookupLotTractAnyCitySQL = `
SELECT lot_number, tract_number, city, apn, apn_normalized, centroid_lat, centroid_lng, sourced_at
FROM lot_tract_lookup
WHERE lot_number = $1 AND tract_number = $2
ORDER BY sourced_at DESC, apn`

func (s *PostgresStore) LookupLotTractAnyCity(ctx context.Context, lot, tract string) ([]model.LotTractMapping, error) {
	rows, err := s.pool.Query(ctx, lookupLotTractAnyCitySQL, lot, tract)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: lot/tract lookup any city")
	}
	defer rows.Close()
	return scanLotTractRows(rows)
}

func scanLotTractRows(rows pgx.Rows) ([]model.LotTractMapping, error) {
	var out []model.LotTractMapping
	for rows.Next() {
		var m model.LotTractMapping
		if err := rows.Scan(&m.LotNumber, &m.TractNumber, &m.City, &m.APN,
			&m.APNNormalized, &m.CentroidLat, &m.CentroidLng, &m.SourcedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lot/tract row")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate lot/tract rows")
	}
	return out, nil
}

// --- Deeds ---

const deedColumnsSQL = `
id, doc_number, recording_date, doc_type, apn, apn_normalized, address, city,
grantor, grantee, documentary_transfer_tax, calculated_sale_price,
matched_watchlist_id, match_status, match_method, match_confidence,
raw_data, source, processed_at`

// UpsertDeed inserts a deed recording, or refreshes the raw fields when the
// (doc_number, recording_date) pair already exists. Match fields are never
// touched on conflict: a matched deed is closed.
func (s *PostgresStore) UpsertDeed(ctx context.Context, deed *model.DeedRecording) (string, error) {
	id := deed.ID
	if id == "" {
		id = uuid.New().String()
	}

	var apnNorm *string
	if deed.APN != nil {
		n := normalize.APN(*deed.APN)
		apnNorm = &n
	}

	var got string
	err := s.pool.QueryRow(ctx, `
INSERT INTO deed_recordings (
	id, doc_number, recording_date, doc_type, apn, apn_normalized, address,
	city, grantor, grantee, documentary_transfer_tax, calculated_sale_price,
	raw_data, source, match_status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (doc_number, recording_date) DO UPDATE SET
	doc_type = EXCLUDED.doc_type,
	apn = COALESCE(deed_recordings.apn, EXCLUDED.apn),
	apn_normalized = COALESCE(deed_recordings.apn_normalized, EXCLUDED.apn_normalized),
	address = COALESCE(deed_recordings.address, EXCLUDED.address),
	city = COALESCE(deed_recordings.city, EXCLUDED.city),
	grantor = EXCLUDED.grantor,
	grantee = EXCLUDED.grantee,
	documentary_transfer_tax = EXCLUDED.documentary_transfer_tax,
	calculated_sale_price = COALESCE(deed_recordings.calculated_sale_price, EXCLUDED.calculated_sale_price),
	raw_data = EXCLUDED.raw_data,
	source = EXCLUDED.source
RETURNING id`,
		id, deed.DocNumber, deed.RecordingDate, deed.DocType, deed.APN, apnNorm,
		deed.Address, deed.City, deed.Grantor, deed.Grantee,
		deed.DocumentaryTransferTax, deed.CalculatedSalePrice, deed.RawData,
		deed.Source, string(model.MatchStatusUnmatched),
	).Scan(&got)
	if err != nil {
		return "", eris.Wrap(err, "postgres: upsert deed")
	}
	return got, nil
}

func (s *PostgresStore) GetDeed(ctx context.Context, id string) (*model.DeedRecording, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+deedColumnsSQL+" FROM deed_recordings WHERE id = $1", id)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get deed")
	}
	defer rows.Close()

	deeds, err := scanDeedRows(rows)
	if err != nil {
		return nil, err
	}
	if len(deeds) == 0 {
		return nil, nil
	}
	return &deeds[0], nil
}

func (s *PostgresStore) ListDeeds(ctx context.Context, filter DeedFilter) ([]model.DeedRecording, error) {
	sql := "SELECT " + deedColumnsSQL + " FROM deed_recordings WHERE 1=1"
	args := []any{}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		sql += " AND match_status = $" + strconv.Itoa(len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		sql += " AND recording_date >= $" + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		sql += " AND recording_date <= $" + strconv.Itoa(len(args))
	}
	sql += " ORDER BY recording_date, doc_number"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sql += " LIMIT $" + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		sql += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list deeds")
	}
	defer rows.Close()
	return scanDeedRows(rows)
}

const markDeedMatchedSQL = `
UPDATE deed_recordings
SET apn = $2, apn_normalized = $3, matched_watchlist_id = $4,
    match_status = $5, match_method = $6, match_confidence = $7,
    calculated_sale_price = $8, processed_at = now()
WHERE id = $1`

func (s *PostgresStore) MarkDeedMatched(ctx context.Context, u MatchUpdate) error {
	_, err := s.pool.Exec(ctx, markDeedMatchedSQL,
		u.DeedID, u.APN, u.APNNormalized, u.WatchlistID,
		string(u.Status), string(u.Method), u.Confidence, u.CalculatedSalePrice)
	return eris.Wrap(err, "postgres: mark deed matched")
}

// MarkDeedNeedsReview routes a deed to the manual queue. The calculated
// sale price is persisted here so the review queue's price ordering sees
// it on unresolved rows, not only on matched ones.
func (s *PostgresStore) MarkDeedNeedsReview(ctx context.Context, deedID string, salePrice *float64) error {
	_, err := s.pool.Exec(ctx, `
UPDATE deed_recordings
SET match_status = $2, calculated_sale_price = COALESCE($3, calculated_sale_price),
    processed_at = now()
WHERE id = $1`,
		deedID, string(model.MatchStatusNeedsReview), salePrice)
	return eris.Wrap(err, "postgres: mark deed needs review")
}

// reviewQueueSQL surfaces unresolved deeds for manual lookup, highest
// recording date first, then highest sale price, so the freshest
// high-value transactions come up first.
const reviewQueueSQL = `
SELECT ` + deedColumnsSQL + `
FROM deed_recordings
WHERE match_status = 'needs_review'
ORDER BY recording_date DESC, calculated_sale_price DESC NULLS LAST
LIMIT $1`

func (s *PostgresStore) ReviewQueue(ctx context.Context, limit int) ([]model.DeedRecording, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, reviewQueueSQL, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: review queue")
	}
	defer rows.Close()
	return scanDeedRows(rows)
}

func scanDeedRows(rows pgx.Rows) ([]model.DeedRecording, error) {
	var out []model.DeedRecording
	for rows.Next() {
		var d model.DeedRecording
		var method *string
		err := rows.Scan(
			&d.ID, &d.DocNumber, &d.RecordingDate, &d.DocType, &d.APN,
			&d.APNNormalized, &d.Address, &d.City, &d.Grantor, &d.Grantee,
			&d.DocumentaryTransferTax, &d.CalculatedSalePrice,
			&d.MatchedWatchlistID, &d.MatchStatus, &method, &d.MatchConfidence,
			&d.RawData, &d.Source, &d.ProcessedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan deed row")
		}
		if method != nil {
			m := model.MatchMethod(*method)
			d.MatchMethod = &m
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate deed rows")
	}
	return out, nil
}

// --- Fuzzy match support ---

// addressCandidatesSQL applies the coarse filter: the candidate's
// normalized address must start with exactly the same digit run as the
// input, and the city must match case-insensitively. Ordering by id keeps
// score ties stable at insertion order.
const addressCandidatesSQL = `
SELECT id, apn, address, address_normalized, city
FROM apn_watchlist
WHERE substring(address_normalized FROM '^[0-9]+') = $1
  AND lower(city) = lower($2)
ORDER BY id`

func (s *PostgresStore) AddressCandidates(ctx context.Context, streetNumber, city string) ([]AddressCandidate, error) {
	rows, err := s.pool.Query(ctx, addressCandidatesSQL, streetNumber, city)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: address candidates")
	}
	defer rows.Close()

	var out []AddressCandidate
	for rows.Next() {
		var c AddressCandidate
		if err := rows.Scan(&c.WatchlistID, &c.APN, &c.Address, &c.AddressNormalized, &c.City); err != nil {
			return nil, eris.Wrap(err, "postgres: scan address candidate")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate address candidates")
	}
	return out, nil
}

// --- Match runs ---

func (s *PostgresStore) CreateMatchRun(ctx context.Context, county string) (*model.MatchRun, error) {
	run := &model.MatchRun{
		ID:        uuid.New().String(),
		County:    county,
		StartedAt: time.Now().UTC(),
		Status:    model.MatchRunRunning,
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO match_runs (id, county, started_at, status)
VALUES ($1, $2, $3, $4)`,
		run.ID, run.County, run.StartedAt, string(run.Status))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create match run")
	}
	return run, nil
}

func (s *PostgresStore) CompleteMatchRun(ctx context.Context, run *model.MatchRun) error {
	_, err := s.pool.Exec(ctx, `
UPDATE match_runs
SET completed_at = now(), status = $2, records_processed = $3,
    exact_matched = $4, fuzzy_matched = $5, needs_review = $6
WHERE id = $1`,
		run.ID, string(model.MatchRunCompleted), run.RecordsProcessed,
		run.ExactMatched, run.FuzzyMatched, run.NeedsReview)
	return eris.Wrap(err, "postgres: complete match run")
}

func (s *PostgresStore) FailMatchRun(ctx context.Context, runID string, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
UPDATE match_runs
SET completed_at = now(), status = $2, error_message = $3
WHERE id = $1`,
		runID, string(model.MatchRunFailed), errMsg)
	return eris.Wrap(err, "postgres: fail match run")
}

func (s *PostgresStore) ListMatchRuns(ctx context.Context, limit int) ([]model.MatchRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, county, started_at, completed_at, status, records_processed,
       exact_matched, fuzzy_matched, needs_review, error_message
FROM match_runs
ORDER BY started_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list match runs")
	}
	defer rows.Close()

	var out []model.MatchRun
	for rows.Next() {
		var r model.MatchRun
		if err := rows.Scan(&r.ID, &r.County, &r.StartedAt, &r.CompletedAt,
			&r.Status, &r.RecordsProcessed, &r.ExactMatched, &r.FuzzyMatched,
			&r.NeedsReview, &r.ErrorMessage); err != nil {
			return nil, eris.Wrap(err, "postgres: scan match run")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate match runs")
	}
	return out, nil
}

// --- Sale alerts ---

// UpsertSaleAlert writes an alert once per (watchlist, deed) pair.
// Returns true when a new alert row was created.
func (s *PostgresStore) UpsertSaleAlert(ctx context.Context, a *model.SaleAlert) (bool, error) {
	id := a.ID
	if id == "" {
		id = uuid.New().String()
	}
	tag, err := s.pool.Exec(ctx, `
INSERT INTO sale_alerts (
	id, watchlist_id, deed_id, apn, address, city, sale_price, sale_date,
	buyer, seller, was_listed, listing_price, assessed_value,
	price_vs_assessed, priority
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (watchlist_id, deed_id) DO NOTHING`,
		id, a.WatchlistID, a.DeedID, a.APN, a.Address, a.City, a.SalePrice,
		a.SaleDate, a.Buyer, a.Seller, a.WasListed, a.ListingPrice,
		a.AssessedValue, a.PriceVsAssessed, a.Priority)
	if err != nil {
		return false, eris.Wrap(err, "postgres: upsert sale alert")
	}
	return tag.RowsAffected() > 0, nil
}
