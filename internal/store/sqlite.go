package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/buildinghawk/deedwatch/internal/model"
	"github.com/buildinghawk/deedwatch/internal/normalize"
)

// SQLiteStore implements Store using modernc.org/sqlite. It exists for
// local development and dry runs; production matching runs on Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS apn_watchlist (
	id                   TEXT PRIMARY KEY,
	apn                  TEXT NOT NULL UNIQUE,
	apn_normalized       TEXT NOT NULL,
	address              TEXT NOT NULL DEFAULT '',
	address_normalized   TEXT NOT NULL DEFAULT '',
	city                 TEXT NOT NULL DEFAULT '',
	state                TEXT NOT NULL DEFAULT 'CA',
	zip                  TEXT NOT NULL DEFAULT '',
	building_sf          REAL,
	assessed_total       REAL,
	is_listed_for_sale   INTEGER NOT NULL DEFAULT 0,
	listing_price        REAL,
	last_sale_date       DATETIME,
	last_sale_price      REAL,
	last_sale_doc_number TEXT,
	updated_at           DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_watchlist_apn_normalized ON apn_watchlist(apn_normalized);

CREATE TABLE IF NOT EXISTS lot_tract_lookup (
	lot_number     TEXT NOT NULL,
	tract_number   TEXT NOT NULL,
	city           TEXT NOT NULL DEFAULT '',
	apn            TEXT NOT NULL,
	apn_normalized TEXT NOT NULL,
	centroid_lat   REAL,
	centroid_lng   REAL,
	sourced_at     DATETIME NOT NULL,
	PRIMARY KEY (lot_number, tract_number, city)
);

CREATE TABLE IF NOT EXISTS deed_recordings (
	id                       TEXT PRIMARY KEY,
	doc_number               TEXT NOT NULL,
	recording_date           DATETIME NOT NULL,
	doc_type                 TEXT NOT NULL DEFAULT 'Grant Deed',
	apn                      TEXT,
	apn_normalized           TEXT,
	address                  TEXT,
	city                     TEXT,
	grantor                  TEXT,
	grantee                  TEXT,
	documentary_transfer_tax REAL,
	calculated_sale_price    REAL,
	matched_watchlist_id     TEXT REFERENCES apn_watchlist(id),
	match_status             TEXT NOT NULL DEFAULT 'unmatched',
	match_method             TEXT,
	match_confidence         REAL,
	raw_data                 TEXT,
	source                   TEXT NOT NULL DEFAULT '',
	processed_at             DATETIME,
	UNIQUE (doc_number, recording_date)
);

CREATE INDEX IF NOT EXISTS idx_deeds_status ON deed_recordings(match_status);

CREATE TABLE IF NOT EXISTS match_runs (
	id                TEXT PRIMARY KEY,
	county            TEXT NOT NULL,
	started_at        DATETIME NOT NULL,
	completed_at      DATETIME,
	status            TEXT NOT NULL DEFAULT 'running',
	records_processed INTEGER NOT NULL DEFAULT 0,
	exact_matched     INTEGER NOT NULL DEFAULT 0,
	fuzzy_matched     INTEGER NOT NULL DEFAULT 0,
	needs_review      INTEGER NOT NULL DEFAULT 0,
	error_message     TEXT
);

CREATE TABLE IF NOT EXISTS sale_alerts (
	id                TEXT PRIMARY KEY,
	watchlist_id      TEXT NOT NULL REFERENCES apn_watchlist(id),
	deed_id           TEXT NOT NULL REFERENCES deed_recordings(id),
	apn               TEXT NOT NULL,
	address           TEXT NOT NULL DEFAULT '',
	city              TEXT NOT NULL DEFAULT '',
	sale_price        REAL,
	sale_date         DATETIME NOT NULL,
	buyer             TEXT,
	seller            TEXT,
	was_listed        INTEGER NOT NULL DEFAULT 0,
	listing_price     REAL,
	assessed_value    REAL,
	price_vs_assessed REAL,
	priority          TEXT NOT NULL DEFAULT 'normal',
	created_at        DATETIME NOT NULL,
	UNIQUE (watchlist_id, deed_id)
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Watchlist ---

func (s *SQLiteStore) UpsertWatchlist(ctx context.Context, entries []model.WatchlistEntry) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO apn_watchlist (
	id, apn, apn_normalized, address, address_normalized, city, state, zip,
	building_sf, assessed_total, is_listed_for_sale, listing_price, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (apn) DO UPDATE SET
	apn_normalized = excluded.apn_normalized,
	address = excluded.address,
	address_normalized = excluded.address_normalized,
	city = excluded.city,
	state = excluded.state,
	zip = excluded.zip,
	building_sf = excluded.building_sf,
	assessed_total = excluded.assessed_total,
	is_listed_for_sale = excluded.is_listed_for_sale,
	listing_price = excluded.listing_price,
	updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare watchlist upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	var n int64
	for _, e := range entries {
		id := e.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := stmt.ExecContext(ctx,
			id, e.APN, normalize.APN(e.APN), e.Address, normalize.Address(e.Address),
			e.City, e.State, e.Zip, e.BuildingSF, e.AssessedTotal,
			e.IsListedForSale, e.ListingPrice, now,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert watchlist apn %s", e.APN)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit watchlist upsert")
	}
	return n, nil
}

func (s *SQLiteStore) GetWatchlistByAPN(ctx context.Context, apnNormalized string) (*model.WatchlistEntry, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, apn, apn_normalized, address, address_normalized, city, state, zip,
       building_sf, assessed_total, is_listed_for_sale, listing_price,
       last_sale_date, last_sale_price, last_sale_doc_number, updated_at
FROM apn_watchlist
WHERE apn_normalized = ?`, apnNormalized)

	var e model.WatchlistEntry
	err := row.Scan(
		&e.ID, &e.APN, &e.APNNormalized, &e.Address, &e.AddressNormalized,
		&e.City, &e.State, &e.Zip, &e.BuildingSF, &e.AssessedTotal,
		&e.IsListedForSale, &e.ListingPrice, &e.LastSaleDate, &e.LastSalePrice,
		&e.LastSaleDocNumber, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get watchlist entry")
	}
	return &e, nil
}

func (s *SQLiteStore) CountWatchlist(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM apn_watchlist").Scan(&n)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: count watchlist")
	}
	return n, nil
}

func (s *SQLiteStore) RecordWatchlistSale(ctx context.Context, watchlistID string, saleDate time.Time, salePrice *float64, docNumber string) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE apn_watchlist
SET last_sale_date = ?, last_sale_price = ?, last_sale_doc_number = ?,
    is_listed_for_sale = 0, updated_at = ?
WHERE id = ?`,
		saleDate, salePrice, docNumber, time.Now().UTC(), watchlistID)
	return eris.Wrap(err, "sqlite: record watchlist sale")
}

// --- Lot/tract lookup ---

func (s *SQLiteStore) UpsertLotTract(ctx context.Context, mappings []model.LotTractMapping) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO lot_tract_lookup (
	lot_number, tract_number, city, apn, apn_normalized, centroid_lat, centroid_lng, sourced_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (lot_number, tract_number, city) DO UPDATE SET
	apn = excluded.apn,
	apn_normalized = excluded.apn_normalized,
	centroid_lat = excluded.centroid_lat,
	centroid_lng = excluded.centroid_lng,
	sourced_at = excluded.sourced_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare lot/tract upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	var n int64
	for _, m := range mappings {
		sourced := m.SourcedAt
		if sourced.IsZero() {
			sourced = now
		}
		if _, err := stmt.ExecContext(ctx,
			m.LotNumber, m.TractNumber, m.City, m.APN, normalize.APN(m.APN),
			m.CentroidLat, m.CentroidLng, sourced,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert lot %s tract %s", m.LotNumber, m.TractNumber)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit lot/tract upsert")
	}
	return n, nil
}

func (s *SQLiteStore) LookupLotTract(ctx context.Context, lot, tract, city string) ([]model.LotTractMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT lot_number, tract_number, city, apn, apn_normalized, centroid_lat, centroid_lng, sourced_at
FROM lot_tract_lookup
WHERE lot_number = ? AND tract_number = ? AND lower(city) = lower(?)`,
		lot, tract, city)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: lot/tract lookup")
	}
	defer rows.Close()
	return scanLotTractSQLRows(rows)
}

func (s *SQLiteStore) LookupLotTractAnyCity(ctx context.Context, lot, tract string) ([]model.LotTractMapping, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT lot_number, tract_number, city, apn, apn_normalized, centroid_lat, centroid_lng, sourced_at
FROM lot_tract_lookup
WHERE lot_number = ? AND tract_number = ?
ORDER BY sourced_at DESC, apn`,
		lot, tract)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: lot/tract lookup any city")
	}
	defer rows.Close()
	return scanLotTractSQLRows(rows)
}

func scanLotTractSQLRows(rows *sql.Rows) ([]model.LotTractMapping, error) {
	var out []model.LotTractMapping
	for rows.Next() {
		var m model.LotTractMapping
		if err := rows.Scan(&m.LotNumber, &m.TractNumber, &m.City, &m.APN,
			&m.APNNormalized, &m.CentroidLat, &m.CentroidLng, &m.SourcedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lot/tract row")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate lot/tract rows")
	}
	return out, nil
}

// --- Deeds ---

func (s *SQLiteStore) UpsertDeed(ctx context.Context, deed *model.DeedRecording) (string, error) {
	id := deed.ID
	if id == "" {
		id = uuid.New().String()
	}

	var apnNorm *string
	if deed.APN != nil {
		n := normalize.APN(*deed.APN)
		apnNorm = &n
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO deed_recordings (
	id, doc_number, recording_date, doc_type, apn, apn_normalized, address,
	city, grantor, grantee, documentary_transfer_tax, calculated_sale_price,
	raw_data, source, match_status
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (doc_number, recording_date) DO UPDATE SET
	doc_type = excluded.doc_type,
	apn = COALESCE(deed_recordings.apn, excluded.apn),
	apn_normalized = COALESCE(deed_recordings.apn_normalized, excluded.apn_normalized),
	address = COALESCE(deed_recordings.address, excluded.address),
	city = COALESCE(deed_recordings.city, excluded.city),
	grantor = excluded.grantor,
	grantee = excluded.grantee,
	documentary_transfer_tax = excluded.documentary_transfer_tax,
	calculated_sale_price = COALESCE(deed_recordings.calculated_sale_price, excluded.calculated_sale_price),
	raw_data = excluded.raw_data,
	source = excluded.source`,
		id, deed.DocNumber, deed.RecordingDate, deed.DocType, deed.APN, apnNorm,
		deed.Address, deed.City, deed.Grantor, deed.Grantee,
		deed.DocumentaryTransferTax, deed.CalculatedSalePrice,
		string(deed.RawData), deed.Source,
		string(model.MatchStatusUnmatched))
	if err != nil {
		return "", eris.Wrap(err, "sqlite: upsert deed")
	}

	var got string
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM deed_recordings WHERE doc_number = ? AND recording_date = ?",
		deed.DocNumber, deed.RecordingDate).Scan(&got)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: resolve deed id")
	}
	return got, nil
}

const sqliteDeedColumns = `
id, doc_number, recording_date, doc_type, apn, apn_normalized, address, city,
grantor, grantee, documentary_transfer_tax, calculated_sale_price,
matched_watchlist_id, match_status, match_method, match_confidence,
raw_data, source, processed_at`

func (s *SQLiteStore) GetDeed(ctx context.Context, id string) (*model.DeedRecording, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sqliteDeedColumns+" FROM deed_recordings WHERE id = ?", id)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get deed")
	}
	defer rows.Close()

	deeds, err := scanDeedSQLRows(rows)
	if err != nil {
		return nil, err
	}
	if len(deeds) == 0 {
		return nil, nil
	}
	return &deeds[0], nil
}

func (s *SQLiteStore) ListDeeds(ctx context.Context, filter DeedFilter) ([]model.DeedRecording, error) {
	q := "SELECT " + sqliteDeedColumns + " FROM deed_recordings WHERE 1=1"
	args := []any{}

	if filter.Status != "" {
		q += " AND match_status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.From != nil {
		q += " AND recording_date >= ?"
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		q += " AND recording_date <= ?"
		args = append(args, *filter.To)
	}
	q += " ORDER BY recording_date, doc_number"
	if filter.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		q += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list deeds")
	}
	defer rows.Close()
	return scanDeedSQLRows(rows)
}

func (s *SQLiteStore) MarkDeedMatched(ctx context.Context, u MatchUpdate) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE deed_recordings
SET apn = ?, apn_normalized = ?, matched_watchlist_id = ?,
    match_status = ?, match_method = ?, match_confidence = ?,
    calculated_sale_price = ?, processed_at = ?
WHERE id = ?`,
		u.APN, u.APNNormalized, u.WatchlistID, string(u.Status), string(u.Method),
		u.Confidence, u.CalculatedSalePrice, time.Now().UTC(), u.DeedID)
	return eris.Wrap(err, "sqlite: mark deed matched")
}

func (s *SQLiteStore) MarkDeedNeedsReview(ctx context.Context, deedID string, salePrice *float64) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE deed_recordings
SET match_status = ?, calculated_sale_price = COALESCE(?, calculated_sale_price),
    processed_at = ?
WHERE id = ?`,
		string(model.MatchStatusNeedsReview), salePrice, time.Now().UTC(), deedID)
	return eris.Wrap(err, "sqlite: mark deed needs review")
}

func (s *SQLiteStore) ReviewQueue(ctx context.Context, limit int) ([]model.DeedRecording, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+sqliteDeedColumns+`
FROM deed_recordings
WHERE match_status = 'needs_review'
ORDER BY recording_date DESC, calculated_sale_price DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: review queue")
	}
	defer rows.Close()
	return scanDeedSQLRows(rows)
}

func scanDeedSQLRows(rows *sql.Rows) ([]model.DeedRecording, error) {
	var out []model.DeedRecording
	for rows.Next() {
		var d model.DeedRecording
		var method *string
		var raw sql.NullString
		err := rows.Scan(
			&d.ID, &d.DocNumber, &d.RecordingDate, &d.DocType, &d.APN,
			&d.APNNormalized, &d.Address, &d.City, &d.Grantor, &d.Grantee,
			&d.DocumentaryTransferTax, &d.CalculatedSalePrice,
			&d.MatchedWatchlistID, &d.MatchStatus, &method, &d.MatchConfidence,
			&raw, &d.Source, &d.ProcessedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan deed row")
		}
		if method != nil {
			m := model.MatchMethod(*method)
			d.MatchMethod = &m
		}
		if raw.Valid {
			d.RawData = []byte(raw.String)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate deed rows")
	}
	return out, nil
}

// --- Fuzzy match support ---

// AddressCandidates applies the street-number coarse filter. SQLite lacks
// regex substring extraction, so the LIKE narrows the scan and the exact
// digit-run comparison happens here.
func (s *SQLiteStore) AddressCandidates(ctx context.Context, streetNumber, city string) ([]AddressCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, apn, address, address_normalized, city
FROM apn_watchlist
WHERE address_normalized LIKE ? || '%' AND lower(city) = lower(?)
ORDER BY rowid`,
		streetNumber, city)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: address candidates")
	}
	defer rows.Close()

	var out []AddressCandidate
	for rows.Next() {
		var c AddressCandidate
		if err := rows.Scan(&c.WatchlistID, &c.APN, &c.Address, &c.AddressNormalized, &c.City); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan address candidate")
		}
		if normalize.StreetNumber(c.AddressNormalized) != streetNumber {
			continue
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate address candidates")
	}
	return out, nil
}

// --- Match runs ---

func (s *SQLiteStore) CreateMatchRun(ctx context.Context, county string) (*model.MatchRun, error) {
	run := &model.MatchRun{
		ID:        uuid.New().String(),
		County:    county,
		StartedAt: time.Now().UTC(),
		Status:    model.MatchRunRunning,
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO match_runs (id, county, started_at, status) VALUES (?, ?, ?, ?)`,
		run.ID, run.County, run.StartedAt, string(run.Status))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: create match run")
	}
	return run, nil
}

func (s *SQLiteStore) CompleteMatchRun(ctx context.Context, run *model.MatchRun) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE match_runs
SET completed_at = ?, status = ?, records_processed = ?,
    exact_matched = ?, fuzzy_matched = ?, needs_review = ?
WHERE id = ?`,
		time.Now().UTC(), string(model.MatchRunCompleted), run.RecordsProcessed,
		run.ExactMatched, run.FuzzyMatched, run.NeedsReview, run.ID)
	return eris.Wrap(err, "sqlite: complete match run")
}

func (s *SQLiteStore) FailMatchRun(ctx context.Context, runID string, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE match_runs SET completed_at = ?, status = ?, error_message = ? WHERE id = ?`,
		time.Now().UTC(), string(model.MatchRunFailed), errMsg, runID)
	return eris.Wrap(err, "sqlite: fail match run")
}

func (s *SQLiteStore) ListMatchRuns(ctx context.Context, limit int) ([]model.MatchRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, county, started_at, completed_at, status, records_processed,
       exact_matched, fuzzy_matched, needs_review, error_message
FROM match_runs
ORDER BY started_at DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list match runs")
	}
	defer rows.Close()

	var out []model.MatchRun
	for rows.Next() {
		var r model.MatchRun
		if err := rows.Scan(&r.ID, &r.County, &r.StartedAt, &r.CompletedAt,
			&r.Status, &r.RecordsProcessed, &r.ExactMatched, &r.FuzzyMatched,
			&r.NeedsReview, &r.ErrorMessage); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan match run")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate match runs")
	}
	return out, nil
}

// --- Sale alerts ---

func (s *SQLiteStore) UpsertSaleAlert(ctx context.Context, a *model.SaleAlert) (bool, error) {
	id := a.ID
	if id == "" {
		id = uuid.New().String()
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO sale_alerts (
	id, watchlist_id, deed_id, apn, address, city, sale_price, sale_date,
	buyer, seller, was_listed, listing_price, assessed_value,
	price_vs_assessed, priority, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (watchlist_id, deed_id) DO NOTHING`,
		id, a.WatchlistID, a.DeedID, a.APN, a.Address, a.City, a.SalePrice,
		a.SaleDate, a.Buyer, a.Seller, a.WasListed, a.ListingPrice,
		a.AssessedValue, a.PriceVsAssessed, a.Priority, time.Now().UTC())
	if err != nil {
		return false, eris.Wrap(err, "sqlite: upsert sale alert")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: sale alert rows affected")
	}
	return n > 0, nil
}
