package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Upsert describes a bulk insert-or-update into one table.
type Upsert struct {
	Table        string   // target table
	Columns      []string // columns being written, in row order
	ConflictKeys []string // columns forming the unique constraint
}

// Run loads rows through a temp table and folds them into the target with
// INSERT ... ON CONFLICT DO UPDATE. The temp table lets us use the COPY
// protocol for the bulk transfer while still getting upsert semantics.
// Returns the number of rows written.
func (u Upsert) Run(ctx context.Context, pool Pool, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(u.Columns) == 0 {
		return 0, eris.New("db: upsert: no columns")
	}
	if len(u.ConflictKeys) == 0 {
		return 0, eris.New("db: upsert: no conflict keys")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert: begin tx")
	}
	defer tx.Rollback(ctx)

	temp := "_staging_" + u.Table

	createSQL := fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		pgx.Identifier{temp}.Sanitize(),
		pgx.Identifier{u.Table}.Sanitize(),
	)
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: create staging table for %s", u.Table)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{temp}, u.Columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: COPY into staging for %s", u.Table)
	}

	tag, err := tx.Exec(ctx, u.foldSQL(temp))
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: fold staging into %s", u.Table)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: upsert: commit tx")
	}

	return tag.RowsAffected(), nil
}

// foldSQL builds the INSERT ... SELECT ... ON CONFLICT DO UPDATE statement.
// Every non-key column is overwritten on conflict: imports are full
// refreshes of reference data, not merges.
func (u Upsert) foldSQL(temp string) string {
	keys := make(map[string]bool, len(u.ConflictKeys))
	for _, k := range u.ConflictKeys {
		keys[k] = true
	}

	var sets []string
	for _, c := range u.Columns {
		if !keys[c] {
			q := pgx.Identifier{c}.Sanitize()
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
		}
	}

	cols := quoteJoin(u.Columns)
	action := "DO NOTHING"
	if len(sets) > 0 {
		action = "DO UPDATE SET " + strings.Join(sets, ", ")
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		pgx.Identifier{u.Table}.Sanitize(),
		cols,
		cols,
		pgx.Identifier{temp}.Sanitize(),
		quoteJoin(u.ConflictKeys),
		action,
	)
}

func quoteJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
