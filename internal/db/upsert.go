package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertByKey stages rows in a temp table with COPY, then merges them into
// table keyed on the single column key. Every other column is overwritten on
// conflict. columns must include key.
func UpsertByKey(ctx context.Context, pool Pool, table, key string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var updates []string
	keyed := false
	for _, c := range columns {
		if c == key {
			keyed = true
			continue
		}
		id := pgx.Identifier{c}.Sanitize()
		updates = append(updates, id+" = EXCLUDED."+id)
	}
	if !keyed {
		return 0, eris.Errorf("db: upsert %s: key %q not among columns", table, key)
	}

	action := "DO NOTHING"
	if len(updates) > 0 {
		action = "DO UPDATE SET " + strings.Join(updates, ", ")
	}

	target := pgx.Identifier{table}.Sanitize()
	staging := pgx.Identifier{table + "_staging"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: begin", table)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		staging.Sanitize(), target,
	)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: create staging", table)
	}

	if _, err := tx.CopyFrom(ctx, staging, columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: copy staging", table)
	}

	cols := columnList(columns)
	tag, err := tx.Exec(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		target, cols, cols, staging.Sanitize(), pgx.Identifier{key}.Sanitize(), action,
	))
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: merge", table)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: commit", table)
	}
	return tag.RowsAffected(), nil
}

func columnList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
