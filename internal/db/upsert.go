package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Column describes one staged column of a bulk upsert.
type Column struct {
	Name string
	// Type is the staging column type, e.g. "text" or "bytea".
	Type string
	// Select turns the staged value into the target value, e.g.
	// "ST_GeomFromEWKB(boundary)". Empty selects the column as is.
	Select string
}

// UpsertConfig defines the parameters for a bulk upsert.
type UpsertConfig struct {
	Table        string
	Columns      []Column
	ConflictKeys []string
	UpdateCols   []string // nil = all non-conflict columns
}

// BulkUpsert COPYs rows into a temp staging table and merges them into the
// target with INSERT ... SELECT ... ON CONFLICT DO UPDATE, all in one
// transaction. Staging lets columns such as PostGIS geometries be built
// from raw bytes on the server.
func BulkUpsert(ctx context.Context, pool Pool, cfg UpsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(cfg.Columns) == 0 {
		return 0, eris.New("db: upsert: no columns specified")
	}
	if len(cfg.ConflictKeys) == 0 {
		return 0, eris.New("db: upsert: no conflict keys specified")
	}

	names := make([]string, len(cfg.Columns))
	defs := make([]string, len(cfg.Columns))
	selects := make([]string, len(cfg.Columns))
	for i, c := range cfg.Columns {
		if c.Type == "" {
			return 0, eris.Errorf("db: upsert: column %s has no type", c.Name)
		}
		names[i] = c.Name
		defs[i] = pgx.Identifier{c.Name}.Sanitize() + " " + c.Type
		selects[i] = pgx.Identifier{c.Name}.Sanitize()
		if c.Select != "" {
			selects[i] = c.Select
		}
	}

	updateCols := cfg.UpdateCols
	if updateCols == nil {
		conflict := make(map[string]bool, len(cfg.ConflictKeys))
		for _, k := range cfg.ConflictKeys {
			conflict[k] = true
		}
		for _, n := range names {
			if !conflict[n] {
				updateCols = append(updateCols, n)
			}
		}
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	stage := StageTable(cfg.Table)
	createSQL := fmt.Sprintf("CREATE TEMP TABLE %s (%s) ON COMMIT DROP",
		pgx.Identifier{stage}.Sanitize(), strings.Join(defs, ", "))
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: create staging table for %s", cfg.Table)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{stage}, names, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: COPY into staging table for %s", cfg.Table)
	}

	setClauses := make([]string, len(updateCols))
	for i, col := range updateCols {
		q := pgx.Identifier{col}.Sanitize()
		setClauses[i] = q + " = EXCLUDED." + q
	}

	upsertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) DO UPDATE SET %s",
		sanitizeTable(cfg.Table),
		quoteAndJoin(names),
		strings.Join(selects, ", "),
		pgx.Identifier{stage}.Sanitize(),
		quoteAndJoin(cfg.ConflictKeys),
		strings.Join(setClauses, ", "),
	)

	tag, err := tx.Exec(ctx, upsertSQL)
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: merge into %s", cfg.Table)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: upsert: commit tx")
	}
	return tag.RowsAffected(), nil
}

// StageTable returns the temp table name used to stage rows for table.
func StageTable(table string) string {
	return "_stage_" + strings.ReplaceAll(table, ".", "_")
}

// sanitizeTable handles schema-qualified names like "farm.fields".
func sanitizeTable(table string) string {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pgx.Identifier{schema, name}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
