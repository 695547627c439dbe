package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/terra/internal/field"
)

// SQLiteStore implements Store using modernc.org/sqlite. Boundaries are
// stored as EWKB blobs.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// busy_timeout is per connection; one connection keeps it in force
	// and serializes writers.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS fields (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	crop       TEXT NOT NULL DEFAULT '',
	boundary   BLOB NOT NULL,
	area_m2    REAL NOT NULL,
	center_lat REAL NOT NULL,
	center_lng REAL NOT NULL,
	soil       TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_fields_crop ON fields(crop);
CREATE INDEX IF NOT EXISTS idx_fields_center ON fields(center_lat, center_lng);
`

const sqliteUpsert = `INSERT INTO fields
	(id, name, crop, boundary, area_m2, center_lat, center_lng, soil, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		crop = excluded.crop,
		boundary = excluded.boundary,
		area_m2 = excluded.area_m2,
		center_lat = excluded.center_lat,
		center_lng = excluded.center_lng,
		soil = excluded.soil,
		updated_at = excluded.updated_at`

const sqliteSelect = `SELECT id, name, crop, boundary, area_m2, center_lat, center_lng, soil, created_at, updated_at FROM fields`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateField(ctx context.Context, r *field.Record) error {
	e, err := encode(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO fields (id, name, crop, boundary, area_m2, center_lat, center_lng, soil, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Crop, e.boundary, r.Area, r.Center.Lat, r.Center.Lng, nullableText(e.soil), r.CreatedAt, r.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert field %s", r.ID)
}

func (s *SQLiteStore) UpdateField(ctx context.Context, r *field.Record) error {
	e, err := encode(r)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE fields SET name = ?, crop = ?, boundary = ?, area_m2 = ?, center_lat = ?, center_lng = ?, soil = ?, updated_at = ?
		WHERE id = ?`,
		r.Name, r.Crop, e.boundary, r.Area, r.Center.Lat, r.Center.Lng, nullableText(e.soil), r.UpdatedAt, r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update field %s", r.ID)
	}
	return checkRowsAffected(res, r.ID)
}

func (s *SQLiteStore) GetField(ctx context.Context, id string) (*field.Record, error) {
	row := s.db.QueryRowContext(ctx, sqliteSelect+` WHERE id = ?`, id)
	r, err := scanField(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get field %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) ListFields(ctx context.Context, filter ListFilter) ([]field.Record, error) {
	var (
		where []string
		args  []any
	)
	if filter.Crop != "" {
		where = append(where, "crop = ? COLLATE NOCASE")
		args = append(args, filter.Crop)
	}
	if b := filter.Within; b != nil {
		where = append(where, "center_lat BETWEEN ? AND ? AND center_lng BETWEEN ? AND ?")
		args = append(args, b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
	}

	query := sqliteSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list fields")
	}
	defer rows.Close() //nolint:errcheck

	var out []field.Record
	for rows.Next() {
		r, err := scanField(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan field")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate fields")
}

func (s *SQLiteStore) DeleteField(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fields WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete field %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) ImportFields(ctx context.Context, records []*field.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare import")
	}
	defer stmt.Close() //nolint:errcheck

	for _, r := range records {
		e, err := encode(r)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Name, r.Crop, e.boundary, r.Area, r.Center.Lat, r.Center.Lng, nullableText(e.soil), r.CreatedAt, r.UpdatedAt,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: import field %s", r.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit import")
	}
	return len(records), nil
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanField(row scannable) (*field.Record, error) {
	var (
		r                    field.Record
		boundary             []byte
		soilJSON             sql.NullString
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Crop, &boundary, &r.Area, &r.Center.Lat, &r.Center.Lng, &soilJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	r.CreatedAt = createdAt.UTC()
	r.UpdatedAt = updatedAt.UTC()

	var raw []byte
	if soilJSON.Valid {
		raw = []byte(soilJSON.String)
	}
	if err := decodeInto(&r, boundary, raw); err != nil {
		return nil, err
	}
	return &r, nil
}

func nullableText(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
