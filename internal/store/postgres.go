package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/terra/internal/db"
	"github.com/sells-group/terra/internal/field"
	"github.com/sells-group/terra/internal/geometry"
)

// PostgresStore implements Store on PostGIS using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
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

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS postgis;

CREATE TABLE IF NOT EXISTS fields (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL,
	crop       TEXT NOT NULL DEFAULT '',
	boundary   geometry(Polygon, 4326) NOT NULL,
	area_m2    DOUBLE PRECISION NOT NULL,
	center_lat DOUBLE PRECISION NOT NULL,
	center_lng DOUBLE PRECISION NOT NULL,
	soil       JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_fields_crop ON fields(lower(crop));
CREATE INDEX IF NOT EXISTS idx_fields_boundary ON fields USING GIST (boundary);
`

const postgresSelect = `SELECT id, name, crop, ST_AsEWKB(boundary), area_m2, center_lat, center_lng, soil, created_at, updated_at FROM fields`

// importColumns mirrors the fields table for BulkUpsert staging. The
// boundary is staged as raw EWKB and built into a geometry on merge.
var importColumns = []db.Column{
	{Name: "id", Type: "text"},
	{Name: "name", Type: "text"},
	{Name: "crop", Type: "text"},
	{Name: "boundary", Type: "bytea", Select: "ST_GeomFromEWKB(boundary)"},
	{Name: "area_m2", Type: "double precision"},
	{Name: "center_lat", Type: "double precision"},
	{Name: "center_lng", Type: "double precision"},
	{Name: "soil", Type: "jsonb"},
	{Name: "created_at", Type: "timestamptz"},
	{Name: "updated_at", Type: "timestamptz"},
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateField(ctx context.Context, r *field.Record) error {
	e, err := encode(r)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO fields (id, name, crop, boundary, area_m2, center_lat, center_lng, soil, created_at, updated_at)
		VALUES ($1, $2, $3, ST_GeomFromEWKB($4), $5, $6, $7, $8, $9, $10)`,
		r.ID, r.Name, r.Crop, e.boundary, r.Area, r.Center.Lat, r.Center.Lng, e.soil, r.CreatedAt, r.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: insert field %s", r.ID)
}

func (s *PostgresStore) UpdateField(ctx context.Context, r *field.Record) error {
	e, err := encode(r)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE fields SET name = $1, crop = $2, boundary = ST_GeomFromEWKB($3), area_m2 = $4, center_lat = $5, center_lng = $6, soil = $7, updated_at = $8
		WHERE id = $9`,
		r.Name, r.Crop, e.boundary, r.Area, r.Center.Lat, r.Center.Lng, e.soil, r.UpdatedAt, r.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update field %s", r.ID)
	}
	if tag.RowsAffected() == 0 {
		return notFound(r.ID)
	}
	return nil
}

func (s *PostgresStore) GetField(ctx context.Context, id string) (*field.Record, error) {
	row := s.pool.QueryRow(ctx, postgresSelect+` WHERE id = $1`, id)
	r, err := scanPgField(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get field %s", id)
	}
	return r, nil
}

func (s *PostgresStore) ListFields(ctx context.Context, filter ListFilter) ([]field.Record, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Crop != "" {
		where = append(where, "lower(crop) = lower("+arg(filter.Crop)+")")
	}
	if b := filter.Within; b != nil {
		where = append(where, fmt.Sprintf("boundary && ST_MakeEnvelope(%s, %s, %s, %s, %d)",
			arg(b.MinLng), arg(b.MinLat), arg(b.MaxLng), arg(b.MaxLat), geometry.SRID))
	}

	query := postgresSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET " + arg(filter.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list fields")
	}
	defer rows.Close()

	var out []field.Record
	for rows.Next() {
		r, err := scanPgField(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan field")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate fields")
}

func (s *PostgresStore) DeleteField(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM fields WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete field %s", id)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

// ImportFields stages records with COPY and merges them on id.
func (s *PostgresStore) ImportFields(ctx context.Context, records []*field.Record) (int, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		e, err := encode(r)
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{
			r.ID, r.Name, r.Crop, e.boundary, r.Area, r.Center.Lat, r.Center.Lng, e.soil, r.CreatedAt, r.UpdatedAt,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "fields",
		Columns:      importColumns,
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"name", "crop", "boundary", "area_m2", "center_lat", "center_lng", "soil", "updated_at"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: import fields")
	}
	return int(n), nil
}

func scanPgField(row pgx.Row) (*field.Record, error) {
	var (
		r        field.Record
		boundary []byte
		soilJSON []byte
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Crop, &boundary, &r.Area, &r.Center.Lat, &r.Center.Lng, &soilJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	if err := decodeInto(&r, boundary, soilJSON); err != nil {
		return nil, err
	}
	return &r, nil
}
