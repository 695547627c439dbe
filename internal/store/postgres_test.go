package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/terra/internal/field"
	"github.com/sells-group/terra/internal/geometry"
	"github.com/sells-group/terra/internal/soil"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var fieldCols = []string{"id", "name", "crop", "st_asewkb", "area_m2", "center_lat", "center_lng", "soil", "created_at", "updated_at"}

func fieldRow(t *testing.T, r *field.Record) []any {
	t.Helper()
	b, err := geometry.EncodeEWKB(r.Boundary)
	require.NoError(t, err)

	var soilJSON []byte
	if r.Soil != nil {
		soilJSON, err = json.Marshal(r.Soil)
		require.NoError(t, err)
	}
	return []any{r.ID, r.Name, r.Crop, b, r.Area, r.Center.Lat, r.Center.Lng, soilJSON, r.CreatedAt, r.UpdatedAt}
}

func TestPostgresStore_CreateField(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	r := newRecord(t, "North 40", "Corn", 38.95, -92.33)

	mock.ExpectExec(`INSERT INTO fields .* VALUES \(\$1, \$2, \$3, ST_GeomFromEWKB\(\$4\)`).
		WithArgs(r.ID, "North 40", "Corn", pgxmock.AnyArg(), r.Area, r.Center.Lat, r.Center.Lng, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.CreateField(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetField(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	r := newRecord(t, "North 40", "Corn", 38.95, -92.33)
	a := soil.Assess(soil.Sample{Clay: 30, Sand: 30, OrganicCarbon: 40, PH: 6.5})
	r.Soil = &a

	mock.ExpectQuery(`SELECT id, name, crop, ST_AsEWKB\(boundary\), .* FROM fields WHERE id = \$1`).
		WithArgs(r.ID).
		WillReturnRows(pgxmock.NewRows(fieldCols).AddRow(fieldRow(t, r)...))

	got, err := s.GetField(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Boundary, got.Boundary)
	assert.Equal(t, r.Center, got.Center)
	require.NotNil(t, got.Soil)
	assert.Equal(t, soil.LabelExcellent, got.Soil.QualityLabel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetField_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM fields WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetField(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateField_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	r := newRecord(t, "Ghost", "", 1, 1)

	mock.ExpectExec(`UPDATE fields SET .* WHERE id = \$9`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), r.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateField(context.Background(), r)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteField(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM fields WHERE id = \$1`).
		WithArgs("f1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM fields WHERE id = \$1`).
		WithArgs("f1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.DeleteField(context.Background(), "f1"))
	assert.True(t, eris.Is(s.DeleteField(context.Background(), "f1"), ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListFields_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	r := newRecord(t, "A", "Corn", 38.95, -92.33)

	mock.ExpectQuery(`FROM fields WHERE lower\(crop\) = lower\(\$1\) AND boundary && ST_MakeEnvelope\(\$2, \$3, \$4, \$5, 4326\) ORDER BY created_at, id LIMIT \$6 OFFSET \$7`).
		WithArgs("corn", -92.4, 38.9, -92.3, 39.0, 10, 5).
		WillReturnRows(pgxmock.NewRows(fieldCols).AddRow(fieldRow(t, r)...))

	got, err := s.ListFields(context.Background(), ListFilter{
		Crop:   "corn",
		Within: &geometry.BBox{MinLat: 38.9, MinLng: -92.4, MaxLat: 39.0, MaxLng: -92.3},
		Limit:  10,
		Offset: 5,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Name)
	assert.Nil(t, got[0].Soil)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListFields_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM fields ORDER BY created_at, id`).
		WillReturnError(errors.New("connection reset"))

	_, err := s.ListFields(context.Background(), ListFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: list fields")
}

func TestPostgresStore_ImportFields(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	a := newRecord(t, "A", "", 1, 1)
	b := newRecord(t, "B", "", 2, 2)

	cols := make([]string, len(importColumns))
	for i, c := range importColumns {
		cols[i] = c.Name
	}

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_stage_fields" \("id" text, .*"boundary" bytea, .*"soil" jsonb`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_fields"}, cols).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "fields" .* SELECT "id", "name", "crop", ST_GeomFromEWKB\(boundary\), .* ON CONFLICT \("id"\) DO UPDATE SET "name" = EXCLUDED."name"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := s.ImportFields(context.Background(), []*field.Record{a, b})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ImportFields_RejectsBadBoundary(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	bad := &field.Record{ID: "x", Name: "bad", Boundary: geometry.Polygon{{Lat: 1, Lng: 1}}, CreatedAt: time.Now()}

	_, err := s.ImportFields(context.Background(), []*field.Record{bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode boundary")
	assert.NoError(t, mock.ExpectationsWereMet())
}
