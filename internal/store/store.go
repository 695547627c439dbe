// Package store persists field records in SQLite or PostGIS.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/terra/internal/field"
	"github.com/sells-group/terra/internal/geometry"
	"github.com/sells-group/terra/internal/soil"
)

// ErrNotFound is returned when a field does not exist.
var ErrNotFound = eris.New("store: field not found")

// ListFilter narrows ListFields.
type ListFilter struct {
	Crop string `json:"crop,omitempty"`
	// Within keeps fields whose boundary intersects the box (Postgres) or
	// whose center lies in it (SQLite).
	Within *geometry.BBox `json:"within,omitempty"`
	Limit  int            `json:"limit,omitempty"`
	Offset int            `json:"offset,omitempty"`
}

// Store defines the persistence interface for field records.
type Store interface {
	CreateField(ctx context.Context, r *field.Record) error
	UpdateField(ctx context.Context, r *field.Record) error
	GetField(ctx context.Context, id string) (*field.Record, error)
	ListFields(ctx context.Context, filter ListFilter) ([]field.Record, error)
	DeleteField(ctx context.Context, id string) error
	// ImportFields inserts or replaces records by ID in one transaction.
	ImportFields(ctx context.Context, records []*field.Record) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// encoded holds the column values shared by both backends.
type encoded struct {
	boundary []byte
	soil     []byte // nil when no assessment
}

func encode(r *field.Record) (encoded, error) {
	var e encoded
	b, err := geometry.EncodeEWKB(r.Boundary)
	if err != nil {
		return e, eris.Wrapf(err, "store: encode boundary of %s", r.ID)
	}
	e.boundary = b

	if r.Soil != nil {
		s, err := json.Marshal(r.Soil)
		if err != nil {
			return e, eris.Wrap(err, "store: marshal soil")
		}
		e.soil = s
	}
	return e, nil
}

func decodeInto(r *field.Record, boundary, soilJSON []byte) error {
	p, err := geometry.DecodeEWKB(boundary)
	if err != nil {
		return eris.Wrapf(err, "store: decode boundary of %s", r.ID)
	}
	r.Boundary = p

	if len(soilJSON) > 0 {
		var a soil.Assessment
		if err := json.Unmarshal(soilJSON, &a); err != nil {
			return eris.Wrapf(err, "store: unmarshal soil of %s", r.ID)
		}
		r.Soil = &a
	}
	return nil
}

func notFound(id string) error {
	return eris.Wrapf(ErrNotFound, "store: field %s", id)
}
