// Package field models a farm field: its drawn boundary, the geometry
// derived from it, its crop and its latest soil assessment.
package field

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/terra/internal/geometry"
	"github.com/sells-group/terra/internal/soil"
)

// Record is a persisted field. Area and Center are derived from Boundary
// and only change through SetBoundary.
type Record struct {
	ID        string            `json:"id" yaml:"id"`
	Name      string            `json:"name" yaml:"name"`
	Crop      string            `json:"crop,omitempty" yaml:"crop,omitempty"`
	Boundary  geometry.Polygon  `json:"boundary" yaml:"boundary"`
	Area      float64           `json:"area_m2" yaml:"area_m2"`
	Center    geometry.GeoPoint `json:"center" yaml:"center"`
	Soil      *soil.Assessment  `json:"soil,omitempty" yaml:"soil,omitempty"`
	CreatedAt time.Time         `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" yaml:"updated_at"`
}

// New creates a field with a fresh ID and derived geometry.
func New(name, crop string, boundary geometry.Polygon) (*Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, eris.New("field: name is required")
	}

	now := time.Now().UTC()
	r := &Record{
		ID:        uuid.New().String(),
		Name:      name,
		Crop:      strings.TrimSpace(crop),
		CreatedAt: now,
	}
	if err := r.SetBoundary(boundary); err != nil {
		return nil, err
	}
	r.UpdatedAt = now
	return r, nil
}

// SetBoundary replaces the boundary and recomputes Area and Center. The
// record is left unchanged if p is not a valid boundary.
func (r *Record) SetBoundary(p geometry.Polygon) error {
	if err := p.Validate(); err != nil {
		return eris.Wrap(err, "field: invalid boundary")
	}
	center, err := geometry.Centroid(p)
	if err != nil {
		return eris.Wrap(err, "field: center")
	}

	r.Boundary = append(geometry.Polygon(nil), p...)
	r.Area = geometry.Area(p)
	r.Center = center
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Hectares returns the field area in hectares.
func (r *Record) Hectares() float64 {
	return geometry.Hectares(r.Area)
}

// Centers returns the center of every record, in order.
func Centers(records []Record) []geometry.GeoPoint {
	out := make([]geometry.GeoPoint, len(records))
	for i, r := range records {
		out[i] = r.Center
	}
	return out
}

// TotalArea sums the area of every record in square metres.
func TotalArea(records []Record) float64 {
	var total float64
	for _, r := range records {
		total += r.Area
	}
	return total
}
