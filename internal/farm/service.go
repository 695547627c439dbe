// Package farm manages the fields of one farm and answers farm-wide
// questions: where to center the map, how good the soil is.
package farm

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/terra/internal/cluster"
	"github.com/sells-group/terra/internal/config"
	"github.com/sells-group/terra/internal/field"
	"github.com/sells-group/terra/internal/geometry"
	"github.com/sells-group/terra/internal/soil"
	"github.com/sells-group/terra/internal/store"
	"github.com/sells-group/terra/pkg/soilgrids"
)

// ErrNoFields is returned by farm-wide operations when the farm is empty.
var ErrNoFields = eris.New("farm: no fields")

// Hooks receive the outcome of service operations, e.g. to feed metrics.
// Nil hooks are skipped.
type Hooks struct {
	Assessed  func(a soil.Assessment)
	Clustered func(r cluster.Result)
	Listed    func(n int)
}

// Option configures a Service.
type Option func(*Service)

// WithHooks sets the service hooks.
func WithHooks(h Hooks) Option {
	return func(s *Service) { s.hooks = h }
}

// WithClusterOptions passes extra options to every clustering run, e.g. a
// fixed sampler in tests.
func WithClusterOptions(opts ...cluster.Option) Option {
	return func(s *Service) { s.clusterOpts = append(s.clusterOpts, opts...) }
}

// Service coordinates the field store, the soil lookup and the analytics
// core.
type Service struct {
	store       store.Store
	soil        soilgrids.Client
	scorer      *soil.Scorer
	crops       *field.Catalogue
	k           int
	clusterOpts []cluster.Option
	concurrency int
	hooks       Hooks
}

// New creates a Service. soilClient and crops may be nil: soil lookups
// then fail and any crop name is accepted.
func New(cfg *config.Config, st store.Store, soilClient soilgrids.Client, crops *field.Catalogue, opts ...Option) (*Service, error) {
	scorer, err := soil.NewScorer(cfg.Soil.Weights)
	if err != nil {
		return nil, eris.Wrap(err, "farm: soil weights")
	}

	s := &Service{
		store:       st,
		soil:        soilClient,
		scorer:      scorer,
		crops:       crops,
		k:           max(cfg.Cluster.K, 1),
		concurrency: max(cfg.Survey.Concurrency, 1),
	}
	if cfg.Cluster.Seed != 0 {
		s.clusterOpts = append(s.clusterOpts, cluster.WithSeed(cfg.Cluster.Seed))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Scorer returns the soil scorer built from the configured weights.
func (s *Service) Scorer() *soil.Scorer {
	return s.scorer
}

// AddField creates and stores a field.
func (s *Service) AddField(ctx context.Context, name, crop string, boundary geometry.Polygon) (*field.Record, error) {
	crop, err := s.crops.Normalize(crop)
	if err != nil {
		return nil, err
	}
	r, err := field.New(name, crop, boundary)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateField(ctx, r); err != nil {
		return nil, err
	}

	zap.L().Info("farm: field added",
		zap.String("field_id", r.ID),
		zap.String("name", r.Name),
		zap.Float64("area_m2", r.Area),
	)
	return r, nil
}

// Patch lists the field attributes to change. Nil members are left alone.
type Patch struct {
	Name     *string          `json:"name,omitempty"`
	Crop     *string          `json:"crop,omitempty"`
	Boundary geometry.Polygon `json:"boundary,omitempty"`
}

// UpdateField applies p to the field and stores it. A new boundary
// recomputes area and center.
func (s *Service) UpdateField(ctx context.Context, id string, p Patch) (*field.Record, error) {
	r, err := s.store.GetField(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, eris.New("field: name is required")
		}
		r.Name = name
	}
	if p.Crop != nil {
		crop, err := s.crops.Normalize(*p.Crop)
		if err != nil {
			return nil, err
		}
		r.Crop = crop
	}
	if p.Boundary != nil {
		if err := r.SetBoundary(p.Boundary); err != nil {
			return nil, err
		}
	}
	r.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateField(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// RedrawField replaces a field's boundary.
func (s *Service) RedrawField(ctx context.Context, id string, boundary geometry.Polygon) (*field.Record, error) {
	if boundary == nil {
		boundary = geometry.Polygon{}
	}
	return s.UpdateField(ctx, id, Patch{Boundary: boundary})
}

// AssignCrop sets a field's crop. An empty crop clears it.
func (s *Service) AssignCrop(ctx context.Context, id, crop string) (*field.Record, error) {
	return s.UpdateField(ctx, id, Patch{Crop: &crop})
}

// DeleteField removes a field.
func (s *Service) DeleteField(ctx context.Context, id string) error {
	if err := s.store.DeleteField(ctx, id); err != nil {
		return err
	}
	zap.L().Info("farm: field deleted", zap.String("field_id", id))
	return nil
}

// Field returns one field.
func (s *Service) Field(ctx context.Context, id string) (*field.Record, error) {
	return s.store.GetField(ctx, id)
}

// Fields lists fields matching filter.
func (s *Service) Fields(ctx context.Context, filter store.ListFilter) ([]field.Record, error) {
	records, err := s.store.ListFields(ctx, filter)
	if err != nil {
		return nil, err
	}
	if s.hooks.Listed != nil && filter == (store.ListFilter{}) {
		s.hooks.Listed(len(records))
	}
	return records, nil
}

// ImportFields creates one field per boundary, all with the given crop.
// Invalid boundaries abort the import before anything is stored.
func (s *Service) ImportFields(ctx context.Context, polys []geometry.NamedPolygon, crop string) ([]*field.Record, error) {
	crop, err := s.crops.Normalize(crop)
	if err != nil {
		return nil, err
	}

	records := make([]*field.Record, 0, len(polys))
	for _, p := range polys {
		r, err := field.New(p.Name, crop, p.Boundary)
		if err != nil {
			return nil, eris.Wrapf(err, "farm: import %q", p.Name)
		}
		records = append(records, r)
	}

	n, err := s.store.ImportFields(ctx, records)
	if err != nil {
		return nil, err
	}
	zap.L().Info("farm: fields imported", zap.Int("count", n))
	return records, nil
}
