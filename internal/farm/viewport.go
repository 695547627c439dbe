package farm

import (
	"context"

	"github.com/sells-group/terra/internal/cluster"
	"github.com/sells-group/terra/internal/field"
	"github.com/sells-group/terra/internal/geometry"
	"github.com/sells-group/terra/internal/store"
	"github.com/sells-group/terra/internal/viewport"
)

// Viewport returns the map view for the whole farm: centered on the
// largest cluster of field centers, zoomed for the total field area.
func (s *Service) Viewport(ctx context.Context) (viewport.Viewport, error) {
	records, err := s.Fields(ctx, store.ListFilter{})
	if err != nil {
		return viewport.Viewport{}, err
	}

	vp, res, err := ViewportFor(records, s.k, s.clusterOpts...)
	if err != nil {
		return viewport.Viewport{}, err
	}
	if s.hooks.Clustered != nil {
		s.hooks.Clustered(res)
	}
	return vp, nil
}

// ViewportFor computes the farm view for records with k clusters. It also
// returns the clustering run behind the center.
func ViewportFor(records []field.Record, k int, opts ...cluster.Option) (viewport.Viewport, cluster.Result, error) {
	if len(records) == 0 {
		return viewport.Viewport{}, cluster.Result{}, ErrNoFields
	}

	res, err := cluster.KMeans(field.Centers(records), k, opts...)
	if err != nil {
		return viewport.Viewport{}, cluster.Result{}, err
	}

	vp := viewport.Viewport{
		Center: res.Centroids[res.Largest()],
		Zoom:   viewport.ZoomForArea(field.TotalArea(records)),
	}

	boundaries := make([]geometry.Polygon, len(records))
	for i, r := range records {
		boundaries[i] = r.Boundary
	}
	if b, ok := geometry.Bounds(boundaries...); ok {
		vp.Bounds = &b
	}
	return vp, res, nil
}
