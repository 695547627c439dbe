package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/terra/internal/cluster"
	"github.com/sells-group/terra/internal/geometry"
	"github.com/sells-group/terra/internal/metrics"
	"github.com/sells-group/terra/internal/soil"
	"github.com/sells-group/terra/internal/viewport"
	"github.com/sells-group/terra/pkg/soilgrids"
)

type pointsRequest struct {
	Points []geometry.GeoPoint `json:"points"`
}

type areaResponse struct {
	Area     float64           `json:"area_m2"`
	Hectares float64           `json:"hectares"`
	Center   geometry.GeoPoint `json:"center"`
	Zoom     int               `json:"zoom"`
}

// area handles POST /v1/geometry/area.
func (s *Server) area(w http.ResponseWriter, r *http.Request) {
	var req pointsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	poly := geometry.Polygon(req.Points)
	if err := poly.Validate(); err != nil {
		writeError(w, r, badRequest("%v", err))
		return
	}
	center, err := geometry.Centroid(poly)
	if err != nil {
		writeError(w, r, badRequest("%v", err))
		return
	}

	a := geometry.Area(poly)
	writeJSON(w, http.StatusOK, areaResponse{
		Area:     a,
		Hectares: geometry.Hectares(a),
		Center:   center,
		Zoom:     viewport.ZoomForArea(a),
	})
}

type clusterRequest struct {
	Points []geometry.GeoPoint `json:"points"`
	K      int                 `json:"k"`
	Seed   *uint64             `json:"seed,omitempty"`
}

type clusterResponse struct {
	Center     geometry.GeoPoint   `json:"center"`
	Centroids  []geometry.GeoPoint `json:"centroids"`
	Sizes      []int               `json:"sizes"`
	Iterations int                 `json:"iterations"`
	Converged  bool                `json:"converged"`
}

// cluster handles POST /v1/cluster.
func (s *Server) cluster(w http.ResponseWriter, r *http.Request) {
	var req clusterRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	for i, p := range req.Points {
		if !p.Finite() {
			writeError(w, r, badRequest("point %d is not finite", i))
			return
		}
	}

	var opts []cluster.Option
	if req.Seed != nil {
		opts = append(opts, cluster.WithSeed(*req.Seed))
	}
	res, err := cluster.KMeans(req.Points, req.K, opts...)
	if eris.Is(err, cluster.ErrNoPoints) || eris.Is(err, cluster.ErrInvalidK) {
		writeError(w, r, badRequest("%v", err))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	metrics.ObserveClusterIterations(res.Iterations)

	writeJSON(w, http.StatusOK, clusterResponse{
		Center:     res.Centroids[res.Largest()],
		Centroids:  res.Centroids,
		Sizes:      res.Sizes,
		Iterations: res.Iterations,
		Converged:  res.Converged,
	})
}

// zoom handles GET /v1/zoom?area_m2=.
func (s *Server) zoom(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("area_m2")
	if raw == "" {
		writeError(w, r, badRequest("area_m2 is required"))
		return
	}
	a, err := strconv.ParseFloat(raw, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		writeError(w, r, badRequest("area_m2 must be a number"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"zoom": viewport.ZoomForArea(a)})
}

// assessSample handles POST /v1/soil/assess.
func (s *Server) assessSample(w http.ResponseWriter, r *http.Request) {
	var sample soil.Sample
	if err := decode(r, &sample); err != nil {
		writeError(w, r, err)
		return
	}
	if err := sample.Validate(); err != nil {
		writeError(w, r, badRequest("%v", err))
		return
	}

	a := s.farm.Scorer().Assess(sample)
	metrics.ObserveAssessment(a.QualityLabel)
	writeJSON(w, http.StatusOK, a)
}

// lookupSoil handles GET /v1/soil/lookup?lat=&lng=: fetch and score the
// soil at a point without touching any field.
func (s *Server) lookupSoil(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil || !(geometry.GeoPoint{Lat: lat, Lng: lng}).Finite() {
		writeError(w, r, badRequest("lat and lng must be finite numbers"))
		return
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		writeError(w, r, badRequest("lat/lng out of range"))
		return
	}
	if s.lookup == nil {
		writeError(w, r, &requestError{status: http.StatusBadGateway, msg: "soil service unavailable"})
		return
	}

	sample, err := s.lookup.Query(r.Context(), lat, lng)
	if err != nil {
		if !errors.Is(err, soilgrids.ErrNoData) {
			zap.L().Warn("api: soil lookup failed", zap.Float64("lat", lat), zap.Float64("lng", lng), zap.Error(err))
			err = &requestError{status: http.StatusBadGateway, msg: "soil service unavailable"}
		}
		writeError(w, r, err)
		return
	}

	a := s.farm.Scorer().Assess(*sample)
	metrics.ObserveAssessment(a.QualityLabel)
	writeJSON(w, http.StatusOK, a)
}
