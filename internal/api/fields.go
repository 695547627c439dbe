package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/terra/internal/farm"
	"github.com/sells-group/terra/internal/geometry"
	"github.com/sells-group/terra/internal/report"
	"github.com/sells-group/terra/internal/store"
)

type createFieldRequest struct {
	Name     string           `json:"name"`
	Crop     string           `json:"crop"`
	Boundary geometry.Polygon `json:"boundary"`
}

// listFields handles GET /v1/fields?crop=&limit=&offset=&bbox=minLat,minLng,maxLat,maxLng.
func (s *Server) listFields(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := s.farm.Fields(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": nonNil(records), "count": len(records)})
}

func parseListFilter(r *http.Request) (store.ListFilter, error) {
	q := r.URL.Query()
	filter := store.ListFilter{Crop: strings.TrimSpace(q.Get("crop"))}

	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, badRequest("%s must be a non-negative integer", name)
		}
		*dst = n
	}

	if raw := q.Get("bbox"); raw != "" {
		b, err := parseBBox(raw)
		if err != nil {
			return filter, err
		}
		filter.Within = b
	}
	return filter, nil
}

func parseBBox(raw string) (*geometry.BBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, badRequest("bbox must be minLat,minLng,maxLat,maxLng")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, badRequest("bbox must be minLat,minLng,maxLat,maxLng")
		}
		v[i] = f
	}
	return &geometry.BBox{MinLat: v[0], MinLng: v[1], MaxLat: v[2], MaxLng: v[3]}, nil
}

// createField handles POST /v1/fields.
func (s *Server) createField(w http.ResponseWriter, r *http.Request) {
	var req createFieldRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, badRequest("name is required"))
		return
	}
	if err := req.Boundary.Validate(); err != nil {
		writeError(w, r, badRequest("%v", err))
		return
	}

	rec, err := s.farm.AddField(r.Context(), req.Name, req.Crop, req.Boundary)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// getField handles GET /v1/fields/{id}.
func (s *Server) getField(w http.ResponseWriter, r *http.Request) {
	rec, err := s.farm.Field(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// updateField handles PUT /v1/fields/{id}. Omitted members are unchanged.
func (s *Server) updateField(w http.ResponseWriter, r *http.Request) {
	var patch farm.Patch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		writeError(w, r, badRequest("name must not be blank"))
		return
	}
	if patch.Boundary != nil {
		if err := patch.Boundary.Validate(); err != nil {
			writeError(w, r, badRequest("%v", err))
			return
		}
	}

	rec, err := s.farm.UpdateField(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// deleteField handles DELETE /v1/fields/{id}.
func (s *Server) deleteField(w http.ResponseWriter, r *http.Request) {
	if err := s.farm.DeleteField(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// assessField handles POST /v1/fields/{id}/soil.
func (s *Server) assessField(w http.ResponseWriter, r *http.Request) {
	rec, err := s.farm.AssessField(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// viewport handles GET /v1/farm/viewport.
func (s *Server) viewport(w http.ResponseWriter, r *http.Request) {
	vp, err := s.farm.Viewport(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vp)
}

// survey handles POST /v1/farm/survey.
func (s *Server) survey(w http.ResponseWriter, r *http.Request) {
	out, err := s.farm.SurveySoil(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// exportGeoJSON handles GET /v1/farm/geojson.
func (s *Server) exportGeoJSON(w http.ResponseWriter, r *http.Request) {
	records, err := s.farm.Fields(r.Context(), store.ListFilter{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := report.MarshalGeoJSON(records)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(data)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
