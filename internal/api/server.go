// Package api serves the field analytics core and the farm service over
// HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/terra/internal/config"
	"github.com/sells-group/terra/internal/farm"
	"github.com/sells-group/terra/internal/metrics"
	"github.com/sells-group/terra/pkg/soilgrids"
)

// Server holds the HTTP handlers' dependencies.
type Server struct {
	farm   *farm.Service
	lookup soilgrids.Client
	cfg    config.ServerConfig
}

// New creates a Server. lookup may be nil, in which case soil lookups
// answer 502.
func New(svc *farm.Service, lookup soilgrids.Client, cfg config.ServerConfig) *Server {
	return &Server{farm: svc, lookup: lookup, cfg: cfg}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if s.cfg.ReadTimeoutSec > 0 {
		r.Use(middleware.Timeout(time.Duration(s.cfg.ReadTimeoutSec) * time.Second))
	}

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/geometry/area", s.area)
		r.Post("/cluster", s.cluster)
		r.Get("/zoom", s.zoom)

		r.Post("/soil/assess", s.assessSample)
		r.Get("/soil/lookup", s.lookupSoil)

		r.Route("/fields", func(r chi.Router) {
			r.Get("/", s.listFields)
			r.Post("/", s.createField)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getField)
				r.Put("/", s.updateField)
				r.Delete("/", s.deleteField)
				r.Post("/soil", s.assessField)
			})
		})

		r.Route("/farm", func(r chi.Router) {
			r.Get("/viewport", s.viewport)
			r.Post("/survey", s.survey)
			r.Get("/geojson", s.exportGeoJSON)
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
