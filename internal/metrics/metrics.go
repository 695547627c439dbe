// Package metrics holds the Prometheus collectors exported by terra serve.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "terra"

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Domain metrics
	SoilAssessments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "soil",
		Name:      "assessments_total",
		Help:      "Soil assessments by quality label",
	}, []string{"label"})

	SoilGridsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "soilgrids",
		Name:      "requests_total",
		Help:      "SoilGrids lookups by outcome",
	}, []string{"outcome"})

	SoilGridsDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "soilgrids",
		Name:      "request_duration_seconds",
		Help:      "SoilGrids lookup latency in seconds",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	ClusterIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "cluster",
		Name:      "iterations",
		Help:      "Lloyd iterations per k-means run",
		Buckets:   []float64{1, 2, 3, 5, 10, 20, 50, 100},
	})

	FieldsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "farm",
		Name:      "fields",
		Help:      "Fields seen by the last farm-wide listing",
	})
)

// ObserveSoilGrids records one upstream lookup. Its signature matches
// soilgrids.WithObserver.
func ObserveSoilGrids(outcome string, elapsed time.Duration) {
	SoilGridsRequests.WithLabelValues(outcome).Inc()
	SoilGridsDuration.Observe(elapsed.Seconds())
}

// ObserveAssessment counts a soil assessment under its quality label.
func ObserveAssessment(label string) {
	SoilAssessments.WithLabelValues(label).Inc()
}

// ObserveClusterIterations records how many iterations a clustering run took.
func ObserveClusterIterations(n int) {
	ClusterIterations.Observe(float64(n))
}

// routePattern returns the matched chi pattern so that IDs don't blow up
// label cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// Middleware records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		path := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the Prometheus /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
