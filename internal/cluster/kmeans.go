// Package cluster groups field centers with k-means (Lloyd's algorithm) to
// find a representative farm location.
package cluster

import (
	"math/rand/v2"

	"github.com/rotisserie/eris"

	"github.com/sells-group/terra/internal/geometry"
)

// MaxIterations caps Lloyd iterations.
const MaxIterations = 100

var (
	// ErrNoPoints is returned when clustering is asked for on an empty set.
	ErrNoPoints = eris.New("cluster: no points to cluster")
	// ErrInvalidK is returned for k < 1.
	ErrInvalidK = eris.New("cluster: k must be at least 1")
)

// Sampler picks a uniform index in [0, n). *rand.Rand satisfies it.
type Sampler interface {
	IntN(n int) int
}

type globalSampler struct{}

func (globalSampler) IntN(n int) int { return rand.IntN(n) }

type options struct {
	sampler Sampler
}

// Option configures a clustering run.
type Option func(*options)

// WithSampler sets the source used to pick initial centroids.
func WithSampler(s Sampler) Option {
	return func(o *options) { o.sampler = s }
}

// WithSeed makes initialization reproducible.
func WithSeed(seed uint64) Option {
	return WithSampler(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Result is the outcome of one k-means run. It is not persisted.
type Result struct {
	Centroids  []geometry.GeoPoint `json:"centroids"`
	Assignment []int               `json:"assignment"`
	Sizes      []int               `json:"sizes"`
	Iterations int                 `json:"iterations"`
	Converged  bool                `json:"converged"`
}

// Largest returns the index of the cluster with the most points. Ties go to
// the lowest index.
func (r Result) Largest() int {
	best := 0
	for i, n := range r.Sizes {
		if n > r.Sizes[best] {
			best = i
		}
	}
	return best
}

// KMeans partitions points into min(k, len(points)) clusters.
//
// Initial centroids are drawn from points with replacement, so two runs on
// the same input may differ unless a seeded sampler is supplied. Distances
// are planar in (lat, lng). A cluster that loses all its points keeps its
// previous centroid.
func KMeans(points []geometry.GeoPoint, k int, opts ...Option) (Result, error) {
	if len(points) == 0 {
		return Result{}, ErrNoPoints
	}
	if k < 1 {
		return Result{}, eris.Wrapf(ErrInvalidK, "cluster: got k=%d", k)
	}
	k = min(k, len(points))

	o := options{sampler: globalSampler{}}
	for _, opt := range opts {
		opt(&o)
	}

	centroids := make([]geometry.GeoPoint, k)
	for i := range centroids {
		centroids[i] = points[o.sampler.IntN(len(points))]
	}

	assignment := make([]int, len(points))
	for i := range assignment {
		assignment[i] = -1
	}

	res := Result{Centroids: centroids, Assignment: assignment}
	for res.Iterations < MaxIterations {
		res.Iterations++

		changed := false
		for i, p := range points {
			c := nearest(p, centroids)
			if c != assignment[i] {
				assignment[i] = c
				changed = true
			}
		}
		if !changed {
			res.Converged = true
			break
		}

		update(points, assignment, centroids)
	}

	res.Sizes = make([]int, k)
	for _, c := range assignment {
		res.Sizes[c]++
	}
	return res, nil
}

// LargestClusterCentroid runs KMeans and returns the centroid of the
// largest cluster. With k=1 this is the arithmetic mean of points.
func LargestClusterCentroid(points []geometry.GeoPoint, k int, opts ...Option) (geometry.GeoPoint, error) {
	res, err := KMeans(points, k, opts...)
	if err != nil {
		return geometry.GeoPoint{}, err
	}
	return res.Centroids[res.Largest()], nil
}

// nearest returns the index of the closest centroid; the first minimum wins.
func nearest(p geometry.GeoPoint, centroids []geometry.GeoPoint) int {
	best, bestDist := 0, dist2(p, centroids[0])
	for i := 1; i < len(centroids); i++ {
		if d := dist2(p, centroids[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func dist2(a, b geometry.GeoPoint) float64 {
	dLat, dLng := a.Lat-b.Lat, a.Lng-b.Lng
	return dLat*dLat + dLng*dLng
}

func update(points []geometry.GeoPoint, assignment []int, centroids []geometry.GeoPoint) {
	sumLat := make([]float64, len(centroids))
	sumLng := make([]float64, len(centroids))
	count := make([]int, len(centroids))

	for i, p := range points {
		c := assignment[i]
		sumLat[c] += p.Lat
		sumLng[c] += p.Lng
		count[c]++
	}

	for c := range centroids {
		if count[c] == 0 {
			continue
		}
		n := float64(count[c])
		centroids[c] = geometry.GeoPoint{Lat: sumLat[c] / n, Lng: sumLng[c] / n}
	}
}
