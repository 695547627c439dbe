// Package geometry computes field boundary geometry (area, center, bounds)
// from user-drawn vertices in geographic coordinates.
package geometry

import (
	"math"

	"github.com/rotisserie/eris"
)

// MetersPerDegree approximates the length of one degree at the equator.
// Squared, it converts square degrees to square metres.
const MetersPerDegree = 111319.9

// MinVertices is the smallest vertex count with a defined area.
const MinVertices = 3

// ErrEmptyPolygon is returned when a center is requested for a polygon
// without vertices.
var ErrEmptyPolygon = eris.New("geometry: polygon has no vertices")

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Polygon is an ordered ring of vertices. The last vertex connects back to
// the first; an explicit closing vertex is allowed but not required.
type Polygon []GeoPoint

// Area returns the planar shoelace area of p in square metres, rounded to
// the nearest metre. (lat, lng) is treated as a flat (x, y) plane and scaled
// by MetersPerDegree², so the result is an approximation: within a few
// percent for field-sized polygons, worse toward the poles. Polygons with
// fewer than MinVertices vertices have area 0.
func Area(p Polygon) float64 {
	n := len(p)
	if n < MinVertices {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += p[i].Lat*p[j].Lng - p[j].Lat*p[i].Lng
	}

	return math.Round(math.Abs(sum) / 2 * MetersPerDegree * MetersPerDegree)
}

// Centroid returns the arithmetic mean of the vertices of p. This is the
// vertex average, not the area-weighted centroid of the shape, so it leans
// toward densely digitized edges.
func Centroid(p Polygon) (GeoPoint, error) {
	if len(p) == 0 {
		return GeoPoint{}, ErrEmptyPolygon
	}

	var sumLat, sumLng float64
	for _, v := range p {
		sumLat += v.Lat
		sumLng += v.Lng
	}
	n := float64(len(p))
	return GeoPoint{Lat: sumLat / n, Lng: sumLng / n}, nil
}

// Validate checks that p can describe a field boundary: at least
// MinVertices vertices, all finite. Out-of-range degrees are accepted.
func (p Polygon) Validate() error {
	if len(p) < MinVertices {
		return eris.Errorf("geometry: polygon needs at least %d vertices, got %d", MinVertices, len(p))
	}
	for i, v := range p {
		if !v.Finite() {
			return eris.Errorf("geometry: vertex %d is not finite", i)
		}
	}
	return nil
}

// Finite reports whether both coordinates are finite numbers.
func (g GeoPoint) Finite() bool {
	return !math.IsNaN(g.Lat) && !math.IsInf(g.Lat, 0) &&
		!math.IsNaN(g.Lng) && !math.IsInf(g.Lng, 0)
}

// Hectares converts square metres to hectares.
func Hectares(m2 float64) float64 {
	return m2 / 10_000
}
