// Package viewport maps farm geometry onto a map camera: a center point and
// a discrete zoom level.
package viewport

import (
	"math"

	"github.com/sells-group/terra/internal/geometry"
)

// Zoom bounds for web map tiles.
const (
	MinZoom = 1
	MaxZoom = 21
)

// Viewport is the camera position for displaying a farm.
type Viewport struct {
	Center geometry.GeoPoint `json:"center" yaml:"center"`
	Zoom   int               `json:"zoom" yaml:"zoom"`
	Bounds *geometry.BBox    `json:"bounds,omitempty" yaml:"bounds,omitempty"`
}

// ZoomForArea returns a zoom level in [MinZoom, MaxZoom] for an area in
// square metres: round(14 - 1.5*log10(km² + 0.001)), clamped. Larger areas
// get lower zoom numbers. Negative or NaN areas are treated as 0.
func ZoomForArea(areaM2 float64) int {
	if math.IsNaN(areaM2) || areaM2 < 0 {
		areaM2 = 0
	}

	km2 := areaM2 / 1_000_000
	raw := 14 - 1.5*math.Log10(km2+0.001)

	return clamp(math.Round(raw))
}

func clamp(z float64) int {
	// +Inf area yields -Inf here.
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return int(z)
}
