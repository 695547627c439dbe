package viewport

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZoomForArea(t *testing.T) {
	tests := []struct {
		name string
		area float64
		want int
	}{
		{name: "one hectare", area: 10_000, want: 17},
		{name: "ten hectares", area: 100_000, want: 15},
		{name: "one km2", area: 1_000_000, want: 14},
		{name: "100 km2", area: 100_000_000, want: 11},
		{name: "huge", area: 1e30, want: MinZoom},
		{name: "inf", area: math.Inf(1), want: MinZoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ZoomForArea(tt.area))
		})
	}
}

func TestZoomForArea_ZeroAndTinyAreasAreFinite(t *testing.T) {
	for _, area := range []float64{0, 1e-12, 0.5, 1} {
		z := ZoomForArea(area)
		assert.GreaterOrEqual(t, z, MinZoom)
		assert.LessOrEqual(t, z, MaxZoom)
		// 14 - 1.5*log10(0.001) = 18.5 is the ceiling of the formula.
		assert.Contains(t, []int{18, 19}, z)
	}
}

func TestZoomForArea_InvalidTreatedAsZero(t *testing.T) {
	zero := ZoomForArea(0)
	assert.Equal(t, zero, ZoomForArea(-500))
	assert.Equal(t, zero, ZoomForArea(math.Inf(-1)))
	assert.Equal(t, zero, ZoomForArea(math.NaN()))
}

func TestZoomForArea_MonotonicNonIncreasing(t *testing.T) {
	prev := ZoomForArea(0)
	for area := 1.0; area < 1e14; area *= 1.7 {
		z := ZoomForArea(area)
		assert.LessOrEqual(t, z, prev, "area %g", area)
		prev = z
	}
}
