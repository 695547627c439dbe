package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
)

// NamedPolygon is a boundary read from an import file together with the
// label it carried there.
type NamedPolygon struct {
	Name     string
	Boundary Polygon
}

// BBox is a geographic bounding box.
type BBox struct {
	MinLat float64 `json:"min_lat" yaml:"min_lat"`
	MinLng float64 `json:"min_lng" yaml:"min_lng"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat"`
	MaxLng float64 `json:"max_lng" yaml:"max_lng"`
}

// ToOrb converts p to an orb polygon with a closed outer ring (x=lng, y=lat).
func ToOrb(p Polygon) orb.Polygon {
	ring := make(orb.Ring, 0, len(p)+1)
	for _, v := range p {
		ring = append(ring, orb.Point{v.Lng, v.Lat})
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}
}

// FromOrb converts an orb ring to a Polygon, dropping the closing vertex.
func FromOrb(r orb.Ring) Polygon {
	if len(r) > 1 && r.Closed() {
		r = r[:len(r)-1]
	}
	out := make(Polygon, 0, len(r))
	for _, pt := range r {
		out = append(out, GeoPoint{Lat: pt.Lat(), Lng: pt.Lon()})
	}
	return out
}

// Bounds returns the box enclosing every vertex of the given polygons. It
// returns false when there are no vertices at all.
func Bounds(polys ...Polygon) (BBox, bool) {
	var (
		b     orb.Bound
		found bool
	)
	for _, p := range polys {
		if len(p) == 0 {
			continue
		}
		pb := ToOrb(p).Bound()
		if !found {
			b, found = pb, true
			continue
		}
		b = b.Union(pb)
	}
	if !found {
		return BBox{}, false
	}
	return BBox{MinLat: b.Min.Lat(), MinLng: b.Min.Lon(), MaxLat: b.Max.Lat(), MaxLng: b.Max.Lon()}, true
}

// ParseGeoJSON reads field boundaries from a GeoJSON FeatureCollection or a
// single Feature. Polygon features yield their outer ring; each member of a
// MultiPolygon becomes its own boundary. The "name" property labels the
// boundary; unnamed features get "field-N".
func ParseGeoJSON(data []byte) ([]NamedPolygon, error) {
	var features []*geojson.Feature

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err == nil && len(fc.Features) > 0 {
		features = fc.Features
	} else {
		f, ferr := geojson.UnmarshalFeature(data)
		if ferr != nil {
			return nil, eris.Wrap(ferr, "geometry: parse geojson")
		}
		features = []*geojson.Feature{f}
	}

	var out []NamedPolygon
	for i, f := range features {
		if f == nil || f.Geometry == nil {
			continue
		}
		name := f.Properties.MustString("name", fmt.Sprintf("field-%d", i+1))

		switch g := f.Geometry.(type) {
		case orb.Polygon:
			if len(g) == 0 {
				continue
			}
			out = append(out, NamedPolygon{Name: name, Boundary: FromOrb(g[0])})
		case orb.MultiPolygon:
			for j, poly := range g {
				if len(poly) == 0 {
					continue
				}
				out = append(out, NamedPolygon{Name: fmt.Sprintf("%s-%d", name, j+1), Boundary: FromOrb(poly[0])})
			}
		}
	}

	if len(out) == 0 {
		return nil, eris.New("geometry: geojson contains no polygon features")
	}
	return out, nil
}

// RoundCoord rounds a coordinate to the given number of decimal places.
func RoundCoord(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
