package geometry

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// SRID is the spatial reference of every stored boundary (WGS 84).
const SRID = 4326

// ToGeom converts p to a single-ring go-geom polygon with SRID 4326.
// Coordinates are stored x=lng, y=lat. The ring is always closed with an
// extra copy of p[0], even when p already ends on its first vertex, so
// DecodeEWKB returns exactly the vertices of p.
func ToGeom(p Polygon) (*geom.Polygon, error) {
	if len(p) < MinVertices {
		return nil, eris.Errorf("geometry: polygon needs at least %d vertices, got %d", MinVertices, len(p))
	}

	flat := make([]float64, 0, (len(p)+1)*2)
	for _, v := range p {
		flat = append(flat, v.Lng, v.Lat)
	}
	flat = append(flat, p[0].Lng, p[0].Lat)

	ring := geom.NewLinearRingFlat(geom.XY, flat)
	poly := geom.NewPolygon(geom.XY).SetSRID(SRID)
	if err := poly.Push(ring); err != nil {
		return nil, eris.Wrap(err, "geometry: build polygon ring")
	}
	return poly, nil
}

// EncodeEWKB encodes p as little-endian EWKB with SRID 4326, suitable for a
// PostGIS geometry column or an opaque SQLite blob.
func EncodeEWKB(p Polygon) ([]byte, error) {
	poly, err := ToGeom(p)
	if err != nil {
		return nil, err
	}

	data, err := ewkb.Marshal(poly, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: encode EWKB")
	}
	return data, nil
}

// DecodeEWKB decodes an EWKB polygon produced by EncodeEWKB. Only the outer
// ring is read and the closing vertex added by ToGeom is dropped.
func DecodeEWKB(data []byte) (Polygon, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: decode EWKB")
	}

	poly, ok := g.(*geom.Polygon)
	if !ok {
		return nil, eris.Errorf("geometry: expected polygon, got %T", g)
	}
	if poly.NumLinearRings() == 0 {
		return nil, eris.New("geometry: polygon has no rings")
	}

	coords := poly.LinearRing(0).Coords()
	if n := len(coords); n > 1 && coords[0].Equal(geom.XY, coords[n-1]) {
		coords = coords[:n-1]
	}

	out := make(Polygon, 0, len(coords))
	for _, c := range coords {
		out = append(out, GeoPoint{Lat: c.Y(), Lng: c.X()})
	}
	return out, nil
}
