package geometry

import (
	"fmt"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ReadShapefile reads polygon boundaries from an ESRI shapefile. Only the
// first part (outer ring) of each polygon record is used. The NAME attribute
// labels the boundary when present.
func ReadShapefile(path string) ([]NamedPolygon, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geometry: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	nameIdx := fieldIndex(reader, "NAME")

	var out []NamedPolygon
	for reader.Next() {
		n, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil || poly.NumParts == 0 || len(poly.Points) == 0 {
			zap.L().Debug("geometry: skipping non-polygon shape", zap.Int("record", n))
			continue
		}

		end := int32(len(poly.Points))
		if poly.NumParts > 1 {
			end = poly.Parts[1]
		}

		ring := make(Polygon, 0, end-poly.Parts[0])
		for j := poly.Parts[0]; j < end; j++ {
			ring = append(ring, GeoPoint{Lat: poly.Points[j].Y, Lng: poly.Points[j].X})
		}
		if k := len(ring); k > 1 && ring[0] == ring[k-1] {
			ring = ring[:k-1]
		}

		name := fmt.Sprintf("field-%d", n+1)
		if nameIdx >= 0 {
			if v := strings.TrimSpace(reader.Attribute(nameIdx)); v != "" {
				name = v
			}
		}
		out = append(out, NamedPolygon{Name: name, Boundary: ring})
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrap(err, "geometry: read shapefile")
	}

	if len(out) == 0 {
		return nil, eris.New("geometry: shapefile contains no polygons")
	}
	return out, nil
}

func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}
