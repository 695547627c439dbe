package report

import (
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"

	"github.com/sells-group/terra/internal/field"
	"github.com/sells-group/terra/internal/geometry"
)

// FeatureCollection converts records to GeoJSON polygon features. The
// "name" property matches what geometry.ParseGeoJSON reads back.
func FeatureCollection(records []field.Record) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range records {
		f := geojson.NewFeature(geometry.ToOrb(r.Boundary))
		f.ID = r.ID
		f.Properties["name"] = r.Name
		f.Properties["area_m2"] = r.Area
		f.Properties["hectares"] = geometry.RoundCoord(r.Hectares(), 4)
		f.Properties["center"] = []float64{r.Center.Lng, r.Center.Lat}
		if r.Crop != "" {
			f.Properties["crop"] = r.Crop
		}
		if r.Soil != nil {
			f.Properties["soil_score"] = r.Soil.WeightedTotal
			f.Properties["soil_quality"] = r.Soil.QualityLabel
		}
		fc.Append(f)
	}
	return fc
}

// MarshalGeoJSON encodes records as a GeoJSON FeatureCollection.
func MarshalGeoJSON(records []field.Record) ([]byte, error) {
	data, err := FeatureCollection(records).MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "report: marshal geojson")
	}
	return data, nil
}
