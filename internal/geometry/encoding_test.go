package geometry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEWKB_RoundTripDropsClosingVertex(t *testing.T) {
	p := square(38.95, -92.33, 0.004)

	data, err := EncodeEWKB(p)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, err := DecodeEWKB(data)
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.Equal(t, Area(p), Area(got))
}

func TestEWKB_RoundTripKeepsExplicitClosingVertex(t *testing.T) {
	open := square(38.95, -92.33, 0.004)
	closed := append(append(Polygon{}, open...), open[0])

	poly, err := ToGeom(closed)
	require.NoError(t, err)
	assert.Equal(t, len(closed)+1, poly.LinearRing(0).NumCoords())

	data, err := EncodeEWKB(closed)
	require.NoError(t, err)
	got, err := DecodeEWKB(data)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, closed, got)

	want, err := Centroid(closed)
	require.NoError(t, err)
	c, err := Centroid(got)
	require.NoError(t, err)
	assert.Equal(t, want, c)
}

func TestToGeom_ClosesRingAndSetsSRID(t *testing.T) {
	poly, err := ToGeom(square(1, 2, 1))
	require.NoError(t, err)

	assert.Equal(t, SRID, poly.SRID())
	ring := poly.LinearRing(0)
	assert.Equal(t, 5, ring.NumCoords())
	// x is longitude.
	assert.Equal(t, 2.0, ring.Coord(0).X())
	assert.Equal(t, 1.0, ring.Coord(0).Y())
}

func TestToGeom_TooFewVertices(t *testing.T) {
	_, err := ToGeom(Polygon{{Lat: 1, Lng: 1}})
	assert.Error(t, err)
}

func TestDecodeEWKB_Garbage(t *testing.T) {
	_, err := DecodeEWKB([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestParseGeoJSON_FeatureCollection(t *testing.T) {
	data := []byte(`{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"properties": {"name": "North 40"},
				"geometry": {"type": "Polygon", "coordinates": [[[-92.33, 38.95], [-92.32, 38.95], [-92.32, 38.96], [-92.33, 38.95]]]}
			},
			{
				"type": "Feature",
				"properties": {},
				"geometry": {"type": "Point", "coordinates": [-92.3, 38.9]}
			},
			{
				"type": "Feature",
				"properties": {"name": "Creek"},
				"geometry": {"type": "MultiPolygon", "coordinates": [
					[[[-92.0, 38.0], [-91.9, 38.0], [-91.9, 38.1], [-92.0, 38.0]]],
					[[[-93.0, 39.0], [-92.9, 39.0], [-92.9, 39.1], [-93.0, 39.0]]]
				]}
			}
		]
	}`)

	polys, err := ParseGeoJSON(data)
	require.NoError(t, err)
	require.Len(t, polys, 3)

	assert.Equal(t, "North 40", polys[0].Name)
	assert.Equal(t, Polygon{
		{Lat: 38.95, Lng: -92.33},
		{Lat: 38.95, Lng: -92.32},
		{Lat: 38.96, Lng: -92.32},
	}, polys[0].Boundary)
	assert.Equal(t, "Creek-1", polys[1].Name)
	assert.Equal(t, "Creek-2", polys[2].Name)
}

func TestParseGeoJSON_SingleFeature(t *testing.T) {
	data := []byte(`{
		"type": "Feature",
		"properties": null,
		"geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]}
	}`)

	polys, err := ParseGeoJSON(data)
	require.NoError(t, err)
	require.Len(t, polys, 1)
	assert.Equal(t, "field-1", polys[0].Name)
	assert.Len(t, polys[0].Boundary, 3)
}

func TestParseGeoJSON_NoPolygons(t *testing.T) {
	_, err := ParseGeoJSON([]byte(`{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[0,0]}}`))
	assert.Error(t, err)

	_, err = ParseGeoJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestBounds(t *testing.T) {
	b, ok := Bounds(square(10, 20, 1), nil, square(-5, 25, 2))
	require.True(t, ok)
	assert.Equal(t, BBox{MinLat: -5, MinLng: 20, MaxLat: 11, MaxLng: 27}, b)

	_, ok = Bounds()
	assert.False(t, ok)
}

func TestReadShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("NAME", 32)}))

	ring := []shp.Point{
		{X: -92.33, Y: 38.95},
		{X: -92.32, Y: 38.95},
		{X: -92.32, Y: 38.96},
		{X: -92.33, Y: 38.95},
	}
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
	n := w.Write(&poly)
	require.NoError(t, w.WriteAttribute(int(n), 0, "Back Forty"))
	w.Close()

	// go-shp v0.1.1 writes the attribute table as "<base>dbf".
	dir := filepath.Dir(path)
	if _, err := os.Stat(filepath.Join(dir, "fieldsdbf")); err == nil {
		require.NoError(t, os.Rename(filepath.Join(dir, "fieldsdbf"), filepath.Join(dir, "fields.dbf")))
	}
	_, err = os.Stat(filepath.Join(dir, "fields.dbf"))
	require.NoError(t, err)

	polys, err := ReadShapefile(path)
	require.NoError(t, err)
	require.Len(t, polys, 1)
	assert.Equal(t, "Back Forty", polys[0].Name)
	assert.Equal(t, Polygon{
		{Lat: 38.95, Lng: -92.33},
		{Lat: 38.95, Lng: -92.32},
		{Lat: 38.96, Lng: -92.32},
	}, polys[0].Boundary)
}

func TestReadShapefile_Missing(t *testing.T) {
	_, err := ReadShapefile(filepath.Join(t.TempDir(), "nope.shp"))
	assert.Error(t, err)
}
