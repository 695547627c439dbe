package report

import (
	"bytes"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/terra/internal/field"
	"github.com/sells-group/terra/internal/geometry"
	"github.com/sells-group/terra/internal/soil"
	"github.com/sells-group/terra/internal/viewport"
)

func square(lat, lng, side float64) geometry.Polygon {
	return geometry.Polygon{
		{Lat: lat, Lng: lng},
		{Lat: lat, Lng: lng + side},
		{Lat: lat + side, Lng: lng + side},
		{Lat: lat + side, Lng: lng},
	}
}

func testRecords(t *testing.T) []field.Record {
	t.Helper()
	a, err := field.New("North 40", "Corn", square(38.95, -92.33, 0.004))
	require.NoError(t, err)
	good := soil.Assess(soil.Sample{Clay: 30, Sand: 30, OrganicCarbon: 40, PH: 6.5})
	a.Soil = &good

	b, err := field.New("Creek Bottom", "", square(38.96, -92.33, 0.002))
	require.NoError(t, err)
	poor := soil.Assess(soil.Sample{})
	b.Soil = &poor

	c, err := field.New("Pasture", "Hay", square(38.97, -92.33, 0.001))
	require.NoError(t, err)

	return []field.Record{*a, *b, *c}
}

func TestSummarize(t *testing.T) {
	records := testRecords(t)
	s := Summarize(records)

	assert.Equal(t, 3, s.Fields)
	assert.Equal(t, field.TotalArea(records), s.TotalArea)
	assert.InDelta(t, s.TotalArea/10000, s.Hectares, 1e-9)
	assert.Equal(t, 2, s.Assessed)
	assert.InDelta(t, 60.0, s.MeanScore, 1e-9)

	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestWriteXLSX(t *testing.T) {
	records := testRecords(t)
	vp := &viewport.Viewport{Center: geometry.GeoPoint{Lat: 38.96, Lng: -92.33}, Zoom: 15}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, records, vp))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)

	sheet, ok := f.Sheet[FieldsSheet]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 4)
	assert.Equal(t, "Name", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Soil Quality", sheet.Rows[0].Cells[7].String())

	first := sheet.Rows[1].Cells
	assert.Equal(t, "North 40", first[0].String())
	assert.Equal(t, "Corn", first[1].String())
	area, err := first[2].Float()
	require.NoError(t, err)
	assert.Equal(t, records[0].Area, area)
	score, err := first[6].Int()
	require.NoError(t, err)
	assert.Equal(t, 100, score)
	assert.Equal(t, soil.LabelExcellent, first[7].String())

	unassessed := sheet.Rows[3].Cells
	assert.Equal(t, "Pasture", unassessed[0].String())
	if len(unassessed) > 7 {
		assert.Empty(t, unassessed[7].String())
	}

	summary, ok := f.Sheet[SummarySheet]
	require.True(t, ok)
	require.Len(t, summary.Rows, 8)
	assert.Equal(t, "View Zoom", summary.Rows[7].Cells[0].String())
	zoom, err := summary.Rows[7].Cells[1].Float()
	require.NoError(t, err)
	assert.Equal(t, 15.0, zoom)
}

func TestWriteXLSX_NoViewport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil, nil))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, f.Sheet[FieldsSheet].Rows, 1)
	assert.Len(t, f.Sheet[SummarySheet].Rows, 5)
}

func TestFeatureCollection(t *testing.T) {
	records := testRecords(t)
	fc := FeatureCollection(records)

	require.Len(t, fc.Features, 3)
	f := fc.Features[0]
	assert.Equal(t, records[0].ID, f.ID)
	assert.Equal(t, "North 40", f.Properties.MustString("name"))
	assert.Equal(t, 100, f.Properties["soil_score"])

	poly, ok := f.Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.True(t, poly[0].Closed())

	_, hasCrop := fc.Features[1].Properties["crop"]
	assert.False(t, hasCrop)
	_, hasSoil := fc.Features[2].Properties["soil_score"]
	assert.False(t, hasSoil)
}

func TestMarshalGeoJSON_ReadsBack(t *testing.T) {
	records := testRecords(t)

	data, err := MarshalGeoJSON(records)
	require.NoError(t, err)

	polys, err := geometry.ParseGeoJSON(data)
	require.NoError(t, err)
	require.Len(t, polys, 3)
	for i, p := range polys {
		assert.Equal(t, records[i].Name, p.Name)
		assert.Equal(t, records[i].Boundary, p.Boundary)
	}
}
