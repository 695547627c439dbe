package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/terra/internal/field"
	"github.com/sells-group/terra/internal/viewport"
)

// Sheet names.
const (
	FieldsSheet  = "Fields"
	SummarySheet = "Summary"
)

var fieldHeader = []string{
	"Name", "Crop", "Area (m²)", "Area (ha)", "Center Lat", "Center Lng", "Soil Score", "Soil Quality",
}

// WriteXLSX writes a workbook with one row per field and a summary sheet.
// vp may be nil when the farm view is not known.
func WriteXLSX(w io.Writer, records []field.Record, vp *viewport.Viewport) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet(FieldsSheet)
	if err != nil {
		return eris.Wrap(err, "report: add fields sheet")
	}
	addStrings(sheet.AddRow(), fieldHeader...)

	for _, r := range records {
		row := sheet.AddRow()
		addStrings(row, r.Name, r.Crop)
		row.AddCell().SetFloatWithFormat(r.Area, "#,##0")
		row.AddCell().SetFloatWithFormat(r.Hectares(), "#,##0.00")
		row.AddCell().SetFloat(r.Center.Lat)
		row.AddCell().SetFloat(r.Center.Lng)
		if r.Soil != nil {
			row.AddCell().SetInt(r.Soil.WeightedTotal)
			row.AddCell().SetString(r.Soil.QualityLabel)
		} else {
			addStrings(row, "", "")
		}
	}

	summary, err := f.AddSheet(SummarySheet)
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	s := Summarize(records)
	addMetric(summary, "Fields", float64(s.Fields), "0")
	addMetric(summary, "Total Area (m²)", s.TotalArea, "#,##0")
	addMetric(summary, "Total Area (ha)", s.Hectares, "#,##0.00")
	addMetric(summary, "Assessed Fields", float64(s.Assessed), "0")
	addMetric(summary, "Mean Soil Score", s.MeanScore, "0.0")
	if vp != nil {
		addMetric(summary, "View Center Lat", vp.Center.Lat, "0.000000")
		addMetric(summary, "View Center Lng", vp.Center.Lng, "0.000000")
		addMetric(summary, "View Zoom", float64(vp.Zoom), "0")
	}

	return eris.Wrap(f.Write(w), "report: write xlsx")
}

func addStrings(row *xlsx.Row, values ...string) {
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addMetric(sheet *xlsx.Sheet, label string, v float64, format string) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetFloatWithFormat(v, format)
}
