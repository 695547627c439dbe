package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/terra/internal/field"
	"github.com/sells-group/terra/internal/soil"
	"github.com/sells-group/terra/internal/viewport"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// numbers prints areas with thousands separators.
var numbers = message.NewPrinter(language.English)

// render writes v as JSON or YAML, or calls table for the default format.
func render(w io.Writer, format string, v any, table func(io.Writer)) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode json")
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	default:
		table(w)
		return nil
	}
}

func formatArea(m2 float64) string {
	return numbers.Sprintf("%.0f m² (%.2f ha)", m2, m2/10000)
}

func formatFieldsTable(w io.Writer, records []field.Record) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCROP\tAREA (m²)\tHA\tCENTER\tSOIL")
	for _, r := range records {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		crop := r.Crop
		if crop == "" {
			crop = "-"
		}
		soilCol := "-"
		if r.Soil != nil {
			soilCol = fmt.Sprintf("%d %s", r.Soil.WeightedTotal, r.Soil.QualityLabel)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.5f,%.5f\t%s\n",
			id, r.Name, crop,
			numbers.Sprintf("%.0f", r.Area),
			numbers.Sprintf("%.2f", r.Hectares()),
			r.Center.Lat, r.Center.Lng,
			soilCol,
		)
	}
	tw.Flush() //nolint:errcheck
}

func formatField(w io.Writer, r *field.Record) {
	fmt.Fprintf(w, "ID:       %s\n", r.ID)
	fmt.Fprintf(w, "Name:     %s\n", r.Name)
	if r.Crop != "" {
		fmt.Fprintf(w, "Crop:     %s\n", r.Crop)
	}
	fmt.Fprintf(w, "Area:     %s\n", formatArea(r.Area))
	fmt.Fprintf(w, "Center:   %.6f, %.6f\n", r.Center.Lat, r.Center.Lng)
	fmt.Fprintf(w, "Vertices: %d\n", len(r.Boundary))
	fmt.Fprintf(w, "Updated:  %s\n", r.UpdatedAt.Format("2006-01-02 15:04"))
	if r.Soil != nil {
		fmt.Fprintln(w)
		formatAssessment(w, *r.Soil)
	}
}

func formatAssessment(w io.Writer, a soil.Assessment) {
	fmt.Fprintf(w, "Soil quality: %d/100 (%s)\n", a.WeightedTotal, a.QualityLabel)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FACTOR\tVALUE\tSCORE\tINTERPRETATION")
	for _, f := range soil.Factors {
		fmt.Fprintf(tw, "%s\t%.2f\t%d\t%s\n", f, a.Sample.Value(f), a.Scores[f], a.Interpretations[f])
	}
	tw.Flush() //nolint:errcheck
}

func formatViewport(w io.Writer, vp viewport.Viewport) {
	fmt.Fprintf(w, "Center: %.6f, %.6f\n", vp.Center.Lat, vp.Center.Lng)
	fmt.Fprintf(w, "Zoom:   %d\n", vp.Zoom)
	if b := vp.Bounds; b != nil {
		fmt.Fprintf(w, "Bounds: %.6f,%.6f .. %.6f,%.6f\n", b.MinLat, b.MinLng, b.MaxLat, b.MaxLng)
	}
}
