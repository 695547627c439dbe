// Package report exports a farm's fields as a spreadsheet or GeoJSON.
package report

import (
	"github.com/sells-group/terra/internal/field"
)

// Summary aggregates a set of fields.
type Summary struct {
	Fields    int     `json:"fields" yaml:"fields"`
	TotalArea float64 `json:"total_area_m2" yaml:"total_area_m2"`
	Hectares  float64 `json:"hectares" yaml:"hectares"`
	Assessed  int     `json:"assessed" yaml:"assessed"`
	MeanScore float64 `json:"mean_score" yaml:"mean_score"`
}

// Summarize totals area and averages the soil score over assessed fields.
func Summarize(records []field.Record) Summary {
	s := Summary{Fields: len(records), TotalArea: field.TotalArea(records)}
	s.Hectares = s.TotalArea / 10000

	var total int
	for _, r := range records {
		if r.Soil == nil {
			continue
		}
		s.Assessed++
		total += r.Soil.WeightedTotal
	}
	if s.Assessed > 0 {
		s.MeanScore = float64(total) / float64(s.Assessed)
	}
	return s
}
