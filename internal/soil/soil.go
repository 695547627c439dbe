// Package soil turns raw soil measurements into per-factor scores, a
// weighted 0-100 quality index and short agronomic interpretations.
package soil

import (
	"math"

	"github.com/rotisserie/eris"
)

// Factor names a scored soil property.
type Factor string

// Scored factors.
const (
	OrganicCarbon Factor = "organic_carbon"
	PH            Factor = "ph"
	Clay          Factor = "clay"
	Sand          Factor = "sand"
)

// Factors lists every scored factor in report order.
var Factors = []Factor{OrganicCarbon, PH, Clay, Sand}

// Sample holds raw measurements at a point. Clay and sand are percentages,
// organic carbon is g/kg and pH is on the usual 0-14 scale.
type Sample struct {
	Clay          float64 `json:"clay" yaml:"clay"`
	Sand          float64 `json:"sand" yaml:"sand"`
	OrganicCarbon float64 `json:"organic_carbon" yaml:"organic_carbon"`
	PH            float64 `json:"ph" yaml:"ph"`
}

// Value returns the measurement for f.
func (s Sample) Value(f Factor) float64 {
	switch f {
	case OrganicCarbon:
		return s.OrganicCarbon
	case PH:
		return s.PH
	case Clay:
		return s.Clay
	case Sand:
		return s.Sand
	}
	return math.NaN()
}

// Validate rejects non-finite measurements. Assess itself tolerates them.
func (s Sample) Validate() error {
	for _, f := range Factors {
		v := s.Value(f)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return eris.Errorf("soil: %s is not a finite number", f)
		}
	}
	return nil
}

// Assessment is the derived quality report for a Sample.
type Assessment struct {
	Sample          Sample            `json:"sample" yaml:"sample"`
	Scores          map[Factor]int    `json:"scores" yaml:"scores"`
	WeightedTotal   int               `json:"weighted_total" yaml:"weighted_total"`
	QualityLabel    string            `json:"quality_label" yaml:"quality_label"`
	Interpretations map[Factor]string `json:"interpretations" yaml:"interpretations"`
}
