package soil

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/terra/internal/config"
)

// DefaultWeights returns the standard factor weights (sum = 1).
func DefaultWeights() config.SoilWeights {
	return config.SoilWeights{
		OrganicCarbon: 0.35,
		PH:            0.25,
		Clay:          0.20,
		Sand:          0.20,
	}
}

// WeightSum returns the sum of all factor weights.
func WeightSum(w config.SoilWeights) float64 {
	return w.OrganicCarbon + w.PH + w.Clay + w.Sand
}

// ValidateWeights checks that w is non-negative and sums to 1.
func ValidateWeights(w config.SoilWeights) error {
	var errs []string

	weights := map[string]float64{
		"organic_carbon": w.OrganicCarbon,
		"ph":             w.PH,
		"clay":           w.Clay,
		"sand":           w.Sand,
	}
	for _, f := range Factors {
		if weights[string(f)] < 0 {
			errs = append(errs, fmt.Sprintf("%s weight must be >= 0", f))
		}
	}

	// Allow tolerance for floating-point.
	if sum := WeightSum(w); math.Abs(sum-1) > 0.01 {
		errs = append(errs, fmt.Sprintf("weights should sum to 1, got %.2f", sum))
	}

	if len(errs) > 0 {
		return eris.Errorf("soil: weight validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Scorer assesses samples with a fixed set of weights. It is safe for
// concurrent use.
type Scorer struct {
	weights config.SoilWeights
}

// NewScorer creates a Scorer after validating w.
func NewScorer(w config.SoilWeights) (*Scorer, error) {
	if err := ValidateWeights(w); err != nil {
		return nil, err
	}
	return &Scorer{weights: w}, nil
}

var defaultScorer = &Scorer{weights: DefaultWeights()}

// Assess scores s with the default weights.
func Assess(s Sample) Assessment {
	return defaultScorer.Assess(s)
}

// Weights returns the weights the scorer was built with.
func (sc *Scorer) Weights() config.SoilWeights {
	return sc.weights
}

// Assess scores every factor of s, combines the scores into a 0-100 total
// and attaches a quality label and interpretations. It never fails: values
// outside every scoring band, NaN included, score DefaultScore.
func (sc *Scorer) Assess(s Sample) Assessment {
	a := Assessment{
		Sample:          s,
		Scores:          make(map[Factor]int, len(Factors)),
		Interpretations: make(map[Factor]string, len(Factors)),
	}

	var weighted float64
	for _, f := range Factors {
		v := s.Value(f)
		score := ScoreFactor(f, v)
		a.Scores[f] = score
		a.Interpretations[f] = Interpret(f, v)
		weighted += float64(score) * sc.weight(f)
	}

	// A perfect 5 on every factor maps to 100.
	a.WeightedTotal = int(math.Round(weighted * 20))
	a.QualityLabel = Label(a.WeightedTotal)
	return a
}

func (sc *Scorer) weight(f Factor) float64 {
	switch f {
	case OrganicCarbon:
		return sc.weights.OrganicCarbon
	case PH:
		return sc.weights.PH
	case Clay:
		return sc.weights.Clay
	case Sand:
		return sc.weights.Sand
	}
	return 0
}

// Quality labels.
const (
	LabelExcellent = "Excellent"
	LabelVeryGood  = "Very Good"
	LabelGood      = "Good"
	LabelFair      = "Fair"
	LabelModerate  = "Moderate"
	LabelPoor      = "Poor"
)

// Label maps a 0-100 total to its quality label.
func Label(total int) string {
	switch {
	case total >= 90:
		return LabelExcellent
	case total >= 80:
		return LabelVeryGood
	case total >= 70:
		return LabelGood
	case total >= 60:
		return LabelFair
	case total >= 50:
		return LabelModerate
	default:
		return LabelPoor
	}
}
