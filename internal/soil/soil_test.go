package soil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/terra/internal/config"
)

func TestAssess_IdealSample(t *testing.T) {
	a := Assess(Sample{Clay: 30, Sand: 30, OrganicCarbon: 40, PH: 6.5})

	for _, f := range Factors {
		assert.Equal(t, 5, a.Scores[f], f)
	}
	assert.Equal(t, 100, a.WeightedTotal)
	assert.Equal(t, LabelExcellent, a.QualityLabel)
	assert.Equal(t, "High organic matter, excellent fertility", a.Interpretations[OrganicCarbon])
	assert.Equal(t, "Optimal pH for most crops", a.Interpretations[PH])
	assert.Equal(t, "Moderate clay, good water retention", a.Interpretations[Clay])
	assert.Equal(t, "Balanced sand content", a.Interpretations[Sand])
}

func TestAssess_ZeroSample(t *testing.T) {
	a := Assess(Sample{})

	for _, f := range Factors {
		assert.Equal(t, 1, a.Scores[f], f)
	}
	assert.Equal(t, 20, a.WeightedTotal)
	assert.Equal(t, LabelPoor, a.QualityLabel)
	assert.Len(t, a.Interpretations, 4)
}

func TestAssess_NaNDegradesToDefault(t *testing.T) {
	a := Assess(Sample{Clay: math.NaN(), Sand: 30, OrganicCarbon: 40, PH: 6.5})

	assert.Equal(t, DefaultScore, a.Scores[Clay])
	// 0.35*5 + 0.25*5 + 0.2*1 + 0.2*5 = 4.2
	assert.Equal(t, 84, a.WeightedTotal)
	assert.Equal(t, LabelVeryGood, a.QualityLabel)
}

func TestScoreFactor_PH(t *testing.T) {
	tests := []struct {
		ph   float64
		want int
	}{
		{6.0, 5},
		{7.0, 5},
		{6.5, 5},
		{5.5, 4},
		{5.9, 4},
		{5.95, 1}, // between bands
		{7.05, 1}, // between bands
		{7.1, 3},
		{7.5, 3},
		{5.0, 2},
		{4.7, 1},
		{4.2, 1},
		{8.5, 1},
		{-3, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScoreFactor(PH, tt.ph), "pH %v", tt.ph)
	}
}

func TestScoreFactor_Bands(t *testing.T) {
	tests := []struct {
		factor Factor
		value  float64
		want   int
	}{
		{OrganicCarbon, 60, 5},
		{OrganicCarbon, 61, 1},
		{OrganicCarbon, 29.5, 1},
		{OrganicCarbon, 20, 4},
		{OrganicCarbon, 10, 3},
		{OrganicCarbon, 7, 2},
		{Clay, 35, 5},
		{Clay, 40, 3},
		{Clay, 17, 4},
		{Clay, 12, 2},
		{Clay, 80, 1},
		{Sand, 40, 5},
		{Sand, 50, 4},
		{Sand, 15, 3},
		{Sand, 60, 2},
		{Sand, 95, 1},
		{Factor("nitrogen"), 10, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScoreFactor(tt.factor, tt.value), "%s=%v", tt.factor, tt.value)
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		total int
		want  string
	}{
		{100, LabelExcellent},
		{90, LabelExcellent},
		{89, LabelVeryGood},
		{80, LabelVeryGood},
		{70, LabelGood},
		{60, LabelFair},
		{50, LabelModerate},
		{49, LabelPoor},
		{0, LabelPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Label(tt.total), "total %d", tt.total)
	}
}

func TestInterpret_CutoffsDifferFromScoring(t *testing.T) {
	// 25% clay scores 5 but reads as "light".
	assert.Equal(t, 5, ScoreFactor(Clay, 25))
	assert.Equal(t, "Light clay content", Interpret(Clay, 25))

	assert.Equal(t, "Heavy clay, poor drainage", Interpret(Clay, 41))
	assert.Equal(t, "Very low clay, poor nutrient retention", Interpret(Clay, 10))
	assert.Equal(t, "Strongly acidic, liming recommended", Interpret(PH, 5.4))
	assert.Equal(t, "Moderately acidic", Interpret(PH, 5.5))
	assert.Equal(t, "Slightly alkaline", Interpret(PH, 7.5))
	assert.Equal(t, "Alkaline, may limit nutrient availability", Interpret(PH, 7.6))
	assert.Equal(t, "Very sandy, drains quickly", Interpret(Sand, 71))
	assert.Equal(t, "Sandy, may need frequent irrigation", Interpret(Sand, 55))
	assert.Equal(t, "Low sand content", Interpret(Sand, 20))
	assert.Equal(t, "Good organic matter content", Interpret(OrganicCarbon, 20))
	assert.Equal(t, "Moderate organic matter, consider adding compost", Interpret(OrganicCarbon, 10))
	assert.Equal(t, "Low organic matter, needs improvement", Interpret(OrganicCarbon, 9.9))
	assert.Empty(t, Interpret(Factor("nitrogen"), 1))
}

func TestSampleValidate(t *testing.T) {
	assert.NoError(t, Sample{Clay: 200, Sand: -1, OrganicCarbon: 0, PH: 15}.Validate())

	err := Sample{PH: math.Inf(1)}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ph is not a finite number")
}

func TestNewScorer_CustomWeights(t *testing.T) {
	sc, err := NewScorer(config.SoilWeights{OrganicCarbon: 1})
	require.NoError(t, err)

	// Only organic carbon counts.
	a := sc.Assess(Sample{OrganicCarbon: 25})
	assert.Equal(t, 4, a.Scores[OrganicCarbon])
	assert.Equal(t, 80, a.WeightedTotal)
	assert.Equal(t, LabelVeryGood, a.QualityLabel)
}

func TestValidateWeights(t *testing.T) {
	assert.NoError(t, ValidateWeights(DefaultWeights()))
	assert.InDelta(t, 1.0, WeightSum(DefaultWeights()), 1e-9)

	err := ValidateWeights(config.SoilWeights{OrganicCarbon: -0.5, PH: 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "organic_carbon weight must be >= 0")

	err = ValidateWeights(config.SoilWeights{OrganicCarbon: 0.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights should sum to 1, got 0.50")

	_, err = NewScorer(config.SoilWeights{})
	assert.Error(t, err)
}
