package soil

// scoreRange is an inclusive [Min, Max] band worth Score points.
type scoreRange struct {
	Score    int
	Min, Max float64
}

// Range tables, highest score first. Bands are neither contiguous nor
// monotonic: pH 5.95 or 7.05 matches nothing and falls back to 1.
var rangeTables = map[Factor][]scoreRange{
	OrganicCarbon: {
		{5, 30, 60},
		{4, 20, 29},
		{3, 10, 19},
		{2, 5, 9},
		{1, 0, 4},
	},
	PH: {
		{5, 6.0, 7.0},
		{4, 5.5, 5.9},
		{3, 7.1, 7.5},
		{2, 5.0, 5.4},
		{1, 4.5, 4.9},
	},
	Clay: {
		{5, 20, 35},
		{4, 15, 19},
		{3, 36, 45},
		{2, 10, 14},
		{1, 0, 9},
	},
	Sand: {
		{5, 20, 40},
		{4, 41, 55},
		{3, 10, 19},
		{2, 56, 70},
		{1, 0, 9},
	},
}

// DefaultScore is given to values outside every band, NaN included.
const DefaultScore = 1

// ScoreFactor maps v to a 1-5 score using f's range table.
func ScoreFactor(f Factor, v float64) int {
	for _, r := range rangeTables[f] {
		if v >= r.Min && v <= r.Max {
			return r.Score
		}
	}
	return DefaultScore
}
