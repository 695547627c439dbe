package soil

// Interpretation cutoffs are their own ladders; they do not line up with the
// scoring bands in ranges.go.

// Interpret returns a short description of v for factor f.
func Interpret(f Factor, v float64) string {
	switch f {
	case OrganicCarbon:
		return interpretOrganicCarbon(v)
	case PH:
		return interpretPH(v)
	case Clay:
		return interpretClay(v)
	case Sand:
		return interpretSand(v)
	}
	return ""
}

func interpretOrganicCarbon(v float64) string {
	switch {
	case v >= 30:
		return "High organic matter, excellent fertility"
	case v >= 20:
		return "Good organic matter content"
	case v >= 10:
		return "Moderate organic matter, consider adding compost"
	default:
		return "Low organic matter, needs improvement"
	}
}

func interpretPH(v float64) string {
	switch {
	case v < 5.5:
		return "Strongly acidic, liming recommended"
	case v < 6.0:
		return "Moderately acidic"
	case v <= 7.0:
		return "Optimal pH for most crops"
	case v <= 7.5:
		return "Slightly alkaline"
	default:
		return "Alkaline, may limit nutrient availability"
	}
}

func interpretClay(v float64) string {
	switch {
	case v > 40:
		return "Heavy clay, poor drainage"
	case v > 25:
		return "Moderate clay, good water retention"
	case v > 10:
		return "Light clay content"
	default:
		return "Very low clay, poor nutrient retention"
	}
}

func interpretSand(v float64) string {
	switch {
	case v > 70:
		return "Very sandy, drains quickly"
	case v > 50:
		return "Sandy, may need frequent irrigation"
	case v > 20:
		return "Balanced sand content"
	default:
		return "Low sand content"
	}
}
