package ahp

// randomIndex holds Saaty's random consistency index by matrix order.
var randomIndex = map[int]float64{
	1: 0, 2: 0, 3: 0.58, 4: 0.9, 5: 1.12,
	6: 1.24, 7: 1.32, 8: 1.41, 9: 1.45, 10: 1.49,
}

// RandomIndex returns RI for a matrix of order n. Orders above 10 reuse the
// n=10 value, which is an approximation.
func RandomIndex(n int) float64 {
	if n > 10 {
		return randomIndex[10]
	}
	return randomIndex[n]
}

// Consistency is the reporting class of a consistency ratio.
type Consistency string

const (
	Consistent           Consistency = "consistent"
	ModeratelyConsistent Consistency = "moderately_consistent"
	Inconsistent         Consistency = "inconsistent"
)

// Thresholds are the exclusive CR upper bounds of the first two classes.
type Thresholds struct {
	Consistent float64 `json:"consistent"`
	Moderate   float64 `json:"moderate"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Consistent: 0.10, Moderate: 0.20}
}

// Classify maps a CR onto a Consistency class.
func (t Thresholds) Classify(cr float64) Consistency {
	switch {
	case cr < t.Consistent:
		return Consistent
	case cr < t.Moderate:
		return ModeratelyConsistent
	default:
		return Inconsistent
	}
}

// ClassifyConsistency classifies cr with the standard 0.10 / 0.20 cut-offs.
// The class is for reporting only; weights are always returned.
func ClassifyConsistency(cr float64) Consistency {
	return DefaultThresholds().Classify(cr)
}

// Advice is the hint shown next to a CR.
func (c Consistency) Advice() string {
	switch c {
	case Consistent:
		return "comparisons are consistent"
	case ModeratelyConsistent:
		return "comparisons are acceptable but worth reviewing"
	default:
		return "comparisons are inconsistent, please revise them"
	}
}
