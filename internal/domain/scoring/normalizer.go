package scoring

import "math"

// MinPopulation is the smallest population a z-score is defined for.
// Below it every entry reports a neutral indicator.
const MinPopulation = 2

// ZScore is a value's deviation from its population mean in standard
// deviation units. Defined is false when the population is too small or has
// zero variance.
type ZScore struct {
	Value   float64
	Defined bool
}

// Normalize computes population z-scores for every entry in values, using
// the population standard deviation (divide by N: the full population is
// known, not sampled). Pure; the input map is not modified.
func Normalize(values map[string]float64) map[string]ZScore {
	out := make(map[string]ZScore, len(values))
	if len(values) < MinPopulation {
		for key := range values {
			out[key] = ZScore{}
		}
		return out
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		delta := v - mean
		variance += delta * delta
	}
	variance /= float64(len(values))

	std := math.Sqrt(variance)
	if std == 0 {
		for key := range values {
			out[key] = ZScore{}
		}
		return out
	}

	for key, v := range values {
		out[key] = ZScore{Value: (v - mean) / std, Defined: true}
	}
	return out
}
