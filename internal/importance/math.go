package importance

import "math"

func pow2(exp float64) float64 {
	return math.Pow(2, exp)
}

func powf(base, exp float64) float64 {
	return math.Pow(base, exp)
}
