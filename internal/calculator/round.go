package calculator

import "math"

// Epsilon is the threshold below which an amount is treated as zero.
const Epsilon = 1e-6

// Round2 rounds n to 2 decimal places, half away from zero.
func Round2(n float64) float64 {
	return math.Round(n*100) / 100
}

func isZero(n float64) bool {
	return math.Abs(n) < Epsilon
}
