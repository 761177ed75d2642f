package utils

import "math"

// Round2 rounds to cents. All stored amounts are 2dp USD.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
