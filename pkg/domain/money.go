package domain

import "math"

// Round2 rounds a monetary amount to two decimals, half away from zero.
// Calculators keep full precision internally and round only where a figure
// becomes part of a persisted record or an API response, so rounding error
// never compounds across charge lines.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}
