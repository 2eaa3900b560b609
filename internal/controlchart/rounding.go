package controlchart

import (
	"math"

	"github.com/shopspring/decimal"
)

// RoundHalfUp rounds value to digits decimals using exact decimal
// arithmetic on the shortest representation of value, so 2.345 becomes 2.35
// even though the nearest binary double lies just below 2.345. Halves round
// away from zero. NaN and infinities are returned unchanged.
func RoundHalfUp(value float64, digits int) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	rounded, _ := decimal.NewFromFloat(value).Round(int32(digits)).Float64()
	return rounded
}
