package pricing

import "math"

// DefaultPercent is the process-wide adjustment percentage.
const DefaultPercent = 5.0

// AdjustedPrice applies the percentage in the given direction and rounds
// half-up to the nearest whole unit. PriceLabs only accepts integer
// price strings on override writes.
func AdjustedPrice(price float64, increase bool, percent float64) int64 {
	factor := 1 + percent/100
	if !increase {
		factor = 1 - percent/100
	}
	return int64(math.Round(price * factor))
}
