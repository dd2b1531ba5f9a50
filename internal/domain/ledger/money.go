package ledger

import (
	"fmt"
	"math"
)

// roundingBias absorbs binary representation error so that 4.725 rounds up
// to 4.73 instead of down on 472.49999999999994 cents.
const roundingBias = 1e-7

// RoundAmount rounds v to two decimals, half away from zero.
func RoundAmount(v float64) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*100+math.Copysign(roundingBias, v)) / 100
}

// FormatAmount renders v with the currency symbol and two decimals, e.g. "$4.73" or "-$1.00".
func FormatAmount(symbol string, v float64) string {
	rounded := RoundAmount(v)
	if rounded < 0 {
		return fmt.Sprintf("-%s%.2f", symbol, -rounded)
	}
	// avoids printing "-0.00"
	return fmt.Sprintf("%s%.2f", symbol, math.Abs(rounded))
}

// NormalizePercentage maps negative or non-finite input to zero.
func NormalizePercentage(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
