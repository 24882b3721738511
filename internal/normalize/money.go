package normalize

import (
	"fmt"
	"math"
)

// DollarsToCents converts a dollar amount to integer cents.
// Uses math.Round to avoid truncation bias.
func DollarsToCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// FormatCents renders cents as a dollar string, e.g. 15000 → "$150.00".
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}
