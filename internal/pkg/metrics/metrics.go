package metrics

import "fmt"

// Rate returns numerator/denominator as a float in [0,1].
// A denominator of zero (or less) yields 0.0, never NaN.
func Rate(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 0.0
	}
	return float64(numerator) / float64(denominator)
}

// Percent renders a rate for display, e.g. 0.75 -> "75.0%".
// Rounding happens here and nowhere earlier.
func Percent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}

// SumCounts totals a status->count map.
func SumCounts(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
