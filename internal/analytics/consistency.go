package analytics

import "math"

// DefaultTolerance is the absolute difference allowed before an aggregate
// cross-check reports a mismatch. One unit absorbs floating-point drift
// between grouped and ungrouped sums.
const DefaultTolerance = 1.0

// Check is the outcome of one aggregate cross-check. A failed check is a
// warning for the caller to surface, never a reason to abort the run.
type Check struct {
	Label       string  `json:"label"`
	Aggregate   float64 `json:"aggregate"`
	Independent float64 `json:"independent"`
	Delta       float64 `json:"delta"`
	Match       bool    `json:"match"`
}

// CheckConsistency compares a grouped aggregate against an independently
// computed total. Grouped and ungrouped sums drifting apart is a classic
// silent bug when column sets or filters diverge; this is the regression
// guard. A tolerance of zero or less falls back to DefaultTolerance.
func CheckConsistency(label string, aggregate, independent, tolerance float64) Check {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	delta := math.Abs(aggregate - independent)
	return Check{
		Label:       label,
		Aggregate:   aggregate,
		Independent: independent,
		Delta:       delta,
		Match:       delta <= tolerance,
	}
}
