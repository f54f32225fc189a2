package utils

import "math"

// ClampFloat64 bounds v to [lo, hi].
func ClampFloat64(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// SnapToStep rounds v to the nearest multiple of step. A non-positive step
// leaves v alone.
func SnapToStep(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return step * math.Round(v/step)
}

// Round keeps decimals digits after the point.
func Round(v float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(v*scale) / scale
}

// PercentChange is the drop from before to after as a percentage of before.
// A rise comes back negative and a zero before yields 0.
func PercentChange(before, after float64) float64 {
	if before == 0 {
		return 0
	}
	return 100 * (before - after) / before
}
