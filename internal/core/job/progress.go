package job

import "math"

// NormalizeProgress converts a heterogeneous progress value into a
// canonical integer percent. Backends report either a 0..1 fraction or
// a 0..100 percent; values at or below 1 are treated as fractions.
// A nil or NaN value normalizes to 0. The result is clamped to [0,100]
// so a misbehaving backend can never push the UI past a full bar.
func NormalizeProgress(v *float64) int {
	if v == nil || math.IsNaN(*v) {
		return 0
	}
	raw := *v
	if raw <= 1 {
		raw *= 100
	}
	pct := int(math.Round(raw))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
