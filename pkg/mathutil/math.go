// Package mathutil holds small numeric helpers shared across domains.
package mathutil

// ClampInt constrains v to the inclusive range [min, max].
func ClampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ClampLimit normalizes a caller-supplied page limit: non-positive values
// fall back to def, and values above max are capped.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
