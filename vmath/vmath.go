// Package vmath provides the float vector math used by spatial audio:
// listener-relative positioning, attenuation and panning.
package vmath

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp interpolates between a and b; t outside [0,1] extrapolates
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
