package synth

import "math"

// SatAdd returns a+b clamped to the int32 range instead of wrapping.
func SatAdd(a, b int32) int32 {
	s := a + b
	// Overflow happened iff both operands share a sign the result does not.
	if (a^s)&(b^s) < 0 {
		if a < 0 {
			return math.MinInt32
		}
		return math.MaxInt32
	}
	return s
}
