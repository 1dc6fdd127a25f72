package integer

import "math"

// correctorRange derives the corrector's significant bit count and the
// [min, max] interval it must fall into, from either an explicit valueRange
// (used for fields whose encodable domain isn't a power of two, e.g. delta
// between two returns out of eight) or a plain bit width.
func correctorRange(bits, valueRange uint32) (corrBits, corrRange uint32, corrMin, corrMax int32) {
	switch {
	case valueRange != 0:
		r := valueRange
		for r != 0 {
			r >>= 1
			corrBits++
		}
		corrRange = valueRange
		if corrRange == 1<<(corrBits-1) {
			corrBits--
		}
		corrMin = -int32(corrRange / 2)
		corrMax = corrMin + int32(corrRange) - 1
	case bits >= 1 && bits < 32:
		corrBits = bits
		corrRange = 1 << bits
		corrMin = -int32(corrRange / 2)
		corrMax = corrMin + int32(corrRange) - 1
	default:
		corrBits = 32
		corrRange = 0
		corrMin = math.MinInt32
		corrMax = math.MaxInt32
	}

	return corrBits, corrRange, corrMin, corrMax
}
