package v3

import "math"

// streamingMedian tracks an approximate running median over the last five
// values added, the same insertion-shift scheme v2 uses, duplicated here
// so v3's layered codecs don't need an unexported cross-package import.
type streamingMedian struct {
	values [5]int32
	high   bool
}

func newStreamingMedian() streamingMedian { return streamingMedian{high: true} }

func (m *streamingMedian) add(v int32) {
	if m.high {
		if v < m.values[2] {
			m.values[4] = m.values[3]
			m.values[3] = m.values[2]
			switch {
			case v < m.values[0]:
				m.values[2] = m.values[1]
				m.values[1] = m.values[0]
				m.values[0] = v
			case v < m.values[1]:
				m.values[2] = m.values[1]
				m.values[1] = v
			default:
				m.values[2] = v
			}
		} else {
			if v < m.values[3] {
				m.values[4] = m.values[3]
				m.values[3] = v
			} else {
				m.values[4] = v
			}
			m.high = false
		}
	} else {
		if m.values[2] < v {
			m.values[0] = m.values[1]
			m.values[1] = m.values[2]
			switch {
			case m.values[4] < v:
				m.values[2] = m.values[3]
				m.values[3] = m.values[4]
				m.values[4] = v
			case m.values[3] < v:
				m.values[2] = m.values[3]
				m.values[3] = v
			default:
				m.values[2] = v
			}
		} else {
			if m.values[1] < v {
				m.values[0] = m.values[1]
				m.values[1] = v
			} else {
				m.values[0] = v
			}
			m.high = true
		}
	}
}

func (m *streamingMedian) get() int32 { return m.values[2] }

func u32ZeroBit(n uint32) uint32 { return n &^ 1 }

// returnContext buckets a (numberOfReturns, returnNumber) pair, widened to
// LAS point format 6's 4-bit fields, into one of 16 prediction contexts:
// 15 for return number 0, 14 for a last return (returnNumber >=
// numberOfReturns), otherwise how many returns separate this one from the
// last, capped at 13.
func returnContext(numberOfReturns, returnNumber uint8) uint8 {
	switch {
	case returnNumber == 0:
		return 15
	case returnNumber >= numberOfReturns:
		return 14
	default:
		d := numberOfReturns - returnNumber
		if d > 13 {
			d = 13
		}
		return d
	}
}

// returnLevel buckets the same pair into one of 8 "pulse depth" levels
// used to key the Z predictor.
func returnLevel(numberOfReturns, returnNumber uint8) uint8 {
	if numberOfReturns == 0 {
		return 0
	}
	lvl := int(returnNumber) * 7 / int(numberOfReturns)
	if lvl > 7 {
		lvl = 7
	}
	return uint8(lvl)
}

func float64BitsAsInt64(f float64) int64 { return int64(math.Float64bits(f)) }
func int64AsFloat64Bits(v int64) float64 { return math.Float64frombits(uint64(v)) }

// quantize32 rounds a float to the nearest integer, away from zero on ties,
// duplicated from v2's GPS time codec for the same reason as the helpers
// above: v2's is unexported and v3 needs its own copy.
func quantize32(f float32) int32 {
	if f >= 0 {
		return int32(f + 0.5)
	}
	return int32(f - 0.5)
}
