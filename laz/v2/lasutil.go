// Package v2 implements LASzip's contextual field codecs: predictions are
// conditioned on the return-number/number-of-returns bucket a point falls
// into (NUMBER_RETURN_MAP/NUMBER_RETURN_LEVEL), giving multi-return pulses
// (ground + vegetation + ...) independent prediction state instead of
// sharing one v1-style running diff across every return.
package v2

// streamingMedian tracks an approximate running median over the last five
// values added, via an insertion-shift scheme that keeps the middle slot
// sorted relative to its neighbors without a full sort on every Add.
type streamingMedian struct {
	values [5]int32
	high   bool
}

func newStreamingMedian() streamingMedian {
	return streamingMedian{high: true}
}

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

// numberReturnMap buckets (numberOfReturns, returnNumber) pairs into one of
// 16 prediction contexts, tolerating files that start numbering returns at
// 0, only populate one of the two fields, or swap their positions.
var numberReturnMap = [8][8]uint8{
	{15, 14, 13, 12, 11, 10, 9, 8},
	{14, 0, 1, 3, 6, 10, 10, 9},
	{13, 1, 2, 4, 7, 11, 11, 10},
	{12, 3, 4, 5, 8, 12, 12, 11},
	{11, 6, 7, 8, 9, 13, 13, 12},
	{10, 10, 11, 12, 13, 14, 14, 13},
	{9, 10, 11, 12, 13, 14, 15, 14},
	{8, 9, 10, 11, 12, 13, 14, 15},
}

// numberReturnLevel buckets the same pair into one of 8 "pulse depth"
// levels used to key the Z predictor.
var numberReturnLevel = [8][8]uint8{
	{0, 1, 2, 3, 4, 5, 6, 7},
	{1, 0, 1, 2, 3, 4, 5, 6},
	{2, 1, 0, 1, 2, 3, 4, 5},
	{3, 2, 1, 0, 1, 2, 3, 4},
	{4, 3, 2, 1, 0, 1, 2, 3},
	{5, 4, 3, 2, 1, 0, 1, 2},
	{6, 5, 4, 3, 2, 1, 0, 1},
	{7, 6, 5, 4, 3, 2, 1, 0},
}

func u32ZeroBit(n uint32) uint32 { return n &^ 1 }
