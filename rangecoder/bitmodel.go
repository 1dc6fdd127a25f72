package rangecoder

// bmLengthShift is the number of length bits discarded before a bit model's
// probability is multiplied into the coding interval.
const bmLengthShift = 13

// bmMaxCount triggers a count rescale once a bit model's total count
// exceeds it.
const bmMaxCount = 1 << bmLengthShift

// BitModel is an adaptive binary probability model, used for single-bit
// decisions such as sign bits and changed/unchanged flags.
type BitModel struct {
	bit0Count       uint32
	bitCount        uint32
	bit0Prob        uint32
	bitsUntilUpdate uint32
	updateCycle     uint32
}

// NewBitModel returns a bit model initialized to the equiprobable state.
func NewBitModel() *BitModel {
	return &BitModel{
		bit0Count:       1,
		bitCount:        2,
		bit0Prob:        1 << (bmLengthShift - 1),
		bitsUntilUpdate: 4,
		updateCycle:     4,
	}
}

// update recomputes bit0Prob from the current counts, rescaling them first
// if they have grown past bmMaxCount.
func (bm *BitModel) update() {
	bm.bitCount += bm.updateCycle
	if bm.bitCount > bmMaxCount {
		bm.bitCount = (bm.bitCount + 1) >> 1
		bm.bit0Count = (bm.bit0Count + 1) >> 1
		if bm.bit0Count == bm.bitCount {
			bm.bitCount++
		}
	}

	scale := uint32(0x80000000) / bm.bitCount
	bm.bit0Prob = (bm.bit0Count * scale) >> (31 - bmLengthShift)

	bm.updateCycle = (5 * bm.updateCycle) >> 2
	if bm.updateCycle > 64 {
		bm.updateCycle = 64
	}
	bm.bitsUntilUpdate = bm.updateCycle
}
