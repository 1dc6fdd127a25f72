package integer

import "github.com/arloliu/golaz/rangecoder"

// Default configuration values matching the LASzip reference encoder.
const (
	DefaultBits     = 16
	DefaultContexts = 1
	DefaultBitsHigh = 8
	DefaultRange    = 0
)

// Compressor range-codes the difference between a predicted and an actual
// value (the "corrector") using one ArithmeticModel per significant-bit
// bucket, plus a per-context model selecting which bucket a given corrector
// falls into.
type Compressor struct {
	k uint32

	contexts uint32
	bitsHigh uint32

	corrBits uint32
	corrRange uint32
	corrMin  int32
	corrMax  int32

	mBits       []*rangecoder.Model
	mCorrector0 *rangecoder.BitModel
	mCorrector  []*rangecoder.Model
}

// NewCompressor builds a Compressor for values with the given bit width and
// number of independent contexts, using LASzip's default bitsHigh/range.
// Use NewCompressorWithRange when the corrector's domain isn't bits wide.
func NewCompressor(bits, contexts uint32) *Compressor {
	return NewCompressorWithRange(bits, contexts, DefaultBitsHigh, DefaultRange)
}

// NewCompressorWithRange builds a Compressor with full control over the
// bitsHigh split point and an explicit corrector value range (0 to fall
// back to a plain bits-wide range).
func NewCompressorWithRange(bits, contexts, bitsHigh, valueRange uint32) *Compressor {
	corrBits, corrRange, corrMin, corrMax := correctorRange(bits, valueRange)

	return &Compressor{
		contexts:    contexts,
		bitsHigh:    bitsHigh,
		corrBits:    corrBits,
		corrRange:   corrRange,
		corrMin:     corrMin,
		corrMax:     corrMax,
		mCorrector0: rangecoder.NewBitModel(),
	}
}

// K returns the bit bucket selected by the most recent Compress call.
func (c *Compressor) K() uint32 { return c.k }

// Init allocates the compressor's probability models. It is separate from
// construction so callers that build several compressors up front (e.g. one
// per field of a record) can size them all before any model memory is
// allocated; it is idempotent.
func (c *Compressor) Init() error {
	if len(c.mBits) != 0 {
		return nil
	}

	for i := uint32(0); i < c.contexts; i++ {
		m, err := rangecoder.NewModel(c.corrBits+1, false, nil)
		if err != nil {
			return err
		}
		c.mBits = append(c.mBits, m)
	}

	for i := uint32(1); i <= c.corrBits; i++ {
		symbols := uint32(1) << c.bitsHigh
		if i <= c.bitsHigh {
			symbols = 1 << i
		}
		m, err := rangecoder.NewModel(symbols, false, nil)
		if err != nil {
			return err
		}
		c.mCorrector = append(c.mCorrector, m)
	}

	return nil
}

// Compress range-codes real against the prediction pred under the given
// context, writing to enc.
func (c *Compressor) Compress(enc *rangecoder.Encoder, pred, real int32, context uint32) error {
	corr := real - pred
	switch {
	case corr < c.corrMin:
		corr += int32(c.corrRange)
	case corr > c.corrMax:
		corr -= int32(c.corrRange)
	}

	mBit := c.mBits[context]

	var c1 uint32
	if corr <= 0 {
		c1 = uint32(-corr)
	} else {
		c1 = uint32(corr - 1)
	}

	c.k = 0
	for c1 != 0 {
		c1 >>= 1
		c.k++
	}

	if err := enc.EncodeSymbol(mBit, c.k); err != nil {
		return err
	}

	if c.k == 0 {
		// corr is 0 or 1.
		return enc.EncodeBit(c.mCorrector0, uint32(corr))
	}

	if c.k >= 32 {
		return nil
	}

	if corr >= 0 {
		corr--
	} else {
		corr += int32(uint32(1)<<c.k) - 1
	}

	if c.k <= c.bitsHigh {
		return enc.EncodeSymbol(c.mCorrector[c.k-1], uint32(corr))
	}

	k1 := c.k - c.bitsHigh
	low := uint32(corr) & ((1 << k1) - 1)
	high := uint32(corr) >> k1

	if err := enc.EncodeSymbol(c.mCorrector[c.k-1], high); err != nil {
		return err
	}

	return enc.WriteBits(k1, low)
}
