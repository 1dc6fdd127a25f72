package integer

import "github.com/arloliu/golaz/rangecoder"

// Decompressor is the decode-side counterpart to Compressor: given a
// prediction and a context, it recovers the real value the encoder saw.
type Decompressor struct {
	k uint32

	contexts uint32
	bitsHigh uint32

	corrBits  uint32
	corrRange uint32
	corrMin   int32

	mBits       []*rangecoder.Model
	mCorrector0 *rangecoder.BitModel
	mCorrector  []*rangecoder.Model
}

// NewDecompressor builds a Decompressor matching NewCompressor's defaults.
func NewDecompressor(bits, contexts uint32) *Decompressor {
	return NewDecompressorWithRange(bits, contexts, DefaultBitsHigh, DefaultRange)
}

// NewDecompressorWithRange builds a Decompressor matching
// NewCompressorWithRange's configuration.
func NewDecompressorWithRange(bits, contexts, bitsHigh, valueRange uint32) *Decompressor {
	corrBits, corrRange, corrMin, _ := correctorRange(bits, valueRange)

	return &Decompressor{
		contexts:    contexts,
		bitsHigh:    bitsHigh,
		corrBits:    corrBits,
		corrRange:   corrRange,
		corrMin:     corrMin,
		mCorrector0: rangecoder.NewBitModel(),
	}
}

// K returns the bit bucket selected by the most recent Decompress call.
func (d *Decompressor) K() uint32 { return d.k }

// Init allocates the decompressor's probability models; see
// Compressor.Init for why this is separate from construction. Idempotent.
func (d *Decompressor) Init() error {
	if len(d.mBits) != 0 {
		return nil
	}

	for i := uint32(0); i < d.contexts; i++ {
		m, err := rangecoder.NewModel(d.corrBits+1, false, nil)
		if err != nil {
			return err
		}
		d.mBits = append(d.mBits, m)
	}

	for i := uint32(1); i <= d.corrBits; i++ {
		symbols := uint32(1) << d.bitsHigh
		if i <= d.bitsHigh {
			symbols = 1 << i
		}
		m, err := rangecoder.NewModel(symbols, false, nil)
		if err != nil {
			return err
		}
		d.mCorrector = append(d.mCorrector, m)
	}

	return nil
}

// Decompress recovers the real value for the given prediction and context.
func (d *Decompressor) Decompress(dec *rangecoder.Decoder, pred int32, context uint32) (int32, error) {
	mBit := d.mBits[context]

	k, err := dec.DecodeSymbol(mBit)
	if err != nil {
		return 0, err
	}
	d.k = k

	var corr int32
	switch {
	case k == 0:
		bit, err := dec.DecodeBit(d.mCorrector0)
		if err != nil {
			return 0, err
		}
		corr = int32(bit)
	case k < 32:
		var c int32
		if k <= d.bitsHigh {
			sym, err := dec.DecodeSymbol(d.mCorrector[k-1])
			if err != nil {
				return 0, err
			}
			c = int32(sym)
		} else {
			k1 := k - d.bitsHigh
			hi, err := dec.DecodeSymbol(d.mCorrector[k-1])
			if err != nil {
				return 0, err
			}
			lo, err := dec.ReadBits(k1)
			if err != nil {
				return 0, err
			}
			c = int32(uint32(hi)<<k1 | lo)
		}

		if c >= int32(1)<<(k-1) {
			c++
		} else {
			c -= int32(uint32(1)<<k) - 1
		}
		corr = c
	default:
		corr = d.corrMin
	}

	real := pred + corr
	switch {
	case real < 0:
		real += int32(d.corrRange)
	case real >= int32(d.corrRange):
		real -= int32(d.corrRange)
	}

	return real, nil
}
