package v2

import (
	"io"

	"github.com/arloliu/golaz/endian"
	"github.com/arloliu/golaz/integer"
	"github.com/arloliu/golaz/internal/errs"
	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/rangecoder"
)

// GPS time multiplier alphabet. Mirrors LASzip's fixed constants: multi runs
// from gpsTimeMultiMinus to gpsTimeMulti inclusive, with the five symbols
// above that repurposed for "unchanged", "code a full new time" and the
// three "jump to another sequence" codes.
const (
	gpsTimeMulti          = 500
	gpsTimeMultiMinus     = -10
	gpsTimeMultiUnchanged = gpsTimeMulti - gpsTimeMultiMinus + 1 // 511
	gpsTimeMultiCodeFull  = gpsTimeMulti - gpsTimeMultiMinus + 2 // 512
	gpsTimeMultiTotal     = gpsTimeMulti - gpsTimeMultiMinus + 6 // 516
)

// quantize32 rounds a float to the nearest integer, away from zero on ties,
// matching LASzip's I32_QUANTIZE macro.
func quantize32(f float32) int32 {
	if f >= 0 {
		return int32(f + 0.5)
	}
	return int32(f - 0.5)
}

// gpsTimeCommon tracks up to four independent GPS time sequences at once.
// A scanner that interleaves multiple return streams (or a flightline with
// overlapping strips) can jump between sequences point to point; LASzip
// keeps the last four distinct GPS times around so a jump back to a
// previously seen sequence still gets predicted instead of written raw.
type gpsTimeCommon struct {
	multiModel    *rangecoder.Model
	zeroDiffModel *rangecoder.Model

	last, next int

	lastGPSTimes         [4]int64
	lastGPSTimeDiffs     [4]int32
	multiExtremeCounters [4]int32

	haveLast bool
}

func newGPSTimeCommon(decoding bool) (*gpsTimeCommon, error) {
	multi, err := rangecoder.NewModel(gpsTimeMultiTotal, decoding, nil)
	if err != nil {
		return nil, err
	}
	zero, err := rangecoder.NewModel(6, decoding, nil)
	if err != nil {
		return nil, err
	}
	return &gpsTimeCommon{multiModel: multi, zeroDiffModel: zero}, nil
}

// GpsTimeCompressor is the contextual GPS time codec: it can track four
// interleaved time sequences, switching between them transparently when a
// point's time jumps back to one recently seen instead of forward.
type GpsTimeCompressor struct {
	common    *gpsTimeCommon
	icGPSTime *integer.Compressor
}

// NewGpsTimeCompressor builds a v2 GPS time compressor.
func NewGpsTimeCompressor() (*GpsTimeCompressor, error) {
	common, err := newGPSTimeCommon(false)
	if err != nil {
		return nil, err
	}
	ic := integer.NewCompressor(32, 9)
	if err := ic.Init(); err != nil {
		return nil, err
	}
	return &GpsTimeCompressor{common: common, icGPSTime: ic}, nil
}

// SizeOfField implements record.FieldCompressor.
func (c *GpsTimeCompressor) SizeOfField() int { return laz.GPSTimeSize }

// CompressWith implements record.FieldCompressor.
func (c *GpsTimeCompressor) CompressWith(enc *rangecoder.Encoder, buf []byte) error {
	if len(buf) < laz.GPSTimeSize {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	if !c.common.haveLast {
		c.common.haveLast = true
		engine := endian.GetLittleEndianEngine()
		c.common.lastGPSTimes[0] = float64BitsAsInt64(laz.UnpackGPSTime(buf, engine))
		_, err := enc.OutStream().Write(buf[:laz.GPSTimeSize])
		return err
	}

	return c.compressWith(enc, buf)
}

func (c *GpsTimeCompressor) compressWith(enc *rangecoder.Encoder, buf []byte) error {
	com := c.common
	engine := endian.GetLittleEndianEngine()
	cur := float64BitsAsInt64(laz.UnpackGPSTime(buf, engine))

	if com.lastGPSTimeDiffs[com.last] == 0 {
		if cur == com.lastGPSTimes[com.last] {
			if err := enc.EncodeSymbol(com.zeroDiffModel, 0); err != nil {
				return err
			}
			return nil
		}

		diff64 := cur - com.lastGPSTimes[com.last]
		diff32 := int32(diff64)
		if int64(diff32) == diff64 {
			if err := enc.EncodeSymbol(com.zeroDiffModel, 1); err != nil {
				return err
			}
			if err := c.icGPSTime.Compress(enc, 0, diff32, 0); err != nil {
				return err
			}
			com.lastGPSTimeDiffs[com.last] = diff32
			com.multiExtremeCounters[com.last] = 0
		} else {
			for i := 1; i < 4; i++ {
				idx := (com.last + i) & 3
				otherDiff64 := cur - com.lastGPSTimes[idx]
				otherDiff32 := int32(otherDiff64)
				if int64(otherDiff32) == otherDiff64 {
					if err := enc.EncodeSymbol(com.zeroDiffModel, uint32(i+2)); err != nil {
						return err
					}
					com.last = idx
					return c.compressWith(enc, buf)
				}
			}

			if err := enc.EncodeSymbol(com.zeroDiffModel, 2); err != nil {
				return err
			}
			if err := c.icGPSTime.Compress(enc, int32(com.lastGPSTimes[com.last]>>32), int32(cur>>32), 8); err != nil {
				return err
			}
			if err := enc.WriteInt(uint32(cur)); err != nil {
				return err
			}
			com.next = (com.next + 1) & 3
			com.last = com.next
			com.lastGPSTimeDiffs[com.last] = 0
			com.multiExtremeCounters[com.last] = 0
		}
		com.lastGPSTimes[com.last] = cur
		return nil
	}

	if cur == com.lastGPSTimes[com.last] {
		return enc.EncodeSymbol(com.multiModel, gpsTimeMultiUnchanged)
	}

	diff64 := cur - com.lastGPSTimes[com.last]
	diff32 := int32(diff64)
	if int64(diff32) == diff64 {
		multiF := float32(diff32) / float32(com.lastGPSTimeDiffs[com.last])
		multi := quantize32(multiF)

		switch {
		case multi == 1:
			if err := enc.EncodeSymbol(com.multiModel, 1); err != nil {
				return err
			}
			if err := c.icGPSTime.Compress(enc, com.lastGPSTimeDiffs[com.last], diff32, 1); err != nil {
				return err
			}
			com.multiExtremeCounters[com.last] = 0
		case multi > 0:
			if multi < gpsTimeMulti {
				if err := enc.EncodeSymbol(com.multiModel, uint32(multi)); err != nil {
					return err
				}
				ctx := uint32(2)
				if multi >= 10 {
					ctx = 3
				}
				if err := c.icGPSTime.Compress(enc, multi*com.lastGPSTimeDiffs[com.last], diff32, ctx); err != nil {
					return err
				}
			} else {
				if err := enc.EncodeSymbol(com.multiModel, gpsTimeMulti); err != nil {
					return err
				}
				if err := c.icGPSTime.Compress(enc, gpsTimeMulti*com.lastGPSTimeDiffs[com.last], diff32, 4); err != nil {
					return err
				}
				com.multiExtremeCounters[com.last]++
				if com.multiExtremeCounters[com.last] > 3 {
					com.lastGPSTimeDiffs[com.last] = diff32
					com.multiExtremeCounters[com.last] = 0
				}
			}
		case multi < 0:
			if multi > gpsTimeMultiMinus {
				if err := enc.EncodeSymbol(com.multiModel, uint32(gpsTimeMulti-multi)); err != nil {
					return err
				}
				if err := c.icGPSTime.Compress(enc, multi*com.lastGPSTimeDiffs[com.last], diff32, 5); err != nil {
					return err
				}
			} else {
				if err := enc.EncodeSymbol(com.multiModel, uint32(gpsTimeMulti-gpsTimeMultiMinus)); err != nil {
					return err
				}
				if err := c.icGPSTime.Compress(enc, gpsTimeMultiMinus*com.lastGPSTimeDiffs[com.last], diff32, 6); err != nil {
					return err
				}
				com.multiExtremeCounters[com.last]++
				if com.multiExtremeCounters[com.last] > 3 {
					com.lastGPSTimeDiffs[com.last] = diff32
					com.multiExtremeCounters[com.last] = 0
				}
			}
		default:
			if err := enc.EncodeSymbol(com.multiModel, 0); err != nil {
				return err
			}
			if err := c.icGPSTime.Compress(enc, 0, diff32, 7); err != nil {
				return err
			}
			com.multiExtremeCounters[com.last]++
			if com.multiExtremeCounters[com.last] > 3 {
				com.lastGPSTimeDiffs[com.last] = diff32
				com.multiExtremeCounters[com.last] = 0
			}
		}
	} else {
		found := false
		for i := 1; i < 4; i++ {
			idx := (com.last + i) & 3
			otherDiff64 := cur - com.lastGPSTimes[idx]
			otherDiff32 := int32(otherDiff64)
			if int64(otherDiff32) == otherDiff64 {
				if err := enc.EncodeSymbol(com.multiModel, uint32(gpsTimeMultiCodeFull+i)); err != nil {
					return err
				}
				com.last = idx
				found = true
				break
			}
		}
		if found {
			return c.compressWith(enc, buf)
		}

		if err := enc.EncodeSymbol(com.multiModel, gpsTimeMultiCodeFull); err != nil {
			return err
		}
		if err := c.icGPSTime.Compress(enc, int32(com.lastGPSTimes[com.last]>>32), int32(cur>>32), 8); err != nil {
			return err
		}
		if err := enc.WriteInt(uint32(cur)); err != nil {
			return err
		}
		com.next = (com.next + 1) & 3
		com.last = com.next
		com.lastGPSTimeDiffs[com.last] = 0
		com.multiExtremeCounters[com.last] = 0
	}

	com.lastGPSTimes[com.last] = cur
	return nil
}

// GpsTimeDecompressor is the read-side counterpart of GpsTimeCompressor.
type GpsTimeDecompressor struct {
	common    *gpsTimeCommon
	icGPSTime *integer.Decompressor
}

// NewGpsTimeDecompressor builds a v2 GPS time decompressor.
func NewGpsTimeDecompressor() (*GpsTimeDecompressor, error) {
	common, err := newGPSTimeCommon(true)
	if err != nil {
		return nil, err
	}
	ic := integer.NewDecompressor(32, 9)
	if err := ic.Init(); err != nil {
		return nil, err
	}
	return &GpsTimeDecompressor{common: common, icGPSTime: ic}, nil
}

// SizeOfField implements record.FieldDecompressor.
func (d *GpsTimeDecompressor) SizeOfField() int { return laz.GPSTimeSize }

// DecompressWith implements record.FieldDecompressor.
func (d *GpsTimeDecompressor) DecompressWith(dec *rangecoder.Decoder, buf []byte) error {
	if len(buf) < laz.GPSTimeSize {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	if !d.common.haveLast {
		if _, err := io.ReadFull(dec.InStream(), buf[:laz.GPSTimeSize]); err != nil {
			return err
		}
		engine := endian.GetLittleEndianEngine()
		d.common.lastGPSTimes[0] = float64BitsAsInt64(laz.UnpackGPSTime(buf, engine))
		d.common.haveLast = true
		return nil
	}

	if err := d.decompressWith(dec, buf); err != nil {
		return err
	}

	engine := endian.GetLittleEndianEngine()
	laz.PackGPSTime(buf, int64AsFloat64Bits(d.common.lastGPSTimes[d.common.last]), engine)
	return nil
}

func (d *GpsTimeDecompressor) decompressWith(dec *rangecoder.Decoder, buf []byte) error {
	com := d.common

	if com.lastGPSTimeDiffs[com.last] == 0 {
		multiSym, err := dec.DecodeSymbol(com.zeroDiffModel)
		if err != nil {
			return err
		}
		multi := int32(multiSym)

		switch {
		case multi == 1:
			diff, err := d.icGPSTime.Decompress(dec, 0, 0)
			if err != nil {
				return err
			}
			com.lastGPSTimeDiffs[com.last] = diff
			com.lastGPSTimes[com.last] += int64(diff)
			com.multiExtremeCounters[com.last] = 0
		case multi == 2:
			com.next = (com.next + 1) & 3
			hi, err := d.icGPSTime.Decompress(dec, int32(com.lastGPSTimes[com.last]>>32), 8)
			if err != nil {
				return err
			}
			lo, err := dec.ReadInt()
			if err != nil {
				return err
			}
			com.lastGPSTimes[com.next] = (int64(hi) << 32) | int64(lo)
			com.last = com.next
			com.lastGPSTimeDiffs[com.last] = 0
			com.multiExtremeCounters[com.last] = 0
		case multi > 2:
			com.last = (com.last + int(multi) - 2) & 3
			return d.decompressWith(dec, buf)
		}
		return nil
	}

	multiSym, err := dec.DecodeSymbol(com.multiModel)
	if err != nil {
		return err
	}
	multi := int32(multiSym)

	switch {
	case multi == 1:
		diff, err := d.icGPSTime.Decompress(dec, com.lastGPSTimeDiffs[com.last], 1)
		if err != nil {
			return err
		}
		com.lastGPSTimes[com.last] += int64(diff)
		com.multiExtremeCounters[com.last] = 0
	case multi < gpsTimeMultiUnchanged:
		var diff int32
		switch {
		case multi == 0:
			diff, err = d.icGPSTime.Decompress(dec, 0, 7)
			if err != nil {
				return err
			}
			com.multiExtremeCounters[com.last]++
			if com.multiExtremeCounters[com.last] > 3 {
				com.lastGPSTimeDiffs[com.last] = diff
				com.multiExtremeCounters[com.last] = 0
			}
		case multi < gpsTimeMulti:
			ctx := uint32(2)
			if multi >= 10 {
				ctx = 3
			}
			diff, err = d.icGPSTime.Decompress(dec, multi*com.lastGPSTimeDiffs[com.last], ctx)
			if err != nil {
				return err
			}
		case multi == gpsTimeMulti:
			diff, err = d.icGPSTime.Decompress(dec, multi*com.lastGPSTimeDiffs[com.last], 4)
			if err != nil {
				return err
			}
			com.multiExtremeCounters[com.last]++
			if com.multiExtremeCounters[com.last] > 3 {
				com.lastGPSTimeDiffs[com.last] = diff
				com.multiExtremeCounters[com.last] = 0
			}
		default:
			multi = gpsTimeMulti - multi
			if multi > gpsTimeMultiMinus {
				diff, err = d.icGPSTime.Decompress(dec, multi*com.lastGPSTimeDiffs[com.last], 5)
				if err != nil {
					return err
				}
			} else {
				diff, err = d.icGPSTime.Decompress(dec, gpsTimeMultiMinus*com.lastGPSTimeDiffs[com.last], 6)
				if err != nil {
					return err
				}
				com.multiExtremeCounters[com.last]++
				if com.multiExtremeCounters[com.last] > 3 {
					com.lastGPSTimeDiffs[com.last] = diff
					com.multiExtremeCounters[com.last] = 0
				}
			}
		}
		com.lastGPSTimes[com.last] += int64(diff)
	case multi == gpsTimeMultiCodeFull:
		com.next = (com.next + 1) & 3
		hi, err := d.icGPSTime.Decompress(dec, int32(com.lastGPSTimes[com.last]>>32), 8)
		if err != nil {
			return err
		}
		lo, err := dec.ReadInt()
		if err != nil {
			return err
		}
		com.lastGPSTimes[com.next] = (int64(hi) << 32) | int64(lo)
		com.last = com.next
		com.lastGPSTimeDiffs[com.last] = 0
		com.multiExtremeCounters[com.last] = 0
	case multi > gpsTimeMultiCodeFull:
		com.last = (com.last + int(multi) - gpsTimeMultiCodeFull) & 3
		return d.decompressWith(dec, buf)
	}

	return nil
}
