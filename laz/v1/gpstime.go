package v1

import (
	"io"

	"github.com/arloliu/golaz/endian"
	"github.com/arloliu/golaz/integer"
	"github.com/arloliu/golaz/internal/errs"
	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/rangecoder"
)

// gpsTimeMultiMax bounds the multiplier model's alphabet: symbols below
// gpsTimeMultiMax-2 are genuine multipliers (0 codes a diff against a
// quarter of the last one), gpsTimeMultiMax-2 marks a huge jump written raw
// and gpsTimeMultiMax-1 marks an unchanged time.
const gpsTimeMultiMax = 512

// GpsTimeCompressor compresses a point's GPS time as a diff against the
// previous point's, itself predicted by a multiplier against the diff
// before that — GPS time usually advances in near-constant steps within a
// scan line, so the diff-of-diffs collapses to small integers.
type GpsTimeCompressor struct {
	haveLast bool
	lastGPS  int64

	multiModel    *rangecoder.Model
	zeroDiffModel *rangecoder.Model
	icGPSTime     *integer.Compressor

	multiExtremeCounter int32
	lastGPSTimeDiff     int32
}

// NewGpsTimeCompressor builds a v1 GPS time compressor.
func NewGpsTimeCompressor() (*GpsTimeCompressor, error) {
	multi, err := rangecoder.NewModel(gpsTimeMultiMax, false, nil)
	if err != nil {
		return nil, err
	}
	zero, err := rangecoder.NewModel(3, false, nil)
	if err != nil {
		return nil, err
	}
	ic := integer.NewCompressor(32, 6)
	if err := ic.Init(); err != nil {
		return nil, err
	}
	return &GpsTimeCompressor{multiModel: multi, zeroDiffModel: zero, icGPSTime: ic}, nil
}

// SizeOfField implements record.FieldCompressor.
func (c *GpsTimeCompressor) SizeOfField() int { return laz.GPSTimeSize }

// CompressWith implements record.FieldCompressor.
func (c *GpsTimeCompressor) CompressWith(enc *rangecoder.Encoder, buf []byte) error {
	if len(buf) < laz.GPSTimeSize {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	engine := endian.GetLittleEndianEngine()
	t := laz.UnpackGPSTime(buf, engine)
	cur := float64BitsAsInt64(t)

	if !c.haveLast {
		c.haveLast = true
		c.lastGPS = cur
		_, err := enc.OutStream().Write(buf[:laz.GPSTimeSize])
		return err
	}

	if c.lastGPSTimeDiff == 0 {
		if cur == c.lastGPS {
			if err := enc.EncodeSymbol(c.zeroDiffModel, 0); err != nil {
				return err
			}
		} else {
			diff64 := cur - c.lastGPS
			diff32 := int32(diff64)
			if int64(diff32) == diff64 {
				if err := enc.EncodeSymbol(c.zeroDiffModel, 1); err != nil {
					return err
				}
				if err := c.icGPSTime.Compress(enc, 0, diff32, 0); err != nil {
					return err
				}
				c.lastGPSTimeDiff = diff32
			} else {
				if err := enc.EncodeSymbol(c.zeroDiffModel, 2); err != nil {
					return err
				}
				if err := enc.WriteInt64(uint64(cur)); err != nil {
					return err
				}
			}
			c.lastGPS = cur
		}
	} else {
		if cur == c.lastGPS {
			if err := enc.EncodeSymbol(c.multiModel, gpsTimeMultiMax-1); err != nil {
				return err
			}
		} else {
			diff64 := cur - c.lastGPS
			diff32 := int32(diff64)
			if int64(diff32) == diff64 {
				multi := int32(float32(diff32)/float32(c.lastGPSTimeDiff) + 0.5)
				if multi < 0 {
					multi = 0
				}
				if multi > int32(gpsTimeMultiMax-3) {
					multi = int32(gpsTimeMultiMax - 3)
				}

				if err := enc.EncodeSymbol(c.multiModel, uint32(multi)); err != nil {
					return err
				}

				switch {
				case multi == 1:
					if err := c.icGPSTime.Compress(enc, c.lastGPSTimeDiff, diff32, 1); err != nil {
						return err
					}
					c.lastGPSTimeDiff = diff32
					c.multiExtremeCounter = 0
				case multi == 0:
					if err := c.icGPSTime.Compress(enc, c.lastGPSTimeDiff/4, diff32, 2); err != nil {
						return err
					}
					c.multiExtremeCounter++
					if c.multiExtremeCounter > 3 {
						c.lastGPSTimeDiff = diff32
						c.multiExtremeCounter = 0
					}
				case multi < 10:
					if err := c.icGPSTime.Compress(enc, c.lastGPSTimeDiff*multi, diff32, 3); err != nil {
						return err
					}
				case multi < 50:
					if err := c.icGPSTime.Compress(enc, c.lastGPSTimeDiff*multi, diff32, 4); err != nil {
						return err
					}
				default:
					if err := c.icGPSTime.Compress(enc, c.lastGPSTimeDiff*multi, diff32, 5); err != nil {
						return err
					}
					if multi == int32(gpsTimeMultiMax-3) {
						c.multiExtremeCounter++
						if c.multiExtremeCounter > 3 {
							c.lastGPSTimeDiff = diff32
							c.multiExtremeCounter = 0
						}
					}
				}
			} else {
				if err := enc.EncodeSymbol(c.multiModel, gpsTimeMultiMax-2); err != nil {
					return err
				}
				if err := enc.WriteInt64(uint64(cur)); err != nil {
					return err
				}
			}
		}
	}

	c.lastGPS = cur
	return nil
}

// GpsTimeDecompressor is the read-side counterpart of GpsTimeCompressor.
type GpsTimeDecompressor struct {
	haveLast bool
	lastGPS  int64

	multiModel    *rangecoder.Model
	zeroDiffModel *rangecoder.Model
	icGPSTime     *integer.Decompressor

	multiExtremeCounter int32
	lastGPSTimeDiff     int32
}

// NewGpsTimeDecompressor builds a v1 GPS time decompressor.
func NewGpsTimeDecompressor() (*GpsTimeDecompressor, error) {
	multi, err := rangecoder.NewModel(gpsTimeMultiMax, true, nil)
	if err != nil {
		return nil, err
	}
	zero, err := rangecoder.NewModel(3, true, nil)
	if err != nil {
		return nil, err
	}
	ic := integer.NewDecompressor(32, 6)
	if err := ic.Init(); err != nil {
		return nil, err
	}
	return &GpsTimeDecompressor{multiModel: multi, zeroDiffModel: zero, icGPSTime: ic}, nil
}

// SizeOfField implements record.FieldDecompressor.
func (d *GpsTimeDecompressor) SizeOfField() int { return laz.GPSTimeSize }

// DecompressWith implements record.FieldDecompressor.
func (d *GpsTimeDecompressor) DecompressWith(dec *rangecoder.Decoder, buf []byte) error {
	if len(buf) < laz.GPSTimeSize {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	engine := endian.GetLittleEndianEngine()

	if !d.haveLast {
		if _, err := io.ReadFull(dec.InStream(), buf[:laz.GPSTimeSize]); err != nil {
			return err
		}
		d.haveLast = true
		d.lastGPS = float64BitsAsInt64(laz.UnpackGPSTime(buf, engine))
		return nil
	}

	if d.lastGPSTimeDiff == 0 {
		multi, err := dec.DecodeSymbol(d.zeroDiffModel)
		if err != nil {
			return err
		}
		switch multi {
		case 1:
			diff, err := d.icGPSTime.Decompress(dec, 0, 0)
			if err != nil {
				return err
			}
			d.lastGPSTimeDiff = diff
			d.lastGPS += int64(diff)
		case 2:
			raw, err := dec.ReadInt64()
			if err != nil {
				return err
			}
			d.lastGPS = int64(raw)
		}
	} else {
		multi, err := dec.DecodeSymbol(d.multiModel)
		if err != nil {
			return err
		}

		if multi < gpsTimeMultiMax-2 {
			var diff int32
			switch {
			case multi == 1:
				diff, err = d.icGPSTime.Decompress(dec, d.lastGPSTimeDiff, 1)
				if err != nil {
					return err
				}
				d.lastGPSTimeDiff = diff
				d.multiExtremeCounter = 0
			case multi == 0:
				diff, err = d.icGPSTime.Decompress(dec, d.lastGPSTimeDiff/4, 2)
				if err != nil {
					return err
				}
				d.multiExtremeCounter++
				if d.multiExtremeCounter > 3 {
					d.lastGPSTimeDiff = diff
					d.multiExtremeCounter = 0
				}
			default:
				ctx := uint32(3)
				if multi >= 10 {
					ctx = 4
				}
				if multi >= 50 {
					ctx = 5
				}
				diff, err = d.icGPSTime.Decompress(dec, d.lastGPSTimeDiff*int32(multi), ctx)
				if err != nil {
					return err
				}
				if multi == gpsTimeMultiMax-3 {
					d.multiExtremeCounter++
					if d.multiExtremeCounter > 3 {
						d.lastGPSTimeDiff = diff
						d.multiExtremeCounter = 0
					}
				}
			}
			d.lastGPS += int64(diff)
		} else if multi < gpsTimeMultiMax-1 {
			raw, err := dec.ReadInt64()
			if err != nil {
				return err
			}
			d.lastGPS = int64(raw)
		}
	}

	laz.PackGPSTime(buf, int64AsFloat64Bits(d.lastGPS), engine)
	return nil
}
