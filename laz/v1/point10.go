package v1

import (
	"io"

	"github.com/arloliu/golaz/endian"
	"github.com/arloliu/golaz/integer"
	"github.com/arloliu/golaz/internal/errs"
	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/rangecoder"
)

// medianDiff3 returns the median of three preceding diffs, the same
// three-element sliding predictor used to seed the X/Y integer compressors.
func medianDiff3(d [3]int32) int32 {
	if d[0] < d[1] {
		if d[1] < d[2] {
			return d[1]
		} else if d[0] < d[2] {
			return d[2]
		}
		return d[0]
	}
	if d[0] < d[2] {
		return d[0]
	} else if d[1] < d[2] {
		return d[2]
	}
	return d[1]
}

// Point10Compressor compresses Point10 records (LAS point formats 0-3's base
// fields) with no return-number context: X/Y are predicted from a
// three-sample median of prior diffs, Z from the previous Z, and the
// remaining scalar fields are only touched when a one-byte bitmask says
// they changed since the last point.
type Point10Compressor struct {
	last     laz.Point10
	haveLast bool

	lastXDiffs [3]int32
	lastYDiffs [3]int32
	lastIncr   int

	icDX            *integer.Compressor
	icDY            *integer.Compressor
	icDZ            *integer.Compressor
	icIntensity     *integer.Compressor
	icScanAngleRank *integer.Compressor
	icPointSourceID *integer.Compressor

	changedValues  *rangecoder.Model
	bitByteModels  [256]*rangecoder.Model
	classifModels  [256]*rangecoder.Model
	userDataModels [256]*rangecoder.Model
}

// NewPoint10Compressor builds a v1 Point10 compressor with freshly
// initialized integer compressors and models.
func NewPoint10Compressor() (*Point10Compressor, error) {
	c := &Point10Compressor{
		icDX:            integer.NewCompressor(32, 1),
		icDY:            integer.NewCompressor(32, 20),
		icDZ:            integer.NewCompressor(32, 20),
		icIntensity:     integer.NewCompressor(16, 1),
		icScanAngleRank: integer.NewCompressor(8, 2),
		icPointSourceID: integer.NewCompressor(16, 1),
	}
	for _, ic := range []*integer.Compressor{c.icDX, c.icDY, c.icDZ, c.icIntensity, c.icScanAngleRank, c.icPointSourceID} {
		if err := ic.Init(); err != nil {
			return nil, err
		}
	}
	m, err := rangecoder.NewModel(64, false, nil)
	if err != nil {
		return nil, err
	}
	c.changedValues = m
	return c, nil
}

// SizeOfField implements record.FieldCompressor.
func (c *Point10Compressor) SizeOfField() int { return laz.Point10Size }

// CompressWith implements record.FieldCompressor.
func (c *Point10Compressor) CompressWith(enc *rangecoder.Encoder, buf []byte) error {
	if len(buf) < laz.Point10Size {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	if !c.haveLast {
		if _, err := enc.OutStream().Write(buf[:laz.Point10Size]); err != nil {
			return err
		}
		c.last.Unpack(buf, endian.GetLittleEndianEngine())
		c.haveLast = true
		return nil
	}

	var current laz.Point10
	current.Unpack(buf, endian.GetLittleEndianEngine())

	medianX := medianDiff3(c.lastXDiffs)
	medianY := medianDiff3(c.lastYDiffs)

	xDiff := current.X - c.last.X
	yDiff := current.Y - c.last.Y

	if err := c.icDX.Compress(enc, medianX, xDiff, 0); err != nil {
		return err
	}
	kBits := c.icDX.K()

	ctx := kBits
	if ctx > 19 {
		ctx = 19
	}
	if err := c.icDY.Compress(enc, medianY, yDiff, ctx); err != nil {
		return err
	}

	kBits = (kBits + c.icDY.K()) / 2
	ctx = kBits
	if ctx > 19 {
		ctx = 19
	}
	if err := c.icDZ.Compress(enc, c.last.Z, current.Z, ctx); err != nil {
		return err
	}

	lastBF := c.last.BitFields()
	curBF := current.BitFields()

	var changed uint8
	if c.last.Intensity != current.Intensity {
		changed |= 1 << 5
	}
	if lastBF != curBF {
		changed |= 1 << 4
	}
	if c.last.Classification != current.Classification {
		changed |= 1 << 3
	}
	if c.last.ScanAngleRank != current.ScanAngleRank {
		changed |= 1 << 2
	}
	if c.last.UserData != current.UserData {
		changed |= 1 << 1
	}
	if c.last.PointSourceID != current.PointSourceID {
		changed |= 1
	}

	if err := enc.EncodeSymbol(c.changedValues, uint32(changed)); err != nil {
		return err
	}

	if changed != 0 {
		if changed&(1<<5) != 0 {
			if err := c.icIntensity.Compress(enc, int32(c.last.Intensity), int32(current.Intensity), 0); err != nil {
				return err
			}
		}
		if changed&(1<<4) != 0 {
			model := c.bitByteModels[lastBF]
			if model == nil {
				m, err := rangecoder.NewModel(256, false, nil)
				if err != nil {
					return err
				}
				model = m
				c.bitByteModels[lastBF] = m
			}
			if err := enc.EncodeSymbol(model, uint32(curBF)); err != nil {
				return err
			}
		}
		if changed&(1<<3) != 0 {
			model := c.classifModels[c.last.Classification]
			if model == nil {
				m, err := rangecoder.NewModel(256, false, nil)
				if err != nil {
					return err
				}
				model = m
				c.classifModels[c.last.Classification] = m
			}
			if err := enc.EncodeSymbol(model, uint32(current.Classification)); err != nil {
				return err
			}
		}
		if changed&(1<<2) != 0 {
			scanCtx := uint32(0)
			if kBits < 3 {
				scanCtx = 1
			}
			if err := c.icScanAngleRank.Compress(enc, int32(c.last.ScanAngleRank), int32(current.ScanAngleRank), scanCtx); err != nil {
				return err
			}
		}
		if changed&(1<<1) != 0 {
			model := c.userDataModels[c.last.UserData]
			if model == nil {
				m, err := rangecoder.NewModel(256, false, nil)
				if err != nil {
					return err
				}
				model = m
				c.userDataModels[c.last.UserData] = m
			}
			if err := enc.EncodeSymbol(model, uint32(current.UserData)); err != nil {
				return err
			}
		}
		if changed&1 != 0 {
			if err := c.icPointSourceID.Compress(enc, int32(c.last.PointSourceID), int32(current.PointSourceID), 0); err != nil {
				return err
			}
		}
	}

	c.lastXDiffs[c.lastIncr] = xDiff
	c.lastYDiffs[c.lastIncr] = yDiff
	c.lastIncr++
	if c.lastIncr > 2 {
		c.lastIncr = 0
	}
	c.last = current
	return nil
}

// Point10Decompressor is the read-side counterpart of Point10Compressor.
type Point10Decompressor struct {
	last     laz.Point10
	haveLast bool

	lastXDiffs [3]int32
	lastYDiffs [3]int32
	lastIncr   int

	icDX            *integer.Decompressor
	icDY            *integer.Decompressor
	icDZ            *integer.Decompressor
	icIntensity     *integer.Decompressor
	icScanAngleRank *integer.Decompressor
	icPointSourceID *integer.Decompressor

	changedValues  *rangecoder.Model
	bitByteModels  [256]*rangecoder.Model
	classifModels  [256]*rangecoder.Model
	userDataModels [256]*rangecoder.Model
}

// NewPoint10Decompressor builds a v1 Point10 decompressor.
func NewPoint10Decompressor() (*Point10Decompressor, error) {
	d := &Point10Decompressor{
		icDX:            integer.NewDecompressor(32, 1),
		icDY:            integer.NewDecompressor(32, 20),
		icDZ:            integer.NewDecompressor(32, 20),
		icIntensity:     integer.NewDecompressor(16, 1),
		icScanAngleRank: integer.NewDecompressor(8, 2),
		icPointSourceID: integer.NewDecompressor(16, 1),
	}
	for _, ic := range []*integer.Decompressor{d.icDX, d.icDY, d.icDZ, d.icIntensity, d.icScanAngleRank, d.icPointSourceID} {
		if err := ic.Init(); err != nil {
			return nil, err
		}
	}
	m, err := rangecoder.NewModel(64, true, nil)
	if err != nil {
		return nil, err
	}
	d.changedValues = m
	return d, nil
}

// SizeOfField implements record.FieldDecompressor.
func (d *Point10Decompressor) SizeOfField() int { return laz.Point10Size }

// DecompressWith implements record.FieldDecompressor.
func (d *Point10Decompressor) DecompressWith(dec *rangecoder.Decoder, buf []byte) error {
	if len(buf) < laz.Point10Size {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	if !d.haveLast {
		if _, err := io.ReadFull(dec.InStream(), buf[:laz.Point10Size]); err != nil {
			return err
		}
		d.last.Unpack(buf, endian.GetLittleEndianEngine())
		d.haveLast = true
		return nil
	}

	medianX := medianDiff3(d.lastXDiffs)
	medianY := medianDiff3(d.lastYDiffs)

	xDiff, err := d.icDX.Decompress(dec, medianX, 0)
	if err != nil {
		return err
	}
	d.last.X += xDiff
	kBits := d.icDX.K()

	ctx := kBits
	if ctx > 19 {
		ctx = 19
	}
	yDiff, err := d.icDY.Decompress(dec, medianY, ctx)
	if err != nil {
		return err
	}
	d.last.Y += yDiff

	kBits = (kBits + d.icDY.K()) / 2
	ctx = kBits
	if ctx > 19 {
		ctx = 19
	}
	d.last.Z, err = d.icDZ.Decompress(dec, d.last.Z, ctx)
	if err != nil {
		return err
	}

	changedSym, err := dec.DecodeSymbol(d.changedValues)
	if err != nil {
		return err
	}
	changed := uint8(changedSym)

	if changed != 0 {
		if changed&(1<<5) != 0 {
			v, err := d.icIntensity.Decompress(dec, int32(d.last.Intensity), 0)
			if err != nil {
				return err
			}
			d.last.Intensity = uint16(v)
		}
		if changed&(1<<4) != 0 {
			lastBF := d.last.BitFields()
			model := d.bitByteModels[lastBF]
			if model == nil {
				m, err := rangecoder.NewModel(256, true, nil)
				if err != nil {
					return err
				}
				model = m
				d.bitByteModels[lastBF] = m
			}
			sym, err := dec.DecodeSymbol(model)
			if err != nil {
				return err
			}
			d.last.SetBitFields(uint8(sym))
		}
		if changed&(1<<3) != 0 {
			model := d.classifModels[d.last.Classification]
			if model == nil {
				m, err := rangecoder.NewModel(256, true, nil)
				if err != nil {
					return err
				}
				model = m
				d.classifModels[d.last.Classification] = m
			}
			sym, err := dec.DecodeSymbol(model)
			if err != nil {
				return err
			}
			d.last.Classification = uint8(sym)
		}
		if changed&(1<<2) != 0 {
			scanCtx := uint32(0)
			if kBits < 3 {
				scanCtx = 1
			}
			v, err := d.icScanAngleRank.Decompress(dec, int32(d.last.ScanAngleRank), scanCtx)
			if err != nil {
				return err
			}
			d.last.ScanAngleRank = int8(v)
		}
		if changed&(1<<1) != 0 {
			model := d.userDataModels[d.last.UserData]
			if model == nil {
				m, err := rangecoder.NewModel(256, true, nil)
				if err != nil {
					return err
				}
				model = m
				d.userDataModels[d.last.UserData] = m
			}
			sym, err := dec.DecodeSymbol(model)
			if err != nil {
				return err
			}
			d.last.UserData = uint8(sym)
		}
		if changed&1 != 0 {
			v, err := d.icPointSourceID.Decompress(dec, int32(d.last.PointSourceID), 0)
			if err != nil {
				return err
			}
			d.last.PointSourceID = uint16(v)
		}
	}

	d.lastXDiffs[d.lastIncr] = xDiff
	d.lastYDiffs[d.lastIncr] = yDiff
	d.lastIncr++
	if d.lastIncr > 2 {
		d.lastIncr = 0
	}

	d.last.Pack(buf, endian.GetLittleEndianEngine())
	return nil
}
