package v2

import (
	"io"

	"github.com/arloliu/golaz/endian"
	"github.com/arloliu/golaz/integer"
	"github.com/arloliu/golaz/internal/errs"
	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/rangecoder"
)

// point10Common holds the prediction state shared by Point10Compressor and
// Point10Decompressor: the last point seen, per-context running medians and
// heights, and the lazily-built per-context models. Kept as one struct so
// the read and write sides stay in lockstep by construction.
type point10Common struct {
	lastPoint laz.Point10
	haveLast  bool

	lastIntensity   [16]uint16
	lastXDiffMedian [16]streamingMedian
	lastYDiffMedian [16]streamingMedian
	lastHeight      [8]int32

	changedValues *rangecoder.Model
	scanAngle     [2]*rangecoder.Model
	bitByte       [256]*rangecoder.Model
	classif       [256]*rangecoder.Model
	userData      [256]*rangecoder.Model
}

func newPoint10Common(decoding bool) (*point10Common, error) {
	c := &point10Common{}
	for i := range c.lastXDiffMedian {
		c.lastXDiffMedian[i] = newStreamingMedian()
		c.lastYDiffMedian[i] = newStreamingMedian()
	}
	m, err := rangecoder.NewModel(64, decoding, nil)
	if err != nil {
		return nil, err
	}
	c.changedValues = m
	for i := range c.scanAngle {
		m, err := rangecoder.NewModel(256, decoding, nil)
		if err != nil {
			return nil, err
		}
		c.scanAngle[i] = m
	}
	return c, nil
}

func (c *point10Common) bitByteModel(idx uint8, decoding bool) (*rangecoder.Model, error) {
	if c.bitByte[idx] == nil {
		m, err := rangecoder.NewModel(256, decoding, nil)
		if err != nil {
			return nil, err
		}
		c.bitByte[idx] = m
	}
	return c.bitByte[idx], nil
}

func (c *point10Common) classifModel(idx uint8, decoding bool) (*rangecoder.Model, error) {
	if c.classif[idx] == nil {
		m, err := rangecoder.NewModel(256, decoding, nil)
		if err != nil {
			return nil, err
		}
		c.classif[idx] = m
	}
	return c.classif[idx], nil
}

func (c *point10Common) userDataModel(idx uint8, decoding bool) (*rangecoder.Model, error) {
	if c.userData[idx] == nil {
		m, err := rangecoder.NewModel(256, decoding, nil)
		if err != nil {
			return nil, err
		}
		c.userData[idx] = m
	}
	return c.userData[idx], nil
}

// changedValuesBits builds the 6-bit "what changed since the last point"
// mask, checking intensity against its context-specific last value rather
// than the previous point's raw intensity.
func changedValuesBits(last, cur laz.Point10, lastIntensityInCtx uint16) uint8 {
	bitFieldsChanged := last.ReturnNumber != cur.ReturnNumber ||
		last.NumberOfReturns != cur.NumberOfReturns ||
		last.ScanDirectionFlag != cur.ScanDirectionFlag ||
		last.EdgeOfFlightLine != cur.EdgeOfFlightLine

	var v uint8
	if bitFieldsChanged {
		v |= 1 << 5
	}
	if lastIntensityInCtx != cur.Intensity {
		v |= 1 << 4
	}
	if last.Classification != cur.Classification {
		v |= 1 << 3
	}
	if last.ScanAngleRank != cur.ScanAngleRank {
		v |= 1 << 2
	}
	if last.UserData != cur.UserData {
		v |= 1 << 1
	}
	if last.PointSourceID != cur.PointSourceID {
		v |= 1
	}
	return v
}

// Point10Compressor is the contextual Point10 codec: X/Y/Z and intensity
// predictions are keyed by the point's return-number/number-of-returns
// bucket, so different passes of a multi-return pulse don't pollute each
// other's running state.
type Point10Compressor struct {
	common *point10Common

	icIntensity     *integer.Compressor
	icPointSourceID *integer.Compressor
	icDX            *integer.Compressor
	icDY            *integer.Compressor
	icZ             *integer.Compressor
}

// NewPoint10Compressor builds a v2 Point10 compressor.
func NewPoint10Compressor() (*Point10Compressor, error) {
	common, err := newPoint10Common(false)
	if err != nil {
		return nil, err
	}
	c := &Point10Compressor{
		common:          common,
		icIntensity:     integer.NewCompressor(16, 4),
		icPointSourceID: integer.NewCompressor(16, 1),
		icDX:            integer.NewCompressor(32, 2),
		icDY:            integer.NewCompressor(32, 22),
		icZ:             integer.NewCompressor(32, 20),
	}
	for _, ic := range []*integer.Compressor{c.icIntensity, c.icPointSourceID, c.icDX, c.icDY, c.icZ} {
		if err := ic.Init(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SizeOfField implements record.FieldCompressor.
func (c *Point10Compressor) SizeOfField() int { return laz.Point10Size }

// CompressWith implements record.FieldCompressor.
func (c *Point10Compressor) CompressWith(enc *rangecoder.Encoder, buf []byte) error {
	if len(buf) < laz.Point10Size {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	engine := endian.GetLittleEndianEngine()
	var cur laz.Point10
	cur.Unpack(buf, engine)

	if !c.common.haveLast {
		c.common.haveLast = true
		c.common.lastPoint = cur
		_, err := enc.OutStream().Write(buf[:laz.Point10Size])
		return err
	}

	r := cur.ReturnNumber
	n := cur.NumberOfReturns
	m := numberReturnMap[n][r]
	l := numberReturnLevel[n][r]

	changed := changedValuesBits(c.common.lastPoint, cur, c.common.lastIntensity[m])
	if err := enc.EncodeSymbol(c.common.changedValues, uint32(changed)); err != nil {
		return err
	}

	if changed&(1<<5) != 0 {
		lastB := c.common.lastPoint.BitFields()
		model, err := c.common.bitByteModel(lastB, false)
		if err != nil {
			return err
		}
		if err := enc.EncodeSymbol(model, uint32(cur.BitFields())); err != nil {
			return err
		}
	}

	if changed&(1<<4) != 0 {
		ctx := uint32(m)
		if ctx > 3 {
			ctx = 3
		}
		if err := c.icIntensity.Compress(enc, int32(c.common.lastIntensity[m]), int32(cur.Intensity), ctx); err != nil {
			return err
		}
		c.common.lastIntensity[m] = cur.Intensity
	}

	if changed&(1<<3) != 0 {
		model, err := c.common.classifModel(c.common.lastPoint.Classification, false)
		if err != nil {
			return err
		}
		if err := enc.EncodeSymbol(model, uint32(cur.Classification)); err != nil {
			return err
		}
	}

	if changed&(1<<2) != 0 {
		idx := 0
		if c.common.lastPoint.ScanDirectionFlag {
			idx = 1
		}
		model := c.common.scanAngle[idx]
		delta := uint8(cur.ScanAngleRank - c.common.lastPoint.ScanAngleRank)
		if err := enc.EncodeSymbol(model, uint32(delta)); err != nil {
			return err
		}
	}

	if changed&(1<<1) != 0 {
		model, err := c.common.userDataModel(c.common.lastPoint.UserData, false)
		if err != nil {
			return err
		}
		if err := enc.EncodeSymbol(model, uint32(cur.UserData)); err != nil {
			return err
		}
	}

	if changed&1 != 0 {
		if err := c.icPointSourceID.Compress(enc, int32(c.common.lastPoint.PointSourceID), int32(cur.PointSourceID), 0); err != nil {
			return err
		}
	}

	medianX := c.common.lastXDiffMedian[m].get()
	xDiff := cur.X - c.common.lastPoint.X
	xCtx := uint32(0)
	if n == 1 {
		xCtx = 1
	}
	if err := c.icDX.Compress(enc, medianX, xDiff, xCtx); err != nil {
		return err
	}
	c.common.lastXDiffMedian[m].add(xDiff)

	kBits := c.icDX.K()
	medianY := c.common.lastYDiffMedian[m].get()
	yDiff := cur.Y - c.common.lastPoint.Y
	yCtx := xCtx
	if kBits < 20 {
		yCtx += u32ZeroBit(kBits)
	} else {
		yCtx += 20
	}
	if err := c.icDY.Compress(enc, medianY, yDiff, yCtx); err != nil {
		return err
	}
	c.common.lastYDiffMedian[m].add(yDiff)

	kBits = (c.icDX.K() + c.icDY.K()) / 2
	zCtx := xCtx
	if kBits < 18 {
		zCtx += u32ZeroBit(kBits)
	} else {
		zCtx += 18
	}
	if err := c.icZ.Compress(enc, c.common.lastHeight[l], cur.Z, zCtx); err != nil {
		return err
	}
	c.common.lastHeight[l] = cur.Z

	c.common.lastPoint = cur
	return nil
}

// Point10Decompressor is the read-side counterpart of Point10Compressor.
type Point10Decompressor struct {
	common *point10Common

	icIntensity     *integer.Decompressor
	icPointSourceID *integer.Decompressor
	icDX            *integer.Decompressor
	icDY            *integer.Decompressor
	icZ             *integer.Decompressor
}

// NewPoint10Decompressor builds a v2 Point10 decompressor.
func NewPoint10Decompressor() (*Point10Decompressor, error) {
	common, err := newPoint10Common(true)
	if err != nil {
		return nil, err
	}
	d := &Point10Decompressor{
		common:          common,
		icIntensity:     integer.NewDecompressor(16, 4),
		icPointSourceID: integer.NewDecompressor(16, 1),
		icDX:            integer.NewDecompressor(32, 2),
		icDY:            integer.NewDecompressor(32, 22),
		icZ:             integer.NewDecompressor(32, 20),
	}
	for _, ic := range []*integer.Decompressor{d.icIntensity, d.icPointSourceID, d.icDX, d.icDY, d.icZ} {
		if err := ic.Init(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// SizeOfField implements record.FieldDecompressor.
func (d *Point10Decompressor) SizeOfField() int { return laz.Point10Size }

// DecompressWith implements record.FieldDecompressor.
func (d *Point10Decompressor) DecompressWith(dec *rangecoder.Decoder, buf []byte) error {
	if len(buf) < laz.Point10Size {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	engine := endian.GetLittleEndianEngine()

	if !d.common.haveLast {
		if _, err := io.ReadFull(dec.InStream(), buf[:laz.Point10Size]); err != nil {
			return err
		}
		d.common.lastPoint.Unpack(buf, engine)
		d.common.haveLast = true
		return nil
	}

	changedSym, err := dec.DecodeSymbol(d.common.changedValues)
	if err != nil {
		return err
	}
	changed := uint8(changedSym)

	var r, n, m, l uint8

	if changed != 0 {
		if changed&(1<<5) != 0 {
			lastB := d.common.lastPoint.BitFields()
			model, err := d.common.bitByteModel(lastB, true)
			if err != nil {
				return err
			}
			sym, err := dec.DecodeSymbol(model)
			if err != nil {
				return err
			}
			d.common.lastPoint.SetBitFields(uint8(sym))
		}

		r = d.common.lastPoint.ReturnNumber
		n = d.common.lastPoint.NumberOfReturns
		m = numberReturnMap[n][r]
		l = numberReturnLevel[n][r]

		if changed&(1<<4) != 0 {
			ctx := uint32(m)
			if ctx > 3 {
				ctx = 3
			}
			v, err := d.icIntensity.Decompress(dec, int32(d.common.lastIntensity[m]), ctx)
			if err != nil {
				return err
			}
			d.common.lastPoint.Intensity = uint16(v)
			d.common.lastIntensity[m] = d.common.lastPoint.Intensity
		} else {
			d.common.lastPoint.Intensity = d.common.lastIntensity[m]
		}

		if changed&(1<<3) != 0 {
			model, err := d.common.classifModel(d.common.lastPoint.Classification, true)
			if err != nil {
				return err
			}
			sym, err := dec.DecodeSymbol(model)
			if err != nil {
				return err
			}
			d.common.lastPoint.Classification = uint8(sym)
		}

		if changed&(1<<2) != 0 {
			idx := 0
			if d.common.lastPoint.ScanDirectionFlag {
				idx = 1
			}
			model := d.common.scanAngle[idx]
			sym, err := dec.DecodeSymbol(model)
			if err != nil {
				return err
			}
			d.common.lastPoint.ScanAngleRank += int8(uint8(sym))
		}

		if changed&(1<<1) != 0 {
			model, err := d.common.userDataModel(d.common.lastPoint.UserData, true)
			if err != nil {
				return err
			}
			sym, err := dec.DecodeSymbol(model)
			if err != nil {
				return err
			}
			d.common.lastPoint.UserData = uint8(sym)
		}

		if changed&1 != 0 {
			v, err := d.icPointSourceID.Decompress(dec, int32(d.common.lastPoint.PointSourceID), 0)
			if err != nil {
				return err
			}
			d.common.lastPoint.PointSourceID = uint16(v)
		}
	} else {
		r = d.common.lastPoint.ReturnNumber
		n = d.common.lastPoint.NumberOfReturns
		m = numberReturnMap[n][r]
		l = numberReturnLevel[n][r]
	}

	medianX := d.common.lastXDiffMedian[m].get()
	xCtx := uint32(0)
	if n == 1 {
		xCtx = 1
	}
	xDiff, err := d.icDX.Decompress(dec, medianX, xCtx)
	if err != nil {
		return err
	}
	d.common.lastPoint.X += xDiff
	d.common.lastXDiffMedian[m].add(xDiff)

	medianY := d.common.lastYDiffMedian[m].get()
	kBits := d.icDX.K()
	yCtx := xCtx
	if kBits < 20 {
		yCtx += u32ZeroBit(kBits)
	} else {
		yCtx += 20
	}
	yDiff, err := d.icDY.Decompress(dec, medianY, yCtx)
	if err != nil {
		return err
	}
	d.common.lastPoint.Y += yDiff
	d.common.lastYDiffMedian[m].add(yDiff)

	kBits = (d.icDX.K() + d.icDY.K()) / 2
	zCtx := xCtx
	if kBits < 18 {
		zCtx += u32ZeroBit(kBits)
	} else {
		zCtx += 18
	}
	z, err := d.icZ.Decompress(dec, d.common.lastHeight[l], zCtx)
	if err != nil {
		return err
	}
	d.common.lastPoint.Z = z
	d.common.lastHeight[l] = z

	d.common.lastPoint.Pack(buf, engine)
	return nil
}
