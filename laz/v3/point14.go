package v3

import (
	"bytes"
	"io"

	"github.com/arloliu/golaz/endian"
	"github.com/arloliu/golaz/integer"
	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/rangecoder"
)

// point14GPSMulti mirrors v1's GPS time multiplier alphabet, reused here
// per scanner-channel context instead of as its own top-level field: point
// format 6 carries GPS time inline, so its prediction state lives inside
// the same context switch as every other field instead of behind a
// separate layered codec.
const point14GPSMulti = 512

// point14Context holds one scanner channel's prediction state: the last
// point seen on that channel, running medians for X/Y, a per-pulse-depth
// Z history, and the lazily-built per-context models.
type point14Context struct {
	unused bool

	lastPoint       laz.Point14
	xDiffMedian     streamingMedian
	yDiffMedian     streamingMedian
	lastZ           [8]int32
	lastGPSTimeDiff int32
	multiExtreme    int32

	changedValues *rangecoder.Model
	gpsZeroDiff   *rangecoder.Model
	gpsMulti      *rangecoder.Model
	bitByte       [256]*rangecoder.Model
	classif       [256]*rangecoder.Model
	flags         [256]*rangecoder.Model
	userData      [256]*rangecoder.Model
}

func newPoint14Context(decoding bool) (*point14Context, error) {
	c := &point14Context{unused: true}
	var err error
	if c.changedValues, err = rangecoder.NewModel(128, decoding, nil); err != nil {
		return nil, err
	}
	if c.gpsZeroDiff, err = rangecoder.NewModel(3, decoding, nil); err != nil {
		return nil, err
	}
	if c.gpsMulti, err = rangecoder.NewModel(point14GPSMulti, decoding, nil); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *point14Context) copyPredictionStateFrom(src *point14Context) {
	c.lastPoint = src.lastPoint
	c.lastZ = src.lastZ
}

func lazyModel(slot *[256]*rangecoder.Model, idx uint8, decoding bool) (*rangecoder.Model, error) {
	if slot[idx] == nil {
		m, err := rangecoder.NewModel(256, decoding, nil)
		if err != nil {
			return nil, err
		}
		slot[idx] = m
	}
	return slot[idx], nil
}

func point14ChangedBits(last, cur laz.Point14) uint32 {
	var sym uint32
	if last.ReturnNumber != cur.ReturnNumber || last.NumberOfReturns != cur.NumberOfReturns {
		sym |= 1 << 6
	}
	if last.Intensity != cur.Intensity {
		sym |= 1 << 5
	}
	if last.ClassificationFlags != cur.ClassificationFlags || last.ScannerChannel != cur.ScannerChannel ||
		last.ScanDirectionFlag != cur.ScanDirectionFlag || last.EdgeOfFlightLine != cur.EdgeOfFlightLine {
		sym |= 1 << 4
	}
	if last.Classification != cur.Classification {
		sym |= 1 << 3
	}
	if last.ScanAngleRank != cur.ScanAngleRank {
		sym |= 1 << 2
	}
	if last.UserData != cur.UserData {
		sym |= 1 << 1
	}
	if last.PointSourceID != cur.PointSourceID {
		sym |= 1
	}
	return sym
}

// Point14Compressor is the layered codec for LAS point data record format
// 6's core fields. It runs as a single layer (one rangecoder stream for
// the whole chunk) with per-scanner-channel prediction state, generalizing
// v2's Point10 state machine to format 6's wider fields and inline GPS
// time rather than porting its multi-layer, per-field-group framing
// verbatim.
type Point14Compressor struct {
	buf *bytes.Buffer
	enc *rangecoder.Encoder

	contexts        [4]*point14Context
	lastContextUsed int

	icDX         *integer.Compressor
	icDY         *integer.Compressor
	icZ          *integer.Compressor
	icIntensity  *integer.Compressor
	icScanAngle  *integer.Compressor
	icPointSource *integer.Compressor
	icGPSTime    *integer.Compressor
}

// NewPoint14Compressor builds a v3 Point14 compressor.
func NewPoint14Compressor() (*Point14Compressor, error) {
	buf := &bytes.Buffer{}
	c := &Point14Compressor{
		buf:             buf,
		enc:             rangecoder.NewEncoder(buf),
		icDX:            integer.NewCompressor(32, 2),
		icDY:            integer.NewCompressor(32, 22),
		icZ:             integer.NewCompressor(32, 20),
		icIntensity:     integer.NewCompressor(16, 4),
		icScanAngle:     integer.NewCompressor(16, 2),
		icPointSource:   integer.NewCompressor(16, 1),
		icGPSTime:       integer.NewCompressor(32, 6),
	}
	for _, ic := range []*integer.Compressor{c.icDX, c.icDY, c.icZ, c.icIntensity, c.icScanAngle, c.icPointSource, c.icGPSTime} {
		if err := ic.Init(); err != nil {
			return nil, err
		}
	}
	for i := range c.contexts {
		ctx, err := newPoint14Context(false)
		if err != nil {
			return nil, err
		}
		c.contexts[i] = ctx
	}
	return c, nil
}

// SizeOfField implements LayeredFieldCompressor.
func (c *Point14Compressor) SizeOfField() int { return laz.Point14Size }

// NumLayers implements LayeredFieldCompressor.
func (c *Point14Compressor) NumLayers() int { return 1 }

// InitFirstPoint implements LayeredFieldCompressor.
func (c *Point14Compressor) InitFirstPoint(dst io.Writer, firstPoint []byte, context int) error {
	for _, ctx := range c.contexts {
		ctx.unused = true
	}
	if _, err := dst.Write(firstPoint); err != nil {
		return err
	}

	engine := endian.GetLittleEndianEngine()
	theCtx := c.contexts[context]
	theCtx.lastPoint.Unpack(firstPoint, engine)
	c.lastContextUsed = context
	theCtx.unused = false
	return nil
}

func (c *Point14Compressor) switchContext(context int) {
	if c.lastContextUsed == context || !c.contexts[context].unused {
		return
	}
	c.contexts[context].copyPredictionStateFrom(c.contexts[c.lastContextUsed])
	c.contexts[context].unused = false
}

// CompressFieldWith implements LayeredFieldCompressor.
func (c *Point14Compressor) CompressFieldWith(buf []byte, context int) error {
	c.switchContext(context)
	theCtx := c.contexts[context]

	engine := endian.GetLittleEndianEngine()
	var cur laz.Point14
	cur.Unpack(buf, engine)
	last := theCtx.lastPoint

	sym := point14ChangedBits(last, cur)
	if err := c.enc.EncodeSymbol(theCtx.changedValues, sym); err != nil {
		return err
	}

	if sym&(1<<6) != 0 {
		model, err := lazyModel(&theCtx.bitByte, last.BitFields(), false)
		if err != nil {
			return err
		}
		if err := c.enc.EncodeSymbol(model, uint32(cur.BitFields())); err != nil {
			return err
		}
	}
	if sym&(1<<5) != 0 {
		m := returnContext(cur.NumberOfReturns, cur.ReturnNumber)
		ctx := uint32(m)
		if ctx > 3 {
			ctx = 3
		}
		if err := c.icIntensity.Compress(c.enc, int32(last.Intensity), int32(cur.Intensity), ctx); err != nil {
			return err
		}
	}
	if sym&(1<<4) != 0 {
		model, err := lazyModel(&theCtx.flags, last.Flags(), false)
		if err != nil {
			return err
		}
		if err := c.enc.EncodeSymbol(model, uint32(cur.Flags())); err != nil {
			return err
		}
	}
	if sym&(1<<3) != 0 {
		model, err := lazyModel(&theCtx.classif, last.Classification, false)
		if err != nil {
			return err
		}
		if err := c.enc.EncodeSymbol(model, uint32(cur.Classification)); err != nil {
			return err
		}
	}
	if sym&(1<<2) != 0 {
		if err := c.icScanAngle.Compress(c.enc, int32(last.ScanAngleRank), int32(cur.ScanAngleRank), 0); err != nil {
			return err
		}
	}
	if sym&(1<<1) != 0 {
		model, err := lazyModel(&theCtx.userData, last.UserData, false)
		if err != nil {
			return err
		}
		if err := c.enc.EncodeSymbol(model, uint32(cur.UserData)); err != nil {
			return err
		}
	}
	if sym&1 != 0 {
		if err := c.icPointSource.Compress(c.enc, int32(last.PointSourceID), int32(cur.PointSourceID), 0); err != nil {
			return err
		}
	}

	n := cur.NumberOfReturns
	l := returnLevel(cur.NumberOfReturns, cur.ReturnNumber)

	xCtx := uint32(0)
	if n == 1 {
		xCtx = 1
	}
	medianX := theCtx.xDiffMedian.get()
	xDiff := cur.X - last.X
	if err := c.icDX.Compress(c.enc, medianX, xDiff, xCtx); err != nil {
		return err
	}
	theCtx.xDiffMedian.add(xDiff)

	kBits := c.icDX.K()
	yCtx := xCtx
	if kBits < 20 {
		yCtx += u32ZeroBit(kBits)
	} else {
		yCtx += 20
	}
	medianY := theCtx.yDiffMedian.get()
	yDiff := cur.Y - last.Y
	if err := c.icDY.Compress(c.enc, medianY, yDiff, yCtx); err != nil {
		return err
	}
	theCtx.yDiffMedian.add(yDiff)

	kBits = (c.icDX.K() + c.icDY.K()) / 2
	zCtx := xCtx
	if kBits < 18 {
		zCtx += u32ZeroBit(kBits)
	} else {
		zCtx += 18
	}
	if err := c.icZ.Compress(c.enc, theCtx.lastZ[l], cur.Z, zCtx); err != nil {
		return err
	}
	theCtx.lastZ[l] = cur.Z

	if err := c.compressGPSTime(theCtx, last.GPSTime, cur.GPSTime); err != nil {
		return err
	}

	theCtx.lastPoint = cur
	return nil
}

func (c *Point14Compressor) compressGPSTime(ctx *point14Context, lastT, curT float64) error {
	last := float64BitsAsInt64(lastT)
	cur := float64BitsAsInt64(curT)

	if ctx.lastGPSTimeDiff == 0 {
		if cur == last {
			return c.enc.EncodeSymbol(ctx.gpsZeroDiff, 0)
		}
		diff64 := cur - last
		diff32 := int32(diff64)
		if int64(diff32) == diff64 {
			if err := c.enc.EncodeSymbol(ctx.gpsZeroDiff, 1); err != nil {
				return err
			}
			if err := c.icGPSTime.Compress(c.enc, 0, diff32, 0); err != nil {
				return err
			}
			ctx.lastGPSTimeDiff = diff32
			return nil
		}
		if err := c.enc.EncodeSymbol(ctx.gpsZeroDiff, 2); err != nil {
			return err
		}
		return c.enc.WriteInt64(uint64(cur))
	}

	if cur == last {
		return c.enc.EncodeSymbol(ctx.gpsMulti, point14GPSMulti-1)
	}

	diff64 := cur - last
	diff32 := int32(diff64)
	if int64(diff32) != diff64 {
		if err := c.enc.EncodeSymbol(ctx.gpsMulti, point14GPSMulti-2); err != nil {
			return err
		}
		return c.enc.WriteInt64(uint64(cur))
	}

	multi := quantize32(float32(diff32) / float32(ctx.lastGPSTimeDiff))
	switch {
	case multi == 1:
		if err := c.enc.EncodeSymbol(ctx.gpsMulti, 1); err != nil {
			return err
		}
		if err := c.icGPSTime.Compress(c.enc, ctx.lastGPSTimeDiff, diff32, 1); err != nil {
			return err
		}
		ctx.multiExtreme = 0
	case multi <= 0:
		if err := c.enc.EncodeSymbol(ctx.gpsMulti, 0); err != nil {
			return err
		}
		if err := c.icGPSTime.Compress(c.enc, ctx.lastGPSTimeDiff/4, diff32, 2); err != nil {
			return err
		}
		ctx.multiExtreme++
		if ctx.multiExtreme > 3 {
			ctx.lastGPSTimeDiff = diff32
			ctx.multiExtreme = 0
		}
	case multi < 10:
		if err := c.enc.EncodeSymbol(ctx.gpsMulti, uint32(multi)); err != nil {
			return err
		}
		if err := c.icGPSTime.Compress(c.enc, multi*ctx.lastGPSTimeDiff, diff32, 3); err != nil {
			return err
		}
	case multi < 50:
		if err := c.enc.EncodeSymbol(ctx.gpsMulti, uint32(multi)); err != nil {
			return err
		}
		if err := c.icGPSTime.Compress(c.enc, multi*ctx.lastGPSTimeDiff, diff32, 4); err != nil {
			return err
		}
	default:
		capped := int32(point14GPSMulti - 3)
		if err := c.enc.EncodeSymbol(ctx.gpsMulti, uint32(capped)); err != nil {
			return err
		}
		if err := c.icGPSTime.Compress(c.enc, capped*ctx.lastGPSTimeDiff, diff32, 5); err != nil {
			return err
		}
		ctx.multiExtreme++
		if ctx.multiExtreme > 3 {
			ctx.lastGPSTimeDiff = diff32
			ctx.multiExtreme = 0
		}
	}
	return nil
}

// WriteLayerSizes implements LayeredFieldCompressor.
func (c *Point14Compressor) WriteLayerSizes(dst io.Writer) error {
	if err := c.enc.Done(); err != nil {
		return err
	}
	return writeUint32(dst, uint32(c.buf.Len()))
}

// WriteLayers implements LayeredFieldCompressor.
func (c *Point14Compressor) WriteLayers(dst io.Writer) error {
	_, err := dst.Write(c.buf.Bytes())
	return err
}

// Point14Decompressor is the read-side counterpart of Point14Compressor.
type Point14Decompressor struct {
	layerSize uint32
	dec       *rangecoder.Decoder

	contexts        [4]*point14Context
	lastContextUsed int

	idDX         *integer.Decompressor
	idDY         *integer.Decompressor
	idZ          *integer.Decompressor
	idIntensity  *integer.Decompressor
	idScanAngle  *integer.Decompressor
	idPointSource *integer.Decompressor
	idGPSTime    *integer.Decompressor
}

// NewPoint14Decompressor builds a v3 Point14 decompressor.
func NewPoint14Decompressor() (*Point14Decompressor, error) {
	d := &Point14Decompressor{
		idDX:            integer.NewDecompressor(32, 2),
		idDY:            integer.NewDecompressor(32, 22),
		idZ:             integer.NewDecompressor(32, 20),
		idIntensity:     integer.NewDecompressor(16, 4),
		idScanAngle:     integer.NewDecompressor(16, 2),
		idPointSource:   integer.NewDecompressor(16, 1),
		idGPSTime:       integer.NewDecompressor(32, 6),
	}
	for _, ic := range []*integer.Decompressor{d.idDX, d.idDY, d.idZ, d.idIntensity, d.idScanAngle, d.idPointSource, d.idGPSTime} {
		if err := ic.Init(); err != nil {
			return nil, err
		}
	}
	for i := range d.contexts {
		ctx, err := newPoint14Context(true)
		if err != nil {
			return nil, err
		}
		d.contexts[i] = ctx
	}
	return d, nil
}

// SizeOfField implements LayeredFieldDecompressor.
func (d *Point14Decompressor) SizeOfField() int { return laz.Point14Size }

// NumLayers implements LayeredFieldDecompressor.
func (d *Point14Decompressor) NumLayers() int { return 1 }

// InitFirstPoint implements LayeredFieldDecompressor.
func (d *Point14Decompressor) InitFirstPoint(src io.Reader, firstPoint []byte, context int) error {
	for _, ctx := range d.contexts {
		ctx.unused = true
	}
	if _, err := io.ReadFull(src, firstPoint); err != nil {
		return err
	}

	engine := endian.GetLittleEndianEngine()
	theCtx := d.contexts[context]
	theCtx.lastPoint.Unpack(firstPoint, engine)
	d.lastContextUsed = context
	theCtx.unused = false
	return nil
}

// ReadLayerSizes implements LayeredFieldDecompressor.
func (d *Point14Decompressor) ReadLayerSizes(src io.Reader) error {
	v, err := readUint32(src)
	if err != nil {
		return err
	}
	d.layerSize = v
	return nil
}

// ReadLayers implements LayeredFieldDecompressor.
func (d *Point14Decompressor) ReadLayers(src io.Reader) error {
	buf := make([]byte, d.layerSize)
	if _, err := io.ReadFull(src, buf); err != nil {
		return err
	}
	d.dec = rangecoder.NewDecoder(bytes.NewReader(buf))
	if len(buf) > 0 {
		return d.dec.ReadInitBytes()
	}
	return nil
}

func (d *Point14Decompressor) switchContext(context int) {
	if d.lastContextUsed == context || !d.contexts[context].unused {
		return
	}
	d.contexts[context].copyPredictionStateFrom(d.contexts[d.lastContextUsed])
	d.contexts[context].unused = false
}

// DecompressFieldWith implements LayeredFieldDecompressor.
func (d *Point14Decompressor) DecompressFieldWith(buf []byte, context int) error {
	d.switchContext(context)
	theCtx := d.contexts[context]
	cur := theCtx.lastPoint

	symU32, err := d.dec.DecodeSymbol(theCtx.changedValues)
	if err != nil {
		return err
	}
	sym := symU32

	if sym&(1<<6) != 0 {
		model, err := lazyModel(&theCtx.bitByte, cur.BitFields(), true)
		if err != nil {
			return err
		}
		v, err := d.dec.DecodeSymbol(model)
		if err != nil {
			return err
		}
		cur.SetBitFields(uint8(v))
	}
	if sym&(1<<5) != 0 {
		m := returnContext(cur.NumberOfReturns, cur.ReturnNumber)
		ctx := uint32(m)
		if ctx > 3 {
			ctx = 3
		}
		v, err := d.idIntensity.Decompress(d.dec, int32(cur.Intensity), ctx)
		if err != nil {
			return err
		}
		cur.Intensity = uint16(v)
	}
	if sym&(1<<4) != 0 {
		model, err := lazyModel(&theCtx.flags, cur.Flags(), true)
		if err != nil {
			return err
		}
		v, err := d.dec.DecodeSymbol(model)
		if err != nil {
			return err
		}
		cur.SetFlags(uint8(v))
	}
	if sym&(1<<3) != 0 {
		model, err := lazyModel(&theCtx.classif, cur.Classification, true)
		if err != nil {
			return err
		}
		v, err := d.dec.DecodeSymbol(model)
		if err != nil {
			return err
		}
		cur.Classification = uint8(v)
	}
	if sym&(1<<2) != 0 {
		v, err := d.idScanAngle.Decompress(d.dec, int32(cur.ScanAngleRank), 0)
		if err != nil {
			return err
		}
		cur.ScanAngleRank = uint16(v)
	}
	if sym&(1<<1) != 0 {
		model, err := lazyModel(&theCtx.userData, cur.UserData, true)
		if err != nil {
			return err
		}
		v, err := d.dec.DecodeSymbol(model)
		if err != nil {
			return err
		}
		cur.UserData = uint8(v)
	}
	if sym&1 != 0 {
		v, err := d.idPointSource.Decompress(d.dec, int32(cur.PointSourceID), 0)
		if err != nil {
			return err
		}
		cur.PointSourceID = uint16(v)
	}

	n := cur.NumberOfReturns
	l := returnLevel(cur.NumberOfReturns, cur.ReturnNumber)

	xCtx := uint32(0)
	if n == 1 {
		xCtx = 1
	}
	medianX := theCtx.xDiffMedian.get()
	xDiff, err := d.idDX.Decompress(d.dec, medianX, xCtx)
	if err != nil {
		return err
	}
	cur.X += xDiff
	theCtx.xDiffMedian.add(xDiff)

	kBits := d.idDX.K()
	yCtx := xCtx
	if kBits < 20 {
		yCtx += u32ZeroBit(kBits)
	} else {
		yCtx += 20
	}
	medianY := theCtx.yDiffMedian.get()
	yDiff, err := d.idDY.Decompress(d.dec, medianY, yCtx)
	if err != nil {
		return err
	}
	cur.Y += yDiff
	theCtx.yDiffMedian.add(yDiff)

	kBits = (d.idDX.K() + d.idDY.K()) / 2
	zCtx := xCtx
	if kBits < 18 {
		zCtx += u32ZeroBit(kBits)
	} else {
		zCtx += 18
	}
	z, err := d.idZ.Decompress(d.dec, theCtx.lastZ[l], zCtx)
	if err != nil {
		return err
	}
	cur.Z = z
	theCtx.lastZ[l] = z

	gps, err := d.decompressGPSTime(theCtx, theCtx.lastPoint.GPSTime)
	if err != nil {
		return err
	}
	cur.GPSTime = gps

	theCtx.lastPoint = cur
	engine := endian.GetLittleEndianEngine()
	cur.Pack(buf, engine)
	return nil
}

func (d *Point14Decompressor) decompressGPSTime(ctx *point14Context, lastT float64) (float64, error) {
	last := float64BitsAsInt64(lastT)

	if ctx.lastGPSTimeDiff == 0 {
		sym, err := d.dec.DecodeSymbol(ctx.gpsZeroDiff)
		if err != nil {
			return 0, err
		}
		switch sym {
		case 1:
			diff, err := d.idGPSTime.Decompress(d.dec, 0, 0)
			if err != nil {
				return 0, err
			}
			ctx.lastGPSTimeDiff = diff
			return int64AsFloat64Bits(last + int64(diff)), nil
		case 2:
			raw, err := d.dec.ReadInt64()
			if err != nil {
				return 0, err
			}
			return int64AsFloat64Bits(int64(raw)), nil
		default:
			return int64AsFloat64Bits(last), nil
		}
	}

	sym, err := d.dec.DecodeSymbol(ctx.gpsMulti)
	if err != nil {
		return 0, err
	}
	multi := int32(sym)

	switch {
	case multi == point14GPSMulti-1:
		return int64AsFloat64Bits(last), nil
	case multi == point14GPSMulti-2:
		raw, err := d.dec.ReadInt64()
		if err != nil {
			return 0, err
		}
		return int64AsFloat64Bits(int64(raw)), nil
	case multi == 1:
		diff, err := d.idGPSTime.Decompress(d.dec, ctx.lastGPSTimeDiff, 1)
		if err != nil {
			return 0, err
		}
		ctx.multiExtreme = 0
		return int64AsFloat64Bits(last + int64(diff)), nil
	case multi == 0:
		diff, err := d.idGPSTime.Decompress(d.dec, ctx.lastGPSTimeDiff/4, 2)
		if err != nil {
			return 0, err
		}
		ctx.multiExtreme++
		if ctx.multiExtreme > 3 {
			ctx.lastGPSTimeDiff = diff
			ctx.multiExtreme = 0
		}
		return int64AsFloat64Bits(last + int64(diff)), nil
	case multi < 10:
		diff, err := d.idGPSTime.Decompress(d.dec, multi*ctx.lastGPSTimeDiff, 3)
		if err != nil {
			return 0, err
		}
		return int64AsFloat64Bits(last + int64(diff)), nil
	case multi < point14GPSMulti-3:
		diff, err := d.idGPSTime.Decompress(d.dec, multi*ctx.lastGPSTimeDiff, 4)
		if err != nil {
			return 0, err
		}
		return int64AsFloat64Bits(last + int64(diff)), nil
	default:
		diff, err := d.idGPSTime.Decompress(d.dec, multi*ctx.lastGPSTimeDiff, 5)
		if err != nil {
			return 0, err
		}
		ctx.multiExtreme++
		if ctx.multiExtreme > 3 {
			ctx.lastGPSTimeDiff = diff
			ctx.multiExtreme = 0
		}
		return int64AsFloat64Bits(last + int64(diff)), nil
	}
}
