package v3

import (
	"bytes"
	"io"

	"github.com/arloliu/golaz/endian"
	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/rangecoder"
)

func u8Clamp(n int32) uint8 {
	if n <= 0 {
		return 0
	}
	if n >= 255 {
		return 255
	}
	return uint8(n)
}

func loByte(v uint16) uint8 { return uint8(v & 0x00FF) }
func hiByte(v uint16) uint8 { return uint8(v >> 8) }

// colorDiffBits is the same 7-bit "which halves of R/G/B changed" symbol
// v1/v2 use, duplicated here so the layered codec below doesn't need to
// import v1's unexported helpers.
func colorDiffBits(last, cur laz.RGB) uint8 {
	flag := func(a, b uint16, mask uint16) uint8 {
		if a&mask != b&mask {
			return 1
		}
		return 0
	}
	sym := flag(last.Red, cur.Red, 0x00FF)<<0 |
		flag(last.Red, cur.Red, 0xFF00)<<1 |
		flag(last.Green, cur.Green, 0x00FF)<<2 |
		flag(last.Green, cur.Green, 0xFF00)<<3 |
		flag(last.Blue, cur.Blue, 0x00FF)<<4 |
		flag(last.Blue, cur.Blue, 0xFF00)<<5
	grayFlag := flag(cur.Red, cur.Green, 0x00FF) | flag(cur.Red, cur.Blue, 0x00FF) |
		flag(cur.Red, cur.Green, 0xFF00) | flag(cur.Red, cur.Blue, 0xFF00)
	return sym | grayFlag<<6
}

type rgb14Context struct {
	lastRGB laz.RGB
	unused  bool

	byteUsed *rangecoder.Model
	diff0    *rangecoder.Model
	diff1    *rangecoder.Model
	diff2    *rangecoder.Model
	diff3    *rangecoder.Model
	diff4    *rangecoder.Model
	diff5    *rangecoder.Model
}

func newRGB14Context(decoding bool) (*rgb14Context, error) {
	c := &rgb14Context{unused: true}
	models := []**rangecoder.Model{&c.byteUsed, &c.diff0, &c.diff1, &c.diff2, &c.diff3, &c.diff4, &c.diff5}
	sizes := []uint32{128, 256, 256, 256, 256, 256, 256}
	for i, slot := range models {
		m, err := rangecoder.NewModel(sizes[i], decoding, nil)
		if err != nil {
			return nil, err
		}
		*slot = m
	}
	return c, nil
}

// RGB14Compressor is the layered RGB codec used by point formats 7-10: the
// v1/v2 color-diff state machine runs over a single in-memory buffered
// rangecoder stream per chunk, with independent prediction state per
// scanner-channel context.
type RGB14Compressor struct {
	buf *bytes.Buffer
	enc *rangecoder.Encoder

	contexts        [4]*rgb14Context
	lastContextUsed int
}

// NewRGB14Compressor builds a v3 RGB compressor.
func NewRGB14Compressor() (*RGB14Compressor, error) {
	buf := &bytes.Buffer{}
	c := &RGB14Compressor{buf: buf, enc: rangecoder.NewEncoder(buf)}
	for i := range c.contexts {
		ctx, err := newRGB14Context(false)
		if err != nil {
			return nil, err
		}
		c.contexts[i] = ctx
	}
	return c, nil
}

// SizeOfField implements LayeredFieldCompressor.
func (c *RGB14Compressor) SizeOfField() int { return laz.RGBSize }

// NumLayers implements LayeredFieldCompressor.
func (c *RGB14Compressor) NumLayers() int { return 1 }

// InitFirstPoint implements LayeredFieldCompressor.
func (c *RGB14Compressor) InitFirstPoint(dst io.Writer, firstPoint []byte, context int) error {
	for _, ctx := range c.contexts {
		ctx.unused = true
	}
	if _, err := dst.Write(firstPoint); err != nil {
		return err
	}

	engine := endian.GetLittleEndianEngine()
	theCtx := c.contexts[context]
	theCtx.lastRGB.Unpack(firstPoint, engine)
	c.lastContextUsed = context
	theCtx.unused = false
	return nil
}

func (c *RGB14Compressor) switchContext(context int) {
	if c.lastContextUsed == context || !c.contexts[context].unused {
		return
	}
	c.contexts[context].lastRGB = c.contexts[c.lastContextUsed].lastRGB
	c.contexts[context].unused = false
}

// CompressFieldWith implements LayeredFieldCompressor.
func (c *RGB14Compressor) CompressFieldWith(buf []byte, context int) error {
	c.switchContext(context)
	theCtx := c.contexts[context]

	engine := endian.GetLittleEndianEngine()
	var cur laz.RGB
	cur.Unpack(buf, engine)
	last := theCtx.lastRGB

	sym := colorDiffBits(last, cur)
	if err := c.enc.EncodeSymbol(theCtx.byteUsed, uint32(sym)); err != nil {
		return err
	}

	var diffL, diffH int32

	if sym&(1<<0) != 0 {
		diffL = int32(loByte(cur.Red)) - int32(loByte(last.Red))
		if err := c.enc.EncodeSymbol(theCtx.diff0, uint32(uint8(diffL))); err != nil {
			return err
		}
	}
	if sym&(1<<1) != 0 {
		diffH = int32(hiByte(cur.Red)) - int32(hiByte(last.Red))
		if err := c.enc.EncodeSymbol(theCtx.diff1, uint32(uint8(diffH))); err != nil {
			return err
		}
	}
	if sym&(1<<6) != 0 {
		if sym&(1<<2) != 0 {
			corr := int32(loByte(cur.Green)) - int32(u8Clamp(diffL+int32(loByte(last.Green))))
			if err := c.enc.EncodeSymbol(theCtx.diff2, uint32(uint8(corr))); err != nil {
				return err
			}
		}
		if sym&(1<<4) != 0 {
			diffL = (diffL + int32(loByte(cur.Green)) - int32(loByte(last.Green))) / 2
			corr := int32(loByte(cur.Blue)) - int32(u8Clamp(diffL+int32(loByte(last.Blue))))
			if err := c.enc.EncodeSymbol(theCtx.diff4, uint32(uint8(corr))); err != nil {
				return err
			}
		}
		if sym&(1<<3) != 0 {
			corr := int32(hiByte(cur.Green)) - int32(u8Clamp(diffH+int32(hiByte(last.Green))))
			if err := c.enc.EncodeSymbol(theCtx.diff3, uint32(uint8(corr))); err != nil {
				return err
			}
		}
		if sym&(1<<5) != 0 {
			diffH = (diffH + int32(hiByte(cur.Green)) - int32(hiByte(last.Green))) / 2
			corr := int32(hiByte(cur.Blue)) - int32(u8Clamp(diffH+int32(hiByte(last.Blue))))
			if err := c.enc.EncodeSymbol(theCtx.diff5, uint32(uint8(corr))); err != nil {
				return err
			}
		}
	}

	theCtx.lastRGB = cur
	return nil
}

// WriteLayerSizes implements LayeredFieldCompressor.
func (c *RGB14Compressor) WriteLayerSizes(dst io.Writer) error {
	if err := c.enc.Done(); err != nil {
		return err
	}
	return writeUint32(dst, uint32(c.buf.Len()))
}

// WriteLayers implements LayeredFieldCompressor.
func (c *RGB14Compressor) WriteLayers(dst io.Writer) error {
	_, err := dst.Write(c.buf.Bytes())
	return err
}

// RGB14Decompressor is the read-side counterpart of RGB14Compressor.
type RGB14Decompressor struct {
	layerSize uint32
	dec       *rangecoder.Decoder

	contexts        [4]*rgb14Context
	lastContextUsed int
}

// NewRGB14Decompressor builds a v3 RGB decompressor.
func NewRGB14Decompressor() (*RGB14Decompressor, error) {
	d := &RGB14Decompressor{}
	for i := range d.contexts {
		ctx, err := newRGB14Context(true)
		if err != nil {
			return nil, err
		}
		d.contexts[i] = ctx
	}
	return d, nil
}

// SizeOfField implements LayeredFieldDecompressor.
func (d *RGB14Decompressor) SizeOfField() int { return laz.RGBSize }

// NumLayers implements LayeredFieldDecompressor.
func (d *RGB14Decompressor) NumLayers() int { return 1 }

// InitFirstPoint implements LayeredFieldDecompressor.
func (d *RGB14Decompressor) InitFirstPoint(src io.Reader, firstPoint []byte, context int) error {
	for _, ctx := range d.contexts {
		ctx.unused = true
	}
	if _, err := io.ReadFull(src, firstPoint); err != nil {
		return err
	}

	engine := endian.GetLittleEndianEngine()
	theCtx := d.contexts[context]
	theCtx.lastRGB.Unpack(firstPoint, engine)
	d.lastContextUsed = context
	theCtx.unused = false
	return nil
}

// ReadLayerSizes implements LayeredFieldDecompressor.
func (d *RGB14Decompressor) ReadLayerSizes(src io.Reader) error {
	v, err := readUint32(src)
	if err != nil {
		return err
	}
	d.layerSize = v
	return nil
}

// ReadLayers implements LayeredFieldDecompressor.
func (d *RGB14Decompressor) ReadLayers(src io.Reader) error {
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

func (d *RGB14Decompressor) switchContext(context int) {
	if d.lastContextUsed == context || !d.contexts[context].unused {
		return
	}
	d.contexts[context].lastRGB = d.contexts[d.lastContextUsed].lastRGB
	d.contexts[context].unused = false
}

// DecompressFieldWith implements LayeredFieldDecompressor.
func (d *RGB14Decompressor) DecompressFieldWith(buf []byte, context int) error {
	d.switchContext(context)
	theCtx := d.contexts[context]
	last := theCtx.lastRGB

	symU32, err := d.dec.DecodeSymbol(theCtx.byteUsed)
	if err != nil {
		return err
	}
	sym := uint8(symU32)

	var cur laz.RGB
	var diff int32

	if sym&(1<<0) != 0 {
		corrU32, err := d.dec.DecodeSymbol(theCtx.diff0)
		if err != nil {
			return err
		}
		cur.Red = uint16(uint8(corrU32) + loByte(last.Red))
	} else {
		cur.Red = last.Red & 0x00FF
	}

	if sym&(1<<1) != 0 {
		corrU32, err := d.dec.DecodeSymbol(theCtx.diff1)
		if err != nil {
			return err
		}
		cur.Red |= uint16(uint8(corrU32)+hiByte(last.Red)) << 8
	} else {
		cur.Red |= last.Red & 0xFF00
	}

	if sym&(1<<6) != 0 {
		diff = int32(cur.Red&0x00FF) - int32(last.Red&0x00FF)

		if sym&(1<<2) != 0 {
			corrU32, err := d.dec.DecodeSymbol(theCtx.diff2)
			if err != nil {
				return err
			}
			cur.Green = uint16(uint8(corrU32) + u8Clamp(diff+int32(last.Green&0x00FF)))
		} else {
			cur.Green = last.Green & 0x00FF
		}

		if sym&(1<<4) != 0 {
			corrU32, err := d.dec.DecodeSymbol(theCtx.diff4)
			if err != nil {
				return err
			}
			diff = (diff + int32(cur.Green&0x00FF) - int32(last.Green&0x00FF)) / 2
			cur.Blue = uint16(uint8(corrU32) + u8Clamp(diff+int32(last.Blue&0x00FF)))
		} else {
			cur.Blue = last.Blue & 0x00FF
		}

		diff = int32(cur.Red>>8) - int32(last.Red>>8)
		if sym&(1<<3) != 0 {
			corrU32, err := d.dec.DecodeSymbol(theCtx.diff3)
			if err != nil {
				return err
			}
			cur.Green |= uint16(uint8(corrU32)+u8Clamp(diff+int32(last.Green>>8))) << 8
		} else {
			cur.Green |= last.Green & 0xFF00
		}

		if sym&(1<<5) != 0 {
			corrU32, err := d.dec.DecodeSymbol(theCtx.diff5)
			if err != nil {
				return err
			}
			diff = (diff + int32(cur.Green>>8) - int32(last.Green>>8)) / 2
			cur.Blue |= uint16(uint8(corrU32)+u8Clamp(diff+int32(last.Blue>>8))) << 8
		} else {
			cur.Blue |= last.Blue & 0xFF00
		}
	} else {
		cur.Green = cur.Red
		cur.Blue = cur.Red
	}

	engine := endian.GetLittleEndianEngine()
	cur.Pack(buf, engine)
	theCtx.lastRGB = cur
	return nil
}
