package v3

import (
	"bytes"
	"io"

	"github.com/arloliu/golaz/endian"
	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/rangecoder"
)

type nir14Context struct {
	lastNIR laz.NIR
	unused  bool

	bytesUsed *rangecoder.Model
	diff0     *rangecoder.Model
	diff1     *rangecoder.Model
}

func newNIR14Context(decoding bool) (*nir14Context, error) {
	c := &nir14Context{unused: true}
	bytesUsed, err := rangecoder.NewModel(4, decoding, nil)
	if err != nil {
		return nil, err
	}
	diff0, err := rangecoder.NewModel(256, decoding, nil)
	if err != nil {
		return nil, err
	}
	diff1, err := rangecoder.NewModel(256, decoding, nil)
	if err != nil {
		return nil, err
	}
	c.bytesUsed, c.diff0, c.diff1 = bytesUsed, diff0, diff1
	return c, nil
}

// NIR14Compressor is the layered near-infrared codec used alongside RGB on
// point formats 8 and 10: a 2-bit "which byte changed" symbol followed by
// up to two per-byte deltas, run over a single in-memory buffered
// rangecoder stream per chunk with independent prediction state per
// scanner-channel context.
type NIR14Compressor struct {
	buf *bytes.Buffer
	enc *rangecoder.Encoder

	contexts        [4]*nir14Context
	lastContextUsed int
}

// NewNIR14Compressor builds a v3 NIR compressor.
func NewNIR14Compressor() (*NIR14Compressor, error) {
	buf := &bytes.Buffer{}
	c := &NIR14Compressor{buf: buf, enc: rangecoder.NewEncoder(buf)}
	for i := range c.contexts {
		ctx, err := newNIR14Context(false)
		if err != nil {
			return nil, err
		}
		c.contexts[i] = ctx
	}
	return c, nil
}

// SizeOfField implements LayeredFieldCompressor.
func (c *NIR14Compressor) SizeOfField() int { return laz.NIRSize }

// NumLayers implements LayeredFieldCompressor.
func (c *NIR14Compressor) NumLayers() int { return 1 }

// InitFirstPoint implements LayeredFieldCompressor.
func (c *NIR14Compressor) InitFirstPoint(dst io.Writer, firstPoint []byte, context int) error {
	for _, ctx := range c.contexts {
		ctx.unused = true
	}
	if _, err := dst.Write(firstPoint); err != nil {
		return err
	}

	engine := endian.GetLittleEndianEngine()
	theCtx := c.contexts[context]
	theCtx.lastNIR = laz.UnpackNIR(firstPoint, engine)
	c.lastContextUsed = context
	theCtx.unused = false
	return nil
}

func (c *NIR14Compressor) switchContext(context int) {
	if c.lastContextUsed == context || !c.contexts[context].unused {
		return
	}
	c.contexts[context].lastNIR = c.contexts[c.lastContextUsed].lastNIR
	c.contexts[context].unused = false
}

// CompressFieldWith implements LayeredFieldCompressor.
func (c *NIR14Compressor) CompressFieldWith(buf []byte, context int) error {
	c.switchContext(context)
	theCtx := c.contexts[context]

	engine := endian.GetLittleEndianEngine()
	cur := laz.UnpackNIR(buf, engine)
	last := theCtx.lastNIR

	var sym uint32
	loChanged := byte(cur) != byte(last)
	hiChanged := byte(cur>>8) != byte(last>>8)
	if loChanged {
		sym |= 1 << 0
	}
	if hiChanged {
		sym |= 1 << 1
	}

	if err := c.enc.EncodeSymbol(theCtx.bytesUsed, sym); err != nil {
		return err
	}
	if loChanged {
		diff := byte(cur) - byte(last)
		if err := c.enc.EncodeSymbol(theCtx.diff0, uint32(diff)); err != nil {
			return err
		}
	}
	if hiChanged {
		diff := byte(cur>>8) - byte(last>>8)
		if err := c.enc.EncodeSymbol(theCtx.diff1, uint32(diff)); err != nil {
			return err
		}
	}

	theCtx.lastNIR = cur
	return nil
}

// WriteLayerSizes implements LayeredFieldCompressor.
func (c *NIR14Compressor) WriteLayerSizes(dst io.Writer) error {
	if err := c.enc.Done(); err != nil {
		return err
	}
	return writeUint32(dst, uint32(c.buf.Len()))
}

// WriteLayers implements LayeredFieldCompressor.
func (c *NIR14Compressor) WriteLayers(dst io.Writer) error {
	_, err := dst.Write(c.buf.Bytes())
	return err
}

// NIR14Decompressor is the read-side counterpart of NIR14Compressor.
type NIR14Decompressor struct {
	layerSize uint32
	dec       *rangecoder.Decoder

	contexts        [4]*nir14Context
	lastContextUsed int
}

// NewNIR14Decompressor builds a v3 NIR decompressor.
func NewNIR14Decompressor() (*NIR14Decompressor, error) {
	d := &NIR14Decompressor{}
	for i := range d.contexts {
		ctx, err := newNIR14Context(true)
		if err != nil {
			return nil, err
		}
		d.contexts[i] = ctx
	}
	return d, nil
}

// SizeOfField implements LayeredFieldDecompressor.
func (d *NIR14Decompressor) SizeOfField() int { return laz.NIRSize }

// NumLayers implements LayeredFieldDecompressor.
func (d *NIR14Decompressor) NumLayers() int { return 1 }

// InitFirstPoint implements LayeredFieldDecompressor.
func (d *NIR14Decompressor) InitFirstPoint(src io.Reader, firstPoint []byte, context int) error {
	for _, ctx := range d.contexts {
		ctx.unused = true
	}
	if _, err := io.ReadFull(src, firstPoint); err != nil {
		return err
	}

	engine := endian.GetLittleEndianEngine()
	theCtx := d.contexts[context]
	theCtx.lastNIR = laz.UnpackNIR(firstPoint, engine)
	d.lastContextUsed = context
	theCtx.unused = false
	return nil
}

// ReadLayerSizes implements LayeredFieldDecompressor.
func (d *NIR14Decompressor) ReadLayerSizes(src io.Reader) error {
	v, err := readUint32(src)
	if err != nil {
		return err
	}
	d.layerSize = v
	return nil
}

// ReadLayers implements LayeredFieldDecompressor.
func (d *NIR14Decompressor) ReadLayers(src io.Reader) error {
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

func (d *NIR14Decompressor) switchContext(context int) {
	if d.lastContextUsed == context || !d.contexts[context].unused {
		return
	}
	d.contexts[context].lastNIR = d.contexts[d.lastContextUsed].lastNIR
	d.contexts[context].unused = false
}

// DecompressFieldWith implements LayeredFieldDecompressor.
func (d *NIR14Decompressor) DecompressFieldWith(buf []byte, context int) error {
	d.switchContext(context)
	theCtx := d.contexts[context]
	last := theCtx.lastNIR

	sym, err := d.dec.DecodeSymbol(theCtx.bytesUsed)
	if err != nil {
		return err
	}

	lo := byte(last)
	hi := byte(last >> 8)
	if sym&(1<<0) != 0 {
		v, err := d.dec.DecodeSymbol(theCtx.diff0)
		if err != nil {
			return err
		}
		lo += byte(v)
	}
	if sym&(1<<1) != 0 {
		v, err := d.dec.DecodeSymbol(theCtx.diff1)
		if err != nil {
			return err
		}
		hi += byte(v)
	}

	cur := laz.NIR(uint16(hi)<<8 | uint16(lo))
	engine := endian.GetLittleEndianEngine()
	cur.Pack(buf, engine)
	theCtx.lastNIR = cur
	return nil
}
