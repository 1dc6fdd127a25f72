package v3

import (
	"bytes"
	"io"

	"github.com/arloliu/golaz/rangecoder"
)

type extraByteContext struct {
	lastBytes []byte
	models    []*rangecoder.Model
	unused    bool
}

func newExtraByteContext(count int, decoding bool) (*extraByteContext, error) {
	models := make([]*rangecoder.Model, count)
	for i := range models {
		m, err := rangecoder.NewModel(256, decoding, nil)
		if err != nil {
			return nil, err
		}
		models[i] = m
	}
	return &extraByteContext{lastBytes: make([]byte, count), models: models, unused: true}, nil
}

// ExtraByte14Compressor is the layered extra-bytes codec used by point
// formats 6-10: every extra byte position gets its own independent
// rangecoder stream, buffered in memory for the whole chunk, and
// prediction state is kept per scanner-channel context so interleaved
// channels don't corrupt each other's running "last value".
type ExtraByte14Compressor struct {
	count int

	bufs     []*bytes.Buffer
	encoders []*rangecoder.Encoder

	contexts        [4]*extraByteContext
	lastContextUsed int
}

// NewExtraByte14Compressor builds a layered compressor for count extra
// bytes per point.
func NewExtraByte14Compressor(count int) (*ExtraByte14Compressor, error) {
	c := &ExtraByte14Compressor{count: count}
	for i := 0; i < count; i++ {
		buf := &bytes.Buffer{}
		c.bufs = append(c.bufs, buf)
		c.encoders = append(c.encoders, rangecoder.NewEncoder(buf))
	}
	for i := range c.contexts {
		ctx, err := newExtraByteContext(count, false)
		if err != nil {
			return nil, err
		}
		c.contexts[i] = ctx
	}
	return c, nil
}

// SizeOfField implements LayeredFieldCompressor.
func (c *ExtraByte14Compressor) SizeOfField() int { return c.count }

// NumLayers implements LayeredFieldCompressor.
func (c *ExtraByte14Compressor) NumLayers() int { return c.count }

// InitFirstPoint implements LayeredFieldCompressor.
func (c *ExtraByte14Compressor) InitFirstPoint(dst io.Writer, firstPoint []byte, context int) error {
	for _, ctx := range c.contexts {
		ctx.unused = true
	}

	if _, err := dst.Write(firstPoint); err != nil {
		return err
	}

	theCtx := c.contexts[context]
	copy(theCtx.lastBytes, firstPoint)
	c.lastContextUsed = context
	theCtx.unused = false
	return nil
}

// CompressFieldWith implements LayeredFieldCompressor.
func (c *ExtraByte14Compressor) CompressFieldWith(currentPoint []byte, context int) error {
	if err := c.switchContext(context); err != nil {
		return err
	}

	theCtx := c.contexts[context]
	for i := 0; i < c.count; i++ {
		diff := currentPoint[i] - theCtx.lastBytes[i]
		if err := c.encoders[i].EncodeSymbol(theCtx.models[i], uint32(diff)); err != nil {
			return err
		}
		if diff != 0 {
			theCtx.lastBytes[i] = currentPoint[i]
		}
	}

	c.lastContextUsed = context
	return nil
}

func (c *ExtraByte14Compressor) switchContext(context int) error {
	if c.lastContextUsed == context || !c.contexts[context].unused {
		return nil
	}
	newCtx, err := newExtraByteContext(c.count, false)
	if err != nil {
		return err
	}
	copy(newCtx.lastBytes, c.contexts[c.lastContextUsed].lastBytes)
	newCtx.unused = false
	c.contexts[context] = newCtx
	return nil
}

// WriteLayerSizes implements LayeredFieldCompressor.
func (c *ExtraByte14Compressor) WriteLayerSizes(dst io.Writer) error {
	for i, enc := range c.encoders {
		if err := enc.Done(); err != nil {
			return err
		}
		if err := writeUint32(dst, uint32(c.bufs[i].Len())); err != nil {
			return err
		}
	}
	return nil
}

// WriteLayers implements LayeredFieldCompressor.
func (c *ExtraByte14Compressor) WriteLayers(dst io.Writer) error {
	for _, buf := range c.bufs {
		if _, err := dst.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// ExtraByte14Decompressor is the read-side counterpart of
// ExtraByte14Compressor.
type ExtraByte14Decompressor struct {
	count int

	layerSizes []uint32
	decoders   []*rangecoder.Decoder

	contexts        [4]*extraByteContext
	lastContextUsed int
}

// NewExtraByte14Decompressor builds a layered decompressor for count extra
// bytes per point.
func NewExtraByte14Decompressor(count int) (*ExtraByte14Decompressor, error) {
	d := &ExtraByte14Decompressor{count: count, layerSizes: make([]uint32, count)}
	for i := range d.contexts {
		ctx, err := newExtraByteContext(count, true)
		if err != nil {
			return nil, err
		}
		d.contexts[i] = ctx
	}
	return d, nil
}

// SizeOfField implements LayeredFieldDecompressor.
func (d *ExtraByte14Decompressor) SizeOfField() int { return d.count }

// NumLayers implements LayeredFieldDecompressor.
func (d *ExtraByte14Decompressor) NumLayers() int { return d.count }

// InitFirstPoint implements LayeredFieldDecompressor.
func (d *ExtraByte14Decompressor) InitFirstPoint(src io.Reader, firstPoint []byte, context int) error {
	for _, ctx := range d.contexts {
		ctx.unused = true
	}

	if _, err := io.ReadFull(src, firstPoint); err != nil {
		return err
	}

	theCtx := d.contexts[context]
	copy(theCtx.lastBytes, firstPoint)
	d.lastContextUsed = context
	theCtx.unused = false
	return nil
}

// ReadLayerSizes implements LayeredFieldDecompressor.
func (d *ExtraByte14Decompressor) ReadLayerSizes(src io.Reader) error {
	for i := range d.layerSizes {
		v, err := readUint32(src)
		if err != nil {
			return err
		}
		d.layerSizes[i] = v
	}
	return nil
}

// ReadLayers implements LayeredFieldDecompressor.
func (d *ExtraByte14Decompressor) ReadLayers(src io.Reader) error {
	d.decoders = make([]*rangecoder.Decoder, d.count)
	for i := 0; i < d.count; i++ {
		buf := make([]byte, d.layerSizes[i])
		if _, err := io.ReadFull(src, buf); err != nil {
			return err
		}
		dec := rangecoder.NewDecoder(bytes.NewReader(buf))
		if len(buf) > 0 {
			if err := dec.ReadInitBytes(); err != nil {
				return err
			}
		}
		d.decoders[i] = dec
	}
	return nil
}

// DecompressFieldWith implements LayeredFieldDecompressor.
func (d *ExtraByte14Decompressor) DecompressFieldWith(currentPoint []byte, context int) error {
	if d.lastContextUsed != context && d.contexts[context].unused {
		newCtx, err := newExtraByteContext(d.count, true)
		if err != nil {
			return err
		}
		copy(newCtx.lastBytes, d.contexts[d.lastContextUsed].lastBytes)
		newCtx.unused = false
		d.contexts[context] = newCtx
	}

	theCtx := d.contexts[context]
	for i := 0; i < d.count; i++ {
		if d.layerSizes[i] == 0 {
			continue
		}
		sym, err := d.decoders[i].DecodeSymbol(theCtx.models[i])
		if err != nil {
			return err
		}
		theCtx.lastBytes[i] += byte(sym)
	}
	copy(currentPoint, theCtx.lastBytes)
	d.lastContextUsed = context
	return nil
}
