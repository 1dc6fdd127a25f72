// Package v3 implements LASzip's layered field codecs, used by the
// extended point formats (6-10): instead of one shared rangecoder stream
// per chunk, each field owns one or more independent streams ("layers"),
// buffered entirely in memory and flushed as a size-prefixed block after
// every point in the chunk has been compressed. The decompressors here
// read and decode every layer of every field; none is skipped.
//
// Fields are additionally indexed by a small "context" — LASzip calls it
// the scanner channel, 0-3 — so that multi-channel sensors (several
// simultaneous laser returns per pulse) get independent prediction state
// per channel instead of one shared running diff across all of them.
package v3

import (
	"encoding/binary"
	"io"

	"github.com/arloliu/golaz/internal/errs"
)

// LayeredFieldCompressor compresses one field of a layered point record.
// Unlike record.FieldCompressor, state is split into up to NumLayers()
// independent byte streams and keyed by a context selected per point.
type LayeredFieldCompressor interface {
	SizeOfField() int
	NumLayers() int

	// InitFirstPoint writes the field's raw bytes for the first point of
	// the chunk directly to dst and seeds context's prediction state.
	InitFirstPoint(dst io.Writer, firstPoint []byte, context int) error
	// CompressFieldWith compresses one later point's field value under
	// context, buffering output into the field's own in-memory streams.
	CompressFieldWith(currentPoint []byte, context int) error
	// WriteLayerSizes writes each layer's buffered byte length to dst.
	WriteLayerSizes(dst io.Writer) error
	// WriteLayers writes each layer's buffered bytes to dst, in the same
	// order as WriteLayerSizes.
	WriteLayers(dst io.Writer) error
}

// LayeredFieldDecompressor is the read-side counterpart of
// LayeredFieldCompressor.
type LayeredFieldDecompressor interface {
	SizeOfField() int
	NumLayers() int

	InitFirstPoint(src io.Reader, firstPoint []byte, context int) error
	DecompressFieldWith(currentPoint []byte, context int) error
	ReadLayerSizes(src io.Reader) error
	ReadLayers(src io.Reader) error
}

// LayeredRecordCompressor drives a set of LayeredFieldCompressors over one
// chunk: the first point of the chunk is written raw per field, every
// later point is compressed field by field under the caller-selected
// context, and Done() flushes every field's buffered layers as
// [all layer sizes][all layer bytes], in field order.
type LayeredRecordCompressor struct {
	fields     []LayeredFieldCompressor
	recordSize int
	count      uint32
}

// NewLayeredRecordCompressor returns an empty layered record compressor.
func NewLayeredRecordCompressor() *LayeredRecordCompressor {
	return &LayeredRecordCompressor{}
}

// AddField appends a field codec to the record.
func (c *LayeredRecordCompressor) AddField(f LayeredFieldCompressor) {
	c.recordSize += f.SizeOfField()
	c.fields = append(c.fields, f)
}

// RecordSize returns the sum of every field's on-wire size.
func (c *LayeredRecordCompressor) RecordSize() int { return c.recordSize }

// CompressFirst writes the chunk's first record raw, field by field, to dst.
func (c *LayeredRecordCompressor) CompressFirst(dst io.Writer, buf []byte, context int) error {
	if len(buf) < c.recordSize {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	start := 0
	for _, f := range c.fields {
		end := start + f.SizeOfField()
		if err := f.InitFirstPoint(dst, buf[start:end], context); err != nil {
			return err
		}
		start = end
	}
	c.count = 1
	return nil
}

// Compress compresses one later record under context.
func (c *LayeredRecordCompressor) Compress(buf []byte, context int) error {
	if len(buf) < c.recordSize {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	start := 0
	for _, f := range c.fields {
		end := start + f.SizeOfField()
		if err := f.CompressFieldWith(buf[start:end], context); err != nil {
			return err
		}
		start = end
	}
	c.count++
	return nil
}

// Done writes the chunk's point count, then flushes every field's layer
// sizes, then every field's layer bytes, to dst. Called once per chunk,
// after every record in it was compressed.
func (c *LayeredRecordCompressor) Done(dst io.Writer) error {
	if err := writeUint32(dst, c.count); err != nil {
		return err
	}
	for _, f := range c.fields {
		if err := f.WriteLayerSizes(dst); err != nil {
			return err
		}
	}
	for _, f := range c.fields {
		if err := f.WriteLayers(dst); err != nil {
			return err
		}
	}
	return nil
}

// LayeredRecordDecompressor is the read-side counterpart of
// LayeredRecordCompressor.
type LayeredRecordDecompressor struct {
	fields     []LayeredFieldDecompressor
	recordSize int
	count      uint32
}

// NewLayeredRecordDecompressor returns an empty layered record decompressor.
func NewLayeredRecordDecompressor() *LayeredRecordDecompressor {
	return &LayeredRecordDecompressor{}
}

// AddField appends a field codec to the record.
func (d *LayeredRecordDecompressor) AddField(f LayeredFieldDecompressor) {
	d.recordSize += f.SizeOfField()
	d.fields = append(d.fields, f)
}

// RecordSize returns the sum of every field's on-wire size.
func (d *LayeredRecordDecompressor) RecordSize() int { return d.recordSize }

// DecompressFirst reads the chunk's first record raw, field by field, from src.
func (d *LayeredRecordDecompressor) DecompressFirst(src io.Reader, buf []byte, context int) error {
	if len(buf) < d.recordSize {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	start := 0
	for _, f := range d.fields {
		end := start + f.SizeOfField()
		if err := f.InitFirstPoint(src, buf[start:end], context); err != nil {
			return err
		}
		start = end
	}
	return nil
}

// PrepareChunk reads the chunk's point count, then every field's layer
// sizes, then every field's layer bytes, from src, priming each field's
// internal decoders. Must be called once, after DecompressFirst, before
// the chunk's remaining records are decompressed.
func (d *LayeredRecordDecompressor) PrepareChunk(src io.Reader) error {
	count, err := readUint32(src)
	if err != nil {
		return err
	}
	d.count = count

	for _, f := range d.fields {
		if err := f.ReadLayerSizes(src); err != nil {
			return err
		}
	}
	for _, f := range d.fields {
		if err := f.ReadLayers(src); err != nil {
			return err
		}
	}
	return nil
}

// PointCount returns the chunk's true point count as revealed by the
// preamble PrepareChunk read. Zero until PrepareChunk has run.
func (d *LayeredRecordDecompressor) PointCount() uint32 { return d.count }

// Decompress decompresses one later record under context.
func (d *LayeredRecordDecompressor) Decompress(buf []byte, context int) error {
	if len(buf) < d.recordSize {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	start := 0
	for _, f := range d.fields {
		end := start + f.SizeOfField()
		if err := f.DecompressFieldWith(buf[start:end], context); err != nil {
			return err
		}
		start = end
	}
	return nil
}

func writeUint32(dst io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := dst.Write(b[:])
	return err
}

func readUint32(src io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(src, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}
