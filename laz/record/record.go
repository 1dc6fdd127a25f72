// Package record composes per-field codecs into whole-point-record
// compressors and decompressors, mirroring how a LazVlr's item list
// describes which field codecs run over which byte ranges of a point.
package record

import (
	"fmt"

	"github.com/arloliu/golaz/internal/errs"
	"github.com/arloliu/golaz/rangecoder"
)

// FieldCompressor compresses one field of a point record, writing its
// encoded symbols to the shared encoder. SizeOfField reports how many raw
// bytes of the uncompressed record buffer it consumes.
type FieldCompressor interface {
	SizeOfField() int
	CompressWith(enc *rangecoder.Encoder, buf []byte) error
}

// FieldDecompressor is the read-side counterpart of FieldCompressor. It
// reconstructs buf, a slice of the raw output record, from symbols read off
// the shared decoder.
type FieldDecompressor interface {
	SizeOfField() int
	DecompressWith(dec *rangecoder.Decoder, buf []byte) error
}

// Compressor composes a list of FieldCompressors and drives them over
// successive byte ranges of a point record, sharing one range encoder.
type Compressor struct {
	fields  []FieldCompressor
	encoder *rangecoder.Encoder
}

// NewCompressor builds a Compressor around the given encoder. Fields must be
// added with AddField before Compress is called.
func NewCompressor(enc *rangecoder.Encoder) *Compressor {
	return &Compressor{encoder: enc}
}

// AddField appends a field codec to the end of the record layout.
func (c *Compressor) AddField(f FieldCompressor) {
	c.fields = append(c.fields, f)
}

// RecordSize returns the sum of every field's SizeOfField.
func (c *Compressor) RecordSize() int {
	n := 0
	for _, f := range c.fields {
		n += f.SizeOfField()
	}
	return n
}

// Compress encodes one point record. input must be at least RecordSize
// bytes; only the leading RecordSize bytes are consumed.
func (c *Compressor) Compress(input []byte) error {
	size := c.RecordSize()
	if len(input) < size {
		return fmt.Errorf("%w: need %d, have %d", errs.ErrBufferLenNotMultipleOfPointSize, size, len(input))
	}

	start := 0
	for _, f := range c.fields {
		end := start + f.SizeOfField()
		if err := f.CompressWith(c.encoder, input[start:end]); err != nil {
			return err
		}
		start = end
	}
	return nil
}

// Done flushes the underlying range encoder. Call once after the last
// Compress call for a chunk.
func (c *Compressor) Done() error {
	return c.encoder.Done()
}

// Decompressor is the read-side counterpart of Compressor.
type Decompressor struct {
	fields      []FieldDecompressor
	decoder     *rangecoder.Decoder
	firstRecord bool
}

// NewDecompressor builds a Decompressor around the given decoder.
func NewDecompressor(dec *rangecoder.Decoder) *Decompressor {
	return &Decompressor{decoder: dec, firstRecord: true}
}

// AddField appends a field codec to the end of the record layout. The
// order and count must match the Compressor that produced the stream.
func (d *Decompressor) AddField(f FieldDecompressor) {
	d.fields = append(d.fields, f)
}

// RecordSize returns the sum of every field's SizeOfField.
func (d *Decompressor) RecordSize() int {
	n := 0
	for _, f := range d.fields {
		n += f.SizeOfField()
	}
	return n
}

// Decompress fills out with one decoded point record. out must be at least
// RecordSize bytes.
//
// The underlying range decoder only reads its four init bytes once the
// first record's raw fields have been consumed from the stream, so this
// method triggers that read lazily after the first call instead of up
// front, matching the encoder writing those bytes lazily too.
func (d *Decompressor) Decompress(out []byte) error {
	size := d.RecordSize()
	if len(out) < size {
		return fmt.Errorf("%w: need %d, have %d", errs.ErrBufferLenNotMultipleOfPointSize, size, len(out))
	}

	start := 0
	for _, f := range d.fields {
		end := start + f.SizeOfField()
		if err := f.DecompressWith(d.decoder, out[start:end]); err != nil {
			return err
		}
		start = end
	}

	if d.firstRecord {
		d.firstRecord = false
		if err := d.decoder.ReadInitBytes(); err != nil {
			return err
		}
	}
	return nil
}

// Reset prepares the decompressor to start a new chunk, clearing the
// first-record flag so the next Decompress call treats its record as raw
// again.
func (d *Decompressor) Reset() {
	d.decoder.Reset()
	d.firstRecord = true
}
