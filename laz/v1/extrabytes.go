// Package v1 implements the original, non-contextual LASzip field codecs:
// one rangecoder.Model (or IntegerCompressor) per field, no return-number or
// scanner-channel contexts, no layering. It is the baseline every later
// version specializes or extends.
package v1

import (
	"io"

	"github.com/arloliu/golaz/internal/errs"
	"github.com/arloliu/golaz/rangecoder"
)

// ExtraByteCompressor encodes a fixed-width blob of per-point "extra bytes"
// (vendor-specific attributes appended past a point's known fields) by
// byte-wise delta against the previous point, one adaptive model per byte
// position.
type ExtraByteCompressor struct {
	count     int
	haveLast  bool
	lastBytes []byte
	models    []*rangecoder.Model
}

// NewExtraByteCompressor builds a compressor for count extra bytes per point.
func NewExtraByteCompressor(count int) (*ExtraByteCompressor, error) {
	models := make([]*rangecoder.Model, count)
	for i := range models {
		m, err := rangecoder.NewModel(256, false, nil)
		if err != nil {
			return nil, err
		}
		models[i] = m
	}
	return &ExtraByteCompressor{
		count:     count,
		lastBytes: make([]byte, count),
		models:    models,
	}, nil
}

// SizeOfField implements record.FieldCompressor.
func (c *ExtraByteCompressor) SizeOfField() int { return c.count }

// CompressWith implements record.FieldCompressor.
func (c *ExtraByteCompressor) CompressWith(enc *rangecoder.Encoder, buf []byte) error {
	if len(buf) < c.count {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	if !c.haveLast {
		c.haveLast = true
		copy(c.lastBytes, buf[:c.count])
		_, err := enc.OutStream().Write(buf[:c.count])
		return err
	}

	for i := 0; i < c.count; i++ {
		diff := buf[i] - c.lastBytes[i]
		if err := enc.EncodeSymbol(c.models[i], uint32(diff)); err != nil {
			return err
		}
		c.lastBytes[i] = buf[i]
	}
	return nil
}

// ExtraByteDecompressor is the read-side counterpart of ExtraByteCompressor.
type ExtraByteDecompressor struct {
	count     int
	haveLast  bool
	lastBytes []byte
	models    []*rangecoder.Model
}

// NewExtraByteDecompressor builds a decompressor for count extra bytes per point.
func NewExtraByteDecompressor(count int) (*ExtraByteDecompressor, error) {
	models := make([]*rangecoder.Model, count)
	for i := range models {
		m, err := rangecoder.NewModel(256, true, nil)
		if err != nil {
			return nil, err
		}
		models[i] = m
	}
	return &ExtraByteDecompressor{
		count:     count,
		lastBytes: make([]byte, count),
		models:    models,
	}, nil
}

// SizeOfField implements record.FieldDecompressor.
func (d *ExtraByteDecompressor) SizeOfField() int { return d.count }

// DecompressWith implements record.FieldDecompressor.
func (d *ExtraByteDecompressor) DecompressWith(dec *rangecoder.Decoder, buf []byte) error {
	if len(buf) < d.count {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	if !d.haveLast {
		d.haveLast = true
		if _, err := io.ReadFull(dec.InStream(), buf[:d.count]); err != nil {
			return err
		}
		copy(d.lastBytes, buf[:d.count])
		return nil
	}

	for i := 0; i < d.count; i++ {
		sym, err := dec.DecodeSymbol(d.models[i])
		if err != nil {
			return err
		}
		d.lastBytes[i] = d.lastBytes[i] + byte(sym)
	}
	copy(buf[:d.count], d.lastBytes)
	return nil
}
