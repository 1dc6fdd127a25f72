package v2

import (
	v1 "github.com/arloliu/golaz/laz/v1"
)

// ExtraByteCompressor is the v2 extra-bytes codec. The per-byte delta
// scheme never gained a contextual variant either, so version 2 reuses
// version 1's compressor unchanged.
type ExtraByteCompressor = v1.ExtraByteCompressor

// NewExtraByteCompressor builds a v2 extra-bytes compressor for a record
// carrying count vendor-defined bytes.
func NewExtraByteCompressor(count int) (*ExtraByteCompressor, error) {
	return v1.NewExtraByteCompressor(count)
}

// ExtraByteDecompressor is the v2 extra-bytes codec's read side.
type ExtraByteDecompressor = v1.ExtraByteDecompressor

// NewExtraByteDecompressor builds a v2 extra-bytes decompressor for a
// record carrying count vendor-defined bytes.
func NewExtraByteDecompressor(count int) (*ExtraByteDecompressor, error) {
	return v1.NewExtraByteDecompressor(count)
}
