package v2

import (
	v1 "github.com/arloliu/golaz/laz/v1"
)

// RGBCompressor is the v2 RGB codec. It is byte-for-byte the same state
// machine as v1's: color channels never gained a contextual variant, so
// version 2 just reuses version 1's compressor directly.
type RGBCompressor = v1.RGBCompressor

// NewRGBCompressor builds a v2 RGB compressor.
func NewRGBCompressor() (*RGBCompressor, error) { return v1.NewRGBCompressor() }

// RGBDecompressor is the v2 RGB codec's read side.
type RGBDecompressor = v1.RGBDecompressor

// NewRGBDecompressor builds a v2 RGB decompressor.
func NewRGBDecompressor() (*RGBDecompressor, error) { return v1.NewRGBDecompressor() }
