//go:build cgo_zstd

package compress

import (
	"github.com/valyala/gozstd"
)

// ZstdCGOCompressor is a cgo-accelerated alternative to ZstdCompressor,
// built only when the cgo_zstd build tag is set.
type ZstdCGOCompressor struct{}

var _ Codec = (*ZstdCGOCompressor)(nil)

// NewZstdCGOCodec creates a cgo-accelerated zstd codec.
func NewZstdCGOCodec() ZstdCGOCompressor {
	return ZstdCGOCompressor{}
}

// Compress compresses the input data using Zstandard compression.
func (c ZstdCGOCompressor) Compress(data []byte) ([]byte, error) {
	return gozstd.CompressLevel(nil, data, 3), nil
}

// Decompress decompresses Zstd-compressed data.
func (c ZstdCGOCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.Decompress(nil, data)
}
