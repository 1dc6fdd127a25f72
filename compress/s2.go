package compress

import "github.com/klauspost/compress/s2"

// S2Compressor provides S2 transport compression for an already range-coded
// LAZ byte stream, trading compression ratio for speed compared to
// ZstdCompressor. Good fit for point cloud transfers on the hot path, where
// the cost of compressing/decompressing matters as much as wire size.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 compressor.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress compresses data using S2.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress decompresses S2-compressed data.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, data)
}
