package compress

// ZstdCompressor provides Zstandard transport compression for an already
// range-coded LAZ byte stream.
//
// This compressor is designed for scenarios where compression ratio is more
// important than compression speed, making it ideal for:
//   - Cold storage and archival of point cloud data
//   - Long-term retention of historical LAZ files
//   - Network transmission where bandwidth is limited
//   - Scenarios where decompression happens infrequently
//
// Because the underlying bytes are already entropy-coded, further gains are
// modest compared to compressing raw point data directly.
//
// Performance characteristics:
//   - Compression: ~5-20 ns/byte (depending on compression level)
//   - Decompression: ~2-5 ns/byte
//   - Compression ratio: typically small on already range-coded streams
//   - Memory usage: Moderate (encoders/decoders are pooled and reused)
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Returns:
//   - ZstdCompressor: New Zstd compressor instance
//
// Example:
//
//	compressor := NewZstdCompressor()
//	compressed, err := compressor.Compress(data)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
