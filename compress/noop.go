package compress

// NoOpCompressor bypasses transport compression entirely, for callers that
// already range-coded their LAZ stream and don't want a second compression
// pass on top: benchmarking the range coder's own ratio in isolation, or
// serving point data to a consumer that will re-compress it itself.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a new no-operation compressor.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns data unchanged. The returned slice aliases data; callers
// must not mutate data afterward if they still hold the result.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data unchanged. The returned slice aliases data; callers
// must not mutate data afterward if they still hold the result.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
