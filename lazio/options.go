package lazio

import (
	"fmt"

	"github.com/arloliu/golaz/compress"
	"github.com/arloliu/golaz/internal/options"
	"github.com/arloliu/golaz/laz"
)

// Config holds the knobs shared by LasZipCompressor, LasZipDecompressor, and
// their parallel.Compressor/parallel.Decompressor counterparts: chunk size
// (or the variable-size sentinel), a compressor type override for streams
// built from raw LazItems, how many goroutines a parallel engine may run at
// once, an outer transport compression algorithm, a decompression field
// selection mask, and a per-chunk integrity-check toggle.
type Config struct {
	chunkSize         uint32
	hasChunkSize      bool
	compressorType    laz.CompressorType
	hasCompressorType bool
	workerCount       int
	transport         compress.CompressionType
	selection         laz.DecompressionSelection
	integrityCheck    bool
}

// NewConfig builds a Config from opts. ChunkSize/CompressorType are unset
// (the ok results of ChunkSize and CompressorType are false) unless WithChunkSize,
// WithVariableSizedChunks, or WithCompressorType was passed, so callers that
// already built a LazVlr with its own chunk size or compressor type keep it
// by default.
func NewConfig(opts ...CompressorOption) (*Config, error) {
	cfg := &Config{
		transport: compress.CompressionNone,
		selection: laz.SelectionAll(),
	}
	if err := options.Apply[*Config](cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ChunkSize returns the configured chunk size in points, or
// laz.VariableChunkSize, and whether one was explicitly set via
// WithChunkSize or WithVariableSizedChunks.
func (c *Config) ChunkSize() (uint32, bool) { return c.chunkSize, c.hasChunkSize }

// CompressorType returns a caller-requested compressor type override and
// whether one was set.
func (c *Config) CompressorType() (laz.CompressorType, bool) {
	return c.compressorType, c.hasCompressorType
}

// WorkerCount returns the configured parallel worker limit. 0 means
// unbounded (parallel.Compressor/Decompressor run every ready chunk at
// once); LasZipCompressor/LasZipDecompressor ignore it, since they never
// fan out.
func (c *Config) WorkerCount() int { return c.workerCount }

// TransportCompression returns the outer transport compression algorithm to
// wrap a finished LAZ stream in, via CompressBufferTransport /
// DecompressBufferTransport.
func (c *Config) TransportCompression() compress.CompressionType { return c.transport }

// Selection returns the decompression field selection mask. It is recorded
// for callers to read back (e.g. to decide which fields of a decompressed
// point record are meaningful); no field codec currently skips decoding
// based on it.
func (c *Config) Selection() laz.DecompressionSelection { return c.selection }

// IntegrityCheck reports whether per-chunk xxHash64 checksums should be
// computed as chunks are compressed or decompressed.
func (c *Config) IntegrityCheck() bool { return c.integrityCheck }

// CompressorOption configures a Config for compression.
type CompressorOption = options.Option[*Config]

// DecompressorOption configures a Config for decompression.
type DecompressorOption = options.Option[*Config]

// WithChunkSize sets a fixed number of points per chunk, overriding
// whatever chunk size a LazVlr otherwise carries.
func WithChunkSize(size uint32) CompressorOption {
	return options.New(func(c *Config) error {
		if size == 0 {
			return fmt.Errorf("chunk size must be non-zero")
		}
		c.chunkSize = size
		c.hasChunkSize = true
		return nil
	})
}

// WithVariableSizedChunks switches to caller-delimited chunks (FinishChunk),
// instead of a fixed point count per chunk.
func WithVariableSizedChunks() CompressorOption {
	return options.NoError(func(c *Config) {
		c.chunkSize = laz.VariableChunkSize
		c.hasChunkSize = true
	})
}

// WithCompressorType overrides the compressor type picked automatically
// from a LazItem list's version (NewLasZipCompressorFromItems).
func WithCompressorType(t laz.CompressorType) CompressorOption {
	return options.NoError(func(c *Config) {
		c.compressorType = t
		c.hasCompressorType = true
	})
}

// WithWorkerCount bounds how many chunks a parallel.Compressor or
// parallel.Decompressor may process at once. n <= 0 means unbounded.
func WithWorkerCount(n int) CompressorOption {
	return options.NoError(func(c *Config) {
		c.workerCount = n
	})
}

// WithTransportCompression wraps a finished LAZ stream in an outer
// transport compression codec via CompressBufferTransport /
// DecompressBufferTransport. It has no effect on the bit-exact LazVlr/chunk
// wire format itself; it is a layer a caller opts into for storage or
// network efficiency of the whole stream.
func WithTransportCompression(t compress.CompressionType) CompressorOption {
	return options.NoError(func(c *Config) {
		c.transport = t
	})
}

// WithDecompressionSelection records which fields a caller actually needs.
// It does not change what gets decoded; no field codec currently supports
// skipping fields outside the selection.
func WithDecompressionSelection(mask laz.DecompressionSelection) DecompressorOption {
	return options.NoError(func(c *Config) {
		c.selection = mask
	})
}

// WithChunkIntegrityCheck enables computing an xxHash64 checksum of every
// chunk's compressed bytes as it is produced or consumed. The checksum
// never goes on the wire (the on-disk chunk table stays bit-exact); it is
// an in-process extension for callers that want to detect silent
// corruption, e.g. in a chunk handed off to a parallel worker.
func WithChunkIntegrityCheck(enabled bool) CompressorOption {
	return options.NoError(func(c *Config) {
		c.integrityCheck = enabled
	})
}
