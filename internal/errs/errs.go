// Package errs defines the sentinel errors returned across the laz, lazio,
// rangecoder, integer and parallel packages.
//
// Callers should compare with errors.Is against these sentinels rather than
// matching on error strings. Most call sites wrap a sentinel with detail via
// fmt.Errorf("%w: ...", errs.ErrXxx, ...) to keep the sentinel matchable while
// still carrying context in the message.
package errs

import "errors"

// VLR and LAZ item errors.
var (
	// ErrUnknownLazItem is returned when a LazItem's type code does not match
	// any known item type.
	ErrUnknownLazItem = errors.New("unknown laz item type")

	// ErrUnsupportedLazItemVersion is returned when a LazItem's version is
	// not implemented for its item type.
	ErrUnsupportedLazItemVersion = errors.New("unsupported laz item version")

	// ErrUnsupportedPointFormat is returned when a point format id has no
	// default LazItem mapping.
	ErrUnsupportedPointFormat = errors.New("unsupported point format")

	// ErrUnknownCompressorType is returned when a LazVlr's compressor field
	// does not match any known CompressorType value.
	ErrUnknownCompressorType = errors.New("unknown compressor type")

	// ErrUnsupportedCompressorType is returned when a recognized
	// CompressorType has no decompressor implementation wired for it.
	ErrUnsupportedCompressorType = errors.New("unsupported compressor type")
)

// Chunking and framing errors.
var (
	// ErrMissingChunkTable is returned when random access (Seek) is requested
	// on a stream whose chunk table offset placeholder was never patched, or
	// whose chunk table could not be read.
	ErrMissingChunkTable = errors.New("missing chunk table")

	// ErrChunkIndexOutOfRange reports a point or chunk index beyond the
	// chunk table. Seek does not return it: seeking past the last point
	// succeeds, and the next DecompressOne fails with an I/O error instead.
	ErrChunkIndexOutOfRange = errors.New("chunk index out of range")

	// ErrChunkIntegrityCheckFailed reports a chunk whose checksum does not
	// match the bytes it was computed over. The lazio compressor and
	// decompressor only expose checksums (Checksums); comparing them is
	// left to the caller, and no function here returns this error.
	ErrChunkIntegrityCheckFailed = errors.New("chunk integrity check failed")
)

// Buffer and record shape errors.
var (
	// ErrBufferLenNotMultipleOfPointSize is returned when a caller-supplied
	// buffer of raw point records is not an exact multiple of the record's
	// packed size.
	ErrBufferLenNotMultipleOfPointSize = errors.New("buffer length is not a multiple of point size")

	// ErrNoLazItems is returned when a record codec is built from an empty
	// LazItem list.
	ErrNoLazItems = errors.New("no laz items")

	// ErrPointCountMismatch is returned when a batch decompression call is
	// asked to produce a different number of points than its source has.
	ErrPointCountMismatch = errors.New("point count mismatch")
)

// Range coder and model errors.
var (
	// ErrRangeCoderUnderflow is returned when the decoder's length drops
	// below AC_MIN_LENGTH outside of a renormalization step, indicating a
	// corrupted or truncated stream.
	ErrRangeCoderUnderflow = errors.New("range coder length underflow")

	// ErrInvalidModelSymbolCount is returned when an ArithmeticModel is
	// constructed with fewer than two symbols.
	ErrInvalidModelSymbolCount = errors.New("invalid model symbol count")

	// ErrTruncatedStream is returned when the decoder runs out of input
	// bytes before the expected number of points has been decoded.
	ErrTruncatedStream = errors.New("truncated range-coded stream")
)

// Parallel engine errors.
var (
	// ErrNoChunksToProcess is returned when the parallel engine is asked to
	// dispatch work over an empty chunk table.
	ErrNoChunksToProcess = errors.New("no chunks to process")
)
