package lazio

import (
	"io"

	"github.com/arloliu/golaz/internal/errs"
	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/laz/chunktable"
)

// OpenAppendCompressor resumes writing a chunked LAZ stream that already
// holds existingPointCount points, so a caller can add more without
// recompressing everything from scratch. dst must be positioned at the
// existing stream's chunk table offset field (the same position
// NewLasZipCompressor expects for a brand-new stream) and must support
// reading back what was already written.
//
// existingPointCount is required because, as with LASzip itself, a
// fixed-size chunk table records every chunk's point count as vlr.ChunkSize
// regardless of how many points it actually holds (see laz/chunktable's
// doc comment); the true count of the final, possibly-partial chunk can
// only come from the caller's own bookkeeping (typically the LAS header's
// point count field, which is out of this package's scope to parse).
//
// For variable-sized chunks every existing chunk is already sealed at
// whatever size FinishChunk left it, so appending never needs to touch
// prior bytes: new points simply start a fresh chunk after the last one.
// For fixed-size chunks, if the last existing chunk is under vlr.ChunkSize
// points, it is decompressed and replayed through the returned compressor
// before any new point the caller compresses, so it can grow to capacity
// (or close under capacity again at Done, same as any other chunk) instead
// of being left permanently short.
func OpenAppendCompressor(dst io.ReadWriteSeeker, vlr laz.LazVlr, existingPointCount uint64, opts ...CompressorOption) (*LasZipCompressor, error) {
	if len(vlr.Items) == 0 {
		return nil, errs.ErrNoLazItems
	}

	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	if size, ok := cfg.ChunkSize(); ok {
		vlr.ChunkSize = size
	}

	startPos, err := dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	existing, err := chunktable.ReadFrom(dst, vlr)
	if err != nil {
		return nil, err
	}

	pointDataStart, err := dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	c := &LasZipCompressor{
		dst:      dst,
		vlr:      vlr,
		cfg:      cfg,
		table:    chunktable.New(existing.Len()),
		startPos: startPos,
		reserved: true,
	}

	var totalBytes uint64
	for i := 0; i < existing.Len(); i++ {
		totalBytes += existing.At(i).ByteCount
	}

	lastIdx := existing.Len() - 1
	needsMerge := !vlr.UsesVariableSizedChunks() && lastIdx >= 0 &&
		existingPointCount < uint64(existing.Len())*uint64(vlr.ChunkSize)

	if !needsMerge {
		for i := 0; i < existing.Len(); i++ {
			c.table.Push(existing.At(i))
		}
		if _, err := dst.Seek(pointDataStart+int64(totalBytes), io.SeekStart); err != nil {
			return nil, err
		}
		return c, nil
	}

	lastEntry := existing.At(lastIdx)
	lastPointCount := existingPointCount - uint64(lastIdx)*uint64(vlr.ChunkSize)
	priorBytes := totalBytes - lastEntry.ByteCount

	chunkBytes := make([]byte, lastEntry.ByteCount)
	if _, err := dst.Seek(pointDataStart+int64(priorBytes), io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(dst, chunkBytes); err != nil {
		return nil, err
	}

	size := int(vlr.ItemsSize())
	decoded := make([]byte, lastPointCount*uint64(size))
	if err := DecompressChunkBuffer(vlr.Items, chunkBytes, lastPointCount, decoded); err != nil {
		return nil, err
	}

	for i := 0; i < lastIdx; i++ {
		c.table.Push(existing.At(i))
	}
	if _, err := dst.Seek(pointDataStart+int64(priorBytes), io.SeekStart); err != nil {
		return nil, err
	}

	if err := c.CompressMany(decoded); err != nil {
		return nil, err
	}
	return c, nil
}
