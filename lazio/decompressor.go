package lazio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/arloliu/golaz/internal/errs"
	"github.com/arloliu/golaz/internal/hash"
	"github.com/arloliu/golaz/internal/pool"
	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/laz/chunktable"
	"github.com/arloliu/golaz/laz/codec"
	"github.com/arloliu/golaz/laz/record"
	v3 "github.com/arloliu/golaz/laz/v3"
	"github.com/arloliu/golaz/rangecoder"
)

// chunkReader decompresses one chunk's worth of points, mirroring
// chunkWriter on the read side.
type chunkReader interface {
	decompressPoint(src io.Reader, buf []byte, isFirst bool) error
	// chunkPointCount reports the chunk's true point count, when the codec
	// family reveals one in-band, and whether that count is known yet.
	// Sequential chunks carry no such preamble; layered ones do, but only
	// after the second point's PrepareChunk call has read it.
	chunkPointCount() (uint64, bool)
}

type sequentialChunkReader struct {
	rd *record.Decompressor
}

func (r *sequentialChunkReader) decompressPoint(_ io.Reader, buf []byte, _ bool) error {
	return r.rd.Decompress(buf)
}

func (r *sequentialChunkReader) chunkPointCount() (uint64, bool) { return 0, false }

type layeredChunkReader struct {
	rd       *v3.LayeredRecordDecompressor
	context  int
	prepared bool
}

func (r *layeredChunkReader) decompressPoint(src io.Reader, buf []byte, isFirst bool) error {
	if isFirst {
		return r.rd.DecompressFirst(src, buf, r.context)
	}
	if !r.prepared {
		if err := r.rd.PrepareChunk(src); err != nil {
			return err
		}
		r.prepared = true
	}
	return r.rd.Decompress(buf, r.context)
}

func (r *layeredChunkReader) chunkPointCount() (uint64, bool) {
	if !r.prepared {
		return 0, false
	}
	return uint64(r.rd.PointCount()), true
}

// LasZipDecompressor decompresses point records out of a chunked LAZ
// stream, either sequentially (DecompressOne/DecompressMany) or by jumping
// straight to an arbitrary point index (Seek).
//
// Every chunk's field codecs (and their probability models) are rebuilt
// from scratch at the chunk boundary rather than carried forward, so any
// chunk can be decoded without having decoded the ones before it; this
// mirrors the compressor side resetting the same way at every chunk
// boundary, and is what makes Seek possible at all.
type LasZipDecompressor struct {
	src io.ReadSeeker
	vlr laz.LazVlr
	cfg *Config

	dataStart int64
	table     *chunktable.Table // nil only for non-chunked streams

	currentChunk     int
	chunkPointsRead  uint64
	numPointsInChunk uint64
	reader           chunkReader
	chunkSrc         io.Reader     // where reader reads the current chunk from: d.src, or a checksum-teeing wrapper
	chunkBuf         *pool.ByteBuffer

	checksums []uint64 // only populated when cfg.IntegrityCheck() is set
}

// NewLasZipDecompressor builds a decompressor reading a stream described by
// vlr out of src, which must be positioned where the chunk table offset
// field starts (immediately before point data). opts may enable per-chunk
// integrity checksums or record a decompression field selection.
func NewLasZipDecompressor(src io.ReadSeeker, vlr laz.LazVlr, opts ...DecompressorOption) (*LasZipDecompressor, error) {
	if len(vlr.Items) == 0 {
		return nil, errs.ErrNoLazItems
	}

	switch vlr.Compressor {
	case laz.CompressorPointWiseChunked, laz.CompressorLayeredChunked:
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrUnsupportedCompressorType, vlr.Compressor)
	}

	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	table, err := chunktable.ReadFrom(src, vlr)
	if err != nil {
		return nil, fmt.Errorf("read chunk table: %w", err)
	}

	dataStart, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	return &LasZipDecompressor{src: src, vlr: vlr, cfg: cfg, dataStart: dataStart, table: table}, nil
}

// Vlr returns the VLR this decompressor was built from.
func (d *LasZipDecompressor) Vlr() laz.LazVlr { return d.vlr }

// Checksums returns the xxHash64 checksum of every chunk decompressed so
// far, in order, when WithChunkIntegrityCheck(true) was passed to the
// constructor. Compare against the encoder side's LasZipCompressor.Checksums
// to detect corruption. It is nil otherwise. Seek does not contribute to it.
func (d *LasZipDecompressor) Checksums() []uint64 { return d.checksums }

// startChunkReader builds a fresh chunkReader for the chunk at index idx
// (0-based), wrapping d.src in a checksum-teeing reader bounded to that
// chunk's byte count when integrity checking is enabled.
func (d *LasZipDecompressor) startChunkReader(idx int) (chunkReader, error) {
	var src io.Reader = d.src
	d.chunkBuf = nil

	if d.cfg.IntegrityCheck() && idx < d.table.Len() {
		entry := d.table.At(idx)
		d.chunkBuf = pool.GetChunkBuffer()
		src = io.TeeReader(io.LimitReader(d.src, int64(entry.ByteCount)), d.chunkBuf)
	}

	r, err := newChunkReaderFrom(d.vlr.Items, src)
	if err != nil {
		return nil, err
	}
	d.chunkSrc = src
	return r, nil
}

// newChunkReaderFrom builds a chunkReader over items, reading from src. It
// is also used directly by DecompressChunkBuffer to decompress one
// standalone chunk without a whole-file LasZipDecompressor.
func newChunkReaderFrom(items []laz.LazItem, src io.Reader) (chunkReader, error) {
	if codec.IsLayered(items) {
		rd, err := codec.BuildLayeredDecompressor(items)
		if err != nil {
			return nil, err
		}
		return &layeredChunkReader{rd: rd}, nil
	}

	dec := rangecoder.NewDecoder(src)
	rd, err := codec.BuildSequentialDecompressor(items, dec)
	if err != nil {
		return nil, err
	}
	return &sequentialChunkReader{rd: rd}, nil
}

// DecompressOne decompresses the next point record into buf, which must
// hold at least vlr.ItemsSize() bytes.
func (d *LasZipDecompressor) DecompressOne(buf []byte) error {
	if d.reader == nil || d.chunkPointsRead == d.numPointsInChunk {
		r, err := d.startChunkReader(d.currentChunk)
		if err != nil {
			return err
		}
		d.reader = r
		d.chunkPointsRead = 0
		d.currentChunk++

		if d.currentChunk-1 < d.table.Len() {
			d.numPointsInChunk = d.table.At(d.currentChunk - 1).PointCount
		} else {
			d.numPointsInChunk = uint64(d.vlr.ChunkSize)
		}
	}

	isFirst := d.chunkPointsRead == 0
	if err := d.reader.decompressPoint(d.chunkSrc, buf, isFirst); err != nil {
		return err
	}
	d.chunkPointsRead++

	// A layered chunk's in-band preamble reveals its true point count once
	// the second point primes it, overriding the chunk table's PointCount
	// approximation (always the full fixed chunk size, even for a partial
	// last chunk).
	if pc, ok := d.reader.chunkPointCount(); ok {
		d.numPointsInChunk = pc
	}

	if d.chunkBuf != nil && d.chunkPointsRead == d.numPointsInChunk {
		d.checksums = append(d.checksums, hash.Chunk(d.chunkBuf.Bytes()))
		pool.PutChunkBuffer(d.chunkBuf)
		d.chunkBuf = nil
	}
	return nil
}

// DecompressMany fills out with as many points as it can hold.
func (d *LasZipDecompressor) DecompressMany(out []byte) error {
	size := int(d.vlr.ItemsSize())
	if size == 0 || len(out)%size != 0 {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	for i := 0; i+size <= len(out); i += size {
		if err := d.DecompressOne(out[i : i+size]); err != nil {
			return fmt.Errorf("decompress point at offset %d: %w", i, err)
		}
	}
	return nil
}

// Seek moves the decompressor so the next DecompressOne call returns the
// pointIdx'th point. Seeking has to move the underlying stream to the
// start of the chunk holding pointIdx and decompress every point before it
// in that chunk, so it costs proportionally to how far into the chunk the
// target point sits.
func (d *LasZipDecompressor) Seek(pointIdx uint64) error {
	idx, byteOffset, firstPointIdx, ok := d.table.ChunkOfPoint(pointIdx)
	if !ok {
		if _, err := d.src.Seek(0, io.SeekEnd); err != nil {
			return err
		}
		// Past the last point: position at EOF and succeed here, matching
		// the reference decoder's seek. The next DecompressOne fails with
		// io.EOF/io.ErrUnexpectedEOF instead.
		d.reader = nil
		d.chunkSrc = nil
		d.chunkPointsRead = 0
		d.numPointsInChunk = 0
		return nil
	}

	if _, err := d.src.Seek(d.dataStart+int64(byteOffset), io.SeekStart); err != nil {
		return err
	}

	// Integrity checksums are not recomputed across a seek: the whole point
	// of seeking is to avoid touching bytes outside the target chunk's
	// replay range, and partial-chunk reads wouldn't produce a checksum
	// comparable to the one the compressor recorded for the full chunk.
	r, err := newChunkReaderFrom(d.vlr.Items, d.src)
	if err != nil {
		return err
	}
	d.reader = r
	d.chunkSrc = d.src
	d.chunkPointsRead = 0
	d.currentChunk = idx + 1
	d.numPointsInChunk = d.table.At(idx).PointCount

	delta := pointIdx - firstPointIdx
	scratch := make([]byte, d.vlr.ItemsSize())
	for i := uint64(0); i < delta; i++ {
		if err := d.DecompressOne(scratch); err != nil {
			return err
		}
	}
	return nil
}

// DecompressBuffer decompresses compressedPointsData (a full LAZ stream:
// chunk table offset, compressed points, chunk table) into decompressed,
// whose length must be a multiple of vlr.ItemsSize().
func DecompressBuffer(compressedPointsData []byte, decompressed []byte, vlr laz.LazVlr, opts ...DecompressorOption) error {
	size := int(vlr.ItemsSize())
	if size == 0 || len(decompressed)%size != 0 {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	src := bytes.NewReader(compressedPointsData)
	d, err := NewLasZipDecompressor(src, vlr, opts...)
	if err != nil {
		return err
	}
	return d.DecompressMany(decompressed)
}
