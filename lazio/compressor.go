package lazio

import (
	"encoding/binary"
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

// chunkWriter compresses one chunk's worth of points, field by field, under
// a record layout fixed at construction. The first point of a chunk is
// written specially (raw, for layered records; through the same codec path
// for sequential ones, whose fields detect "first call" themselves).
type chunkWriter interface {
	compressPoint(buf []byte, isFirst bool) error
	finish() error
}

type sequentialChunkWriter struct {
	rc *record.Compressor
}

func (w *sequentialChunkWriter) compressPoint(buf []byte, _ bool) error {
	return w.rc.Compress(buf)
}

func (w *sequentialChunkWriter) finish() error {
	return w.rc.Done()
}

type layeredChunkWriter struct {
	dst     io.Writer
	rc      *v3.LayeredRecordCompressor
	context int
}

func (w *layeredChunkWriter) compressPoint(buf []byte, isFirst bool) error {
	if isFirst {
		return w.rc.CompressFirst(w.dst, buf, w.context)
	}
	return w.rc.Compress(buf, w.context)
}

func (w *layeredChunkWriter) finish() error {
	return w.rc.Done(w.dst)
}

// LasZipCompressor compresses point records into a chunked LAZ stream.
// Points must be fed in on-disk field order and size (vlr.ItemsSize()
// bytes each); CompressOne/CompressMany write their compressed form to dst
// as they go, and Done finalizes the stream by writing the chunk table and
// patching the offset placeholder reserved at the very start.
type LasZipCompressor struct {
	dst io.WriteSeeker
	vlr laz.LazVlr
	cfg *Config

	table *chunktable.Table

	startPos       int64 // position of the 8-byte offset placeholder
	reserved       bool
	currentEntry   chunktable.Entry
	chunkBuf       *pool.ByteBuffer
	writer         chunkWriter
	isFirstInChunk bool

	checksums []uint64 // only populated when cfg.IntegrityCheck() is set
}

// NewLasZipCompressor builds a compressor that writes a stream described by
// vlr to dst. dst must be positioned where point data should start; the
// caller is responsible for anything that precedes it (the LAS header and
// VLRs, including vlr's own serialized form). opts may override vlr's chunk
// size and request per-chunk integrity checksums.
func NewLasZipCompressor(dst io.WriteSeeker, vlr laz.LazVlr, opts ...CompressorOption) (*LasZipCompressor, error) {
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

	return &LasZipCompressor{
		dst:   dst,
		vlr:   vlr,
		cfg:   cfg,
		table: chunktable.New(0),
	}, nil
}

// NewLasZipCompressorFromItems is a convenience constructor that derives a
// default LazVlr (LASzip's standard chunk size, compressor type picked from
// items' version, unless overridden via WithCompressorType) from items.
func NewLasZipCompressorFromItems(dst io.WriteSeeker, items []laz.LazItem, opts ...CompressorOption) (*LasZipCompressor, error) {
	vlr, err := laz.NewLazVlr(items)
	if err != nil {
		return nil, err
	}

	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	if t, ok := cfg.CompressorType(); ok {
		vlr.Compressor = t
	}

	return NewLasZipCompressor(dst, vlr, opts...)
}

// Vlr returns the VLR this compressor was built from.
func (c *LasZipCompressor) Vlr() laz.LazVlr { return c.vlr }

// Checksums returns the xxHash64 checksum of every chunk finished so far, in
// order, when WithChunkIntegrityCheck(true) was passed to the constructor.
// It is nil otherwise.
func (c *LasZipCompressor) Checksums() []uint64 { return c.checksums }

// newChunkWriterTo builds a chunkWriter over items, writing to dst. It is
// also used directly by CompressChunkBuffer to compress one standalone
// chunk without a whole-file LasZipCompressor.
func newChunkWriterTo(items []laz.LazItem, dst io.Writer) (chunkWriter, error) {
	if codec.IsLayered(items) {
		rc, err := codec.BuildLayeredCompressor(items)
		if err != nil {
			return nil, err
		}
		return &layeredChunkWriter{dst: dst, rc: rc}, nil
	}

	enc := rangecoder.NewEncoder(dst)
	rc, err := codec.BuildSequentialCompressor(items, enc)
	if err != nil {
		return nil, err
	}
	return &sequentialChunkWriter{rc: rc}, nil
}

// reserveOffsetToChunkTable writes an 8-byte placeholder for the chunk
// table offset, to be patched once Done knows the real value.
func (c *LasZipCompressor) reserveOffsetToChunkTable() error {
	pos, err := c.dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	c.startPos = pos

	var buf [chunktable.OffsetSize]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(int64(-1)))
	if _, err := c.dst.Write(buf[:]); err != nil {
		return err
	}
	c.reserved = true
	return nil
}

// CompressOne compresses a single point record. buf must hold at least
// vlr.ItemsSize() bytes in on-disk field order.
func (c *LasZipCompressor) CompressOne(buf []byte) error {
	if !c.reserved {
		if err := c.reserveOffsetToChunkTable(); err != nil {
			return err
		}
	}

	if c.writer != nil && !c.vlr.UsesVariableSizedChunks() &&
		c.currentEntry.PointCount == uint64(c.vlr.ChunkSize) {
		if err := c.finishCurrentChunk(); err != nil {
			return err
		}
	}

	if c.writer == nil {
		c.chunkBuf = pool.GetChunkBuffer()
		w, err := newChunkWriterTo(c.vlr.Items, c.chunkBuf)
		if err != nil {
			return err
		}
		c.writer = w
		c.isFirstInChunk = true
	}

	if err := c.writer.compressPoint(buf, c.isFirstInChunk); err != nil {
		return err
	}
	c.isFirstInChunk = false
	c.currentEntry.PointCount++
	return nil
}

// CompressMany compresses every point packed back to back in points, whose
// length must be a multiple of vlr.ItemsSize().
func (c *LasZipCompressor) CompressMany(points []byte) error {
	size := int(c.vlr.ItemsSize())
	if size == 0 || len(points)%size != 0 {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	for i := 0; i+size <= len(points); i += size {
		if err := c.CompressOne(points[i : i+size]); err != nil {
			return fmt.Errorf("compress point at offset %d: %w", i, err)
		}
	}
	return nil
}

// FinishChunk ends the current chunk early, so the next CompressOne call
// starts a new one. Only meaningful for variable-sized chunks; fixed-size
// chunks close automatically every vlr.ChunkSize points.
func (c *LasZipCompressor) FinishChunk() error {
	if !c.vlr.UsesVariableSizedChunks() {
		return fmt.Errorf("FinishChunk: %w", errs.ErrUnsupportedCompressorType)
	}
	if c.writer == nil {
		return nil
	}
	return c.finishCurrentChunk()
}

func (c *LasZipCompressor) finishCurrentChunk() error {
	if err := c.writer.finish(); err != nil {
		return err
	}

	data := c.chunkBuf.Bytes()
	c.currentEntry.ByteCount = uint64(len(data))

	if c.cfg.IntegrityCheck() {
		c.checksums = append(c.checksums, hash.Chunk(data))
	}

	if _, err := c.dst.Write(data); err != nil {
		return err
	}
	c.table.Push(c.currentEntry)

	pool.PutChunkBuffer(c.chunkBuf)
	c.chunkBuf = nil
	c.currentEntry = chunktable.Entry{}
	c.writer = nil
	return nil
}

// Done finalizes the stream: flushes the current chunk, patches the
// reserved offset placeholder, and writes the chunk table. Call exactly
// once, after the last CompressOne/CompressMany call.
func (c *LasZipCompressor) Done() error {
	if c.writer != nil {
		if err := c.finishCurrentChunk(); err != nil {
			return err
		}
	}

	if err := chunktable.UpdateOffset(c.dst, c.startPos); err != nil {
		return err
	}
	return c.table.WriteTo(c.dst, c.vlr)
}

// CompressBuffer compresses uncompressedPoints (packed point records, field
// order matching vlr.Items) into dst in one call: reserves the chunk table
// offset, compresses every point, and finalizes the stream.
func CompressBuffer(dst io.WriteSeeker, uncompressedPoints []byte, vlr laz.LazVlr, opts ...CompressorOption) error {
	c, err := NewLasZipCompressor(dst, vlr, opts...)
	if err != nil {
		return err
	}
	if err := c.CompressMany(uncompressedPoints); err != nil {
		return err
	}
	return c.Done()
}
