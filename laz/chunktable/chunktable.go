// Package chunktable reads and writes LAZ chunk tables: the index of
// per-chunk byte (and, for variable-sized chunks, point) counts that a LAZ
// file carries after its point data, enabling random access to individual
// chunks without decompressing everything ahead of them.
package chunktable

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/arloliu/golaz/integer"
	"github.com/arloliu/golaz/internal/errs"
	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/rangecoder"
)

// Context indices the chunk table's nested integer compressor uses; point
// counts and byte counts are delta-coded independently of each other.
const (
	pointCountContext = 0
	byteCountContext  = 1
)

// OffsetSize is the size, in bytes, of the chunk table offset field that
// precedes point data in a LAZ stream.
const OffsetSize = 8

// Entry describes one chunk: how many points it holds and how many
// compressed bytes it occupies.
type Entry struct {
	PointCount uint64
	ByteCount  uint64
}

// Table is an ordered list of chunk entries.
type Table struct {
	entries []Entry
}

// New returns an empty table with room for capacity entries.
func New(capacity int) *Table {
	return &Table{entries: make([]Entry, 0, capacity)}
}

// Push appends an entry.
func (t *Table) Push(e Entry) { t.entries = append(t.entries, e) }

// Len returns the number of chunks.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns the table's entries. The returned slice must not be
// mutated.
func (t *Table) Entries() []Entry { return t.entries }

// At returns the i'th entry.
func (t *Table) At(i int) Entry { return t.entries[i] }

// ChunkOfPoint locates the chunk holding the pointIdx'th point: the chunk's
// index, the byte offset (from the start of point data) where that chunk's
// compressed bytes begin, and the point index of the chunk's first point
// (so the caller can compute how many points into the chunk pointIdx is).
// ok is false if pointIdx falls beyond every chunk's point count.
func (t *Table) ChunkOfPoint(pointIdx uint64) (idx int, byteOffset, firstPointIdx uint64, ok bool) {
	var pointsSeen, bytesSeen uint64
	for i, e := range t.entries {
		if pointIdx < pointsSeen+e.PointCount {
			return i, bytesSeen, pointsSeen, true
		}
		pointsSeen += e.PointCount
		bytesSeen += e.ByteCount
	}
	return 0, 0, 0, false
}

// ReadFrom reads a chunk table out of src, which must be positioned at the
// start of a LAZ stream's point data (immediately after the
// offset-to-point-data field, at the chunk table offset itself). On return
// src is positioned where point data actually starts, immediately after the
// chunk table offset field.
//
// For fixed-size chunks the stream only carries byte counts; every entry's
// PointCount is set to vlr.ChunkSize, the last chunk's included, even though
// that chunk may hold fewer points (upstream LASzip does the same).
func ReadFrom(src io.ReadSeeker, vlr laz.LazVlr) (*Table, error) {
	if vlr.UsesVariableSizedChunks() {
		return readVariablySized(src)
	}
	return readFixedSize(src, uint64(vlr.ChunkSize))
}

func readVariablySized(src io.ReadSeeker) (*Table, error) {
	dataStart, chunkTableStart, ok, err := readOffset(src)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrMissingChunkTable
	}

	if _, err := src.Seek(int64(chunkTableStart), io.SeekStart); err != nil {
		return nil, err
	}
	table, err := Read(src, true)
	if err != nil {
		return nil, err
	}
	if _, err := src.Seek(int64(dataStart)+OffsetSize, io.SeekStart); err != nil {
		return nil, err
	}
	return table, nil
}

func readFixedSize(src io.ReadSeeker, pointCount uint64) (*Table, error) {
	dataStart, chunkTableStart, ok, err := readOffset(src)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrMissingChunkTable
	}

	if _, err := src.Seek(int64(chunkTableStart), io.SeekStart); err != nil {
		return nil, err
	}
	table, err := Read(src, false)
	if err != nil {
		return nil, err
	}
	if _, err := src.Seek(int64(dataStart)+OffsetSize, io.SeekStart); err != nil {
		return nil, err
	}

	for i := range table.entries {
		table.entries[i].PointCount = pointCount
	}
	return table, nil
}

// readOffset reads the chunk table offset field at the current position.
// Some writers leave it as a placeholder (0, or pointing at itself) when
// the final offset can't be patched in after the fact (e.g. streaming
// output); when that happens, the real offset is stored as the last 8
// bytes of the stream instead, so this falls back to reading it from
// there. Returns ok=false if neither location has a usable offset.
func readOffset(src io.ReadSeeker) (dataStart, chunkTableStart uint64, ok bool, err error) {
	currentPos, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, false, err
	}

	var buf [8]byte
	if _, err := io.ReadFull(src, buf[:]); err != nil {
		return 0, 0, false, err
	}
	offset := int64(binary.LittleEndian.Uint64(buf[:]))

	if offset <= currentPos {
		if _, err := src.Seek(-8, io.SeekEnd); err != nil {
			return 0, 0, false, err
		}
		if _, err := io.ReadFull(src, buf[:]); err != nil {
			return 0, 0, false, err
		}
		offset = int64(binary.LittleEndian.Uint64(buf[:]))
		if offset <= currentPos {
			return 0, 0, false, nil
		}
	}

	return uint64(currentPos), uint64(offset), true, nil
}

// Read decodes a chunk table whose position is at its start (a 4-byte
// version field, a 4-byte chunk count, then the range-coded entries
// themselves). containsPointCount selects whether each entry's point count
// was stored alongside its byte count (true for variable-sized chunks).
//
// Read leaves src positioned at the end of the chunk table, not at the
// start of point data; callers that need point data positioning should use
// ReadFrom instead.
func Read(src io.Reader, containsPointCount bool) (*Table, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(src, hdr[:]); err != nil {
		return nil, err
	}
	numChunks := binary.LittleEndian.Uint32(hdr[4:8])

	dec := integer.NewDecompressor(32, 2)
	if err := dec.Init(); err != nil {
		return nil, err
	}
	rc := rangecoder.NewDecoder(src)
	if err := rc.ReadInitBytes(); err != nil {
		return nil, err
	}

	table := New(int(numChunks))
	var previous Entry
	for i := uint32(0); i < numChunks; i++ {
		var current Entry
		if containsPointCount {
			v, err := dec.Decompress(rc, int32(previous.PointCount), pointCountContext)
			if err != nil {
				return nil, err
			}
			current.PointCount = uint64(uint32(v))
		}

		v, err := dec.Decompress(rc, int32(previous.ByteCount), byteCountContext)
		if err != nil {
			return nil, err
		}
		current.ByteCount = uint64(uint32(v))

		table.Push(current)
		previous = current
	}
	return table, nil
}

// WriteTo encodes the table to dst, choosing the fixed-size or
// variable-size on-wire layout per vlr.
func (t *Table) WriteTo(dst io.Writer, vlr laz.LazVlr) error {
	return t.write(dst, vlr.UsesVariableSizedChunks())
}

func (t *Table) write(dst io.Writer, writePointCount bool) error {
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], 0)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(t.entries)))
	if _, err := dst.Write(hdr[:]); err != nil {
		return err
	}

	enc := rangecoder.NewEncoder(dst)
	comp := integer.NewCompressor(32, 2)
	if err := comp.Init(); err != nil {
		return err
	}

	var previous Entry
	for _, current := range t.entries {
		if writePointCount {
			if err := comp.Compress(enc, int32(previous.PointCount), int32(current.PointCount), pointCountContext); err != nil {
				return err
			}
			previous.PointCount = current.PointCount
		}
		if err := comp.Compress(enc, int32(previous.ByteCount), int32(current.ByteCount), byteCountContext); err != nil {
			return err
		}
		previous.ByteCount = current.ByteCount
	}
	return enc.Done()
}

// UpdateOffset patches the chunk table offset field at offsetPos with dst's
// current position (the true start of the chunk table), then restores dst's
// position. dst's current position must already be the start of the chunk
// table, and the 8-byte placeholder at offsetPos must already exist.
func UpdateOffset(dst io.WriteSeeker, offsetPos int64) error {
	startOfChunkTable, err := dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := dst.Seek(offsetPos, io.SeekStart); err != nil {
		return err
	}

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(startOfChunkTable))
	if _, err := dst.Write(buf[:]); err != nil {
		return fmt.Errorf("chunk table offset write: %w", err)
	}

	_, err = dst.Seek(startOfChunkTable, io.SeekStart)
	return err
}
