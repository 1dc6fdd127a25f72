package lazio

import (
	"bytes"
	"fmt"

	"github.com/arloliu/golaz/internal/errs"
	"github.com/arloliu/golaz/internal/pool"
	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/laz/chunktable"
)

func itemsSize(items []laz.LazItem) int {
	n := 0
	for _, it := range items {
		n += int(it.Size)
	}
	return n
}

// CompressChunkBuffer compresses one chunk's worth of points, packed back
// to back per items' layout, into a standalone byte slice holding exactly
// that chunk's bytes (no file-level offset header or chunk table). This is
// the unit of work parallel compression fans out across goroutines: each
// chunk compresses independently of every other.
func CompressChunkBuffer(items []laz.LazItem, points []byte) ([]byte, chunktable.Entry, error) {
	size := itemsSize(items)
	if size == 0 || len(points)%size != 0 {
		return nil, chunktable.Entry{}, errs.ErrBufferLenNotMultipleOfPointSize
	}

	buf := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(buf)

	w, err := newChunkWriterTo(items, buf)
	if err != nil {
		return nil, chunktable.Entry{}, err
	}

	n := len(points) / size
	for i := 0; i < n; i++ {
		if err := w.compressPoint(points[i*size:(i+1)*size], i == 0); err != nil {
			return nil, chunktable.Entry{}, fmt.Errorf("compress point %d of chunk: %w", i, err)
		}
	}
	if err := w.finish(); err != nil {
		return nil, chunktable.Entry{}, err
	}

	out := append([]byte(nil), buf.Bytes()...)
	return out, chunktable.Entry{PointCount: uint64(n), ByteCount: uint64(len(out))}, nil
}

// DecompressChunkBuffer decompresses a standalone chunk buffer, as produced
// by CompressChunkBuffer, holding pointCount records into out.
func DecompressChunkBuffer(items []laz.LazItem, chunkBytes []byte, pointCount uint64, out []byte) error {
	size := itemsSize(items)
	if size == 0 || uint64(len(out)) != pointCount*uint64(size) {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	src := bytes.NewReader(chunkBytes)
	r, err := newChunkReaderFrom(items, src)
	if err != nil {
		return err
	}

	for i := uint64(0); i < pointCount; i++ {
		buf := out[int(i)*size : int(i+1)*size]
		if err := r.decompressPoint(src, buf, i == 0); err != nil {
			return fmt.Errorf("decompress point %d of chunk: %w", i, err)
		}
	}
	return nil
}
