package parallel

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/golaz/internal/errs"
	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/laz/chunktable"
	"github.com/arloliu/golaz/lazio"
)

// Decompressor decompresses every chunk of a LAZ stream concurrently, one
// goroutine per chunk. Points within a chunk still decompress in order
// (each depends on the one before it), but separate chunks have no shared
// state, so they can run on separate cores at once. src must support
// concurrent reads at independent offsets; an *os.File does.
type Decompressor struct {
	src       io.ReaderAt
	vlr       laz.LazVlr
	cfg       *lazio.Config
	table     *chunktable.Table
	dataStart int64
}

// NewDecompressor builds a parallel decompressor for a stream described by
// vlr, whose chunk table was already read (e.g. via chunktable.ReadFrom)
// into table, with dataStart the byte offset (within src) where the first
// chunk's compressed bytes begin. opts' WithWorkerCount bounds how many
// chunks decompress at once (0 means unbounded).
func NewDecompressor(src io.ReaderAt, vlr laz.LazVlr, table *chunktable.Table, dataStart int64, opts ...lazio.DecompressorOption) (*Decompressor, error) {
	switch vlr.Compressor {
	case laz.CompressorPointWiseChunked, laz.CompressorLayeredChunked:
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrUnsupportedCompressorType, vlr.Compressor)
	}
	if table == nil {
		return nil, errs.ErrMissingChunkTable
	}

	cfg, err := lazio.NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &Decompressor{src: src, vlr: vlr, cfg: cfg, table: table, dataStart: dataStart}, nil
}

// TotalPoints returns the sum of every chunk's point count.
func (d *Decompressor) TotalPoints() uint64 {
	var total uint64
	for _, e := range d.table.Entries() {
		total += e.PointCount
	}
	return total
}

// DecompressAll decompresses every point of the stream into out, whose
// length must equal TotalPoints() * vlr.ItemsSize(). Each chunk is read and
// decompressed on its own goroutine.
func (d *Decompressor) DecompressAll(out []byte) error {
	size := int(d.vlr.ItemsSize())
	if uint64(len(out)) != d.TotalPoints()*uint64(size) {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	g, _ := errgroup.WithContext(context.Background())
	if n := d.cfg.WorkerCount(); n > 0 {
		g.SetLimit(n)
	}

	var pointOffset, byteOffset uint64
	for i, entry := range d.table.Entries() {
		pOff, bOff := pointOffset, byteOffset
		pointOffset += entry.PointCount
		byteOffset += entry.ByteCount

		g.Go(func() error {
			chunkBuf := make([]byte, entry.ByteCount)
			if _, err := d.src.ReadAt(chunkBuf, d.dataStart+int64(bOff)); err != nil {
				return fmt.Errorf("read chunk %d: %w", i, err)
			}

			dst := out[pOff*uint64(size) : (pOff+entry.PointCount)*uint64(size)]
			if err := lazio.DecompressChunkBuffer(d.vlr.Items, chunkBuf, entry.PointCount, dst); err != nil {
				return fmt.Errorf("decompress chunk %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}
