// Package parallel fans chunk compression and decompression out across
// goroutines: since every chunk of a LAZ stream compresses and decompresses
// independently of every other (that's the entire point of chunking), many
// chunks can be processed at once and only need to be stitched back
// together in order afterward.
package parallel

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/golaz/internal/errs"
	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/laz/chunktable"
	"github.com/arloliu/golaz/lazio"
)

// Compressor compresses points into a chunked LAZ stream the same way
// lazio.LasZipCompressor does, except that each complete batch of chunks
// handed to CompressMany or CompressChunks is compressed concurrently
// before being written to dst in order. The resulting stream is
// byte-identical to what lazio.LasZipCompressor would produce from the
// same points.
type Compressor struct {
	dst   io.WriteSeeker
	vlr   laz.LazVlr
	cfg   *lazio.Config
	table *chunktable.Table

	startPos int64
	reserved bool

	// rest holds points carried over from the previous CompressMany call
	// that did not complete a full chunk.
	rest []byte
}

// NewCompressor builds a parallel compressor writing a stream described by
// vlr to dst. opts' WithWorkerCount bounds how many chunks compress at once
// (0 means unbounded); its other options behave the same as
// lazio.NewLasZipCompressor's.
func NewCompressor(dst io.WriteSeeker, vlr laz.LazVlr, opts ...lazio.CompressorOption) (*Compressor, error) {
	switch vlr.Compressor {
	case laz.CompressorPointWiseChunked, laz.CompressorLayeredChunked:
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrUnsupportedCompressorType, vlr.Compressor)
	}
	if len(vlr.Items) == 0 {
		return nil, errs.ErrNoLazItems
	}

	cfg, err := lazio.NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	if size, ok := cfg.ChunkSize(); ok {
		vlr.ChunkSize = size
	}

	return &Compressor{dst: dst, vlr: vlr, cfg: cfg, table: chunktable.New(0)}, nil
}

func (c *Compressor) reserveOffset() error {
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

// CompressMany compresses as many complete, vlr.ChunkSize-point chunks as
// points contains, in parallel. Must only be called for fixed-size chunks.
// Any trailing points that don't complete a chunk are buffered and
// prepended to the next call, or flushed as a final undersized chunk by
// Done.
func (c *Compressor) CompressMany(points []byte) error {
	if c.vlr.UsesVariableSizedChunks() {
		return fmt.Errorf("CompressMany needs fixed-size chunks: %w", errs.ErrUnsupportedCompressorType)
	}
	if !c.reserved {
		if err := c.reserveOffset(); err != nil {
			return err
		}
	}

	size := int(c.vlr.ItemsSize())
	chunkBytes := int(c.vlr.ChunkSize) * size

	buf := append(c.rest, points...)
	n := len(buf) / chunkBytes
	c.rest = append([]byte(nil), buf[n*chunkBytes:]...)
	if n == 0 {
		return nil
	}

	return c.compressChunksOfSize(splitEvery(buf[:n*chunkBytes], chunkBytes))
}

// CompressChunks compresses a sequence of already-delimited, variable-size
// chunks in parallel. Must only be called for variable-size chunks.
func (c *Compressor) CompressChunks(chunks [][]byte) error {
	if !c.vlr.UsesVariableSizedChunks() {
		return fmt.Errorf("CompressChunks needs variable-size chunks: %w", errs.ErrUnsupportedCompressorType)
	}
	if !c.reserved {
		if err := c.reserveOffset(); err != nil {
			return err
		}
	}

	return c.compressChunksOfSize(chunks)
}

func (c *Compressor) compressChunksOfSize(chunks [][]byte) error {
	compressed := make([][]byte, len(chunks))
	entries := make([]chunktable.Entry, len(chunks))

	g, _ := errgroup.WithContext(context.Background())
	if n := c.cfg.WorkerCount(); n > 0 {
		g.SetLimit(n)
	}
	for i, chunk := range chunks {
		g.Go(func() error {
			out, entry, err := lazio.CompressChunkBuffer(c.vlr.Items, chunk)
			if err != nil {
				return fmt.Errorf("compress chunk %d: %w", i, err)
			}
			compressed[i] = out
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range chunks {
		if _, err := c.dst.Write(compressed[i]); err != nil {
			return err
		}
		c.table.Push(entries[i])
	}
	return nil
}

// Done flushes any buffered trailing points as a final, undersized chunk,
// writes the chunk table, and patches the offset placeholder reserved at
// the start of the stream. Call exactly once, after the last CompressMany
// or CompressChunks call.
func (c *Compressor) Done() error {
	if !c.reserved {
		if err := c.reserveOffset(); err != nil {
			return err
		}
	}

	if len(c.rest) > 0 {
		out, entry, err := lazio.CompressChunkBuffer(c.vlr.Items, c.rest)
		if err != nil {
			return err
		}
		if _, err := c.dst.Write(out); err != nil {
			return err
		}
		c.table.Push(entry)
		c.rest = nil
	}

	if err := chunktable.UpdateOffset(c.dst, c.startPos); err != nil {
		return err
	}
	return c.table.WriteTo(c.dst, c.vlr)
}

func splitEvery(buf []byte, size int) [][]byte {
	n := len(buf) / size
	out := make([][]byte, n)
	for i := range out {
		out[i] = buf[i*size : (i+1)*size]
	}
	return out
}
