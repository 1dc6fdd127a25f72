package chunktable_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/laz/chunktable"
	"github.com/stretchr/testify/require"
)

// seekBuf is a minimal in-memory io.ReadWriteSeeker for exercising
// WriteTo/ReadFrom/UpdateOffset without touching a real file.
type seekBuf struct {
	buf []byte
	pos int
}

func (b *seekBuf) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	if end > len(b.buf) {
		b.buf = append(b.buf, make([]byte, end-len(b.buf))...)
	}
	copy(b.buf[b.pos:end], p)
	b.pos = end
	return len(p), nil
}

func (b *seekBuf) Read(p []byte) (int, error) {
	if b.pos >= len(b.buf) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[b.pos:])
	b.pos += n
	return n, nil
}

func (b *seekBuf) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = int64(b.pos) + offset
	case io.SeekEnd:
		newPos = int64(len(b.buf)) + offset
	}
	b.pos = int(newPos)
	return newPos, nil
}

func TestTableChunkOfPoint(t *testing.T) {
	table := chunktable.New(3)
	table.Push(chunktable.Entry{PointCount: 100, ByteCount: 40})
	table.Push(chunktable.Entry{PointCount: 200, ByteCount: 80})
	table.Push(chunktable.Entry{PointCount: 50, ByteCount: 20})

	idx, byteOffset, firstPoint, ok := table.ChunkOfPoint(0)
	require.True(t, ok)
	require.Equal(t, 0, idx)
	require.Equal(t, uint64(0), byteOffset)
	require.Equal(t, uint64(0), firstPoint)

	idx, byteOffset, firstPoint, ok = table.ChunkOfPoint(150)
	require.True(t, ok)
	require.Equal(t, 1, idx)
	require.Equal(t, uint64(40), byteOffset)
	require.Equal(t, uint64(100), firstPoint)

	idx, byteOffset, firstPoint, ok = table.ChunkOfPoint(349)
	require.True(t, ok)
	require.Equal(t, 2, idx)
	require.Equal(t, uint64(120), byteOffset)
	require.Equal(t, uint64(300), firstPoint)

	_, _, _, ok = table.ChunkOfPoint(350)
	require.False(t, ok)
}

func TestReadWriteFixedSizeRoundTrip(t *testing.T) {
	entries := []chunktable.Entry{
		{ByteCount: 120},
		{ByteCount: 95},
		{ByteCount: 10},
	}

	table := chunktable.New(len(entries))
	for _, e := range entries {
		table.Push(e)
	}

	var tableBuf bytes.Buffer
	vlr, err := laz.NewLazVlr([]laz.LazItem{laz.NewLazItem(laz.LazItemPoint10, 0, 2)})
	require.NoError(t, err)
	vlr.ChunkSize = 50_000

	require.NoError(t, table.WriteTo(&tableBuf, vlr))

	buf := &seekBuf{}
	_, err = buf.Write(make([]byte, chunktable.OffsetSize))
	require.NoError(t, err)
	for _, e := range entries {
		_, err := buf.Write(make([]byte, e.ByteCount))
		require.NoError(t, err)
	}
	require.NoError(t, chunktable.UpdateOffset(buf, 0))
	_, err = buf.Write(tableBuf.Bytes())
	require.NoError(t, err)

	_, err = buf.Seek(0, io.SeekStart)
	require.NoError(t, err)
	got, err := chunktable.ReadFrom(buf, vlr)
	require.NoError(t, err)

	require.Equal(t, len(entries), got.Len())
	for i, e := range entries {
		require.Equal(t, e.ByteCount, got.At(i).ByteCount)
		require.Equal(t, uint64(50_000), got.At(i).PointCount)
	}
}
