package codec_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/arloliu/golaz/endian"
	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/laz/codec"
	"github.com/arloliu/golaz/rangecoder"
	"github.com/stretchr/testify/require"
)

func TestIsLayered(t *testing.T) {
	items0, err := laz.DefaultItemsForPointFormat(0, 0)
	require.NoError(t, err)
	require.False(t, codec.IsLayered(items0))

	items6, err := laz.DefaultItemsForPointFormat(6, 0)
	require.NoError(t, err)
	require.True(t, codec.IsLayered(items6))

	require.False(t, codec.IsLayered(nil))
}

func TestBuildSequentialRoundTrip(t *testing.T) {
	items, err := laz.DefaultItemsForPointFormat(1, 0)
	require.NoError(t, err)

	recordSize := int(laz.LazVlr{Items: items}.ItemsSize())
	const n = 500
	rng := rand.New(rand.NewSource(21))
	records := make([][]byte, n)
	for i := range records {
		buf := make([]byte, recordSize)
		rng.Read(buf)
		records[i] = buf
	}

	var out bytes.Buffer
	enc := rangecoder.NewEncoder(&out)
	rc, err := codec.BuildSequentialCompressor(items, enc)
	require.NoError(t, err)
	for _, buf := range records {
		require.NoError(t, rc.Compress(buf))
	}
	require.NoError(t, enc.Done())

	dec := rangecoder.NewDecoder(&out)
	require.NoError(t, dec.ReadInitBytes())
	rd, err := codec.BuildSequentialDecompressor(items, dec)
	require.NoError(t, err)

	for i, want := range records {
		got := make([]byte, recordSize)
		require.NoError(t, rd.Decompress(got))
		require.Equalf(t, want, got, "record %d mismatch", i)
	}
}

func TestBuildLayeredRoundTrip(t *testing.T) {
	items, err := laz.DefaultItemsForPointFormat(7, 0)
	require.NoError(t, err)

	const n = 400
	rng := rand.New(rand.NewSource(22))
	engine := endian.GetLittleEndianEngine()

	recordSize := laz.Point14Size + laz.RGBSize
	records := make([][]byte, n)
	x, y, z := int32(1000), int32(2000), int32(300)
	for i := range records {
		x += int32(rng.Intn(11) - 5)
		y += int32(rng.Intn(11) - 5)
		z += int32(rng.Intn(5) - 2)
		p := laz.Point14{X: x, Y: y, Z: z, Intensity: uint16(100 + i%40), ReturnNumber: 1, NumberOfReturns: 1,
			Classification: 2, UserData: 0, ScanAngleRank: uint16(i % 180), PointSourceID: 1, GPSTime: 400000 + float64(i)*0.01}
		buf := make([]byte, recordSize)
		p.Pack(buf[:laz.Point14Size], engine)
		color := laz.RGB{Red: uint16(1000 + i), Green: uint16(2000 + i), Blue: uint16(3000 + i)}
		color.Pack(buf[laz.Point14Size:], engine)
		records[i] = buf
	}

	rc, err := codec.BuildLayeredCompressor(items)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, rc.CompressFirst(&out, records[0], 0))
	for i := 1; i < n; i++ {
		require.NoError(t, rc.Compress(records[i], 0))
	}
	require.NoError(t, rc.Done(&out))

	rd, err := codec.BuildLayeredDecompressor(items)
	require.NoError(t, err)

	got0 := make([]byte, recordSize)
	require.NoError(t, rd.DecompressFirst(&out, got0, 0))
	require.Equal(t, records[0], got0)

	require.NoError(t, rd.PrepareChunk(&out))
	for i := 1; i < n; i++ {
		got := make([]byte, recordSize)
		require.NoError(t, rd.Decompress(got, 0))
		require.Equalf(t, records[i], got, "record %d mismatch", i)
	}
}

// TestBuildSequentialVersion1RoundTrip exercises the version-1 dispatch
// branch, which laz.DefaultItemsForPointFormat never produces on its own
// (it assigns version 2 to sequential items and version 3 to layered ones)
// but which codec.BuildSequentialCompressor
// still has to support for older LASzip streams.
func TestBuildSequentialVersion1RoundTrip(t *testing.T) {
	items := []laz.LazItem{
		laz.NewLazItem(laz.LazItemPoint10, 0, 1),
		laz.NewLazItem(laz.LazItemGPSTime, 0, 1),
	}
	recordSize := int(laz.LazVlr{Items: items}.ItemsSize())

	const n = 300
	rng := rand.New(rand.NewSource(23))
	records := make([][]byte, n)
	for i := range records {
		buf := make([]byte, recordSize)
		rng.Read(buf)
		records[i] = buf
	}

	var out bytes.Buffer
	enc := rangecoder.NewEncoder(&out)
	rc, err := codec.BuildSequentialCompressor(items, enc)
	require.NoError(t, err)
	for _, buf := range records {
		require.NoError(t, rc.Compress(buf))
	}
	require.NoError(t, enc.Done())

	dec := rangecoder.NewDecoder(&out)
	require.NoError(t, dec.ReadInitBytes())
	rd, err := codec.BuildSequentialDecompressor(items, dec)
	require.NoError(t, err)

	for i, want := range records {
		got := make([]byte, recordSize)
		require.NoError(t, rd.Decompress(got))
		require.Equalf(t, want, got, "record %d mismatch", i)
	}
}

func TestBuildSequentialRejectsUnknownVersion(t *testing.T) {
	_, err := codec.BuildSequentialCompressor([]laz.LazItem{{Type: laz.LazItemPoint10, Size: laz.Point10Size, Version: 9}}, nil)
	require.Error(t, err)
}

func TestBuildLayeredRejectsUnknownVersion(t *testing.T) {
	_, err := codec.BuildLayeredCompressor([]laz.LazItem{{Type: laz.LazItemPoint14, Size: laz.Point14Size, Version: 1}})
	require.Error(t, err)
}
