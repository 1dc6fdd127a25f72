package v3_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/arloliu/golaz/endian"
	"github.com/arloliu/golaz/laz"
	v3 "github.com/arloliu/golaz/laz/v3"
	"github.com/stretchr/testify/require"
)

// walkingPoint14 returns n Point14 records that drift smoothly, the shape
// layered field codecs are designed to compress, rather than fully random
// values that would still round-trip but defeat the point of the test.
func walkingPoint14(n int, rng *rand.Rand) []laz.Point14 {
	points := make([]laz.Point14, n)
	x, y, z := int32(10000), int32(20000), int32(5000)
	gps := 400000.0
	for i := range points {
		x += int32(rng.Intn(21) - 10)
		y += int32(rng.Intn(21) - 10)
		z += int32(rng.Intn(5) - 2)
		gps += rng.Float64() * 0.001
		points[i] = laz.Point14{
			X:                   x,
			Y:                   y,
			Z:                   z,
			Intensity:           uint16(100 + rng.Intn(50)),
			ReturnNumber:        1,
			NumberOfReturns:     1,
			ClassificationFlags: 0,
			ScannerChannel:      uint8(rng.Intn(2)),
			ScanDirectionFlag:   i%2 == 0,
			EdgeOfFlightLine:    false,
			Classification:      2,
			UserData:            0,
			ScanAngleRank:       uint16(rng.Intn(180)),
			PointSourceID:       1,
			GPSTime:             gps,
		}
	}
	return points
}

func TestLayeredPoint14RoundTrip(t *testing.T) {
	const n = 1500
	rng := rand.New(rand.NewSource(11))
	engine := endian.GetLittleEndianEngine()

	points := walkingPoint14(n, rng)
	bufs := make([][]byte, n)
	for i := range points {
		bufs[i] = make([]byte, laz.Point14Size)
		points[i].Pack(bufs[i], engine)
	}

	rc := v3.NewLayeredRecordCompressor()
	fc, err := v3.NewPoint14Compressor()
	require.NoError(t, err)
	rc.AddField(fc)

	var out bytes.Buffer
	require.NoError(t, rc.CompressFirst(&out, bufs[0], 0))
	for _, buf := range bufs[1:] {
		require.NoError(t, rc.Compress(buf, 0))
	}
	require.NoError(t, rc.Done(&out))

	rd := v3.NewLayeredRecordDecompressor()
	fd, err := v3.NewPoint14Decompressor()
	require.NoError(t, err)
	rd.AddField(fd)

	got0 := make([]byte, laz.Point14Size)
	require.NoError(t, rd.DecompressFirst(&out, got0, 0))
	require.Equal(t, bufs[0], got0)

	require.NoError(t, rd.PrepareChunk(&out))
	for i := 1; i < n; i++ {
		got := make([]byte, laz.Point14Size)
		require.NoError(t, rd.Decompress(got, 0))
		require.Equalf(t, bufs[i], got, "point %d mismatch", i)
	}
}

func TestLayeredMultiContextRoundTrip(t *testing.T) {
	const n = 800
	rng := rand.New(rand.NewSource(12))
	engine := endian.GetLittleEndianEngine()

	points := walkingPoint14(n, rng)
	contexts := make([]int, n)
	bufs := make([][]byte, n)
	for i := range points {
		contexts[i] = i % 2
		bufs[i] = make([]byte, laz.Point14Size)
		points[i].Pack(bufs[i], engine)
	}

	rc := v3.NewLayeredRecordCompressor()
	fc, err := v3.NewPoint14Compressor()
	require.NoError(t, err)
	rc.AddField(fc)

	var out bytes.Buffer
	require.NoError(t, rc.CompressFirst(&out, bufs[0], contexts[0]))
	for i := 1; i < n; i++ {
		require.NoError(t, rc.Compress(bufs[i], contexts[i]))
	}
	require.NoError(t, rc.Done(&out))

	rd := v3.NewLayeredRecordDecompressor()
	fd, err := v3.NewPoint14Decompressor()
	require.NoError(t, err)
	rd.AddField(fd)

	got0 := make([]byte, laz.Point14Size)
	require.NoError(t, rd.DecompressFirst(&out, got0, contexts[0]))
	require.Equal(t, bufs[0], got0)

	require.NoError(t, rd.PrepareChunk(&out))
	for i := 1; i < n; i++ {
		got := make([]byte, laz.Point14Size)
		require.NoError(t, rd.Decompress(got, contexts[i]))
		require.Equalf(t, bufs[i], got, "point %d mismatch", i)
	}
}

func TestRGB14AndNIR14RoundTrip(t *testing.T) {
	const n = 600
	rng := rand.New(rand.NewSource(13))
	engine := endian.GetLittleEndianEngine()

	rgbBufs := make([][]byte, n)
	nirBufs := make([][]byte, n)
	r, g, b, nir := uint16(30000), uint16(40000), uint16(20000), uint16(15000)
	for i := 0; i < n; i++ {
		r += uint16(rng.Intn(200))
		g += uint16(rng.Intn(200))
		b += uint16(rng.Intn(200))
		nir += uint16(rng.Intn(100))

		rgbBufs[i] = make([]byte, laz.RGBSize)
		color := laz.RGB{Red: r, Green: g, Blue: b}
		color.Pack(rgbBufs[i], engine)

		nirBufs[i] = make([]byte, laz.NIRSize)
		laz.NIR(nir).Pack(nirBufs[i], engine)
	}

	rc := v3.NewLayeredRecordCompressor()
	rgbC, err := v3.NewRGB14Compressor()
	require.NoError(t, err)
	nirC, err := v3.NewNIR14Compressor()
	require.NoError(t, err)
	rc.AddField(rgbC)
	rc.AddField(nirC)

	combined := func(i int) []byte {
		buf := make([]byte, laz.RGBSize+laz.NIRSize)
		copy(buf[:laz.RGBSize], rgbBufs[i])
		copy(buf[laz.RGBSize:], nirBufs[i])
		return buf
	}

	var out bytes.Buffer
	require.NoError(t, rc.CompressFirst(&out, combined(0), 0))
	for i := 1; i < n; i++ {
		require.NoError(t, rc.Compress(combined(i), 0))
	}
	require.NoError(t, rc.Done(&out))

	rd := v3.NewLayeredRecordDecompressor()
	rgbD, err := v3.NewRGB14Decompressor()
	require.NoError(t, err)
	nirD, err := v3.NewNIR14Decompressor()
	require.NoError(t, err)
	rd.AddField(rgbD)
	rd.AddField(nirD)

	got0 := make([]byte, laz.RGBSize+laz.NIRSize)
	require.NoError(t, rd.DecompressFirst(&out, got0, 0))
	require.Equal(t, combined(0), got0)

	require.NoError(t, rd.PrepareChunk(&out))
	for i := 1; i < n; i++ {
		got := make([]byte, laz.RGBSize+laz.NIRSize)
		require.NoError(t, rd.Decompress(got, 0))
		require.Equalf(t, combined(i), got, "record %d mismatch", i)
	}
}
