package v2_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/arloliu/golaz/endian"
	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/laz/record"
	v2 "github.com/arloliu/golaz/laz/v2"
	"github.com/arloliu/golaz/rangecoder"
	"github.com/stretchr/testify/require"
)

func randomPoint10(rng *rand.Rand) laz.Point10 {
	return laz.Point10{
		X:                 rng.Int31n(1_000_000) - 500_000,
		Y:                 rng.Int31n(1_000_000) - 500_000,
		Z:                 rng.Int31n(100_000),
		Intensity:         uint16(rng.Intn(65536)),
		ReturnNumber:      uint8(1 + rng.Intn(5)),
		NumberOfReturns:   uint8(1 + rng.Intn(5)),
		ScanDirectionFlag: rng.Intn(2) == 0,
		EdgeOfFlightLine:  rng.Intn(10) == 0,
		Classification:    uint8(rng.Intn(20)),
		ScanAngleRank:     int8(rng.Intn(181) - 90),
		UserData:          uint8(rng.Intn(256)),
		PointSourceID:     uint16(rng.Intn(65536)),
	}
}

func TestPoint10RoundTrip(t *testing.T) {
	const n = 2000
	rng := rand.New(rand.NewSource(7))
	engine := endian.GetLittleEndianEngine()

	points := make([]laz.Point10, n)
	bufs := make([][]byte, n)
	for i := range points {
		points[i] = randomPoint10(rng)
		bufs[i] = make([]byte, laz.Point10Size)
		points[i].Pack(bufs[i], engine)
	}

	var out bytes.Buffer
	enc := rangecoder.NewEncoder(&out)
	comp, err := v2.NewPoint10Compressor()
	require.NoError(t, err)
	for _, buf := range bufs {
		require.NoError(t, comp.CompressWith(enc, buf))
	}
	require.NoError(t, enc.Done())

	dec := rangecoder.NewDecoder(&out)
	decomp, err := v2.NewPoint10Decompressor()
	require.NoError(t, err)

	for i := range bufs {
		got := make([]byte, laz.Point10Size)
		require.NoError(t, decomp.DecompressWith(dec, got))
		if i == 0 {
			// The first point is stored raw; coded bytes start after it.
			require.NoError(t, dec.ReadInitBytes())
		}

		var gotPoint laz.Point10
		gotPoint.Unpack(got, engine)
		require.Equalf(t, points[i], gotPoint, "point %d mismatch", i)
	}
}

func TestGpsTimeRoundTrip(t *testing.T) {
	const n = 1000
	rng := rand.New(rand.NewSource(8))
	engine := endian.GetLittleEndianEngine()

	times := make([]float64, n)
	bufs := make([][]byte, n)
	base := 400000.0
	for i := range times {
		base += rng.Float64() * 0.01
		times[i] = base
		bufs[i] = make([]byte, laz.GPSTimeSize)
		laz.PackGPSTime(bufs[i], times[i], engine)
	}

	var out bytes.Buffer
	enc := rangecoder.NewEncoder(&out)
	comp, err := v2.NewGpsTimeCompressor()
	require.NoError(t, err)
	for _, buf := range bufs {
		require.NoError(t, comp.CompressWith(enc, buf))
	}
	require.NoError(t, enc.Done())

	dec := rangecoder.NewDecoder(&out)
	decomp, err := v2.NewGpsTimeDecompressor()
	require.NoError(t, err)

	for i := range bufs {
		got := make([]byte, laz.GPSTimeSize)
		require.NoError(t, decomp.DecompressWith(dec, got))
		if i == 0 {
			require.NoError(t, dec.ReadInitBytes())
		}
		require.InDeltaf(t, times[i], laz.UnpackGPSTime(got, engine), 1e-6, "gps time %d mismatch", i)
	}
}

func TestExtraBytesRoundTrip(t *testing.T) {
	const n = 500
	const width = 3
	rng := rand.New(rand.NewSource(9))

	bufs := make([][]byte, n)
	for i := range bufs {
		bufs[i] = make([]byte, width)
		rng.Read(bufs[i])
	}

	var out bytes.Buffer
	enc := rangecoder.NewEncoder(&out)
	comp, err := v2.NewExtraByteCompressor(width)
	require.NoError(t, err)
	for _, buf := range bufs {
		require.NoError(t, comp.CompressWith(enc, buf))
	}
	require.NoError(t, enc.Done())

	dec := rangecoder.NewDecoder(&out)
	decomp, err := v2.NewExtraByteDecompressor(width)
	require.NoError(t, err)

	for i := range bufs {
		got := make([]byte, width)
		require.NoError(t, decomp.DecompressWith(dec, got))
		if i == 0 {
			require.NoError(t, dec.ReadInitBytes())
		}
		require.Equalf(t, bufs[i], got, "extra bytes %d mismatch", i)
	}
}

// TestCompositeRecordRoundTrip wires Point10+GpsTime+RGB through
// record.Compressor/Decompressor together, the way codec.BuildSequentialCompressor
// assembles a whole point format 1/2/3 record rather than one field codec at
// a time.
func TestCompositeRecordRoundTrip(t *testing.T) {
	const n = 300
	rng := rand.New(rand.NewSource(10))
	engine := endian.GetLittleEndianEngine()

	recordSize := laz.Point10Size + laz.GPSTimeSize + laz.RGBSize
	records := make([][]byte, n)
	for i := range records {
		buf := make([]byte, recordSize)
		p := randomPoint10(rng)
		p.Pack(buf[:laz.Point10Size], engine)
		laz.PackGPSTime(buf[laz.Point10Size:laz.Point10Size+laz.GPSTimeSize], 400000+rng.Float64()*1000, engine)
		rOff := laz.Point10Size + laz.GPSTimeSize
		rgb := laz.RGB{Red: uint16(rng.Intn(65536)), Green: uint16(rng.Intn(65536)), Blue: uint16(rng.Intn(65536))}
		rgb.Pack(buf[rOff:rOff+laz.RGBSize], engine)
		records[i] = buf
	}

	var out bytes.Buffer
	enc := rangecoder.NewEncoder(&out)
	rc := record.NewCompressor(enc)
	p10c, err := v2.NewPoint10Compressor()
	require.NoError(t, err)
	gpsc, err := v2.NewGpsTimeCompressor()
	require.NoError(t, err)
	rgbc, err := v2.NewRGBCompressor()
	require.NoError(t, err)
	rc.AddField(p10c)
	rc.AddField(gpsc)
	rc.AddField(rgbc)

	for _, input := range records {
		require.NoError(t, rc.Compress(input))
	}
	require.NoError(t, enc.Done())

	// record.Decompressor reads the range coder's init bytes itself, after
	// the raw first record.
	dec := rangecoder.NewDecoder(&out)
	rd := record.NewDecompressor(dec)
	p10d, err := v2.NewPoint10Decompressor()
	require.NoError(t, err)
	gpsd, err := v2.NewGpsTimeDecompressor()
	require.NoError(t, err)
	rgbd, err := v2.NewRGBDecompressor()
	require.NoError(t, err)
	rd.AddField(p10d)
	rd.AddField(gpsd)
	rd.AddField(rgbd)

	for i, want := range records {
		got := make([]byte, recordSize)
		require.NoError(t, rd.Decompress(got))
		require.Equalf(t, want, got, "record %d mismatch", i)
	}
}
