package laz_test

import (
	"testing"

	"github.com/arloliu/golaz/endian"
	"github.com/arloliu/golaz/laz"
	"github.com/stretchr/testify/require"
)

func TestPoint10PackUnpackRoundTrip(t *testing.T) {
	p := laz.Point10{
		X: 123456, Y: -987654, Z: 42,
		Intensity:         4096,
		ReturnNumber:      3,
		NumberOfReturns:   5,
		ScanDirectionFlag: true,
		EdgeOfFlightLine:  false,
		Classification:    7,
		ScanAngleRank:     -15,
		UserData:          9,
		PointSourceID:     777,
	}

	buf := make([]byte, laz.Point10Size)
	engine := endian.GetLittleEndianEngine()
	p.Pack(buf, engine)

	var got laz.Point10
	got.Unpack(buf, engine)

	require.Equal(t, p, got)
}

func TestPoint10BitFieldsRoundTrip(t *testing.T) {
	p := laz.Point10{ReturnNumber: 5, NumberOfReturns: 6, ScanDirectionFlag: true, EdgeOfFlightLine: true}
	b := p.BitFields()

	var got laz.Point10
	got.SetBitFields(b)

	require.Equal(t, p.ReturnNumber, got.ReturnNumber)
	require.Equal(t, p.NumberOfReturns, got.NumberOfReturns)
	require.Equal(t, p.ScanDirectionFlag, got.ScanDirectionFlag)
	require.Equal(t, p.EdgeOfFlightLine, got.EdgeOfFlightLine)
}

func TestPoint14PackUnpackRoundTrip(t *testing.T) {
	p := laz.Point14{
		X: 1, Y: 2, Z: 3,
		Intensity:           1000,
		ReturnNumber:         2,
		NumberOfReturns:      4,
		ClassificationFlags:  3,
		ScannerChannel:       2,
		ScanDirectionFlag:    true,
		EdgeOfFlightLine:     true,
		Classification:       9,
		UserData:             1,
		ScanAngleRank:        30000,
		PointSourceID:        42,
		GPSTime:              123456.789,
	}

	buf := make([]byte, laz.Point14Size)
	engine := endian.GetLittleEndianEngine()
	p.Pack(buf, engine)

	var got laz.Point14
	got.Unpack(buf, engine)

	require.Equal(t, p, got)
}

func TestRGBPackUnpackRoundTrip(t *testing.T) {
	c := laz.RGB{Red: 1000, Green: 2000, Blue: 3000}
	buf := make([]byte, laz.RGBSize)
	engine := endian.GetLittleEndianEngine()
	c.Pack(buf, engine)

	var got laz.RGB
	got.Unpack(buf, engine)

	require.Equal(t, c, got)
}

func TestGPSTimePackUnpackRoundTrip(t *testing.T) {
	buf := make([]byte, laz.GPSTimeSize)
	engine := endian.GetLittleEndianEngine()
	laz.PackGPSTime(buf, 987654321.123, engine)

	require.InDelta(t, 987654321.123, laz.UnpackGPSTime(buf, engine), 1e-9)
}

func TestNIRPackUnpackRoundTrip(t *testing.T) {
	buf := make([]byte, laz.NIRSize)
	engine := endian.GetLittleEndianEngine()
	laz.NIR(60000).Pack(buf, engine)

	require.Equal(t, laz.NIR(60000), laz.UnpackNIR(buf, engine))
}
