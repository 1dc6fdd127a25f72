package rangecoder

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSymbolRoundTrip(t *testing.T) {
	const symbols = 17
	const n = 20000

	rng := rand.New(rand.NewSource(1))
	values := make([]uint32, n)
	for i := range values {
		values[i] = uint32(rng.Intn(symbols))
	}

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	encModel, err := NewModel(symbols, true, nil)
	require.NoError(t, err)

	for _, v := range values {
		require.NoError(t, enc.EncodeSymbol(encModel, v))
	}
	require.NoError(t, enc.Done())

	dec := NewDecoder(&buf)
	require.NoError(t, dec.ReadInitBytes())
	decModel, err := NewModel(symbols, false, nil)
	require.NoError(t, err)

	for i, want := range values {
		got, err := dec.DecodeSymbol(decModel)
		require.NoError(t, err)
		require.Equalf(t, want, got, "symbol %d mismatch", i)
	}
}

func TestBitRoundTrip(t *testing.T) {
	const n = 20000

	rng := rand.New(rand.NewSource(2))
	bits := make([]uint32, n)
	for i := range bits {
		bits[i] = uint32(rng.Intn(2))
	}

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	encModel := NewBitModel()

	for _, b := range bits {
		require.NoError(t, enc.EncodeBit(encModel, b))
	}
	require.NoError(t, enc.Done())

	dec := NewDecoder(&buf)
	require.NoError(t, dec.ReadInitBytes())
	decModel := NewBitModel()

	for i, want := range bits {
		got, err := dec.DecodeBit(decModel)
		require.NoError(t, err)
		require.Equalf(t, want, got, "bit %d mismatch", i)
	}
}

func TestUnmodeledRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	require.NoError(t, enc.WriteBit(1))
	require.NoError(t, enc.WriteBit(0))
	require.NoError(t, enc.WriteByte(0xAB))
	require.NoError(t, enc.WriteShort(0xBEEF))
	require.NoError(t, enc.WriteBits(20, 0x8A5C3))
	require.NoError(t, enc.WriteInt(0xDEADBEEF))
	require.NoError(t, enc.WriteInt64(0x0123456789ABCDEF))
	require.NoError(t, enc.Done())

	dec := NewDecoder(&buf)
	require.NoError(t, dec.ReadInitBytes())

	b1, err := dec.ReadBit()
	require.NoError(t, err)
	require.Equal(t, uint32(1), b1)

	b2, err := dec.ReadBit()
	require.NoError(t, err)
	require.Equal(t, uint32(0), b2)

	by, err := dec.ReadBits(8)
	require.NoError(t, err)
	require.Equal(t, uint32(0xAB), by)

	sh, err := dec.ReadShort()
	require.NoError(t, err)
	require.Equal(t, uint16(0xBEEF), sh)

	bits20, err := dec.ReadBits(20)
	require.NoError(t, err)
	require.Equal(t, uint32(0x8A5C3), bits20)

	i32, err := dec.ReadInt()
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), i32)

	i64, err := dec.ReadInt64()
	require.NoError(t, err)
	require.Equal(t, uint64(0x0123456789ABCDEF), i64)
}

func TestEncoderResetAllowsReuse(t *testing.T) {
	encodeRun := func(buf *bytes.Buffer, enc *Encoder) {
		model, err := NewModel(8, true, nil)
		require.NoError(t, err)
		for i := uint32(0); i < 100; i++ {
			require.NoError(t, enc.EncodeSymbol(model, i%8))
		}
		require.NoError(t, enc.Done())
	}

	var buf1 bytes.Buffer
	enc := NewEncoder(&buf1)
	encodeRun(&buf1, enc)
	first := append([]byte(nil), buf1.Bytes()...)

	var buf2 bytes.Buffer
	enc.Reset()
	enc.w = &buf2
	encodeRun(&buf2, enc)

	require.Equal(t, first, buf2.Bytes())
}
