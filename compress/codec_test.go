package compress_test

import (
	"testing"

	"github.com/arloliu/golaz/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated: " +
		"the quick brown fox jumps over the lazy dog")

	tests := []struct {
		name string
		kind compress.CompressionType
	}{
		{"none", compress.CompressionNone},
		{"zstd", compress.CompressionZstd},
		{"s2", compress.CompressionS2},
		{"lz4", compress.CompressionLZ4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			codec, err := compress.CreateCodec(tc.kind)
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)

			assert.Equal(t, payload, decompressed)
		})
	}
}

func TestCodecRoundTripEmpty(t *testing.T) {
	for _, kind := range []compress.CompressionType{
		compress.CompressionNone,
		compress.CompressionZstd,
		compress.CompressionS2,
		compress.CompressionLZ4,
	} {
		codec, err := compress.CreateCodec(kind)
		require.NoError(t, err)

		compressed, err := codec.Compress(nil)
		require.NoError(t, err)

		decompressed, err := codec.Decompress(compressed)
		require.NoError(t, err)
		assert.Empty(t, decompressed)
	}
}

func TestCreateCodecInvalid(t *testing.T) {
	_, err := compress.CreateCodec(compress.CompressionType(0xFF))
	require.Error(t, err)
}

func TestGetCodec(t *testing.T) {
	codec, err := compress.GetCodec(compress.CompressionZstd)
	require.NoError(t, err)
	require.NotNil(t, codec)

	_, err = compress.GetCodec(compress.CompressionType(0xFF))
	require.Error(t, err)
}

func TestCompressionTypeString(t *testing.T) {
	assert.Equal(t, "None", compress.CompressionNone.String())
	assert.Equal(t, "Zstd", compress.CompressionZstd.String())
	assert.Equal(t, "S2", compress.CompressionS2.String())
	assert.Equal(t, "LZ4", compress.CompressionLZ4.String())
	assert.Equal(t, "Unknown", compress.CompressionType(0xFF).String())
}
