package integer_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/arloliu/golaz/integer"
	"github.com/arloliu/golaz/rangecoder"
	"github.com/stretchr/testify/require"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	const n = 5000

	rng := rand.New(rand.NewSource(42))
	preds := make([]int32, n)
	reals := make([]int32, n)
	for i := range preds {
		preds[i] = rng.Int31n(1 << 20)
		// Most values are close to their prediction, a few are wild jumps,
		// matching the corrector distribution predictive field codecs see.
		if rng.Intn(20) == 0 {
			reals[i] = rng.Int31n(1 << 24)
		} else {
			reals[i] = preds[i] + rng.Int31n(2048) - 1024
		}
	}

	var buf bytes.Buffer
	enc := rangecoder.NewEncoder(&buf)
	comp := integer.NewCompressor(32, integer.DefaultContexts)
	require.NoError(t, comp.Init())

	for i := range preds {
		require.NoError(t, comp.Compress(enc, preds[i], reals[i], 0))
	}
	require.NoError(t, enc.Done())

	dec := rangecoder.NewDecoder(&buf)
	require.NoError(t, dec.ReadInitBytes())
	decomp := integer.NewDecompressor(32, integer.DefaultContexts)
	require.NoError(t, decomp.Init())

	for i := range preds {
		got, err := decomp.Decompress(dec, preds[i], 0)
		require.NoError(t, err)
		require.Equalf(t, reals[i], got, "value %d mismatch", i)
	}
}

func TestCompressDecompressMultipleContexts(t *testing.T) {
	const contexts = 4
	const n = 2000

	rng := rand.New(rand.NewSource(7))
	preds := make([]int32, n)
	reals := make([]int32, n)
	ctxs := make([]uint32, n)
	for i := range preds {
		preds[i] = rng.Int31n(1 << 16)
		reals[i] = preds[i] + rng.Int31n(512) - 256
		ctxs[i] = uint32(rng.Intn(contexts))
	}

	var buf bytes.Buffer
	enc := rangecoder.NewEncoder(&buf)
	comp := integer.NewCompressor(32, contexts)
	require.NoError(t, comp.Init())

	for i := range preds {
		require.NoError(t, comp.Compress(enc, preds[i], reals[i], ctxs[i]))
	}
	require.NoError(t, enc.Done())

	dec := rangecoder.NewDecoder(&buf)
	require.NoError(t, dec.ReadInitBytes())
	decomp := integer.NewDecompressor(32, contexts)
	require.NoError(t, decomp.Init())

	for i := range preds {
		got, err := decomp.Decompress(dec, preds[i], ctxs[i])
		require.NoError(t, err)
		require.Equal(t, reals[i], got)
	}
}

func TestCompressDecompressWithExplicitRange(t *testing.T) {
	const n = 1000
	const valueRange = 9 // e.g. number-of-returns style small domain

	rng := rand.New(rand.NewSource(3))
	preds := make([]int32, n)
	reals := make([]int32, n)
	for i := range preds {
		preds[i] = rng.Int31n(valueRange)
		reals[i] = rng.Int31n(valueRange)
	}

	var buf bytes.Buffer
	enc := rangecoder.NewEncoder(&buf)
	comp := integer.NewCompressorWithRange(0, 1, integer.DefaultBitsHigh, valueRange)
	require.NoError(t, comp.Init())

	for i := range preds {
		require.NoError(t, comp.Compress(enc, preds[i], reals[i], 0))
	}
	require.NoError(t, enc.Done())

	dec := rangecoder.NewDecoder(&buf)
	require.NoError(t, dec.ReadInitBytes())
	decomp := integer.NewDecompressorWithRange(0, 1, integer.DefaultBitsHigh, valueRange)
	require.NoError(t, decomp.Init())

	for i := range preds {
		got, err := decomp.Decompress(dec, preds[i], 0)
		require.NoError(t, err)
		require.Equal(t, reals[i], got)
	}
}
