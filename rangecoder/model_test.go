package rangecoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelRejectsInvalidSymbolCount(t *testing.T) {
	_, err := NewModel(1, false, nil)
	require.Error(t, err)

	_, err = NewModel(1<<12, false, nil)
	require.Error(t, err)
}

func TestNewModelRejectsMismatchedInitCount(t *testing.T) {
	_, err := NewModel(4, false, []uint32{1, 2, 3})
	require.Error(t, err)
}

func TestNewModelBuildsDecoderTableWhenDecoding(t *testing.T) {
	m, err := NewModel(32, false, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, m.decoderTable)
}

func TestNewModelSkipsDecoderTableWhenCompressing(t *testing.T) {
	m, err := NewModel(32, true, nil)
	require.NoError(t, err)
	assert.Empty(t, m.decoderTable)
}

func TestNewModelSkipsDecoderTableForSmallAlphabets(t *testing.T) {
	m, err := NewModel(8, false, nil)
	require.NoError(t, err)
	assert.Empty(t, m.decoderTable)
}

func TestModelDistributionIsMonotonic(t *testing.T) {
	m, err := NewModel(16, true, nil)
	require.NoError(t, err)

	for i := 1; i < len(m.distribution); i++ {
		assert.GreaterOrEqual(t, m.distribution[i], m.distribution[i-1])
	}
}
