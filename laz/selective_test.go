package laz_test

import (
	"testing"

	"github.com/arloliu/golaz/laz"
	"github.com/stretchr/testify/require"
)

func TestDecompressionSelectionDefaultsToBaseFields(t *testing.T) {
	sel := laz.SelectionBase()
	require.False(t, sel.Has(laz.SelectGPSTime))
	require.False(t, sel.Has(laz.SelectRGB))
}

func TestDecompressionSelectionAll(t *testing.T) {
	sel := laz.SelectionAll()
	require.True(t, sel.Has(laz.SelectGPSTime))
	require.True(t, sel.Has(laz.SelectRGB))
	require.True(t, sel.Has(laz.SelectNIR))
}

func TestDecompressionSelectionWithWithout(t *testing.T) {
	sel := laz.SelectionBase().With(laz.SelectGPSTime | laz.SelectRGB)
	require.True(t, sel.Has(laz.SelectGPSTime))
	require.True(t, sel.Has(laz.SelectRGB))

	sel = sel.Without(laz.SelectRGB)
	require.True(t, sel.Has(laz.SelectGPSTime))
	require.False(t, sel.Has(laz.SelectRGB))
}
