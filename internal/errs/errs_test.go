package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/arloliu/golaz/internal/errs"
	"github.com/stretchr/testify/assert"
)

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		errs.ErrUnknownLazItem,
		errs.ErrUnsupportedLazItemVersion,
		errs.ErrUnsupportedPointFormat,
		errs.ErrUnknownCompressorType,
		errs.ErrUnsupportedCompressorType,
		errs.ErrMissingChunkTable,
		errs.ErrChunkIndexOutOfRange,
		errs.ErrChunkIntegrityCheckFailed,
		errs.ErrBufferLenNotMultipleOfPointSize,
		errs.ErrNoLazItems,
		errs.ErrPointCountMismatch,
		errs.ErrRangeCoderUnderflow,
		errs.ErrInvalidModelSymbolCount,
		errs.ErrTruncatedStream,
		errs.ErrNoChunksToProcess,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.NotErrorIs(t, a, b)
		}
	}
}

func TestWrappedSentinelMatchesErrorsIs(t *testing.T) {
	wrapped := fmt.Errorf("%w: point format %d", errs.ErrUnsupportedPointFormat, 9)

	assert.True(t, errors.Is(wrapped, errs.ErrUnsupportedPointFormat))
	assert.False(t, errors.Is(wrapped, errs.ErrUnknownLazItem))
}
