package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinuteEpochTruncatesSeconds(t *testing.T) {
	assert.Equal(t, int64(1_700_000_000), MinuteEpoch(1_700_000_000))
	assert.Equal(t, int64(1_700_000_000), MinuteEpoch(1_700_000_045))
}

func TestPercentileEmptyIsZero(t *testing.T) {
	assert.EqualValues(t, 0, Percentile(nil, 0.95))
}

func TestPercentileNearestRank(t *testing.T) {
	sorted := []int32{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	assert.EqualValues(t, 60, Percentile(sorted, 0.50))
	assert.EqualValues(t, 100, Percentile(sorted, 0.95))
	assert.EqualValues(t, 100, Percentile(sorted, 1.0))
}
