package metrics

import "math"

// minuteBucket is one (key, minute) rolling counter; latencies are kept
// raw and sorted only at read time, since writes vastly outnumber reads.
type minuteBucket struct {
	minute      int64
	total       int64
	failed      int64
	timeout     int64
	latencies   []int32
	errorCounts map[string]int64
}

func newMinuteBucket(minute int64) *minuteBucket {
	return &minuteBucket{minute: minute, errorCounts: map[string]int64{}}
}

// MinuteEpoch truncates a unix timestamp down to the start of its minute.
func MinuteEpoch(unixSeconds int64) int64 {
	return unixSeconds - (unixSeconds % 60)
}

// Percentile returns the nearest-rank percentile of a pre-sorted slice.
func Percentile(sorted []int32, p float64) int32 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Round(float64(len(sorted)-1) * p))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
