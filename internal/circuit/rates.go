package circuit

import "github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"

// MinuteEpoch truncates a unix timestamp down to the start of its minute.
func MinuteEpoch(unixSeconds int64) int64 {
	return unixSeconds - (unixSeconds % 60)
}

// RecordOutcome returns the updated minute bucket after counting one
// attempt's outcome. TIMEOUT increments both failed and timeout.
func RecordOutcome(bucket model.MinuteBucket, status model.Status) model.MinuteBucket {
	bucket.Total++
	switch status {
	case model.StatusSuccess:
		bucket.Success++
	case model.StatusTimeout:
		bucket.Failed++
		bucket.Timeout++
	default:
		bucket.Failed++
	}
	return bucket
}

// AggregateRates sums the last N minute buckets (keyed by minute) ending
// at nowMinute inclusive and returns (failure_rate, timeout_rate), both
// 0 when total == 0.
func AggregateRates(buckets map[int64]model.MinuteBucket, nowMinute int64, windowMinutes int64) (failureRate, timeoutRate float64) {
	var total, failed, timeout int64
	for m := nowMinute - (windowMinutes-1)*60; m <= nowMinute; m += 60 {
		b, ok := buckets[m]
		if !ok {
			continue
		}
		total += b.Total
		failed += b.Failed
		timeout += b.Timeout
	}
	if total == 0 {
		return 0, 0
	}
	return float64(failed) / float64(total), float64(timeout) / float64(total)
}
