package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

// SlidingMetrics is the in-process per-minute bucket store, keyed by
// (gateway, method, bank). Buckets older than 59 minutes are evicted on
// every ingest, bounding memory to roughly the largest standard window.
type SlidingMetrics struct {
	mu      sync.Mutex
	buckets map[model.MetricKey]map[int64]*minuteBucket
}

// NewSlidingMetrics returns an empty aggregator.
func NewSlidingMetrics() *SlidingMetrics {
	return &SlidingMetrics{buckets: map[model.MetricKey]map[int64]*minuteBucket{}}
}

// Ingest folds one payment event into its (gateway, method, bank) minute
// bucket, classifying TIMEOUT and PENDING_VERIFICATION as both failed and
// timed-out, matching the routing outcome's retryability.
func (s *SlidingMetrics) Ingest(event model.PaymentEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.MetricKey{Gateway: event.GatewayUsed, Method: event.PaymentMethod, Bank: event.IssuingBank}
	minute := MinuteEpoch(event.Timestamp.Unix())

	series, ok := s.buckets[key]
	if !ok {
		series = map[int64]*minuteBucket{}
		s.buckets[key] = series
	}
	bucket, ok := series[minute]
	if !ok {
		bucket = newMinuteBucket(minute)
		series[minute] = bucket
	}

	bucket.total++
	bucket.latencies = append(bucket.latencies, event.LatencyMS)

	switch event.Status {
	case model.StatusFailure:
		bucket.failed++
		incrementErrorCount(bucket, event.ErrorCode)
	case model.StatusTimeout, model.StatusPendingVerification:
		bucket.failed++
		bucket.timeout++
		incrementErrorCount(bucket, event.ErrorCode)
	}

	floor := minute - (59 * 60)
	for m := range series {
		if m < floor {
			delete(series, m)
		}
	}
}

func incrementErrorCount(bucket *minuteBucket, code *string) {
	if code == nil {
		return
	}
	bucket.errorCounts[*code]++
}

// Keys returns every (gateway, method, bank) combination with at least one
// retained bucket.
func (s *SlidingMetrics) Keys() []model.MetricKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]model.MetricKey, 0, len(s.buckets))
	for k := range s.buckets {
		keys = append(keys, k)
	}
	return keys
}

// Compute rolls up windowMinutes of buckets ending at now into an
// AggregatedMetric, returning false if the key has no data in that window.
func (s *SlidingMetrics) Compute(key model.MetricKey, windowMinutes int64, now time.Time) (model.AggregatedMetric, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	series, ok := s.buckets[key]
	if !ok {
		return model.AggregatedMetric{}, false
	}

	nowMinute := MinuteEpoch(now.Unix())
	start := nowMinute - (windowMinutes-1)*60

	var total, failed, timeout int64
	var latencies []int32
	errorCounts := map[string]int64{}

	for _, bucket := range series {
		if bucket.minute < start || bucket.minute > nowMinute {
			continue
		}
		total += bucket.total
		failed += bucket.failed
		timeout += bucket.timeout
		latencies = append(latencies, bucket.latencies...)
		for code, count := range bucket.errorCounts {
			errorCounts[code] += count
		}
	}

	if total == 0 {
		return model.AggregatedMetric{}, false
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	var sum int64
	for _, l := range latencies {
		sum += int64(l)
	}

	return model.AggregatedMetric{
		SuccessRate:     float64(total-failed) / float64(total),
		TimeoutRate:     float64(timeout) / float64(total),
		AvgLatencyMS:    int32(sum / int64(len(latencies))),
		P50LatencyMS:    Percentile(latencies, 0.50),
		P95LatencyMS:    Percentile(latencies, 0.95),
		P99LatencyMS:    Percentile(latencies, 0.99),
		TotalRequests:   total,
		FailedRequests:  failed,
		TimeoutRequests: timeout,
		ErrorCounts:     errorCounts,
		GeneratedAt:     now,
	}, true
}
