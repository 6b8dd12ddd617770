// Package metrics implements the in-process sliding-window aggregator:
// per-minute buckets keyed by (gateway, method, bank), rolled up into the
// standard windows and published to the hot store after every consumed
// batch.
package metrics

// AmountBucket returns the coarse amount band an amount_minor value falls
// into, used both for experiment filters and metric segmentation.
func AmountBucket(amountMinor int64) string {
	switch {
	case amountMinor < 50_000:
		return "lt_500"
	case amountMinor < 200_000:
		return "500_2000"
	case amountMinor < 1_000_000:
		return "2000_10000"
	default:
		return "gt_10000"
	}
}
