package model

import "time"

// MetricKey identifies one sliding-window bucket series.
type MetricKey struct {
	Gateway string
	Method  string
	Bank    string
}

// AggregatedMetric is a published window snapshot, stored both in the
// hot store (TTL'd) and the historical store (append-on-insert).
type AggregatedMetric struct {
	SuccessRate    float64          `json:"success_rate"`
	TimeoutRate    float64          `json:"timeout_rate"`
	AvgLatencyMS   int32            `json:"avg_latency_ms"`
	P50LatencyMS   int32            `json:"p50_latency_ms"`
	P95LatencyMS   int32            `json:"p95_latency_ms"`
	P99LatencyMS   int32            `json:"p99_latency_ms"`
	TotalRequests  int64            `json:"total_requests"`
	FailedRequests int64            `json:"failed_requests"`
	TimeoutRequests int64           `json:"timeout_requests"`
	ErrorCounts    map[string]int64 `json:"error_counts"`
	GeneratedAt    time.Time        `json:"generated_at"`
}

// MetricHistoryRow is the append/upsert row in the historical store,
// upserted per (snapshot minute, gateway, method, bank, window).
type MetricHistoryRow struct {
	SnapshotMinute time.Time `gorm:"primaryKey"`
	Gateway        string    `gorm:"primaryKey"`
	Method         string    `gorm:"primaryKey"`
	Bank           string    `gorm:"primaryKey"`
	WindowMinutes  int       `gorm:"primaryKey"`
	SuccessRate    float64
	TimeoutRate    float64
	AvgLatencyMS   int32
	P95LatencyMS   int32
	TotalRequests  int64
}

// TableName pins the gorm table name.
func (MetricHistoryRow) TableName() string { return "metric_history" }

// StandardWindows are the window sizes (in minutes) the aggregator
// computes and publishes for every key touched by a consumed batch.
var StandardWindows = []int64{1, 5, 15, 60}
