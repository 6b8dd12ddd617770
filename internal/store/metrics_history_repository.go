package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

// MetricsHistoryRepository is the durable counterpart of the Redis hot
// store: one upserted row per (snapshot minute, gateway, method, bank,
// window), kept for historical/reporting queries after the TTL'd hot
// entry expires.
type MetricsHistoryRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewMetricsHistoryRepository builds a MetricsHistoryRepository.
func NewMetricsHistoryRepository(db *DB, logger *zap.Logger) *MetricsHistoryRepository {
	return &MetricsHistoryRepository{db: db, logger: logger.Named("metrics-history-repository")}
}

// InsertSnapshot upserts one window's aggregated metric for a snapshot
// minute.
func (r *MetricsHistoryRepository) InsertSnapshot(ctx context.Context, snapshotMinute time.Time, key model.MetricKey, windowMinutes int, metric model.AggregatedMetric) error {
	row := model.MetricHistoryRow{
		SnapshotMinute: snapshotMinute,
		Gateway:        key.Gateway,
		Method:         key.Method,
		Bank:           key.Bank,
		WindowMinutes:  windowMinutes,
		SuccessRate:    metric.SuccessRate,
		TimeoutRate:    metric.TimeoutRate,
		AvgLatencyMS:   metric.AvgLatencyMS,
		P95LatencyMS:   metric.P95LatencyMS,
		TotalRequests:  metric.TotalRequests,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "snapshot_minute"}, {Name: "gateway"}, {Name: "method"}, {Name: "bank"}, {Name: "window_minutes"},
		},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("inserting metric history snapshot: %w", err)
	}
	return nil
}
