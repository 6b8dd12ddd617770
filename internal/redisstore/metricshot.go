package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
)

// MetricsHotStore is the Redis-backed ports.MetricsHotStore: one TTL'd key
// per (gateway, method, bank, window), indexed by a per-(gateway, window)
// set so the gateway admin view can enumerate without a full scan.
type MetricsHotStore struct {
	client *redis.Client
}

// NewMetricsHotStore wraps a Redis client as a MetricsHotStore.
func NewMetricsHotStore(client *redis.Client) *MetricsHotStore {
	return &MetricsHotStore{client: client}
}

func metricKey(key model.MetricKey, window int64) string {
	return fmt.Sprintf("metrics:%s:%s:%s:%dm",
		strings.ToLower(key.Gateway), strings.ToLower(key.Method), strings.ToLower(key.Bank), window)
}

func metricIndexKey(gateway string, window int64) string {
	return fmt.Sprintf("metrics:index:%s:%dm", strings.ToLower(gateway), window)
}

// WriteMetric stores a computed window snapshot with a TTL slightly longer
// than the window itself, and indexes it for ReadGatewayMetrics.
func (s *MetricsHotStore) WriteMetric(ctx context.Context, key model.MetricKey, windowMinutes int64, metric model.AggregatedMetric) error {
	raw, err := json.Marshal(metric)
	if err != nil {
		return fmt.Errorf("encoding metric: %w", err)
	}

	ttl := time.Duration(windowMinutes*60+120) * time.Second
	indexKey := metricIndexKey(key.Gateway, windowMinutes)
	member := key.Method + ":" + key.Bank

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, metricKey(key, windowMinutes), raw, ttl)
	pipe.SAdd(ctx, indexKey, member)
	pipe.Expire(ctx, indexKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing metric: %w", err)
	}
	return nil
}

// ReadRecent returns the most recently published window snapshot for a
// single (gateway, method, bank) key, used by the scorer.
func (s *MetricsHotStore) ReadRecent(ctx context.Context, gateway, method, bank string, windowMinutes int64) (model.AggregatedMetric, bool, error) {
	key := model.MetricKey{Gateway: gateway, Method: method, Bank: bank}
	raw, err := s.client.Get(ctx, metricKey(key, windowMinutes)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.AggregatedMetric{}, false, nil
	}
	if err != nil {
		return model.AggregatedMetric{}, false, fmt.Errorf("reading metric: %w", err)
	}

	var metric model.AggregatedMetric
	if err := json.Unmarshal(raw, &metric); err != nil {
		return model.AggregatedMetric{}, false, fmt.Errorf("decoding metric: %w", err)
	}
	return metric, true, nil
}

// ReadGatewayMetrics returns every (method, bank) metric indexed for a
// gateway and window, optionally filtered to a single method and/or bank.
func (s *MetricsHotStore) ReadGatewayMetrics(ctx context.Context, gateway string, windowMinutes int64, filterMethod, filterBank string) ([]ports.GatewayMetricRow, error) {
	members, err := s.client.SMembers(ctx, metricIndexKey(gateway, windowMinutes)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading metric index: %w", err)
	}

	var rows []ports.GatewayMetricRow
	for _, member := range members {
		parts := strings.SplitN(member, ":", 2)
		if len(parts) != 2 {
			continue
		}
		method, bank := parts[0], parts[1]
		if filterMethod != "" && !strings.EqualFold(filterMethod, method) {
			continue
		}
		if filterBank != "" && !strings.EqualFold(filterBank, bank) {
			continue
		}

		metric, ok, err := s.ReadRecent(ctx, gateway, method, bank, windowMinutes)
		if err != nil || !ok {
			continue
		}
		rows = append(rows, ports.GatewayMetricRow{Method: method, Bank: bank, Metric: metric})
	}
	return rows, nil
}
