package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

func newTestMetricsStore(t *testing.T) *MetricsHotStore {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	return NewMetricsHotStore(client)
}

func TestMetricsHotStoreWriteAndReadRecent(t *testing.T) {
	store := newTestMetricsStore(t)
	ctx := context.Background()
	key := model.MetricKey{Gateway: "g1", Method: "UPI", Bank: "HDFC"}
	metric := model.AggregatedMetric{SuccessRate: 0.95, TotalRequests: 100, GeneratedAt: time.Now()}

	require.NoError(t, store.WriteMetric(ctx, key, 5, metric))

	got, ok, err := store.ReadRecent(ctx, "g1", "UPI", "HDFC", 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.95, got.SuccessRate, 0.0001)
}

func TestMetricsHotStoreReadRecentMissingReturnsFalse(t *testing.T) {
	store := newTestMetricsStore(t)
	_, ok, err := store.ReadRecent(context.Background(), "g1", "UPI", "HDFC", 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMetricsHotStoreReadGatewayMetricsFiltersByMethodAndBank(t *testing.T) {
	store := newTestMetricsStore(t)
	ctx := context.Background()

	require.NoError(t, store.WriteMetric(ctx, model.MetricKey{Gateway: "g1", Method: "UPI", Bank: "HDFC"}, 5, model.AggregatedMetric{SuccessRate: 0.9}))
	require.NoError(t, store.WriteMetric(ctx, model.MetricKey{Gateway: "g1", Method: "CARD", Bank: "ICICI"}, 5, model.AggregatedMetric{SuccessRate: 0.8}))

	all, err := store.ReadGatewayMetrics(ctx, "g1", 5, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := store.ReadGatewayMetrics(ctx, "g1", 5, "UPI", "")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "HDFC", filtered[0].Bank)
}
