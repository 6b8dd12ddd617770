// Package redisstore implements the gateway's hot-path state — circuit
// breaker snapshots and minute buckets, the metrics hot store, and the
// payment event stream — on top of Redis.
package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/config"
)

// NewClient parses cfg.RedisURL and verifies connectivity with a ping.
func NewClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info("connected to redis", zap.String("addr", opts.Addr))
	return client, nil
}
