package fxmodules

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/config"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/gateway"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/redisstore"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/store"
)

// DatabaseModule provides the Postgres connection, running migrations
// and the default gateway seed on start, and the Redis client used by
// every secondary store.
var DatabaseModule = fx.Module("database",
	fx.Provide(store.NewDB),
	fx.Provide(func(cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
		return redisstore.NewClient(context.Background(), cfg, logger)
	}),
	fx.Invoke(func(lc fx.Lifecycle, db *store.DB, gateways *store.GatewayRepository, adapters map[string]ports.ProviderAdapter, logger *zap.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				logger.Info("running automigrate")
				if err := db.AutoMigrate(); err != nil {
					return err
				}
				if err := store.SeedDefaultGateways(ctx, gateways); err != nil {
					return err
				}

				configs, err := gateways.ListAll(ctx)
				if err != nil {
					return err
				}
				for id, adapter := range gateway.BuildAdapters(configs) {
					adapters[id] = adapter
				}
				return nil
			},
			OnStop: func(ctx context.Context) error {
				logger.Info("closing database connection")
				return db.Close()
			},
		})
	}),
	fx.Invoke(func(lc fx.Lifecycle, client *redis.Client) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
	}),
)
