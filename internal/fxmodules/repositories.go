package fxmodules

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/config"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/metrics"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/redisstore"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/store"
)

// RepositoriesModule provides every Postgres repository and binds the
// concrete repository types to the narrow ports interfaces the
// conductor depends on.
var RepositoriesModule = fx.Module("repositories",
	fx.Provide(
		store.NewPaymentRepository,
		store.NewGatewayRepository,
		store.NewExperimentRepository,
		store.NewScoringConfigRepository,
		store.NewOutboxRepository,
		store.NewVerificationRepository,
		store.NewMetricsHistoryRepository,

		func(r *store.PaymentRepository) ports.PaymentStore { return r },
		func(r *store.GatewayRepository) ports.GatewayStore { return r },
		func(r *store.ExperimentRepository) ports.ExperimentStore { return r },
		func(r *store.ScoringConfigRepository) ports.ScoringConfigStore { return r },
		func(r *store.OutboxRepository) ports.OutboxStore { return r },
		func(r *store.MetricsHistoryRepository) metrics.HistoryStore { return r },
	),
)

// RedisStoreModule provides the Redis-backed circuit breaker, metrics hot
// store, and event stream, binding each to its ports interface.
var RedisStoreModule = fx.Module("redisstore",
	fx.Provide(
		func(client *redis.Client) *redisstore.CircuitStore {
			return redisstore.NewCircuitStore(client)
		},
		func(client *redis.Client) *redisstore.MetricsHotStore {
			return redisstore.NewMetricsHotStore(client)
		},
		func(client *redis.Client, cfg *config.Config) *redisstore.EventStream {
			return redisstore.NewEventStream(client, cfg.MetricsStreamKey)
		},

		func(s *redisstore.CircuitStore) ports.CircuitStore { return s },
		func(s *redisstore.MetricsHotStore) ports.MetricsHotStore { return s },
		func(s *redisstore.EventStream) ports.EventSink { return s },
	),
)
