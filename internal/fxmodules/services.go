package fxmodules

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/config"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/handler"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/service"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/store"
)

// ServicesModule provides the scoring weights cache and the payment
// conductor built on top of every repository/store binding.
var ServicesModule = fx.Module("services",
	fx.Provide(
		func(cfg *config.Config, scoringConfig ports.ScoringConfigStore) *service.WeightsCache {
			return service.NewWeightsCache(cfg.ScoringWeightsCacheTTL, ports.SystemClock{}, scoringConfig)
		},
		service.NewConductor,
		func(cfg *config.Config) handler.ExperimentGuardrails {
			return handler.ExperimentGuardrails{
				MinSamples:           int64(cfg.ExperimentMinSamples),
				MaxSuccessRateDrop:   cfg.ExperimentMaxSuccessRateDrop,
				MaxLatencyMultiplier: cfg.ExperimentMaxLatencyMultiplier,
			}
		},
	),
)

// HandlerModule provides the HTTP handler; ServerModule registers its
// routes on a ServeMux.
var HandlerModule = fx.Module("handler",
	fx.Provide(
		func(
			conductor *service.Conductor,
			payments *store.PaymentRepository,
			gateways *store.GatewayRepository,
			experiments *store.ExperimentRepository,
			verifications *store.VerificationRepository,
			circuitStore ports.CircuitStore,
			metricsStore ports.MetricsHotStore,
			cfg *config.Config,
			guardrails handler.ExperimentGuardrails,
			logger *zap.Logger,
		) *handler.Handler {
			return handler.New(
				conductor, payments, gateways, experiments, verifications,
				circuitStore, metricsStore, ports.SystemClock{}, cfg.InternalAPIKey,
				guardrails, 120, logger,
			)
		},
	),
)
