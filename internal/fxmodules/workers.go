package fxmodules

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/config"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/metrics"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/outbox"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/store"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/verification"
)

// WorkersModule provides the three independent background loops
// described in the concurrency model — outbox relay, metrics stream
// consumer, verification worker — and starts/stops each as an
// fx.Lifecycle hook running on its own goroutine.
var WorkersModule = fx.Module("workers",
	fx.Provide(
		func(store ports.OutboxStore, sink ports.EventSink, cfg *config.Config, logger *zap.Logger) *outbox.Relay {
			return outbox.NewRelay(store, sink, cfg.OutboxRelayInterval, ports.SystemClock{}, logger)
		},
		func(sink ports.EventSink, hot ports.MetricsHotStore, history *store.MetricsHistoryRepository, cfg *config.Config, logger *zap.Logger) *metrics.Consumer {
			return metrics.NewConsumer(sink, hot, history, metrics.NewSlidingMetrics(), cfg.MetricsStreamGroup, cfg.MetricsConsumer, cfg.MetricsConsumeBlock, ports.SystemClock{}, logger)
		},
		func(verifications *store.VerificationRepository, adapters map[string]ports.ProviderAdapter, cfg *config.Config, logger *zap.Logger) *verification.Worker {
			return verification.NewWorker(verifications, adapters, cfg.VerificationInterval, ports.SystemClock{}, logger)
		},
	),
	fx.Invoke(runBackgroundLoop[*outbox.Relay]),
	fx.Invoke(runBackgroundLoop[*metrics.Consumer]),
	fx.Invoke(runBackgroundLoop[*verification.Worker]),
)

type runnable interface {
	Run(ctx context.Context) error
}

// runBackgroundLoop starts w.Run on its own goroutine at OnStart and
// cancels it at OnStop; a context.Canceled return on shutdown is
// expected and not logged as a failure.
func runBackgroundLoop[W runnable](lc fx.Lifecycle, w W, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := w.Run(ctx); err != nil && err != context.Canceled {
					logger.Error("background loop exited", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
