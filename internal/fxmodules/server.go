package fxmodules

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/config"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/handler"
)

// ServerModule provides the registered ServeMux and the http.Server
// wrapping it, starting and gracefully stopping it via fx.Lifecycle.
var ServerModule = fx.Module("server",
	fx.Provide(func(h *handler.Handler) *http.ServeMux {
		mux := http.NewServeMux()
		h.RegisterRoutes(mux)
		return mux
	}),
	fx.Provide(func(cfg *config.Config, mux *http.ServeMux) *http.Server {
		return &http.Server{
			Addr:         cfg.BindAddr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
	}),
	fx.Invoke(func(lc fx.Lifecycle, server *http.Server, logger *zap.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				logger.Info("starting http server", zap.String("addr", server.Addr))
				go func() {
					if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						logger.Error("http server failed", zap.Error(err))
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				logger.Info("stopping http server")
				shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			},
		})
	}),
)
