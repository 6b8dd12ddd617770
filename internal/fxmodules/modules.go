// Package fxmodules wires the whole gateway together with go.uber.org/fx:
// configuration, logging, Postgres/Redis connections, one repository per
// aggregate bound to its ports interface, the payment conductor, the HTTP
// handler, and the three background loops (outbox relay, metrics
// consumer, verification worker), each started/stopped through
// fx.Lifecycle hooks.
package fxmodules

import (
	"go.uber.org/fx"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/config"
)

// ConfigModule provides application configuration.
var ConfigModule = fx.Module("config",
	fx.Provide(config.Load),
)

// LoggerModule provides the process-wide structured logger.
var LoggerModule = fx.Module("logger",
	fx.Provide(NewLogger),
)

// CoreModules combines configuration, logging, and storage wiring.
var CoreModules = fx.Options(
	ConfigModule,
	LoggerModule,
	DatabaseModule,
	RedisStoreModule,
	RepositoriesModule,
	AdaptersModule,
)

// ApplicationModules combines the domain services, HTTP surface, and
// background workers built on top of CoreModules.
var ApplicationModules = fx.Options(
	ServicesModule,
	HandlerModule,
	ServerModule,
	WorkersModule,
)
