package fxmodules

import (
	"go.uber.org/fx"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
)

// AdaptersModule provides the gateway-id-keyed adapter map the conductor
// and verification worker dispatch through. The map instance is created
// empty here and populated in place by the database module's OnStart
// hook, once migrations and the default gateway seed have run — every
// holder of this reference sees the populated map by the time the HTTP
// server and background workers start.
var AdaptersModule = fx.Module("adapters",
	fx.Provide(func() map[string]ports.ProviderAdapter {
		return make(map[string]ports.ProviderAdapter)
	}),
)
