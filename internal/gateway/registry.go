package gateway

import (
	"time"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
)

// BuildAdapters constructs one MockAdapter per configured gateway row,
// simulating latency up to half its configured timeout budget. Every
// adapter type in this gateway is mock-driven: there is no real provider
// credential surface to wire in this environment, only the behavior the
// operator configures per row.
func BuildAdapters(configs []model.GatewayConfig) map[string]ports.ProviderAdapter {
	adapters := make(map[string]ports.ProviderAdapter, len(configs))
	for _, cfg := range configs {
		adapter := NewMockAdapter(cfg.GatewayID, cfg.MockBehavior)
		adapter.MinLatency = 10 * time.Millisecond
		adapter.MaxLatency = time.Duration(cfg.TimeoutMS/2) * time.Millisecond
		adapters[cfg.GatewayID] = adapter
	}
	return adapters
}
