package store

import (
	"context"
	"time"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/gateway"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

// DefaultGateways is the local-dev gateway roster: two UPI-capable
// providers and one card/netbanking provider, all mock-driven since no
// real provider credentials are required to exercise the routing,
// retry, and circuit-breaker paths end to end.
var DefaultGateways = []model.GatewayConfig{
	{GatewayID: "razorpay_primary", GatewayName: "Razorpay Primary", AdapterType: "razorpay", IsEnabled: true, Priority: 1, SupportedMethods: "UPI,CARD,NETBANKING", TimeoutMS: 4000, MockBehavior: gateway.BehaviorAlwaysSuccess},
	{GatewayID: "razorpay_backup", GatewayName: "Razorpay Backup", AdapterType: "razorpay", IsEnabled: true, Priority: 2, SupportedMethods: "UPI,CARD", TimeoutMS: 4000, MockBehavior: gateway.BehaviorFlaky},
	{GatewayID: "mock_netbanking", GatewayName: "Mock Netbanking Gateway", AdapterType: "mock", IsEnabled: true, Priority: 3, SupportedMethods: "NETBANKING,CARD", TimeoutMS: 6000, MockBehavior: gateway.BehaviorFlaky},
}

// SeedDefaultGateways inserts DefaultGateways for any gateway_id not
// already present, leaving existing rows (and any operator edits) alone.
func SeedDefaultGateways(ctx context.Context, repo *GatewayRepository) error {
	existing, err := repo.ListAll(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, gw := range existing {
		seen[gw.GatewayID] = true
	}

	now := time.Now()
	for _, gw := range DefaultGateways {
		if seen[gw.GatewayID] {
			continue
		}
		gw.UpdatedAt = now
		if err := repo.Upsert(ctx, gw); err != nil {
			return err
		}
	}
	return nil
}
