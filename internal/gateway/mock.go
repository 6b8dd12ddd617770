// Package gateway implements ports.ProviderAdapter. MockAdapter simulates a
// payment gateway whose behavior is entirely config-driven, so integration
// tests and local environments can exercise every routing/circuit-breaker
// path without a real provider.
package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

const (
	BehaviorAlwaysSuccess = "ALWAYS_SUCCESS"
	BehaviorAlwaysFailure = "ALWAYS_FAILURE"
	BehaviorAlwaysTimeout = "ALWAYS_TIMEOUT"
	BehaviorFlaky         = "FLAKY"
)

// MockAdapter is a ports.ProviderAdapter whose responses are driven by a
// configured behavior string, optionally with simulated latency.
type MockAdapter struct {
	GatewayID   string
	Behavior    string
	MinLatency  time.Duration
	MaxLatency  time.Duration
	FlakySuccessRate float64
	rng         *rand.Rand
}

// NewMockAdapter builds a MockAdapter seeded from its own time source; tests
// should construct the struct literal directly to control rng.
func NewMockAdapter(gatewayID, behavior string) *MockAdapter {
	return &MockAdapter{
		GatewayID:        gatewayID,
		Behavior:         behavior,
		FlakySuccessRate: 0.7,
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Name returns the adapter's gateway identifier.
func (m *MockAdapter) Name() string { return m.GatewayID }

// InitiatePayment returns a canned NormalizedGatewayResponse per Behavior,
// after optionally sleeping to simulate network latency.
func (m *MockAdapter) InitiatePayment(ctx context.Context, pctx model.PaymentContext, req model.CreatePaymentRequest) (model.NormalizedGatewayResponse, error) {
	if m.MaxLatency > m.MinLatency {
		latency := m.MinLatency + time.Duration(m.random().Int63n(int64(m.MaxLatency-m.MinLatency)))
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return timeoutResponse(), ctx.Err()
		}
	}

	switch m.Behavior {
	case BehaviorAlwaysFailure:
		return failureResponse(), nil
	case BehaviorAlwaysTimeout:
		<-ctx.Done()
		return model.NormalizedGatewayResponse{}, ctx.Err()
	case BehaviorFlaky:
		if m.random().Float64() < m.FlakySuccessRate {
			return successResponse(), nil
		}
		return failureResponse(), nil
	default:
		select {
		case <-ctx.Done():
			return model.NormalizedGatewayResponse{}, ctx.Err()
		default:
			return successResponse(), nil
		}
	}
}

// CheckStatus reconciles a pending transaction. Mock transaction ids
// (prefix "mock_txn_") always settle successfully; any other id is
// reported unresolved by returning the PendingVerification status
// unchanged so the worker reschedules.
func (m *MockAdapter) CheckStatus(ctx context.Context, transactionID string) (model.Status, error) {
	if strings.HasPrefix(transactionID, "mock_txn_") {
		return model.StatusSuccess, nil
	}
	return model.StatusPendingVerification, nil
}

func (m *MockAdapter) random() *rand.Rand {
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return m.rng
}

func successResponse() model.NormalizedGatewayResponse {
	txn := fmt.Sprintf("mock_txn_%s", uuid.New().String())
	auth := "MOCK_AUTH"
	code := "200"
	return model.NormalizedGatewayResponse{
		Status:              model.StatusSuccess,
		TransactionID:       &txn,
		AuthCode:            &auth,
		GatewayResponseCode: &code,
	}
}

func failureResponse() model.NormalizedGatewayResponse {
	errCode := "MOCK_DECLINED"
	errMsg := "mock decline"
	code := "400"
	return model.NormalizedGatewayResponse{
		Status:              model.StatusFailure,
		ErrorCode:           &errCode,
		ErrorMessage:        &errMsg,
		GatewayResponseCode: &code,
	}
}

func timeoutResponse() model.NormalizedGatewayResponse {
	errCode := "MOCK_TIMEOUT"
	errMsg := "mock timeout"
	code := "504"
	return model.NormalizedGatewayResponse{
		Status:              model.StatusTimeout,
		ErrorCode:           &errCode,
		ErrorMessage:        &errMsg,
		GatewayResponseCode: &code,
	}
}
