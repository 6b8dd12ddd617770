package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/scoring"
)

type mockPaymentStore struct{ mock.Mock }

func (m *mockPaymentStore) FindByIdempotencyKey(ctx context.Context, merchantID, key string) (*model.Payment, error) {
	args := m.Called(ctx, merchantID, key)
	p, _ := args.Get(0).(*model.Payment)
	return p, args.Error(1)
}

func (m *mockPaymentStore) Commit(ctx context.Context, result ports.PaymentCommit) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *mockPaymentStore) ListAttempts(ctx context.Context, paymentID uuid.UUID) ([]model.Attempt, error) {
	args := m.Called(ctx, paymentID)
	a, _ := args.Get(0).([]model.Attempt)
	return a, args.Error(1)
}

type mockGatewayStore struct{ mock.Mock }

func (m *mockGatewayStore) ListEnabledForMethod(ctx context.Context, method model.PaymentMethod) ([]model.GatewayConfig, error) {
	args := m.Called(ctx, method)
	g, _ := args.Get(0).([]model.GatewayConfig)
	return g, args.Error(1)
}

func (m *mockGatewayStore) RetryPolicyFor(ctx context.Context, merchantID string) (model.RetryPolicy, error) {
	args := m.Called(ctx, merchantID)
	p, _ := args.Get(0).(model.RetryPolicy)
	return p, args.Error(1)
}

func (m *mockGatewayStore) ClassifyError(ctx context.Context, gatewayID, errorCode string) (model.ErrorClassification, error) {
	args := m.Called(ctx, gatewayID, errorCode)
	c, _ := args.Get(0).(model.ErrorClassification)
	return c, args.Error(1)
}

type mockExperimentStore struct{ mock.Mock }

func (m *mockExperimentStore) ListRunning(ctx context.Context) ([]model.Experiment, error) {
	args := m.Called(ctx)
	e, _ := args.Get(0).([]model.Experiment)
	return e, args.Error(1)
}

func (m *mockExperimentStore) AssignmentFor(ctx context.Context, experimentID, customerID string) (*model.ExperimentAssignment, error) {
	args := m.Called(ctx, experimentID, customerID)
	a, _ := args.Get(0).(*model.ExperimentAssignment)
	return a, args.Error(1)
}

func (m *mockExperimentStore) SaveAssignment(ctx context.Context, assignment model.ExperimentAssignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *mockExperimentStore) RecordOutcome(ctx context.Context, experimentID, variant string, hour time.Time, success bool, latencyMS int32, revenueMinor int64) error {
	args := m.Called(ctx, experimentID, variant, hour, success, latencyMS, revenueMinor)
	return args.Error(0)
}

func (m *mockExperimentStore) BanditStatesFor(ctx context.Context, segment string) ([]model.BanditState, error) {
	args := m.Called(ctx, segment)
	s, _ := args.Get(0).([]model.BanditState)
	return s, args.Error(1)
}

func (m *mockExperimentStore) SaveBanditState(ctx context.Context, state model.BanditState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *mockExperimentStore) BanditPolicyFor(ctx context.Context, segment string) (bool, error) {
	args := m.Called(ctx, segment)
	return args.Bool(0), args.Error(1)
}

type mockScoringConfigStore struct{ mock.Mock }

func (m *mockScoringConfigStore) LoadWeights(ctx context.Context) (scoring.Weights, error) {
	args := m.Called(ctx)
	w, _ := args.Get(0).(scoring.Weights)
	return w, args.Error(1)
}

func (m *mockScoringConfigStore) MethodAffinity(ctx context.Context, gatewayID, method string) (float64, error) {
	args := m.Called(ctx, gatewayID, method)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockScoringConfigStore) AmountFit(ctx context.Context, gatewayID, amountBucket string) (float64, error) {
	args := m.Called(ctx, gatewayID, amountBucket)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockScoringConfigStore) TimeMultiplier(ctx context.Context, gatewayID string, now time.Time) (float64, error) {
	args := m.Called(ctx, gatewayID, now)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockScoringConfigStore) ResolveBankFromBIN(ctx context.Context, binPrefix string) (string, bool, error) {
	args := m.Called(ctx, binPrefix)
	return args.String(0), args.Bool(1), args.Error(2)
}

type mockCircuitStore struct{ mock.Mock }

func (m *mockCircuitStore) GetSnapshot(ctx context.Context, gatewayID, method string) (model.CircuitSnapshot, error) {
	args := m.Called(ctx, gatewayID, method)
	s, _ := args.Get(0).(model.CircuitSnapshot)
	return s, args.Error(1)
}

func (m *mockCircuitStore) GetOverride(ctx context.Context, gatewayID, method string) (model.OverrideMode, bool, error) {
	args := m.Called(ctx, gatewayID, method)
	mode, _ := args.Get(0).(model.OverrideMode)
	return mode, args.Bool(1), args.Error(2)
}

func (m *mockCircuitStore) SetOverride(ctx context.Context, gatewayID, method string, mode model.OverrideMode) error {
	args := m.Called(ctx, gatewayID, method, mode)
	return args.Error(0)
}

func (m *mockCircuitStore) ClearOverride(ctx context.Context, gatewayID, method string) error {
	args := m.Called(ctx, gatewayID, method)
	return args.Error(0)
}

func (m *mockCircuitStore) RecordAndTransition(ctx context.Context, gatewayID, method string, status model.Status, wasProbe bool, now time.Time) (model.CircuitSnapshot, error) {
	args := m.Called(ctx, gatewayID, method, status, wasProbe, now)
	s, _ := args.Get(0).(model.CircuitSnapshot)
	return s, args.Error(1)
}

func (m *mockCircuitStore) GetThresholds(ctx context.Context, gatewayID, method string) (model.CircuitThresholds, error) {
	args := m.Called(ctx, gatewayID, method)
	t, _ := args.Get(0).(model.CircuitThresholds)
	return t, args.Error(1)
}

func (m *mockCircuitStore) AllSnapshots(ctx context.Context) ([]model.CircuitSnapshot, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]model.CircuitSnapshot)
	return s, args.Error(1)
}

type mockMetricsHotStore struct{ mock.Mock }

func (m *mockMetricsHotStore) ReadRecent(ctx context.Context, gateway, method, bank string, windowMinutes int64) (model.AggregatedMetric, bool, error) {
	args := m.Called(ctx, gateway, method, bank, windowMinutes)
	metric, _ := args.Get(0).(model.AggregatedMetric)
	return metric, args.Bool(1), args.Error(2)
}

func (m *mockMetricsHotStore) WriteMetric(ctx context.Context, key model.MetricKey, windowMinutes int64, metric model.AggregatedMetric) error {
	args := m.Called(ctx, key, windowMinutes, metric)
	return args.Error(0)
}

func (m *mockMetricsHotStore) ReadGatewayMetrics(ctx context.Context, gateway string, windowMinutes int64, filterMethod, filterBank string) ([]ports.GatewayMetricRow, error) {
	args := m.Called(ctx, gateway, windowMinutes, filterMethod, filterBank)
	rows, _ := args.Get(0).([]ports.GatewayMetricRow)
	return rows, args.Error(1)
}

// fakeAdapter is a scripted ports.ProviderAdapter returning one canned
// response (or error) per call, without touching the network.
type fakeAdapter struct {
	name     string
	response model.NormalizedGatewayResponse
	err      error
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) InitiatePayment(ctx context.Context, pctx model.PaymentContext, req model.CreatePaymentRequest) (model.NormalizedGatewayResponse, error) {
	return f.response, f.err
}

func (f *fakeAdapter) CheckStatus(ctx context.Context, transactionID string) (model.Status, error) {
	return f.response.Status, f.err
}

// fixedClock is a ports.Clock that always returns the same instant.
type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }
