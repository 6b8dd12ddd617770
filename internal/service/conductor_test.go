package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/scoring"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/service"
)

// requestHashForTest mirrors the conductor's unexported canonicalisation
// so idempotency-replay tests can construct a matching stored hash.
func requestHashForTest(req model.CreatePaymentRequest) string {
	canonical, _ := json.Marshal(req)
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

var nominalWeights = scoring.Weights{
	SuccessRateWeight:    0.35,
	LatencyWeight:        0.25,
	MethodAffinityWeight: 0.15,
	BankAffinityWeight:   0.10,
	AmountFitWeight:      0.10,
	TimeWeight:           0.05,
}

type ConductorTestSuite struct {
	suite.Suite
	payments    *mockPaymentStore
	gateways    *mockGatewayStore
	experiments *mockExperimentStore
	scoringCfg  *mockScoringConfigStore
	circuit     *mockCircuitStore
	metrics     *mockMetricsHotStore
	clock       fixedClock
	ctx         context.Context
}

func (s *ConductorTestSuite) SetupTest() {
	s.payments = new(mockPaymentStore)
	s.gateways = new(mockGatewayStore)
	s.experiments = new(mockExperimentStore)
	s.scoringCfg = new(mockScoringConfigStore)
	s.circuit = new(mockCircuitStore)
	s.metrics = new(mockMetricsHotStore)
	s.clock = fixedClock{now: time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)}
	s.ctx = context.Background()
}

func (s *ConductorTestSuite) TearDownTest() {
	s.payments.AssertExpectations(s.T())
	s.gateways.AssertExpectations(s.T())
	s.experiments.AssertExpectations(s.T())
	s.scoringCfg.AssertExpectations(s.T())
	s.circuit.AssertExpectations(s.T())
	s.metrics.AssertExpectations(s.T())
}

func (s *ConductorTestSuite) conductor(adapters map[string]ports.ProviderAdapter) *service.Conductor {
	weights := service.NewWeightsCache(time.Minute, s.clock, s.scoringCfg)
	return &service.Conductor{
		Payments:      s.payments,
		Gateways:      s.gateways,
		Experiments:   s.experiments,
		ScoringConfig: s.scoringCfg,
		Circuit:       s.circuit,
		Metrics:       s.metrics,
		Adapters:      adapters,
		Weights:       weights,
		Clock:         s.clock,
		RetryRand:     constantFloat{0.99},
		BanditRand:    nil,
		Logger:        zap.NewNop(),
	}
}

func baseRequest() model.CreatePaymentRequest {
	return model.CreatePaymentRequest{
		AmountMinor:   150_00,
		Currency:      "INR",
		PaymentMethod: model.MethodUPI,
		MerchantID:    "merchant-1",
		CustomerID:    "customer-1",
		Instrument:    model.Instrument{VPA: "alice@"},
	}
}

func (s *ConductorTestSuite) TestProcess_ValidationErrors() {
	c := s.conductor(nil)

	_, err := c.Process(s.ctx, model.CreatePaymentRequest{AmountMinor: 0, Currency: "INR", CustomerID: "c"}, "idem-1", "", "")
	s.Require().NotNil(err)
	s.Equal("INVALID_AMOUNT", err.Code)

	_, err = c.Process(s.ctx, model.CreatePaymentRequest{AmountMinor: 100, Currency: "USD", CustomerID: "c"}, "idem-1", "", "")
	s.Require().NotNil(err)
	s.Equal("INVALID_CURRENCY", err.Code)

	_, err = c.Process(s.ctx, model.CreatePaymentRequest{AmountMinor: 100, Currency: "INR"}, "idem-1", "", "")
	s.Require().NotNil(err)
	s.Equal("INVALID_CUSTOMER_ID", err.Code)

	_, err = c.Process(s.ctx, model.CreatePaymentRequest{AmountMinor: 100, Currency: "INR", CustomerID: "c"}, "", "", "")
	s.Require().NotNil(err)
	s.Equal("MISSING_IDEMPOTENCY_KEY", err.Code)
}

func (s *ConductorTestSuite) TestProcess_IdempotentReplay() {
	req := baseRequest()
	ref := "txn-replayed"
	existing := &model.Payment{
		PaymentID:      uuid.New(),
		RequestHash:    requestHashForTest(req),
		Status:         model.StatusSuccess,
		GatewayUsed:    "gw1",
		TransactionRef: &ref,
		RoutingReason:  "gateway gw1 selected with score 0.9000",
		LatencyMS:      42,
	}
	s.payments.On("FindByIdempotencyKey", s.ctx, req.MerchantID, "idem-1").Return(existing, nil)

	c := s.conductor(nil)
	resp, err := c.Process(s.ctx, req, "idem-1", "", "")

	s.Nil(err)
	s.Equal(existing.PaymentID, resp.PaymentID)
	s.Equal(model.StatusSuccess, resp.Status)
	s.Equal(int32(42), resp.LatencyMS)
}

func (s *ConductorTestSuite) TestProcess_IdempotencyMismatch() {
	req := baseRequest()
	existing := &model.Payment{PaymentID: uuid.New(), RequestHash: "different-hash"}
	s.payments.On("FindByIdempotencyKey", s.ctx, req.MerchantID, "idem-1").Return(existing, nil)

	c := s.conductor(nil)
	_, err := c.Process(s.ctx, req, "idem-1", "", "")

	s.Require().NotNil(err)
	s.Equal("IDEMPOTENCY_KEY_REUSED_WITH_DIFFERENT_PAYLOAD", err.Code)
}

func (s *ConductorTestSuite) TestProcess_NoGatewayAvailable() {
	req := baseRequest()
	s.payments.On("FindByIdempotencyKey", s.ctx, req.MerchantID, "idem-1").Return(nil, nil)
	s.gateways.On("ListEnabledForMethod", s.ctx, req.PaymentMethod).Return([]model.GatewayConfig{}, nil)

	c := s.conductor(nil)
	_, err := c.Process(s.ctx, req, "idem-1", "", "")

	s.Require().NotNil(err)
	s.Equal("NO_GATEWAY_AVAILABLE", err.Code)
}

func (s *ConductorTestSuite) TestProcess_Success() {
	req := baseRequest()
	gw := model.GatewayConfig{GatewayID: "gw1", GatewayName: "Gateway One", IsEnabled: true, SupportedMethods: "UPI", TimeoutMS: 2000}

	s.payments.On("FindByIdempotencyKey", s.ctx, req.MerchantID, "idem-1").Return(nil, nil)
	s.gateways.On("ListEnabledForMethod", s.ctx, req.PaymentMethod).Return([]model.GatewayConfig{gw}, nil)
	s.gateways.On("RetryPolicyFor", s.ctx, req.MerchantID).Return(model.DefaultRetryPolicy(req.MerchantID), nil)

	s.metrics.On("ReadRecent", s.ctx, "gw1", "UPI", "", int64(5)).Return(model.AggregatedMetric{}, false, nil)
	s.scoringCfg.On("LoadWeights", s.ctx).Return(nominalWeights, nil)
	s.scoringCfg.On("MethodAffinity", s.ctx, "gw1", "UPI").Return(0.7, nil)
	s.scoringCfg.On("AmountFit", s.ctx, "gw1", mock.AnythingOfType("string")).Return(0.7, nil)
	s.scoringCfg.On("TimeMultiplier", s.ctx, "gw1", s.clock.Now()).Return(1.0, nil)

	s.experiments.On("ListRunning", s.ctx).Return([]model.Experiment{}, nil)
	s.experiments.On("BanditPolicyFor", s.ctx, mock.AnythingOfType("string")).Return(false, nil)

	s.circuit.On("GetSnapshot", s.ctx, "gw1", "UPI").Return(model.NewCircuitSnapshot("gw1", "UPI", s.clock.Now()), nil)
	s.circuit.On("GetThresholds", s.ctx, "gw1", "UPI").Return(model.DefaultCircuitThresholds(), nil)
	s.circuit.On("GetOverride", s.ctx, "gw1", "UPI").Return(model.OverrideMode(""), false, nil)
	s.circuit.On("RecordAndTransition", s.ctx, "gw1", "UPI", model.StatusSuccess, false, s.clock.Now()).
		Return(model.NewCircuitSnapshot("gw1", "UPI", s.clock.Now()), nil)

	s.payments.On("Commit", s.ctx, mock.AnythingOfType("ports.PaymentCommit")).
		Run(func(args mock.Arguments) {
			commit := args.Get(1).(ports.PaymentCommit)
			s.Equal(model.StatusSuccess, commit.Payment.Status)
			s.Equal("gw1", commit.Payment.GatewayUsed)
			s.Len(commit.Attempts, 1)
			s.Len(commit.OutboxRecords, 1)
			s.Nil(commit.Verification)
		}).
		Return(nil)

	txID := "txn-abc"
	adapters := map[string]ports.ProviderAdapter{
		"gw1": &fakeAdapter{name: "gw1", response: model.NormalizedGatewayResponse{Status: model.StatusSuccess, TransactionID: &txID}},
	}

	c := s.conductor(adapters)
	resp, err := c.Process(s.ctx, req, "idem-1", "203.0.113.4", "test-agent")

	s.Nil(err)
	s.Equal(model.StatusSuccess, resp.Status)
	s.Equal("gw1", resp.GatewayUsed)
	s.Require().NotNil(resp.TransactionRef)
	s.Equal(txID, *resp.TransactionRef)
}

func (s *ConductorTestSuite) TestProcess_RetryExhausted_NoAttemptsAdmitted() {
	req := baseRequest()
	gw := model.GatewayConfig{GatewayID: "gw1", GatewayName: "Gateway One", IsEnabled: true, SupportedMethods: "UPI", TimeoutMS: 2000}

	s.payments.On("FindByIdempotencyKey", s.ctx, req.MerchantID, "idem-1").Return(nil, nil)
	s.gateways.On("ListEnabledForMethod", s.ctx, req.PaymentMethod).Return([]model.GatewayConfig{gw}, nil)
	s.gateways.On("RetryPolicyFor", s.ctx, req.MerchantID).Return(model.DefaultRetryPolicy(req.MerchantID), nil)

	s.metrics.On("ReadRecent", s.ctx, "gw1", "UPI", "", int64(5)).Return(model.AggregatedMetric{}, false, nil)
	s.scoringCfg.On("LoadWeights", s.ctx).Return(nominalWeights, nil)
	s.scoringCfg.On("MethodAffinity", s.ctx, "gw1", "UPI").Return(0.7, nil)
	s.scoringCfg.On("AmountFit", s.ctx, "gw1", mock.AnythingOfType("string")).Return(0.7, nil)
	s.scoringCfg.On("TimeMultiplier", s.ctx, "gw1", s.clock.Now()).Return(1.0, nil)

	s.experiments.On("ListRunning", s.ctx).Return([]model.Experiment{}, nil)
	s.experiments.On("BanditPolicyFor", s.ctx, mock.AnythingOfType("string")).Return(false, nil)

	forceOpen := model.ForceOpen
	s.circuit.On("GetSnapshot", s.ctx, "gw1", "UPI").Return(model.NewCircuitSnapshot("gw1", "UPI", s.clock.Now()), nil)
	s.circuit.On("GetThresholds", s.ctx, "gw1", "UPI").Return(model.DefaultCircuitThresholds(), nil)
	s.circuit.On("GetOverride", s.ctx, "gw1", "UPI").Return(forceOpen, true, nil)

	c := s.conductor(map[string]ports.ProviderAdapter{})
	_, err := c.Process(s.ctx, req, "idem-1", "", "")

	s.Require().NotNil(err)
	s.Equal("RETRY_EXHAUSTED", err.Code)
}

// TestProcess_RetryExhausted_AfterRealAttempts is the literal scenario-3
// case: two gateways both ALWAYS_FAILURE with a retryable error code and
// max_attempts=2, so the driver runs two real CONTINUE attempts and then
// falls off the ranked list with no terminal directive. This must surface
// as RETRY_EXHAUSTED, not a persisted 200 with the last gateway's failure.
func (s *ConductorTestSuite) TestProcess_RetryExhausted_AfterRealAttempts() {
	req := baseRequest()
	gw1 := model.GatewayConfig{GatewayID: "gw1", GatewayName: "Gateway One", IsEnabled: true, SupportedMethods: "UPI", TimeoutMS: 2000}
	gw2 := model.GatewayConfig{GatewayID: "gw2", GatewayName: "Gateway Two", IsEnabled: true, SupportedMethods: "UPI", TimeoutMS: 2000}

	s.payments.On("FindByIdempotencyKey", s.ctx, req.MerchantID, "idem-1").Return(nil, nil)
	s.gateways.On("ListEnabledForMethod", s.ctx, req.PaymentMethod).Return([]model.GatewayConfig{gw1, gw2}, nil)
	s.gateways.On("RetryPolicyFor", s.ctx, req.MerchantID).
		Return(model.RetryPolicy{MerchantID: req.MerchantID, MaxAttempts: 2, LatencyBudgetMS: 10000, RetryOnTimeout: false, Enabled: true}, nil)

	for _, id := range []string{"gw1", "gw2"} {
		s.metrics.On("ReadRecent", s.ctx, id, "UPI", "", int64(5)).Return(model.AggregatedMetric{}, false, nil)
		s.scoringCfg.On("MethodAffinity", s.ctx, id, "UPI").Return(0.7, nil)
		s.scoringCfg.On("AmountFit", s.ctx, id, mock.AnythingOfType("string")).Return(0.7, nil)
		s.scoringCfg.On("TimeMultiplier", s.ctx, id, s.clock.Now()).Return(1.0, nil)
		s.circuit.On("GetSnapshot", s.ctx, id, "UPI").Return(model.NewCircuitSnapshot(id, "UPI", s.clock.Now()), nil)
		s.circuit.On("GetThresholds", s.ctx, id, "UPI").Return(model.DefaultCircuitThresholds(), nil)
		s.circuit.On("GetOverride", s.ctx, id, "UPI").Return(model.OverrideMode(""), false, nil)
		s.circuit.On("RecordAndTransition", s.ctx, id, "UPI", model.StatusFailure, false, s.clock.Now()).
			Return(model.NewCircuitSnapshot(id, "UPI", s.clock.Now()), nil)
		s.gateways.On("ClassifyError", s.ctx, id, "DECLINED").
			Return(model.ErrorClassification{Retryable: true}, nil)
	}
	s.scoringCfg.On("LoadWeights", s.ctx).Return(nominalWeights, nil)
	s.experiments.On("ListRunning", s.ctx).Return([]model.Experiment{}, nil)
	s.experiments.On("BanditPolicyFor", s.ctx, mock.AnythingOfType("string")).Return(false, nil)

	errCode := "DECLINED"
	adapters := map[string]ports.ProviderAdapter{
		"gw1": &fakeAdapter{name: "gw1", response: model.NormalizedGatewayResponse{Status: model.StatusFailure, ErrorCode: &errCode}},
		"gw2": &fakeAdapter{name: "gw2", response: model.NormalizedGatewayResponse{Status: model.StatusFailure, ErrorCode: &errCode}},
	}

	c := s.conductor(adapters)
	_, err := c.Process(s.ctx, req, "idem-1", "", "")

	s.Require().NotNil(err)
	s.Equal("RETRY_EXHAUSTED", err.Code)
}

func TestConductorTestSuite(t *testing.T) {
	suite.Run(t, new(ConductorTestSuite))
}

// constantFloat is a retry.Driver.Rand stub that always returns the same
// draw, keeping the half-open probe-admission decision deterministic.
type constantFloat struct{ v float64 }

func (c constantFloat) Float64() float64 { return c.v }
