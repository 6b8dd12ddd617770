// Package service implements the payment conductor: the nine-step
// request pipeline that validates a payment, resolves its idempotency
// key, scores and reorders candidate gateways, drives the retry loop,
// and persists the outcome transactionally.
package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/bandit"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/metrics"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/retry"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/scoring"
)

// Conductor owns the end-to-end payment pipeline described in the
// routing specification: validate, dedupe, score, retry, persist,
// feed back.
type Conductor struct {
	Payments      ports.PaymentStore
	Gateways      ports.GatewayStore
	Experiments   ports.ExperimentStore
	ScoringConfig ports.ScoringConfigStore
	Circuit       ports.CircuitStore
	Metrics       ports.MetricsHotStore
	Adapters      map[string]ports.ProviderAdapter
	Weights       *WeightsCache
	Clock         ports.Clock
	RetryRand     interface{ Float64() float64 }
	BanditRand    rand.Source
	Logger        *zap.Logger
}

// NewConductor wires a Conductor from its dependencies, defaulting the
// clock to wall time when unset.
func NewConductor(
	payments ports.PaymentStore,
	gateways ports.GatewayStore,
	experiments ports.ExperimentStore,
	scoringConfig ports.ScoringConfigStore,
	circuitStore ports.CircuitStore,
	metricsStore ports.MetricsHotStore,
	adapters map[string]ports.ProviderAdapter,
	weights *WeightsCache,
	logger *zap.Logger,
) *Conductor {
	return &Conductor{
		Payments:      payments,
		Gateways:      gateways,
		Experiments:   experiments,
		ScoringConfig: scoringConfig,
		Circuit:       circuitStore,
		Metrics:       metricsStore,
		Adapters:      adapters,
		Weights:       weights,
		Clock:         ports.SystemClock{},
		RetryRand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		BanditRand:    rand.NewSource(time.Now().UnixNano()),
		Logger:        logger.Named("conductor"),
	}
}

// Process runs one CreatePayment request through the full pipeline:
// validation, idempotency resolution, candidate scoring with
// experiment/bandit overrides, the retry loop, and transactional
// persistence. A non-nil *AppError is always meant to be written back
// to the caller verbatim; a nil response with a nil error never
// happens.
func (c *Conductor) Process(ctx context.Context, req model.CreatePaymentRequest, idempotencyKey, clientIP, userAgent string) (model.CreatePaymentResponse, *AppError) {
	if err := validate(req, idempotencyKey); err != nil {
		return model.CreatePaymentResponse{}, err
	}

	hash := requestHash(req)
	if existing, err := c.Payments.FindByIdempotencyKey(ctx, req.MerchantID, idempotencyKey); err != nil {
		return model.CreatePaymentResponse{}, errInternal(err)
	} else if existing != nil {
		if existing.RequestHash != hash {
			return model.CreatePaymentResponse{}, errIdemMismatch
		}
		return replayResponse(*existing), nil
	}

	pctx := buildContext(req, clientIP, userAgent)
	c.resolveIssuingBank(ctx, req, &pctx)

	gateways, err := c.Gateways.ListEnabledForMethod(ctx, req.PaymentMethod)
	if err != nil {
		return model.CreatePaymentResponse{}, errInternal(err)
	}
	if len(gateways) == 0 {
		return model.CreatePaymentResponse{}, errNoGateway
	}

	amountBucket := metrics.AmountBucket(req.AmountMinor)
	candidates := c.buildCandidates(ctx, gateways, string(req.PaymentMethod), pctx.IssuingBank, amountBucket)
	weights := c.Weights.Get(ctx)
	ranked := scoring.Rank(candidates, weights)
	if len(ranked) == 0 {
		return model.CreatePaymentResponse{}, errRouterSelectionFailed
	}

	matchInput := model.MatchInput{
		PaymentMethod: string(req.PaymentMethod),
		AmountMinor:   req.AmountMinor,
		MerchantID:    req.MerchantID,
		AmountBucket:  amountBucket,
	}
	ranked, expOverride := c.applyExperimentOverride(ctx, ranked, matchInput, req.CustomerID)

	segment := model.Segment(string(req.PaymentMethod), amountBucket)
	var banditApplied bool
	var banditState model.BanditState
	if !expOverride.applied {
		ranked, banditApplied, banditState = c.applyBanditOverride(ctx, ranked, segment)
	}

	strategy, reason := routingStrategyAndReason(ranked, expOverride, banditApplied)

	rankedIDs := make([]string, len(ranked))
	gatewaysByID := make(map[string]model.GatewayConfig, len(gateways))
	for i, r := range ranked {
		rankedIDs[i] = r.GatewayID
	}
	for _, gw := range gateways {
		gatewaysByID[gw.GatewayID] = gw
	}

	policy, err := c.Gateways.RetryPolicyFor(ctx, req.MerchantID)
	if err != nil {
		return model.CreatePaymentResponse{}, errInternal(err)
	}

	driver := retry.Driver{
		Circuit:    c.Circuit,
		Clock:      c.Clock,
		Rand:       c.RetryRand,
		Classifier: c.classifyError,
	}
	start := c.Clock.Now()
	outcome, err := driver.Run(ctx, rankedIDs, gatewaysByID, c.Adapters, policy, pctx, req, start)
	if err != nil {
		return model.CreatePaymentResponse{}, errInternal(err)
	}
	if outcome.Directive == retry.DirectiveRetryExhausted {
		return model.CreatePaymentResponse{}, errRetryExhausted
	}

	now := c.Clock.Now()
	latencyMS := int32(now.Sub(start).Milliseconds())
	paymentID := uuid.New()

	payment := model.Payment{
		PaymentID:           paymentID,
		MerchantID:          req.MerchantID,
		IdempotencyKey:      idempotencyKey,
		RequestHash:         hash,
		CustomerID:          req.CustomerID,
		AmountMinor:         req.AmountMinor,
		Currency:            req.Currency,
		PaymentMethod:       req.PaymentMethod,
		IssuingBank:         pctx.IssuingBank,
		GatewayUsed:         outcome.FinalGatewayID,
		RoutingStrategy:     strategy,
		RoutingReason:       reason,
		Status:              outcome.FinalResponse.Status,
		TransactionRef:      outcome.FinalResponse.TransactionID,
		GatewayResponseCode: outcome.FinalResponse.GatewayResponseCode,
		ErrorMessage:        outcome.FinalResponse.ErrorMessage,
		LatencyMS:           latencyMS,
		CreatedAt:           now,
	}

	commit := ports.PaymentCommit{
		Payment:         payment,
		Attempts:        buildAttempts(paymentID, outcome.Attempts, now),
		RoutingDecision: buildRoutingDecision(paymentID, ranked, outcome.FinalGatewayID, strategy, reason, now),
		OutboxRecords: []model.OutboxRecord{
			buildOutboxRecord(paymentID, pctx, amountBucket, payment.Status, payment.GatewayUsed, latencyMS, outcome.FinalResponse.ErrorCode, now),
		},
	}
	if payment.Status == model.StatusPendingVerification {
		commit.Verification = buildVerification(paymentID, payment.GatewayUsed, now)
	}

	if err := c.Payments.Commit(ctx, commit); err != nil {
		return model.CreatePaymentResponse{}, errInternal(err)
	}

	c.recordFeedback(ctx, expOverride, banditApplied, banditState, payment.Status == model.StatusSuccess, req.AmountMinor, latencyMS, now)

	return model.CreatePaymentResponse{
		PaymentID:      paymentID,
		Status:         payment.Status,
		GatewayUsed:    payment.GatewayUsed,
		TransactionRef: payment.TransactionRef,
		RoutingReason:  reason,
		LatencyMS:      latencyMS,
	}, nil
}

// ScoreCandidates runs the scorer against live signals for a hypothetical
// request, without touching the retry loop, circuit breaker, or any
// persistence — the read path behind GET /scoring/debug.
func (c *Conductor) ScoreCandidates(ctx context.Context, method model.PaymentMethod, issuingBank, amountBucket string) ([]scoring.Ranked, error) {
	gateways, err := c.Gateways.ListEnabledForMethod(ctx, method)
	if err != nil {
		return nil, err
	}
	candidates := c.buildCandidates(ctx, gateways, string(method), issuingBank, amountBucket)
	weights := c.Weights.Get(ctx)
	return scoring.Rank(candidates, weights), nil
}

func validate(req model.CreatePaymentRequest, idempotencyKey string) *AppError {
	if req.AmountMinor <= 0 {
		return errInvalidAmount
	}
	if req.Currency != "INR" {
		return errInvalidCurrency
	}
	if req.CustomerID == "" {
		return errInvalidCustomerID
	}
	if idempotencyKey == "" {
		return errMissingIdemKey
	}
	return nil
}

func replayResponse(existing model.Payment) model.CreatePaymentResponse {
	return model.CreatePaymentResponse{
		PaymentID:      existing.PaymentID,
		Status:         existing.Status,
		GatewayUsed:    existing.GatewayUsed,
		TransactionRef: existing.TransactionRef,
		RoutingReason:  existing.RoutingReason,
		LatencyMS:      existing.LatencyMS,
	}
}

// resolveIssuingBank overrides the BIN-prefix fallback bank with the
// scoring config store's mapped bank code, when one is configured.
func (c *Conductor) resolveIssuingBank(ctx context.Context, req model.CreatePaymentRequest, pctx *model.PaymentContext) {
	if req.PaymentMethod != model.MethodCard || len(req.Instrument.CardNumber) < 6 {
		return
	}
	prefix := req.Instrument.CardNumber[:6]
	if bank, ok, err := c.ScoringConfig.ResolveBankFromBIN(ctx, prefix); err == nil && ok {
		pctx.IssuingBank = bank
	}
}

func (c *Conductor) classifyError(ctx context.Context, gatewayID, errorCode string) (retry.ErrorClass, error) {
	ec, err := c.Gateways.ClassifyError(ctx, gatewayID, errorCode)
	if err != nil {
		return retry.ErrorClass{}, err
	}
	return retry.ErrorClass{Retryable: ec.Retryable, NonRetryableUserError: ec.NonRetryableUserError}, nil
}

func routingStrategyAndReason(ranked []scoring.Ranked, expOverride experimentOverride, banditApplied bool) (string, string) {
	if len(ranked) == 0 {
		return "SCORED", "no ranked candidates"
	}
	top := ranked[0]
	reason := fmt.Sprintf("gateway %s selected with score %.4f", top.GatewayID, top.Score)

	switch {
	case expOverride.applied:
		return "EXPERIMENT_OVERRIDE", reason + fmt.Sprintf(" (experiment %s, variant %s)", expOverride.experimentID, expOverride.variant)
	case banditApplied:
		return "BANDIT", reason + " (bandit arm selected)"
	default:
		return "SCORED", reason
	}
}

// recordFeedback best-effort records the observed outcome against the
// matched experiment and/or bandit arm. Failures are logged and
// swallowed, per the specification's outbox-first durability model:
// the payment itself is already committed.
func (c *Conductor) recordFeedback(ctx context.Context, expOverride experimentOverride, banditApplied bool, banditState model.BanditState, success bool, amountMinor int64, latencyMS int32, now time.Time) {
	revenue := int64(0)
	if success {
		revenue = amountMinor
	}

	if expOverride.applied {
		hour := now.Truncate(time.Hour)
		if err := c.Experiments.RecordOutcome(ctx, expOverride.experimentID, expOverride.variant, hour, success, latencyMS, revenue); err != nil {
			c.Logger.Warn("recording experiment outcome failed", zap.String("experiment_id", expOverride.experimentID), zap.Error(err))
		}
	}

	if banditApplied && banditState.GatewayID != "" {
		updated := bandit.Update(banditState, success)
		if err := c.Experiments.SaveBanditState(ctx, updated); err != nil {
			c.Logger.Warn("saving bandit state failed", zap.String("segment", banditState.Segment), zap.String("gateway_id", banditState.GatewayID), zap.Error(err))
		}
	}
}
