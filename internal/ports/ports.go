// Package ports declares the narrow capability interfaces the payment
// conductor depends on, so cyclic dependencies between the service and
// every repository/store are broken by construction. Tests substitute
// fakes for each.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/scoring"
)

// Clock abstracts wall-clock time so tests can control it.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// ProviderAdapter models one payment gateway's capabilities: initiating a
// payment and, for gateways that can return PENDING_VERIFICATION,
// reconciling a transaction's true final status.
type ProviderAdapter interface {
	Name() string
	InitiatePayment(ctx context.Context, pctx model.PaymentContext, req model.CreatePaymentRequest) (model.NormalizedGatewayResponse, error)
	CheckStatus(ctx context.Context, transactionID string) (model.Status, error)
}

// CircuitStore owns circuit minute buckets, snapshots, and manual
// overrides for every (gateway, method) pair.
type CircuitStore interface {
	GetSnapshot(ctx context.Context, gatewayID, method string) (model.CircuitSnapshot, error)
	GetOverride(ctx context.Context, gatewayID, method string) (model.OverrideMode, bool, error)
	SetOverride(ctx context.Context, gatewayID, method string, mode model.OverrideMode) error
	ClearOverride(ctx context.Context, gatewayID, method string) error
	RecordAndTransition(ctx context.Context, gatewayID, method string, status model.Status, wasProbe bool, now time.Time) (model.CircuitSnapshot, error)
	GetThresholds(ctx context.Context, gatewayID, method string) (model.CircuitThresholds, error)
	AllSnapshots(ctx context.Context) ([]model.CircuitSnapshot, error)
}

// MetricsHotStore is the read side the scorer consults for recent
// per-(gateway, method, bank) signals, and the write side the
// aggregator publishes into.
type MetricsHotStore interface {
	ReadRecent(ctx context.Context, gateway, method, bank string, windowMinutes int64) (model.AggregatedMetric, bool, error)
	WriteMetric(ctx context.Context, key model.MetricKey, windowMinutes int64, metric model.AggregatedMetric) error
	ReadGatewayMetrics(ctx context.Context, gateway string, windowMinutes int64, filterMethod, filterBank string) ([]GatewayMetricRow, error)
}

// GatewayMetricRow is one (method, bank) metric row for a gateway.
type GatewayMetricRow struct {
	Method string
	Bank   string
	Metric model.AggregatedMetric
}

// OutboxStore owns the transactional outbox table.
type OutboxStore interface {
	LockPending(ctx context.Context, batchSize int) ([]model.OutboxRecord, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkRetry(ctx context.Context, id int64, attempts int, nextAttemptAt time.Time) error
}

// EventSink is the append-only ordered event stream the outbox relay
// publishes into and the metrics aggregator consumes from.
type EventSink interface {
	Publish(ctx context.Context, event model.PaymentEvent) error
	ConsumeGroup(ctx context.Context, group, consumer string, count int64, block time.Duration) ([]StreamMessage, error)
	Ack(ctx context.Context, group string, ids ...string) error
}

// StreamMessage is one delivered event with its stream id for XACK.
type StreamMessage struct {
	ID    string
	Event model.PaymentEvent
}

// Scorer is the narrow read surface the conductor needs from the
// scoring engine; kept as an interface so experiment/bandit overrides
// can be composed ahead of the conductor without it knowing about them.
type Scorer interface {
	Rank(candidates []scoring.Candidate, weights scoring.Weights) []scoring.Ranked
}

// PaymentStore is the conductor's read/write surface over the payment,
// attempt, routing-decision, and outbox aggregates.
type PaymentStore interface {
	FindByIdempotencyKey(ctx context.Context, merchantID, key string) (*model.Payment, error)
	Commit(ctx context.Context, result PaymentCommit) error
	ListAttempts(ctx context.Context, paymentID uuid.UUID) ([]model.Attempt, error)
}

// PaymentCommit is persisted transactionally: the payment record, every
// attempt the retry driver recorded, the routing decision, and the
// outbox event(s) raised for it.
type PaymentCommit struct {
	Payment         model.Payment
	Attempts        []model.Attempt
	RoutingDecision model.RoutingDecision
	OutboxRecords   []model.OutboxRecord
	Verification    *model.PaymentVerification
}

// GatewayStore is the conductor's read surface over gateway
// configuration, retry policy, and error classification.
type GatewayStore interface {
	ListEnabledForMethod(ctx context.Context, method model.PaymentMethod) ([]model.GatewayConfig, error)
	RetryPolicyFor(ctx context.Context, merchantID string) (model.RetryPolicy, error)
	ClassifyError(ctx context.Context, gatewayID, errorCode string) (model.ErrorClassification, error)
}

// ExperimentStore is the conductor's read/write surface over running
// experiments, stable assignments, hourly rollups, and bandit state.
type ExperimentStore interface {
	ListRunning(ctx context.Context) ([]model.Experiment, error)
	AssignmentFor(ctx context.Context, experimentID, customerID string) (*model.ExperimentAssignment, error)
	SaveAssignment(ctx context.Context, assignment model.ExperimentAssignment) error
	RecordOutcome(ctx context.Context, experimentID, variant string, hour time.Time, success bool, latencyMS int32, revenueMinor int64) error
	BanditStatesFor(ctx context.Context, segment string) ([]model.BanditState, error)
	SaveBanditState(ctx context.Context, state model.BanditState) error
	BanditPolicyFor(ctx context.Context, segment string) (bool, error)
}

// ScoringConfigStore is the conductor's and the /scoring/debug
// endpoint's read surface over scorer weights and per-gateway affinity
// overrides.
type ScoringConfigStore interface {
	LoadWeights(ctx context.Context) (scoring.Weights, error)
	MethodAffinity(ctx context.Context, gatewayID, method string) (float64, error)
	AmountFit(ctx context.Context, gatewayID, amountBucket string) (float64, error)
	TimeMultiplier(ctx context.Context, gatewayID string, now time.Time) (float64, error)
	ResolveBankFromBIN(ctx context.Context, binPrefix string) (string, bool, error)
}
