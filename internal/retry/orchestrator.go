package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/circuit"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
)

// AttemptRecord is one driver-loop iteration's outcome, shaped for
// direct persistence as a model.Attempt.
type AttemptRecord struct {
	GatewayID           string
	AttemptNumber       int
	Skipped             bool
	AdmissionReason     string
	CircuitStateAtAdmit model.CircuitState
	WasProbe            bool
	Response            model.NormalizedGatewayResponse
	LatencyMS           int32
	FallbackReason      string
}

// Outcome is the driver loop's terminal result.
type Outcome struct {
	Directive      Directive
	Attempts       []AttemptRecord
	FinalResponse  model.NormalizedGatewayResponse
	FinalGatewayID string
}

// ErrorClassifier classifies a (gateway, error code) pair. Implementations
// default to all-false for unknown codes, as the data model requires.
type ErrorClassifier func(ctx context.Context, gatewayID string, errorCode string) (ErrorClass, error)

// Driver walks a ranked candidate list under the merchant's retry policy,
// consulting the circuit breaker before each call and classifying each
// response, per §4.3 of the routing specification.
type Driver struct {
	Circuit    ports.CircuitStore
	Clock      ports.Clock
	Rand       interface{ Float64() float64 }
	Classifier ErrorClassifier
}

// Run executes the retry loop for one payment request against rankedIDs
// in order, returning the terminal Outcome.
func (d *Driver) Run(
	ctx context.Context,
	rankedIDs []string,
	gateways map[string]model.GatewayConfig,
	adapters map[string]ports.ProviderAdapter,
	policy model.RetryPolicy,
	pctx model.PaymentContext,
	req model.CreatePaymentRequest,
	start time.Time,
) (Outcome, error) {
	limit := AttemptLimit(policy)
	outcome := Outcome{Directive: DirectiveRetryExhausted}

	attemptNumber := 0
	for _, gatewayID := range rankedIDs {
		if attemptNumber >= limit {
			break
		}
		now := d.Clock.Now()
		if ShouldStopForBudget(start, now, policy) {
			break
		}

		gw, ok := gateways[gatewayID]
		if !ok {
			continue
		}

		attemptNumber++

		snapshot, err := d.Circuit.GetSnapshot(ctx, gatewayID, string(pctx.Method))
		if err != nil {
			return outcome, fmt.Errorf("loading circuit snapshot for %s: %w", gatewayID, err)
		}
		thresholds, err := d.Circuit.GetThresholds(ctx, gatewayID, string(pctx.Method))
		if err != nil {
			return outcome, fmt.Errorf("loading circuit thresholds for %s: %w", gatewayID, err)
		}

		decision, rejected := d.admit(ctx, gatewayID, string(pctx.Method), snapshot, thresholds, now)
		if rejected {
			outcome.Attempts = append(outcome.Attempts, AttemptRecord{
				GatewayID:           gatewayID,
				AttemptNumber:       attemptNumber,
				Skipped:             true,
				AdmissionReason:     decision.Reason,
				CircuitStateAtAdmit: snapshot.State,
			})
			continue
		}

		wasProbe := decision.Kind == model.DecisionProbe

		adapter, ok := adapters[gatewayID]
		if !ok {
			continue
		}

		timeout := time.Duration(gw.TimeoutMS) * time.Millisecond
		if timeout < 100*time.Millisecond {
			timeout = 100 * time.Millisecond
		}
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		callStart := time.Now()
		resp, callErr := adapter.InitiatePayment(callCtx, pctx, req)
		cancel()
		latencyMS := int32(time.Since(callStart).Milliseconds())

		if callErr != nil {
			resp = model.NormalizedGatewayResponse{Status: model.StatusTimeout}
		}

		record := AttemptRecord{
			GatewayID:           gatewayID,
			AttemptNumber:       attemptNumber,
			CircuitStateAtAdmit: snapshot.State,
			WasProbe:            wasProbe,
			Response:            resp,
			LatencyMS:           latencyMS,
		}
		if attemptNumber > 1 {
			record.FallbackReason = fmt.Sprintf("fallback after attempt %d", attemptNumber-1)
		}
		outcome.Attempts = append(outcome.Attempts, record)

		if _, err := d.Circuit.RecordAndTransition(ctx, gatewayID, string(pctx.Method), resp.Status, wasProbe, d.Clock.Now()); err != nil {
			return outcome, fmt.Errorf("updating circuit breaker for %s: %w", gatewayID, err)
		}

		var errClass *ErrorClass
		if resp.Status == model.StatusFailure && resp.ErrorCode != nil && d.Classifier != nil {
			classified, err := d.Classifier(ctx, gatewayID, *resp.ErrorCode)
			if err != nil {
				return outcome, fmt.Errorf("classifying error for %s: %w", gatewayID, err)
			}
			errClass = &classified
		}

		directive := Classify(resp.Status, errClass, policy.RetryOnTimeout)

		switch directive {
		case DirectiveSuccess, DirectiveFailNow, DirectivePendingVerification:
			// Only a terminal directive settles Outcome's final fields; a
			// CONTINUE must never leak its gateway/response into Outcome,
			// or exhaustion after a run of CONTINUEs would look like a
			// settled attempt instead of RETRY_EXHAUSTED.
			outcome.Directive = directive
			outcome.FinalResponse = resp
			outcome.FinalGatewayID = gatewayID
			return outcome, nil
		case DirectiveContinue:
			continue
		}
	}

	// Falling out of the loop means every ranked candidate was exhausted
	// without a terminal directive: budget/attempt limit hit, or the last
	// classified outcome was CONTINUE with no candidates left to try.
	// outcome.Directive is already DirectiveRetryExhausted from init, and
	// FinalGatewayID/FinalResponse were never set on this path.
	return outcome, nil
}

func (d *Driver) admit(ctx context.Context, gatewayID, method string, snapshot model.CircuitSnapshot, thresholds model.CircuitThresholds, now time.Time) (model.CircuitDecision, bool) {
	if override, set, err := d.Circuit.GetOverride(ctx, gatewayID, method); err == nil && set {
		switch override {
		case model.ForceOpen:
			return model.CircuitDecision{Kind: model.DecisionReject, Reason: "manual override: force open"}, true
		case model.ForceClosed:
			return model.CircuitDecision{Kind: model.DecisionAllow}, false
		}
	}

	decision := circuit.PreCallDecision(snapshot, thresholds, now, d.Rand)
	return decision, decision.Kind == model.DecisionReject
}
