// Package circuit implements the per-(provider, method) circuit breaker:
// a pure pre-call admission decision and a pure post-call state
// transition, both driven by a rolling-window failure/timeout store.
package circuit

import (
	"time"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

// PreCallDecision is the pure admission function. It never mutates
// snapshot; the half-open transition to Probe happens only on the next
// write via ApplyTransition.
func PreCallDecision(snapshot model.CircuitSnapshot, thresholds model.CircuitThresholds, now time.Time, rnd Rand) model.CircuitDecision {
	switch snapshot.State {
	case model.CircuitClosed:
		return model.CircuitDecision{Kind: model.DecisionAllow}

	case model.CircuitOpen:
		if snapshot.CooldownUntil != nil && !now.Before(*snapshot.CooldownUntil) {
			return model.CircuitDecision{Kind: model.DecisionProbe}
		}
		return model.CircuitDecision{Kind: model.DecisionReject, Reason: "circuit open"}

	case model.CircuitHalfOpen:
		r := rnd.Float64()
		if r <= thresholds.HalfOpenProbeRatio {
			return model.CircuitDecision{Kind: model.DecisionProbe}
		}
		return model.CircuitDecision{Kind: model.DecisionReject, Reason: "half-open non-probe request"}

	default:
		return model.CircuitDecision{Kind: model.DecisionReject, Reason: "unknown circuit state"}
	}
}
