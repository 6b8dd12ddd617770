package model

import "time"

// CircuitState is one of the three breaker states.
type CircuitState string

const (
	CircuitClosed   CircuitState = "CLOSED"
	CircuitOpen     CircuitState = "OPEN"
	CircuitHalfOpen CircuitState = "HALF_OPEN"
)

// CircuitSnapshot is keyed by (GatewayID, PaymentMethod). cooldown_until is
// set iff state == Open; probe counters reset on every state transition.
type CircuitSnapshot struct {
	GatewayID           string
	PaymentMethod       string
	State               CircuitState
	FailureRate2m       float64
	TimeoutRate5m       float64
	ConsecutiveFailures int
	OpenedAt            *time.Time
	CooldownUntil       *time.Time
	ProbeTotal          int
	ProbeSuccess        int
	ProbeFailureStreak  int
	SuccessStreak       int
	UpdatedAt           time.Time
}

// NewCircuitSnapshot returns the zero-value Closed snapshot for a
// (gateway, method) pair that has never been observed.
func NewCircuitSnapshot(gatewayID, method string, now time.Time) CircuitSnapshot {
	return CircuitSnapshot{
		GatewayID:     gatewayID,
		PaymentMethod: method,
		State:         CircuitClosed,
		UpdatedAt:     now,
	}
}

// CircuitDecisionKind tags the pre-call admission outcome.
type CircuitDecisionKind string

const (
	DecisionAllow  CircuitDecisionKind = "ALLOW"
	DecisionProbe  CircuitDecisionKind = "PROBE"
	DecisionReject CircuitDecisionKind = "REJECT"
)

// CircuitDecision is the tagged-sum admission result; Reason is populated
// only for Reject.
type CircuitDecision struct {
	Kind   CircuitDecisionKind
	Reason string
}

// CircuitThresholds configures the pure evaluator/transition functions.
type CircuitThresholds struct {
	FailureRateThreshold2m             float64
	ConsecutiveFailureThreshold        int
	TimeoutRateThreshold5m             float64
	CooldownSeconds                    int
	HalfOpenProbeRatio                 float64
	HalfOpenMinProbeCount              int
	HalfOpenSuccessRateClose           float64
	HalfOpenConsecutiveSuccessClose    int
	HalfOpenConsecutiveFailureReopen   int
}

// DefaultCircuitThresholds mirrors the reference implementation's
// built-in defaults used when no override is configured for a
// (gateway, method) pair.
func DefaultCircuitThresholds() CircuitThresholds {
	return CircuitThresholds{
		FailureRateThreshold2m:           0.40,
		ConsecutiveFailureThreshold:      10,
		TimeoutRateThreshold5m:           0.50,
		CooldownSeconds:                  30,
		HalfOpenProbeRatio:                0.10,
		HalfOpenMinProbeCount:             5,
		HalfOpenSuccessRateClose:          0.80,
		HalfOpenConsecutiveSuccessClose:   5,
		HalfOpenConsecutiveFailureReopen:  3,
	}
}

// MinuteBucket is a per-(gateway, method, minute) rolling counter.
type MinuteBucket struct {
	Minute  int64
	Total   int64
	Success int64
	Failed  int64
	Timeout int64
}

// OverrideMode is a manual circuit override value.
type OverrideMode string

const (
	ForceOpen   OverrideMode = "FORCE_OPEN"
	ForceClosed OverrideMode = "FORCE_CLOSED"
)
