package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

type fixedRand struct{ v float64 }

func (f fixedRand) Float64() float64 { return f.v }

func TestPreCallDecisionClosedAllows(t *testing.T) {
	snap := model.NewCircuitSnapshot("g1", "UPI", time.Now())
	decision := PreCallDecision(snap, model.DefaultCircuitThresholds(), time.Now(), SystemRand)
	assert.Equal(t, model.DecisionAllow, decision.Kind)
}

func TestPreCallDecisionOpenRejectsBeforeCooldown(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Minute)
	snap := model.CircuitSnapshot{State: model.CircuitOpen, CooldownUntil: &future}
	decision := PreCallDecision(snap, model.DefaultCircuitThresholds(), now, SystemRand)
	assert.Equal(t, model.DecisionReject, decision.Kind)
}

func TestPreCallDecisionOpenProbesAfterCooldown(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	snap := model.CircuitSnapshot{State: model.CircuitOpen, CooldownUntil: &past}
	decision := PreCallDecision(snap, model.DefaultCircuitThresholds(), now, SystemRand)
	assert.Equal(t, model.DecisionProbe, decision.Kind)
}

func TestPreCallDecisionHalfOpenProbeRatio(t *testing.T) {
	thresholds := model.DefaultCircuitThresholds()
	snap := model.CircuitSnapshot{State: model.CircuitHalfOpen}

	probe := PreCallDecision(snap, thresholds, time.Now(), fixedRand{v: 0.05})
	assert.Equal(t, model.DecisionProbe, probe.Kind)

	reject := PreCallDecision(snap, thresholds, time.Now(), fixedRand{v: 0.99})
	assert.Equal(t, model.DecisionReject, reject.Kind)
}

func TestClosedToOpenOnConsecutiveFailures(t *testing.T) {
	thresholds := model.DefaultCircuitThresholds()
	now := time.Now()
	snap := model.NewCircuitSnapshot("g1", "UPI", now)

	for i := 0; i < thresholds.ConsecutiveFailureThreshold; i++ {
		snap = ApplyTransition(snap, thresholds, 0, 0, model.StatusFailure, false, now)
	}

	assert.Equal(t, model.CircuitOpen, snap.State)
	require.NotNil(t, snap.CooldownUntil)
	assert.True(t, snap.CooldownUntil.After(now))
}

func TestClosedToOpenOnFailureRateThreshold(t *testing.T) {
	thresholds := model.DefaultCircuitThresholds()
	now := time.Now()
	snap := model.NewCircuitSnapshot("g1", "UPI", now)

	snap = ApplyTransition(snap, thresholds, 0.5, 0, model.StatusFailure, false, now)
	assert.Equal(t, model.CircuitOpen, snap.State)
}

func TestHalfOpenClosesAfterSuccessStreak(t *testing.T) {
	thresholds := model.DefaultCircuitThresholds()
	now := time.Now()
	snap := model.CircuitSnapshot{State: model.CircuitHalfOpen}

	for i := 0; i < thresholds.HalfOpenConsecutiveSuccessClose; i++ {
		snap = ApplyTransition(snap, thresholds, 0, 0, model.StatusSuccess, true, now)
	}

	assert.Equal(t, model.CircuitClosed, snap.State)
	assert.Nil(t, snap.CooldownUntil)
}

func TestHalfOpenReopensAfterProbeFailureStreak(t *testing.T) {
	thresholds := model.DefaultCircuitThresholds()
	now := time.Now()
	snap := model.CircuitSnapshot{State: model.CircuitHalfOpen}

	for i := 0; i < thresholds.HalfOpenConsecutiveFailureReopen; i++ {
		snap = ApplyTransition(snap, thresholds, 0, 0, model.StatusFailure, true, now)
	}

	assert.Equal(t, model.CircuitOpen, snap.State)
	require.NotNil(t, snap.CooldownUntil)
}

func TestHalfOpenClosesOnProbeSuccessRate(t *testing.T) {
	thresholds := model.DefaultCircuitThresholds()
	now := time.Now()
	snap := model.CircuitSnapshot{State: model.CircuitHalfOpen}

	// 4 successes leave the streak and probe_total at 4, below both bars of
	// 5; the streak is then reset, so after the fifth success the streak is
	// only 1 and the close comes from probe_total=5 with
	// probe_success/probe_total = 1.0 >= 0.8.
	for i := 0; i < 4; i++ {
		snap = ApplyTransition(snap, thresholds, 0, 0, model.StatusSuccess, true, now)
	}
	snap.SuccessStreak = 0 // simulate an interleaved failure breaking the streak
	snap = ApplyTransition(snap, thresholds, 0, 0, model.StatusSuccess, true, now)

	assert.Equal(t, model.CircuitClosed, snap.State)
}

func TestAggregateRatesEmptyIsZero(t *testing.T) {
	fr, tr := AggregateRates(map[int64]model.MinuteBucket{}, 0, 2)
	assert.Equal(t, 0.0, fr)
	assert.Equal(t, 0.0, tr)
}

func TestAggregateRatesSumsWindow(t *testing.T) {
	buckets := map[int64]model.MinuteBucket{
		0:  {Total: 10, Failed: 2, Timeout: 1},
		60: {Total: 10, Failed: 3, Timeout: 2},
	}
	fr, tr := AggregateRates(buckets, 60, 2)
	assert.InDelta(t, 5.0/20.0, fr, 0.0001)
	assert.InDelta(t, 3.0/20.0, tr, 0.0001)
}

func TestApplyOverrideForceOpenForceClosed(t *testing.T) {
	now := time.Now()
	snap := model.NewCircuitSnapshot("g1", "UPI", now)

	forced := ApplyOverride(snap, model.ForceOpen, now)
	assert.Equal(t, model.CircuitOpen, forced.State)
	require.NotNil(t, forced.CooldownUntil)

	restored := ApplyOverride(forced, model.ForceClosed, now)
	assert.Equal(t, model.CircuitClosed, restored.State)
	assert.Nil(t, restored.CooldownUntil)
}
