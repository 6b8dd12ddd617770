package circuit

import (
	"time"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

// ApplyTransition is the pure post-call state transition. It never
// mutates the input snapshot in place; it returns the next snapshot.
func ApplyTransition(
	snapshot model.CircuitSnapshot,
	thresholds model.CircuitThresholds,
	failureRate2m, timeoutRate5m float64,
	status model.Status,
	wasProbe bool,
	now time.Time,
) model.CircuitSnapshot {
	next := snapshot
	next.FailureRate2m = failureRate2m
	next.TimeoutRate5m = timeoutRate5m

	if status == model.StatusSuccess {
		next.ConsecutiveFailures = 0
		next.SuccessStreak++
		if wasProbe {
			next.ProbeTotal++
			next.ProbeSuccess++
			next.ProbeFailureStreak = 0
		}
	} else {
		next.ConsecutiveFailures++
		next.SuccessStreak = 0
		if wasProbe {
			next.ProbeTotal++
			next.ProbeFailureStreak++
		}
	}

	switch next.State {
	case model.CircuitClosed:
		if failureRate2m > thresholds.FailureRateThreshold2m ||
			timeoutRate5m > thresholds.TimeoutRateThreshold5m ||
			next.ConsecutiveFailures >= thresholds.ConsecutiveFailureThreshold {
			openCircuit(&next, thresholds, now)
		}

	case model.CircuitOpen:
		if next.CooldownUntil != nil && !now.Before(*next.CooldownUntil) {
			halfOpenCircuit(&next)
		}

	case model.CircuitHalfOpen:
		if next.ProbeFailureStreak >= thresholds.HalfOpenConsecutiveFailureReopen {
			openCircuit(&next, thresholds, now)
		} else if next.SuccessStreak >= thresholds.HalfOpenConsecutiveSuccessClose {
			closeCircuit(&next)
		} else if next.ProbeTotal >= thresholds.HalfOpenMinProbeCount {
			ratio := float64(next.ProbeSuccess) / float64(next.ProbeTotal)
			if ratio >= thresholds.HalfOpenSuccessRateClose {
				closeCircuit(&next)
			}
		}
	}

	next.UpdatedAt = now
	return next
}

func openCircuit(s *model.CircuitSnapshot, thresholds model.CircuitThresholds, now time.Time) {
	s.State = model.CircuitOpen
	opened := now
	s.OpenedAt = &opened
	cooldown := now.Add(time.Duration(thresholds.CooldownSeconds) * time.Second)
	s.CooldownUntil = &cooldown
	resetProbeCounters(s)
}

func halfOpenCircuit(s *model.CircuitSnapshot) {
	s.State = model.CircuitHalfOpen
	resetProbeCounters(s)
}

func closeCircuit(s *model.CircuitSnapshot) {
	s.State = model.CircuitClosed
	resetProbeCounters(s)
	s.CooldownUntil = nil
}

func resetProbeCounters(s *model.CircuitSnapshot) {
	s.ProbeTotal = 0
	s.ProbeSuccess = 0
	s.ProbeFailureStreak = 0
	s.SuccessStreak = 0
}

// ApplyOverride aligns a snapshot's visible state to a manual override
// without touching the rolling counters driving the state machine.
func ApplyOverride(snapshot model.CircuitSnapshot, mode model.OverrideMode, now time.Time) model.CircuitSnapshot {
	next := snapshot
	switch mode {
	case model.ForceOpen:
		next.State = model.CircuitOpen
		if next.CooldownUntil == nil {
			cooldown := now.Add(24 * time.Hour)
			next.CooldownUntil = &cooldown
		}
	case model.ForceClosed:
		next.State = model.CircuitClosed
		next.CooldownUntil = nil
	}
	next.UpdatedAt = now
	return next
}
