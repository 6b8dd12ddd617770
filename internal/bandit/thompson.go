// Package bandit implements Thompson-sampled gateway selection: each
// (segment, gateway) pair carries a Beta(alpha, beta) posterior over its
// success probability, updated on every observed outcome.
package bandit

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

// Source abstracts the PRNG so tests can make sampling deterministic.
type Source interface {
	Uint64() uint64
}

// Sample draws one value from Beta(alpha, beta), clamping both parameters
// to at least 0.001 so a zero or negative parameter never panics.
func Sample(alpha, beta float64, src rand.Source) float64 {
	dist := distuv.Beta{
		Alpha: clampPositive(alpha),
		Beta:  clampPositive(beta),
		Src:   src,
	}
	return dist.Rand()
}

func clampPositive(v float64) float64 {
	if v < 0.001 {
		return 0.001
	}
	return v
}

// SelectArm draws one posterior sample per candidate state and returns the
// gateway ID with the highest draw. Candidates with no stored state are
// treated as a fresh Beta(1, 1) prior.
func SelectArm(states []model.BanditState, src rand.Source) string {
	best := ""
	bestDraw := -1.0
	for _, s := range states {
		alpha, beta := s.Alpha, s.Beta
		if alpha == 0 && beta == 0 {
			alpha, beta = 1, 1
		}
		draw := Sample(alpha, beta, src)
		if draw > bestDraw {
			bestDraw = draw
			best = s.GatewayID
		}
	}
	return best
}

// Update applies one Bernoulli observation to a posterior: success
// increments alpha, failure increments beta.
func Update(state model.BanditState, success bool) model.BanditState {
	if success {
		state.Alpha++
	} else {
		state.Beta++
	}
	return state
}

// NewState returns the uninformative Beta(1, 1) prior for a fresh
// (segment, gateway) pair.
func NewState(segment, gatewayID string) model.BanditState {
	return model.BanditState{Segment: segment, GatewayID: gatewayID, Alpha: 1, Beta: 1}
}
