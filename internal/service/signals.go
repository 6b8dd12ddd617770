package service

import (
	"context"
	"math/rand"
	"sort"
	"strings"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/bandit"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/experiment"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/scoring"
)

// buildCandidates reads each gateway's recent signals from the metrics
// hot store and affinity overrides from the scoring config store,
// falling back to the defaults named in the specification on any miss.
func (c *Conductor) buildCandidates(ctx context.Context, gateways []model.GatewayConfig, method string, issuingBank, amountBucket string) []scoring.Candidate {
	candidates := make([]scoring.Candidate, 0, len(gateways))
	for _, gw := range gateways {
		successRate, p95 := 0.5, int32(1500)
		if metric, found, err := c.Metrics.ReadRecent(ctx, gw.GatewayID, method, issuingBank, 5); err == nil && found {
			successRate, p95 = metric.SuccessRate, metric.P95LatencyMS
		}

		methodAffinity := 0.7
		if v, err := c.ScoringConfig.MethodAffinity(ctx, gw.GatewayID, method); err == nil {
			methodAffinity = v
		}
		amountFit := 0.7
		if v, err := c.ScoringConfig.AmountFit(ctx, gw.GatewayID, amountBucket); err == nil {
			amountFit = v
		}
		timeMultiplier := 1.0
		if v, err := c.ScoringConfig.TimeMultiplier(ctx, gw.GatewayID, c.Clock.Now()); err == nil {
			timeMultiplier = v
		}

		candidates = append(candidates, scoring.Candidate{
			GatewayID: gw.GatewayID,
			Inputs: scoring.Inputs{
				SuccessRate:    successRate,
				P95LatencyMS:   p95,
				MethodAffinity: methodAffinity,
				BankAffinity:   bankAffinity(gw, issuingBank),
				AmountFit:      amountFit,
				TimeMultiplier: timeMultiplier,
			},
		})
	}
	return candidates
}

// bankAffinity is 1.0 when the gateway's display name matches the
// issuing bank, 0.6 when the bank is unknown, else 0.5.
func bankAffinity(gw model.GatewayConfig, issuingBank string) float64 {
	if issuingBank == "" {
		return 0.6
	}
	if strings.EqualFold(gw.GatewayName, issuingBank) {
		return 1.0
	}
	return 0.5
}

// experimentOverride is the outcome of matching a running experiment
// against the request, applied (or not) to the ranked list.
type experimentOverride struct {
	applied      bool
	experimentID string
	variant      string
}

// applyExperimentOverride finds the newest matching running experiment,
// assigns the customer a stable variant, and — for a treatment
// assignment with a gateway present in ranked — moves that gateway to
// position 0.
func (c *Conductor) applyExperimentOverride(ctx context.Context, ranked []scoring.Ranked, input model.MatchInput, customerID string) ([]scoring.Ranked, experimentOverride) {
	running, err := c.Experiments.ListRunning(ctx)
	if err != nil || len(running) == 0 {
		return ranked, experimentOverride{}
	}

	sort.SliceStable(running, func(i, j int) bool {
		return running[i].CreatedAt.After(running[j].CreatedAt)
	})

	for _, exp := range running {
		if !exp.Matches(input) {
			continue
		}

		assignment := experiment.AssignVariant(customerID, exp.ExperimentID, exp.ControlPct)
		if existing, err := c.Experiments.AssignmentFor(ctx, exp.ExperimentID, customerID); err == nil && existing != nil {
			assignment = experiment.Assignment{Variant: existing.Variant, Bucket: existing.Bucket}
		} else {
			_ = c.Experiments.SaveAssignment(ctx, model.ExperimentAssignment{
				ExperimentID: exp.ExperimentID,
				CustomerID:   customerID,
				Variant:      assignment.Variant,
				Bucket:       assignment.Bucket,
			})
		}

		result := experimentOverride{applied: true, experimentID: exp.ExperimentID, variant: assignment.Variant}
		if assignment.Variant == experiment.VariantTreatment {
			ranked = promote(ranked, exp.TreatmentGateway)
		}
		return ranked, result
	}
	return ranked, experimentOverride{}
}

// applyBanditOverride reorders ranked by a Thompson draw per segment
// posterior, when the segment's policy is enabled. Returns whether the
// bandit fired and the arm's pre-update state, so the caller can record
// the observed outcome against it afterwards.
func (c *Conductor) applyBanditOverride(ctx context.Context, ranked []scoring.Ranked, segment string) ([]scoring.Ranked, bool, model.BanditState) {
	enabled, err := c.Experiments.BanditPolicyFor(ctx, segment)
	if err != nil || !enabled || len(ranked) == 0 {
		return ranked, false, model.BanditState{}
	}

	stored, err := c.Experiments.BanditStatesFor(ctx, segment)
	if err != nil {
		return ranked, false, model.BanditState{}
	}
	byGateway := make(map[string]model.BanditState, len(stored))
	for _, s := range stored {
		byGateway[s.GatewayID] = s
	}
	states := make([]model.BanditState, len(ranked))
	for i, r := range ranked {
		if s, ok := byGateway[r.GatewayID]; ok {
			states[i] = s
		} else {
			states[i] = bandit.NewState(segment, r.GatewayID)
		}
	}

	src := c.BanditRand
	if src == nil {
		src = rand.NewSource(c.Clock.Now().UnixNano())
	}
	chosen := bandit.SelectArm(states, src)

	var chosenState model.BanditState
	for _, s := range states {
		if s.GatewayID == chosen {
			chosenState = s
			break
		}
	}
	return promote(ranked, chosen), true, chosenState
}

// promote moves the ranked entry with the given gateway id to the
// front, leaving the rest in relative order. A miss or empty id is a
// no-op.
func promote(ranked []scoring.Ranked, gatewayID string) []scoring.Ranked {
	if gatewayID == "" {
		return ranked
	}
	for i, r := range ranked {
		if r.GatewayID == gatewayID {
			if i == 0 {
				return ranked
			}
			out := make([]scoring.Ranked, 0, len(ranked))
			out = append(out, r)
			out = append(out, ranked[:i]...)
			out = append(out, ranked[i+1:]...)
			return out
		}
	}
	return ranked
}
