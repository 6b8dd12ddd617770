// Package scoring implements the pure multi-signal ranking function that
// chooses candidate provider order for a payment request.
package scoring

import "sort"

// Inputs are the per-candidate signals fed into the scorer. Each is
// expected in [0,1] except P95LatencyMS which is a raw millisecond value.
type Inputs struct {
	SuccessRate    float64
	P95LatencyMS   int32
	MethodAffinity float64
	BankAffinity   float64
	AmountFit      float64
	TimeMultiplier float64
}

// Weights are the six non-negative reals nominally summing to 1.
type Weights struct {
	SuccessRateWeight    float64
	LatencyWeight        float64
	MethodAffinityWeight float64
	BankAffinityWeight   float64
	AmountFitWeight      float64
	TimeWeight           float64
}

// Candidate is one gateway eligible for this request, with its inputs.
type Candidate struct {
	GatewayID string
	Inputs    Inputs
}

// Breakdown records each normalised component plus the final score.
type Breakdown struct {
	SuccessRateScore float64 `json:"success_rate_score"`
	LatencyScore     float64 `json:"latency_score"`
	MethodAffinity   float64 `json:"method_affinity"`
	BankAffinity     float64 `json:"bank_affinity"`
	AmountFit        float64 `json:"amount_fit"`
	TimeWeight       float64 `json:"time_weight"`
	FinalScore       float64 `json:"final_score"`
}

// Ranked is one scored candidate in rank() output order.
type Ranked struct {
	GatewayID string    `json:"gateway_id"`
	Score     float64   `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
}

// Clamp01 clamps v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// LatencyScore maps a p95 latency in milliseconds to a [0,1] score:
// lower latency scores higher, asymptotically approaching 1.
func LatencyScore(p95LatencyMS int32) float64 {
	return 1.0 / (1.0 + float64(p95LatencyMS)/1000.0)
}

// Score computes the weighted, clamped final score and breakdown for one
// candidate. It is a pure function of its inputs.
func Score(candidate Candidate, weights Weights) Ranked {
	successRateScore := Clamp01(candidate.Inputs.SuccessRate)
	latencyComponent := Clamp01(LatencyScore(candidate.Inputs.P95LatencyMS))
	methodAffinity := Clamp01(candidate.Inputs.MethodAffinity)
	bankAffinity := Clamp01(candidate.Inputs.BankAffinity)
	amountFit := Clamp01(candidate.Inputs.AmountFit)
	timeWeight := Clamp01(candidate.Inputs.TimeMultiplier)

	raw := weights.SuccessRateWeight*successRateScore +
		weights.LatencyWeight*latencyComponent +
		weights.MethodAffinityWeight*methodAffinity +
		weights.BankAffinityWeight*bankAffinity +
		weights.AmountFitWeight*amountFit +
		weights.TimeWeight*timeWeight

	finalScore := Clamp01(raw)

	return Ranked{
		GatewayID: candidate.GatewayID,
		Score:     finalScore,
		Breakdown: Breakdown{
			SuccessRateScore: successRateScore,
			LatencyScore:     latencyComponent,
			MethodAffinity:   methodAffinity,
			BankAffinity:     bankAffinity,
			AmountFit:        amountFit,
			TimeWeight:       timeWeight,
			FinalScore:       finalScore,
		},
	}
}

// Rank scores every candidate and returns them sorted descending by
// score, with stable tie-breaking by insertion order.
func Rank(candidates []Candidate, weights Weights) []Ranked {
	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		ranked[i] = Score(c, weights)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// DefaultInputs returns the fallback signal values used when a signal is
// unknown for a candidate (no recent metrics, unrecognised bank, etc).
func DefaultInputs(bankMatchesGateway, bankKnown bool) Inputs {
	bankAffinity := 0.5
	if bankMatchesGateway {
		bankAffinity = 1.0
	} else if !bankKnown {
		bankAffinity = 0.6
	}

	return Inputs{
		SuccessRate:    0.5,
		P95LatencyMS:   1500,
		MethodAffinity: 0.7,
		BankAffinity:   bankAffinity,
		AmountFit:      0.7,
		TimeMultiplier: 1.0,
	}
}
