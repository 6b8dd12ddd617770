package experiment

import (
	"math"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

// WinnerAnalysis is a two-proportion z-test comparing an experiment's
// control and treatment arms.
type WinnerAnalysis struct {
	ControlSuccessRate   float64
	TreatmentSuccessRate float64
	ZScore               float64
	PValue               float64
	IsSignificant        bool
	Winner               string // "control", "treatment", or "" if undecided
	Recommendation       string
}

// Analyze runs a two-proportion z-test over an experiment's hourly result
// rows, requiring at least minSamples total requests per arm before a
// verdict is attempted.
func Analyze(results []model.ExperimentResult, minSamples int64) WinnerAnalysis {
	cTotal, cSuccess := aggregateVariant(results, VariantControl)
	tTotal, tSuccess := aggregateVariant(results, VariantTreatment)

	if cTotal < minSamples || tTotal < minSamples || cTotal == 0 || tTotal == 0 {
		return WinnerAnalysis{
			ControlSuccessRate:   ratio(cSuccess, cTotal),
			TreatmentSuccessRate: ratio(tSuccess, tTotal),
			PValue:               1.0,
			Recommendation:       "insufficient sample size",
		}
	}

	p1 := ratio(cSuccess, cTotal)
	p2 := ratio(tSuccess, tTotal)
	pooled := ratio(cSuccess+tSuccess, cTotal+tTotal)
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(cTotal) + 1/float64(tTotal)))

	if se == 0 {
		return WinnerAnalysis{
			ControlSuccessRate:   p1,
			TreatmentSuccessRate: p2,
			PValue:               1.0,
			Recommendation:       "unable to compute significance",
		}
	}

	z := (p2 - p1) / se
	p := 2.0 * (1.0 - normalCDF(math.Abs(z)))
	significant := p < 0.05

	winner := ""
	recommendation := "continue experiment"
	if significant {
		if p2 > p1 {
			winner = VariantTreatment
			recommendation = "promote treatment"
		} else {
			winner = VariantControl
			recommendation = "keep control"
		}
	}

	return WinnerAnalysis{
		ControlSuccessRate:   p1,
		TreatmentSuccessRate: p2,
		ZScore:               z,
		PValue:               p,
		IsSignificant:        significant,
		Winner:               winner,
		Recommendation:       recommendation,
	}
}

func aggregateVariant(results []model.ExperimentResult, variant string) (total, success int64) {
	for _, row := range results {
		if row.Variant == variant {
			total += row.Total
			success += row.Successes
		}
	}
	return total, success
}

func ratio(a, b int64) float64 {
	if b <= 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// normalCDF is the Zelen & Severo rational approximation to the standard
// normal CDF, accurate to within 7.5e-8.
func normalCDF(x float64) float64 {
	t := 1.0 / (1.0 + 0.2316419*math.Abs(x))
	d := 0.3989423 * math.Exp(-x*x/2.0)
	prob := 1.0 - d*t*(0.3193815+t*(-0.3565638+t*(1.781478+t*(-1.821256+t*1.330274))))
	if x >= 0 {
		return prob
	}
	return 1.0 - prob
}
