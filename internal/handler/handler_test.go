package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/experiment"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

type stubClock struct{ now time.Time }

func (c stubClock) Now() time.Time { return c.now }

type mutableClock struct{ now time.Time }

func (c *mutableClock) Now() time.Time { return c.now }

func TestRateLimiter_AllowsUpToCapacityThenBlocks(t *testing.T) {
	clock := &mutableClock{now: time.Now()}
	limiter := newRateLimiter(3, clock)

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Allow("1.2.3.4"), "request %d should be allowed within capacity", i)
	}
	require.False(t, limiter.Allow("1.2.3.4"), "request beyond capacity should be rejected")

	// A different key has its own bucket.
	require.True(t, limiter.Allow("5.6.7.8"))
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	clock := &mutableClock{now: time.Now()}
	limiter := newRateLimiter(60, clock) // 1 token/sec

	require.True(t, limiter.Allow("1.1.1.1"))
	for i := 0; i < 59; i++ {
		limiter.Allow("1.1.1.1")
	}
	require.False(t, limiter.Allow("1.1.1.1"))

	clock.now = clock.now.Add(2 * time.Second)
	require.True(t, limiter.Allow("1.1.1.1"), "tokens should have refilled after waiting")
}

func TestAdminMiddleware_RejectsMissingOrWrongKey(t *testing.T) {
	h := &Handler{InternalAPIKey: "super-secret"}
	called := false
	wrapped := h.admin(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/admin/anything", nil)
	rec := httptest.NewRecorder()
	wrapped(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, called)
}

func TestAdminMiddleware_AcceptsValidKey(t *testing.T) {
	h := &Handler{InternalAPIKey: "super-secret"}
	called := false
	wrapped := h.admin(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/admin/anything", nil)
	req.Header.Set("X-Internal-Api-Key", "super-secret")
	rec := httptest.NewRecorder()
	wrapped(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, called)
}

func TestPublicMiddleware_RateLimits(t *testing.T) {
	h := &Handler{Limiter: newRateLimiter(1, stubClock{now: time.Now()})}
	calls := 0
	wrapped := h.public(func(w http.ResponseWriter, r *http.Request) { calls++ })

	req := httptest.NewRequest(http.MethodGet, "/gateways", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec1 := httptest.NewRecorder()
	wrapped(rec1, req)
	require.Equal(t, http.StatusOK, rec1.Code)

	rec2 := httptest.NewRecorder()
	wrapped(rec2, req)
	require.Equal(t, http.StatusTooManyRequests, rec2.Code)
	require.Equal(t, 1, calls)
}

func TestClientIP_StripsPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:54321"
	require.Equal(t, "203.0.113.5", clientIP(req))
}

func TestClientIP_FallsBackToRawAddrWithoutPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "not-a-host-port"
	require.Equal(t, "not-a-host-port", clientIP(req))
}

func resultRow(variant string, total, successes int64, avgLatency float64) model.ExperimentResult {
	return model.ExperimentResult{Variant: variant, Total: total, Successes: successes, AvgLatencyMS: avgLatency}
}

func TestApplyGuardrails_KeepsSignificantWinnerWithinGuardrails(t *testing.T) {
	results := []model.ExperimentResult{
		resultRow(experiment.VariantControl, 1000, 500, 200),
		resultRow(experiment.VariantTreatment, 1000, 560, 210),
	}
	analysis := experiment.WinnerAnalysis{
		ControlSuccessRate:   0.50,
		TreatmentSuccessRate: 0.56,
		Winner:               experiment.VariantTreatment,
		Recommendation:       "promote treatment",
	}
	g := ExperimentGuardrails{MaxSuccessRateDrop: 0.05, MaxLatencyMultiplier: 1.25}

	out := applyGuardrails(results, analysis, g)
	require.Equal(t, experiment.VariantTreatment, out.Winner)
	require.Equal(t, "promote treatment", out.Recommendation)
}

func TestApplyGuardrails_BlocksOnLatencyRegression(t *testing.T) {
	results := []model.ExperimentResult{
		resultRow(experiment.VariantControl, 1000, 500, 200),
		resultRow(experiment.VariantTreatment, 1000, 560, 400), // 2x latency
	}
	analysis := experiment.WinnerAnalysis{
		ControlSuccessRate:   0.50,
		TreatmentSuccessRate: 0.56,
		Winner:               experiment.VariantTreatment,
	}
	g := ExperimentGuardrails{MaxSuccessRateDrop: 0.05, MaxLatencyMultiplier: 1.25}

	out := applyGuardrails(results, analysis, g)
	require.Equal(t, "", out.Winner)
	require.Contains(t, out.Recommendation, "latency")
}

func TestApplyGuardrails_BlocksOnSuccessRateDrop(t *testing.T) {
	results := []model.ExperimentResult{
		resultRow(experiment.VariantControl, 1000, 900, 200),
		resultRow(experiment.VariantTreatment, 1000, 800, 205),
	}
	analysis := experiment.WinnerAnalysis{
		ControlSuccessRate:   0.90,
		TreatmentSuccessRate: 0.80,
		Winner:               experiment.VariantTreatment,
	}
	g := ExperimentGuardrails{MaxSuccessRateDrop: 0.05, MaxLatencyMultiplier: 1.25}

	out := applyGuardrails(results, analysis, g)
	require.Equal(t, "", out.Winner)
	require.Contains(t, out.Recommendation, "success rate")
}

func TestApplyGuardrails_NoOpWhenControlWins(t *testing.T) {
	analysis := experiment.WinnerAnalysis{Winner: experiment.VariantControl, Recommendation: "keep control"}
	out := applyGuardrails(nil, analysis, ExperimentGuardrails{})
	require.Equal(t, experiment.VariantControl, out.Winner)
	require.Equal(t, "keep control", out.Recommendation)
}
