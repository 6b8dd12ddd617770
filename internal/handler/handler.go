// Package handler exposes the payment gateway's HTTP surface: the public
// payment/lookup/debug routes and the X-Internal-Api-Key-gated admin
// routes, registered on a plain net/http.ServeMux the way the teacher's
// handler.RegisterRoutes does.
package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/experiment"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/metrics"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/service"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/store"
)

// ExperimentGuardrails bounds the automatic winner recommendation beyond
// plain statistical significance: a treatment that wins the z-test but
// costs too much latency or too much success rate is still left running.
type ExperimentGuardrails struct {
	MinSamples           int64
	MaxSuccessRateDrop   float64
	MaxLatencyMultiplier float64
}

// Handler holds every dependency the route table needs: the conductor for
// the payment pipeline, one repository per aggregate for the read/admin
// routes, and the shared secret and limiter that gate them.
type Handler struct {
	Conductor      *service.Conductor
	Payments       *store.PaymentRepository
	Gateways       *store.GatewayRepository
	Experiments    *store.ExperimentRepository
	Verifications  *store.VerificationRepository
	Circuit        ports.CircuitStore
	Metrics        ports.MetricsHotStore
	Clock          ports.Clock
	InternalAPIKey string
	Guardrails     ExperimentGuardrails
	Limiter        *rateLimiter
	Logger         *zap.Logger
}

// New builds a Handler, defaulting the rate limiter to perMinutePublic
// requests per client IP.
func New(
	conductor *service.Conductor,
	payments *store.PaymentRepository,
	gateways *store.GatewayRepository,
	experiments *store.ExperimentRepository,
	verifications *store.VerificationRepository,
	circuitStore ports.CircuitStore,
	metricsStore ports.MetricsHotStore,
	clock ports.Clock,
	internalAPIKey string,
	guardrails ExperimentGuardrails,
	perMinutePublic int,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Conductor:      conductor,
		Payments:       payments,
		Gateways:       gateways,
		Experiments:    experiments,
		Verifications:  verifications,
		Circuit:        circuitStore,
		Metrics:        metricsStore,
		Clock:          clock,
		InternalAPIKey: internalAPIKey,
		Guardrails:     guardrails,
		Limiter:        newRateLimiter(perMinutePublic, clock),
		Logger:         logger.Named("handler"),
	}
}

// RegisterRoutes registers the full route table on mux: public routes
// behind the per-IP token bucket, admin routes behind the internal API
// key, ops routes behind neither.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /payments", h.public(h.CreatePayment))
	mux.HandleFunc("GET /payments/{id}/routing-decision", h.public(h.RoutingDecision))
	mux.HandleFunc("GET /payments/{id}/attempts", h.public(h.Attempts))
	mux.HandleFunc("GET /payments/{id}/status-verification", h.public(h.StatusVerification))

	mux.HandleFunc("GET /gateways", h.public(h.ListGateways))
	mux.HandleFunc("PATCH /gateways/{id}", h.admin(h.PatchGateway))

	mux.HandleFunc("GET /metrics/gateways/{name}", h.public(h.GatewayMetrics))
	mux.HandleFunc("GET /scoring/debug", h.public(h.ScoringDebug))

	mux.HandleFunc("GET /circuit-breaker/status", h.public(h.CircuitStatus))
	mux.HandleFunc("POST /admin/circuit-breaker/force-open/{gw}/{method}", h.admin(h.ForceOpenCircuit))
	mux.HandleFunc("POST /admin/circuit-breaker/force-close/{gw}/{method}", h.admin(h.ForceCloseCircuit))

	mux.HandleFunc("POST /admin/experiments", h.admin(h.CreateExperiment))
	mux.HandleFunc("GET /experiments", h.public(h.ListExperiments))
	mux.HandleFunc("GET /experiments/{id}/results", h.public(h.ExperimentResults))
	mux.HandleFunc("GET /experiments/{id}/winner", h.public(h.ExperimentWinner))
	mux.HandleFunc("POST /admin/experiments/{id}/stop", h.admin(h.StopExperiment))

	mux.HandleFunc("POST /admin/bandit/policy/{segment}/enable", h.admin(h.EnableBandit))
	mux.HandleFunc("POST /admin/bandit/policy/{segment}/disable", h.admin(h.DisableBandit))
	mux.HandleFunc("GET /bandit/state", h.public(h.BanditState))

	mux.HandleFunc("PUT /admin/retry-policy/{merchant}", h.admin(h.PutRetryPolicy))
	mux.HandleFunc("GET /admin/retry-policy/{merchant}", h.admin(h.GetRetryPolicy))

	mux.HandleFunc("GET /ops/liveness", h.Liveness)
	mux.HandleFunc("GET /ops/readiness", h.Readiness)
}

// public wraps a handler with the per-IP token bucket.
func (h *Handler) public(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.Limiter.Allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, slow down")
			return
		}
		next(w, r)
	}
}

// admin wraps a handler with the shared-secret check, comparing in
// constant time so the header never leaks timing information.
func (h *Handler) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		given := r.Header.Get("X-Internal-Api-Key")
		if subtle.ConstantTimeCompare([]byte(given), []byte(h.InternalAPIKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid X-Internal-Api-Key")
			return
		}
		next(w, r)
	}
}

// CreatePayment handles POST /payments.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST_BODY", "request body is not valid JSON: "+err.Error())
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	resp, appErr := h.Conductor.Process(r.Context(), req, idempotencyKey, clientIP(r), r.Header.Get("User-Agent"))
	if appErr != nil {
		writeError(w, appErr.HTTPStatus, appErr.Code, appErr.Message)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parsePaymentID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}

// RoutingDecision handles GET /payments/{id}/routing-decision.
func (h *Handler) RoutingDecision(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePaymentID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_PAYMENT_ID", "payment id must be a UUID")
		return
	}
	decision, err := h.Payments.GetRoutingDecision(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if decision == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no routing decision recorded for this payment")
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

// Attempts handles GET /payments/{id}/attempts.
func (h *Handler) Attempts(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePaymentID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_PAYMENT_ID", "payment id must be a UUID")
		return
	}
	attempts, err := h.Payments.ListAttempts(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"attempts": attempts})
}

// StatusVerification handles GET /payments/{id}/status-verification.
func (h *Handler) StatusVerification(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PAYMENT_ID", "payment id must be a UUID")
		return
	}
	row, err := h.Verifications.FindByPaymentID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "payment never entered pending verification")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// ListGateways handles GET /gateways.
func (h *Handler) ListGateways(w http.ResponseWriter, r *http.Request) {
	gateways, err := h.Gateways.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"gateways": gateways})
}

type patchGatewayRequest struct {
	IsEnabled *bool   `json:"is_enabled,omitempty"`
	Priority  *int    `json:"priority,omitempty"`
	TimeoutMS *int    `json:"timeout_ms,omitempty"`
	MockBehavior *string `json:"mock_behavior,omitempty"`
}

// PatchGateway handles PATCH /gateways/{id}, a partial update over the
// fields an operator tunes at runtime without a redeploy.
func (h *Handler) PatchGateway(w http.ResponseWriter, r *http.Request) {
	gatewayID := r.PathValue("id")
	existing, err := h.Gateways.Get(r.Context(), gatewayID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "gateway not found: "+gatewayID)
		return
	}

	var req patchGatewayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST_BODY", "request body is not valid JSON: "+err.Error())
		return
	}
	if req.IsEnabled != nil {
		existing.IsEnabled = *req.IsEnabled
	}
	if req.Priority != nil {
		existing.Priority = *req.Priority
	}
	if req.TimeoutMS != nil {
		existing.TimeoutMS = *req.TimeoutMS
	}
	if req.MockBehavior != nil {
		existing.MockBehavior = *req.MockBehavior
	}
	existing.UpdatedAt = h.Clock.Now()

	if err := h.Gateways.Upsert(r.Context(), *existing); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

var metricsWindowMinutes = map[string]int64{"1m": 1, "5m": 5, "15m": 15, "60m": 60}

// GatewayMetrics handles GET /metrics/gateways/{name}.
func (h *Handler) GatewayMetrics(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	window := r.URL.Query().Get("window")
	windowMinutes, ok := metricsWindowMinutes[window]
	if window == "" {
		windowMinutes, ok = 5, true
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_WINDOW", "window must be one of 1m, 5m, 15m, 60m")
		return
	}

	rows, err := h.Metrics.ReadGatewayMetrics(r.Context(), name, windowMinutes,
		r.URL.Query().Get("payment_method"), r.URL.Query().Get("issuing_bank"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"gateway": name, "window": window, "metrics": rows})
}

// ScoringDebug handles GET /scoring/debug, running the scorer against
// live signals without executing a payment.
func (h *Handler) ScoringDebug(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amountMinor, err := strconv.ParseInt(q.Get("amount_minor"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_AMOUNT", "amount_minor must be an integer")
		return
	}
	method := model.PaymentMethod(q.Get("payment_method"))

	amountBucket := metrics.AmountBucket(amountMinor)
	ranked, err := h.Conductor.ScoreCandidates(r.Context(), method, q.Get("issuing_bank"), amountBucket)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"payment_method": method,
		"amount_bucket":  amountBucket,
		"ranked":         ranked,
	})
}

// CircuitStatus handles GET /circuit-breaker/status.
func (h *Handler) CircuitStatus(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.Circuit.AllSnapshots(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"circuits": snapshots})
}

// ForceOpenCircuit handles POST /admin/circuit-breaker/force-open/{gw}/{method}.
func (h *Handler) ForceOpenCircuit(w http.ResponseWriter, r *http.Request) {
	h.setOverride(w, r, model.ForceOpen)
}

// ForceCloseCircuit handles POST /admin/circuit-breaker/force-close/{gw}/{method}.
func (h *Handler) ForceCloseCircuit(w http.ResponseWriter, r *http.Request) {
	h.setOverride(w, r, model.ForceClosed)
}

func (h *Handler) setOverride(w http.ResponseWriter, r *http.Request, mode model.OverrideMode) {
	gw, method := r.PathValue("gw"), r.PathValue("method")
	if err := h.Circuit.SetOverride(r.Context(), gw, method, mode); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"gateway_id": gw, "payment_method": method, "override": mode})
}

type createExperimentRequest struct {
	ExperimentID     string     `json:"experiment_id"`
	Name             string     `json:"name"`
	ControlPct       int        `json:"control_pct"`
	TreatmentGateway string     `json:"treatment_gateway"`
	StartAt          *time.Time `json:"start_at,omitempty"`
	EndAt            *time.Time `json:"end_at,omitempty"`

	PaymentMethod  *string `json:"payment_method,omitempty"`
	MinAmountMinor *int64  `json:"min_amount_minor,omitempty"`
	MaxAmountMinor *int64  `json:"max_amount_minor,omitempty"`
	MerchantID     *string `json:"merchant_id,omitempty"`
	AmountBucket   *string `json:"amount_bucket,omitempty"`
}

// CreateExperiment handles POST /admin/experiments.
func (h *Handler) CreateExperiment(w http.ResponseWriter, r *http.Request) {
	var req createExperimentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST_BODY", "request body is not valid JSON: "+err.Error())
		return
	}
	if req.ExperimentID == "" || req.TreatmentGateway == "" {
		writeError(w, http.StatusBadRequest, "INVALID_EXPERIMENT", "experiment_id and treatment_gateway are required")
		return
	}
	if req.ControlPct < 0 || req.ControlPct > 100 {
		writeError(w, http.StatusBadRequest, "INVALID_EXPERIMENT", "control_pct must be between 0 and 100")
		return
	}

	now := h.Clock.Now()
	startAt := now
	if req.StartAt != nil {
		startAt = *req.StartAt
	}

	exp := model.Experiment{
		ExperimentID:     req.ExperimentID,
		Name:             req.Name,
		Status:           model.ExperimentRunning,
		ControlPct:       req.ControlPct,
		TreatmentPct:     100 - req.ControlPct,
		TreatmentGateway: req.TreatmentGateway,
		StartAt:          startAt,
		EndAt:            req.EndAt,
		CreatedAt:        now,
		PaymentMethod:    req.PaymentMethod,
		MinAmountMinor:   req.MinAmountMinor,
		MaxAmountMinor:   req.MaxAmountMinor,
		MerchantID:       req.MerchantID,
		AmountBucket:     req.AmountBucket,
	}
	if err := h.Experiments.Create(r.Context(), exp); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, exp)
}

// ListExperiments handles GET /experiments.
func (h *Handler) ListExperiments(w http.ResponseWriter, r *http.Request) {
	experiments, err := h.Experiments.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"experiments": experiments})
}

// ExperimentResults handles GET /experiments/{id}/results.
func (h *Handler) ExperimentResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.Experiments.Results(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// ExperimentWinner handles GET /experiments/{id}/winner: the hourly
// rollup analysed by a two-proportion z-test, then narrowed by the
// latency and success-rate-drop guardrails so a statistically
// significant but costly treatment is never auto-recommended.
func (h *Handler) ExperimentWinner(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	results, err := h.Experiments.Results(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	analysis := experiment.Analyze(results, h.Guardrails.MinSamples)
	analysis = applyGuardrails(results, analysis, h.Guardrails)
	writeJSON(w, http.StatusOK, analysis)
}

func applyGuardrails(results []model.ExperimentResult, analysis experiment.WinnerAnalysis, g ExperimentGuardrails) experiment.WinnerAnalysis {
	if analysis.Winner != experiment.VariantTreatment {
		return analysis
	}

	controlLatency := avgLatency(results, experiment.VariantControl)
	treatmentLatency := avgLatency(results, experiment.VariantTreatment)
	if controlLatency > 0 && g.MaxLatencyMultiplier > 0 && treatmentLatency/controlLatency > g.MaxLatencyMultiplier {
		analysis.Winner = ""
		analysis.Recommendation = "treatment latency exceeds guardrail, continue experiment"
		return analysis
	}

	if analysis.ControlSuccessRate-analysis.TreatmentSuccessRate > g.MaxSuccessRateDrop {
		analysis.Winner = ""
		analysis.Recommendation = "treatment success rate drop exceeds guardrail, continue experiment"
	}
	return analysis
}

func avgLatency(results []model.ExperimentResult, variant string) float64 {
	var totalLatency float64
	var totalCount int64
	for _, row := range results {
		if row.Variant == variant {
			totalLatency += row.AvgLatencyMS * float64(row.Total)
			totalCount += row.Total
		}
	}
	if totalCount == 0 {
		return 0
	}
	return totalLatency / float64(totalCount)
}

// StopExperiment handles POST /admin/experiments/{id}/stop.
func (h *Handler) StopExperiment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Experiments.Stop(r.Context(), id, h.Clock.Now()); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"experiment_id": id, "status": string(model.ExperimentCompleted)})
}

// EnableBandit handles POST /admin/bandit/policy/{segment}/enable.
func (h *Handler) EnableBandit(w http.ResponseWriter, r *http.Request) {
	h.setBanditPolicy(w, r, true)
}

// DisableBandit handles POST /admin/bandit/policy/{segment}/disable.
func (h *Handler) DisableBandit(w http.ResponseWriter, r *http.Request) {
	h.setBanditPolicy(w, r, false)
}

func (h *Handler) setBanditPolicy(w http.ResponseWriter, r *http.Request, enabled bool) {
	segment := r.PathValue("segment")
	if err := h.Experiments.SetBanditPolicy(r.Context(), segment, enabled); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"segment": segment, "enabled": enabled})
}

// BanditState handles GET /bandit/state?segment=.
func (h *Handler) BanditState(w http.ResponseWriter, r *http.Request) {
	segment := r.URL.Query().Get("segment")
	if segment == "" {
		writeError(w, http.StatusBadRequest, "INVALID_SEGMENT", "segment query parameter is required")
		return
	}
	states, err := h.Experiments.BanditStatesFor(r.Context(), segment)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"segment": segment, "states": states})
}

// GetRetryPolicy handles GET /admin/retry-policy/{merchant}.
func (h *Handler) GetRetryPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.Gateways.RetryPolicyFor(r.Context(), r.PathValue("merchant"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

type putRetryPolicyRequest struct {
	MaxAttempts     int  `json:"max_attempts"`
	LatencyBudgetMS int  `json:"latency_budget_ms"`
	RetryOnTimeout  bool `json:"retry_on_timeout"`
	Enabled         bool `json:"enabled"`
}

// PutRetryPolicy handles PUT /admin/retry-policy/{merchant}.
func (h *Handler) PutRetryPolicy(w http.ResponseWriter, r *http.Request) {
	merchant := r.PathValue("merchant")
	var req putRetryPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST_BODY", "request body is not valid JSON: "+err.Error())
		return
	}
	if req.MaxAttempts <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_RETRY_POLICY", "max_attempts must be greater than 0")
		return
	}

	policy := model.RetryPolicy{
		MerchantID:      merchant,
		MaxAttempts:     req.MaxAttempts,
		LatencyBudgetMS: req.LatencyBudgetMS,
		RetryOnTimeout:  req.RetryOnTimeout,
		Enabled:         req.Enabled,
		UpdatedAt:       h.Clock.Now(),
	}
	if err := h.Gateways.UpsertRetryPolicy(r.Context(), policy); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

// Liveness handles GET /ops/liveness: the process is up and serving.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness handles GET /ops/readiness: the process can reach its
// dependencies. Wired to the Conductor's own stores, so a DB or Redis
// outage surfaces here before it surfaces as a wave of 500s.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Gateways.ListAll(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "NOT_READY", "database unreachable: "+err.Error())
		return
	}
	if _, err := h.Circuit.AllSnapshots(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "NOT_READY", "hot store unreachable: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
