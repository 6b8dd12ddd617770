package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/retry"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/scoring"
)

// buildAttempts converts the driver's per-iteration records into the
// persisted Attempt rows for one payment.
func buildAttempts(paymentID uuid.UUID, records []retry.AttemptRecord, now time.Time) []model.Attempt {
	attempts := make([]model.Attempt, 0, len(records))
	for _, rec := range records {
		attempt := model.Attempt{
			ID:                  uuid.New(),
			PaymentID:           paymentID,
			AttemptNumber:       rec.AttemptNumber,
			GatewayID:           rec.GatewayID,
			CircuitStateAtAdmit: string(rec.CircuitStateAtAdmit),
			Skipped:             rec.Skipped,
			LatencyMS:           rec.LatencyMS,
			CreatedAt:           now,
		}
		switch {
		case rec.Skipped:
			reason := rec.AdmissionReason
			attempt.FallbackReason = &reason
		case rec.FallbackReason != "":
			reason := rec.FallbackReason
			attempt.Status = rec.Response.Status
			attempt.ErrorCode = rec.Response.ErrorCode
			attempt.FallbackReason = &reason
		default:
			attempt.Status = rec.Response.Status
			attempt.ErrorCode = rec.Response.ErrorCode
		}
		attempts = append(attempts, attempt)
	}
	return attempts
}

// buildRoutingDecision records the selected gateway, its runner-up, and
// the full ranked breakdown for later audit via /payments/{id} or the
// scoring debug endpoint.
func buildRoutingDecision(paymentID uuid.UUID, ranked []scoring.Ranked, selectedGateway, strategy, reason string, now time.Time) model.RoutingDecision {
	decision := model.RoutingDecision{
		PaymentID: paymentID,
		Strategy:  strategy,
		Reason:    reason,
		CreatedAt: now,
	}

	for _, r := range ranked {
		if r.GatewayID == selectedGateway {
			decision.SelectedGateway = r.GatewayID
			decision.SelectedScore = r.Score
			if blob, err := json.Marshal(r.Breakdown); err == nil {
				decision.ScoreBreakdownJSON = string(blob)
			}
			break
		}
	}
	if decision.SelectedGateway == "" && len(ranked) > 0 {
		decision.SelectedGateway = selectedGateway
	}

	for _, r := range ranked {
		if r.GatewayID != selectedGateway {
			runnerUp, score := r.GatewayID, r.Score
			decision.RunnerUpGateway = &runnerUp
			decision.RunnerUpScore = &score
			break
		}
	}

	if blob, err := json.Marshal(ranked); err == nil {
		decision.RankedGatewaysJSON = string(blob)
	}
	return decision
}

// buildOutboxRecord raises the payment.attempted lifecycle event for the
// relay to publish to the event stream.
func buildOutboxRecord(paymentID uuid.UUID, pctx model.PaymentContext, amountBucket string, status model.Status, gatewayUsed string, latencyMS int32, errorCode *string, now time.Time) model.OutboxRecord {
	event := model.PaymentEvent{
		PaymentID:     paymentID.String(),
		GatewayUsed:   gatewayUsed,
		PaymentMethod: string(pctx.Method),
		IssuingBank:   pctx.IssuingBank,
		AmountBucket:  amountBucket,
		Status:        status,
		LatencyMS:     latencyMS,
		ErrorCode:     errorCode,
		Timestamp:     now,
	}
	payload, _ := json.Marshal(event)
	return model.OutboxRecord{
		PaymentID:     paymentID.String(),
		EventType:     "payment.attempted",
		PayloadJSON:   string(payload),
		Status:        model.OutboxPending,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// buildVerification enqueues a reconciliation check for a payment left
// in PENDING_VERIFICATION, due two minutes out per the verification
// worker's retry interval.
func buildVerification(paymentID uuid.UUID, gatewayID string, now time.Time) *model.PaymentVerification {
	return &model.PaymentVerification{
		PaymentID:   paymentID.String(),
		GatewayID:   gatewayID,
		NextCheckAt: now.Add(model.VerificationRetryInterval),
		Attempts:    0,
		Status:      model.VerificationPending,
		UpdatedAt:   now,
	}
}
