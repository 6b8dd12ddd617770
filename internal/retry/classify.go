// Package retry implements the retry orchestrator: the pure outcome
// classifier and the driver loop that walks a ranked candidate list
// under a per-merchant attempt/latency budget.
package retry

import (
	"time"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

// Directive is the tagged sum the classifier produces. DirectiveRetryExhausted
// is never returned by Classify itself; the driver loop assigns it when the
// ranked candidate list runs out without any attempt reaching a terminal
// directive.
type Directive string

const (
	DirectiveSuccess             Directive = "SUCCESS"
	DirectiveContinue            Directive = "CONTINUE"
	DirectiveFailNow             Directive = "FAIL_NOW"
	DirectivePendingVerification Directive = "PENDING_VERIFICATION"
	DirectiveRetryExhausted      Directive = "RETRY_EXHAUSTED"
)

// ErrorClass is the subset of model.ErrorClassification the classifier
// needs.
type ErrorClass struct {
	Retryable             bool
	NonRetryableUserError bool
}

// Classify is the pure per-attempt outcome classifier.
func Classify(status model.Status, errorClass *ErrorClass, retryOnTimeout bool) Directive {
	switch status {
	case model.StatusSuccess:
		return DirectiveSuccess
	case model.StatusPendingVerification:
		return DirectivePendingVerification
	case model.StatusTimeout:
		if retryOnTimeout {
			return DirectiveContinue
		}
		return DirectivePendingVerification
	case model.StatusFailure:
		if errorClass == nil {
			return DirectiveFailNow
		}
		if errorClass.NonRetryableUserError {
			return DirectiveFailNow
		}
		if errorClass.Retryable {
			return DirectiveContinue
		}
		return DirectiveFailNow
	default:
		return DirectiveFailNow
	}
}

// ShouldStopForBudget reports whether the elapsed time since start has
// already consumed the merchant's latency budget.
func ShouldStopForBudget(start time.Time, now time.Time, policy model.RetryPolicy) bool {
	elapsedMS := now.Sub(start).Milliseconds()
	return elapsedMS >= int64(policy.LatencyBudgetMS)
}

// AttemptLimit is the number of ranked candidates the driver may try.
func AttemptLimit(policy model.RetryPolicy) int {
	if !policy.Enabled {
		return 1
	}
	if policy.MaxAttempts < 0 {
		return 0
	}
	return policy.MaxAttempts
}
