package service

import "net/http"

// AppError is the single error envelope type carrying an HTTP status and
// a stable code, generalising the teacher's writeError/writeJSON helpers
// to the fuller code list the routing gateway needs.
type AppError struct {
	HTTPStatus int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

func (e *AppError) Error() string { return e.Code + ": " + e.Message }

func newAppError(status int, code, message string) *AppError {
	return &AppError{HTTPStatus: status, Code: code, Message: message}
}

var (
	errInvalidAmount         = newAppError(http.StatusBadRequest, "INVALID_AMOUNT", "amount_minor must be greater than 0")
	errInvalidCurrency       = newAppError(http.StatusBadRequest, "INVALID_CURRENCY", "only INR is supported")
	errInvalidCustomerID     = newAppError(http.StatusBadRequest, "INVALID_CUSTOMER_ID", "customer_id is required")
	errMissingIdemKey        = newAppError(http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required")
	errIdemMismatch          = newAppError(http.StatusConflict, "IDEMPOTENCY_KEY_REUSED_WITH_DIFFERENT_PAYLOAD", "payload does not match the original request for this idempotency key")
	errNoGateway             = newAppError(http.StatusServiceUnavailable, "NO_GATEWAY_AVAILABLE", "no enabled gateway for this payment method")
	errRouterSelectionFailed = newAppError(http.StatusServiceUnavailable, "ROUTER_SELECTION_FAILED", "scoring produced no ranked candidate from a non-empty gateway set")
	errRetryExhausted        = newAppError(http.StatusServiceUnavailable, "RETRY_EXHAUSTED", "every candidate gateway was exhausted without a terminal outcome")
)

func errInternal(err error) *AppError {
	e := newAppError(http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	return e
}
