// Package model holds the domain types shared across the gateway: the
// payment request/response shapes, attempts, routing decisions, circuit
// breaker state, experiments, bandit state, outbox records, and metric
// aggregates described in the specification's data model.
package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is the instrument family used for a payment.
type PaymentMethod string

const (
	MethodUPI        PaymentMethod = "UPI"
	MethodCard       PaymentMethod = "CARD"
	MethodNetbanking PaymentMethod = "NETBANKING"
)

// Instrument carries the method-specific fields of a payment request.
// Only the fields relevant to PaymentMethod are expected to be populated;
// this mirrors the wire shape without a true Go sum type.
type Instrument struct {
	CardNumber string `json:"card_number,omitempty"`
	CardExpiry string `json:"card_expiry,omitempty"`

	VPA string `json:"vpa,omitempty"`

	BankCode string `json:"bank_code,omitempty"`
}

// CreatePaymentRequest is the incoming payload for POST /payments.
type CreatePaymentRequest struct {
	AmountMinor   int64         `json:"amount_minor"`
	Currency      string        `json:"currency"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	MerchantID    string        `json:"merchant_id"`
	CustomerID    string        `json:"customer_id"`
	Instrument    Instrument    `json:"instrument"`
}

// Status is the adapter-agnostic outcome of one provider call, or the
// final normalised status of a payment.
type Status string

const (
	StatusSuccess              Status = "SUCCESS"
	StatusFailure              Status = "FAILURE"
	StatusTimeout              Status = "TIMEOUT"
	StatusPendingVerification  Status = "PENDING_VERIFICATION"
)

// NormalizedGatewayResponse is the adapter contract's response shape.
type NormalizedGatewayResponse struct {
	Status               Status  `json:"status"`
	TransactionID        *string `json:"transaction_id,omitempty"`
	AuthCode             *string `json:"auth_code,omitempty"`
	ErrorCode            *string `json:"error_code,omitempty"`
	ErrorMessage         *string `json:"error_message,omitempty"`
	GatewayResponseCode  *string `json:"gateway_response_code,omitempty"`
}

// CreatePaymentResponse is the response returned from POST /payments and
// replayed verbatim on idempotent retries.
type CreatePaymentResponse struct {
	PaymentID      uuid.UUID `json:"payment_id"`
	Status         Status    `json:"status"`
	GatewayUsed    string    `json:"gateway_used"`
	TransactionRef *string   `json:"transaction_ref,omitempty"`
	RoutingReason  string    `json:"routing_reason"`
	LatencyMS      int32     `json:"latency_ms"`
}

// PaymentContext is derived per-request: issuing bank, client metadata.
type PaymentContext struct {
	AmountMinor int64
	Currency    string
	MerchantID  string
	CustomerID  string
	Method      PaymentMethod
	IssuingBank string
	ClientIP    string
	UserAgent   string
}

// Payment is the persisted, never-mutated-after-commit record of one
// CreatePayment call, uniquely keyed by (MerchantID, IdempotencyKey).
type Payment struct {
	PaymentID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	MerchantID         string    `gorm:"index:idx_payments_merchant_key,unique"`
	IdempotencyKey     string    `gorm:"index:idx_payments_merchant_key,unique"`
	RequestHash        string
	CustomerID         string
	AmountMinor        int64
	Currency           string
	PaymentMethod      PaymentMethod
	IssuingBank        string
	GatewayUsed        string
	RoutingStrategy    string
	RoutingReason      string
	Status             Status
	TransactionRef     *string
	GatewayResponseCode *string
	ErrorMessage       *string
	LatencyMS          int32
	CreatedAt          time.Time
}

// TableName pins the gorm table name independent of struct renames.
func (Payment) TableName() string { return "payments" }
