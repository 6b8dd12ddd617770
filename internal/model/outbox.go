package model

import "time"

// OutboxStatus is the lifecycle of an outbox row.
type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "PENDING"
	OutboxProcessing OutboxStatus = "PROCESSING"
	OutboxPublished  OutboxStatus = "PUBLISHED"
)

// OutboxRecord is one event queued for at-least-once emission to the
// event stream. Unique on (PaymentID, EventType).
type OutboxRecord struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	PaymentID     string    `gorm:"index:idx_outbox_payment_event,unique"`
	EventType     string    `gorm:"index:idx_outbox_payment_event,unique"`
	PayloadJSON   string    `gorm:"type:jsonb"`
	Status        OutboxStatus
	Attempts      int
	NextAttemptAt time.Time
	PublishedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName pins the gorm table name.
func (OutboxRecord) TableName() string { return "payment_events_outbox" }

// PaymentEvent is the payload shape carried inside an outbox record and
// appended to the event stream, matching the adapter-agnostic lifecycle
// event used by the metrics aggregator.
type PaymentEvent struct {
	PaymentID     string    `json:"payment_id"`
	GatewayUsed   string    `json:"gateway_used"`
	PaymentMethod string    `json:"payment_method"`
	IssuingBank   string    `json:"issuing_bank"`
	AmountBucket  string    `json:"amount_bucket"`
	Status        Status    `json:"status"`
	LatencyMS     int32     `json:"latency_ms"`
	ErrorCode     *string   `json:"error_code,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// VerificationStatus is the lifecycle of a pending-verification row.
type VerificationStatus string

const (
	VerificationPending   VerificationStatus = "PENDING"
	VerificationExhausted VerificationStatus = "EXHAUSTED"
	VerificationResolved  VerificationStatus = "RESOLVED"
)

// PaymentVerification is a queued reconciliation check for a payment
// that returned PendingVerification.
type PaymentVerification struct {
	PaymentID   string `gorm:"primaryKey"`
	GatewayID   string
	NextCheckAt time.Time
	Attempts    int
	Status      VerificationStatus
	UpdatedAt   time.Time
}

// TableName pins the gorm table name.
func (PaymentVerification) TableName() string { return "payment_status_verification" }

// MaxVerificationAttempts is the attempt count after which a pending
// verification is marked EXHAUSTED.
const MaxVerificationAttempts = 3

// VerificationRetryInterval is how far out the next check is scheduled,
// both on initial enqueue and after each reconciliation attempt.
const VerificationRetryInterval = 2 * time.Minute
