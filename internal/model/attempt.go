package model

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is one row per gateway call within a payment, ordered by
// AttemptNumber >= 1. (payment_id, attempt_number) is unique.
type Attempt struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	PaymentID           uuid.UUID `gorm:"index:idx_attempts_payment_number,unique"`
	AttemptNumber       int       `gorm:"index:idx_attempts_payment_number,unique"`
	GatewayID           string
	Status              Status
	ErrorCode           *string
	LatencyMS           int32
	CircuitStateAtAdmit string
	FallbackReason      *string
	Skipped             bool
	CreatedAt           time.Time
}

// TableName pins the gorm table name.
func (Attempt) TableName() string { return "payment_attempts" }
