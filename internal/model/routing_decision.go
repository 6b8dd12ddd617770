package model

import (
	"time"

	"github.com/google/uuid"
)

// RoutingDecision is the one-per-payment, insert-only record of how a
// payment was routed.
type RoutingDecision struct {
	PaymentID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	SelectedGateway      string
	SelectedScore        float64
	RunnerUpGateway      *string
	RunnerUpScore        *float64
	Strategy             string
	Reason               string
	ScoreBreakdownJSON   string `gorm:"type:jsonb"`
	RankedGatewaysJSON   string `gorm:"type:jsonb"`
	CreatedAt            time.Time
}

// TableName pins the gorm table name.
func (RoutingDecision) TableName() string { return "routing_decisions" }
