package model

import "time"

// ExperimentStatus is the lifecycle state of an experiment.
type ExperimentStatus string

const (
	ExperimentRunning   ExperimentStatus = "RUNNING"
	ExperimentPaused    ExperimentStatus = "PAUSED"
	ExperimentCompleted ExperimentStatus = "COMPLETED"
)

// Experiment is a control/treatment traffic split paired with a filter.
type Experiment struct {
	ExperimentID     string `gorm:"primaryKey"`
	Name             string
	Status           ExperimentStatus
	ControlPct       int
	TreatmentPct     int
	TreatmentGateway string
	StartAt          time.Time
	EndAt            *time.Time
	CreatedAt        time.Time

	PaymentMethod   *string
	MinAmountMinor  *int64
	MaxAmountMinor  *int64
	MerchantID      *string
	AmountBucket    *string
}

// TableName pins the gorm table name.
func (Experiment) TableName() string { return "experiments" }

// MatchInput carries the request features matched against an
// experiment's filter.
type MatchInput struct {
	PaymentMethod string
	AmountMinor   int64
	MerchantID    string
	AmountBucket  string
}

// Matches reports whether every non-nil filter field on e is satisfied
// by input. All set filters are conjunctive.
func (e Experiment) Matches(input MatchInput) bool {
	if e.PaymentMethod != nil && *e.PaymentMethod != input.PaymentMethod {
		return false
	}
	if e.MinAmountMinor != nil && input.AmountMinor < *e.MinAmountMinor {
		return false
	}
	if e.MaxAmountMinor != nil && input.AmountMinor > *e.MaxAmountMinor {
		return false
	}
	if e.MerchantID != nil && *e.MerchantID != input.MerchantID {
		return false
	}
	if e.AmountBucket != nil && *e.AmountBucket != input.AmountBucket {
		return false
	}
	return true
}

// ExperimentAssignment is the stable (experiment, customer) -> variant
// mapping.
type ExperimentAssignment struct {
	ExperimentID string `gorm:"primaryKey"`
	CustomerID   string `gorm:"primaryKey"`
	Variant      string
	Bucket       int
	CreatedAt    time.Time
}

// TableName pins the gorm table name.
func (ExperimentAssignment) TableName() string { return "experiment_assignments" }

// ExperimentResult is the hourly rollup per (experiment, variant, hour).
type ExperimentResult struct {
	ExperimentID   string    `gorm:"primaryKey"`
	Variant        string    `gorm:"primaryKey"`
	Hour           time.Time `gorm:"primaryKey"`
	Total          int64
	Successes      int64
	Failures       int64
	AvgLatencyMS   float64
	P95LatencyMS   int32
	RevenueMinor   int64
}

// TableName pins the gorm table name.
func (ExperimentResult) TableName() string { return "experiment_results" }

// BanditState holds a per-segment per-provider Beta posterior.
// Initialised to (1, 1); monotonically non-decreasing.
type BanditState struct {
	Segment   string `gorm:"primaryKey"`
	GatewayID string `gorm:"primaryKey"`
	Alpha     float64
	Beta      float64
	UpdatedAt time.Time
}

// TableName pins the gorm table name.
func (BanditState) TableName() string { return "bandit_state" }

// BanditPolicy is the per-segment enable flag for Thompson sampling.
type BanditPolicy struct {
	Segment string `gorm:"primaryKey"`
	Enabled bool
}

// TableName pins the gorm table name.
func (BanditPolicy) TableName() string { return "bandit_policy" }

// Segment is "<method>:<amount_bucket>", the unit over which the bandit
// maintains Beta posteriors.
func Segment(method, amountBucket string) string {
	return method + ":" + amountBucket
}
