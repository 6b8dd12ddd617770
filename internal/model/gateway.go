package model

import "time"

// GatewayConfig describes one configured provider.
type GatewayConfig struct {
	GatewayID        string `gorm:"primaryKey"`
	GatewayName      string
	AdapterType      string
	IsEnabled        bool
	Priority         int
	SupportedMethods string // comma-separated; see SupportsMethod
	TimeoutMS        int
	MockBehavior     string
	UpdatedAt        time.Time
}

// TableName pins the gorm table name.
func (GatewayConfig) TableName() string { return "gateway_config" }

// SupportsMethod reports whether the gateway is configured for method.
func (g GatewayConfig) SupportsMethod(method PaymentMethod) bool {
	for _, m := range splitCSV(g.SupportedMethods) {
		if PaymentMethod(m) == method {
			return true
		}
	}
	return false
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

// RetryPolicy is the per-merchant retry configuration, with defaults
// applied when a merchant has none configured.
type RetryPolicy struct {
	MerchantID      string `gorm:"primaryKey"`
	MaxAttempts     int
	LatencyBudgetMS int
	RetryOnTimeout  bool
	Enabled         bool
	UpdatedAt       time.Time
}

// TableName pins the gorm table name.
func (RetryPolicy) TableName() string { return "retry_policy" }

// DefaultRetryPolicy is applied for merchants with no stored policy.
func DefaultRetryPolicy(merchantID string) RetryPolicy {
	return RetryPolicy{
		MerchantID:      merchantID,
		MaxAttempts:     3,
		LatencyBudgetMS: 10000,
		RetryOnTimeout:  false,
		Enabled:         true,
	}
}

// ErrorClassification is a per-(provider, error code) classification.
// Unknown codes default to all-false, treated as FailNow.
type ErrorClassification struct {
	GatewayID               string `gorm:"primaryKey"`
	ErrorCode               string `gorm:"primaryKey"`
	Retryable               bool
	TimeoutLike             bool
	NonRetryableUserError   bool
}

// TableName pins the gorm table name.
func (ErrorClassification) TableName() string { return "gateway_error_classification" }
