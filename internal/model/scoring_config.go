package model

// ScoringConfig is the single "default" row of scorer weights, read by
// the conductor's weights cache and the /scoring/debug endpoint.
type ScoringConfig struct {
	ConfigID             string `gorm:"primaryKey"`
	SuccessRateWeight    float64
	LatencyWeight        float64
	MethodAffinityWeight float64
	BankAffinityWeight   float64
	AmountFitWeight      float64
	TimeWeight           float64
}

// TableName pins the gorm table name.
func (ScoringConfig) TableName() string { return "scoring_config" }

// DefaultScoringConfigID is the sole configuration row's key.
const DefaultScoringConfigID = "default"

// GatewayMethodAffinity is a per-(gateway, method) affinity override;
// gateways with no row default to 0.7.
type GatewayMethodAffinity struct {
	GatewayID     string `gorm:"primaryKey"`
	PaymentMethod string `gorm:"primaryKey"`
	Score         float64
}

// TableName pins the gorm table name.
func (GatewayMethodAffinity) TableName() string { return "gateway_method_affinity" }

// GatewayAmountFit is a per-(gateway, amount bucket) fit override;
// gateways with no row default to 0.7.
type GatewayAmountFit struct {
	GatewayID    string `gorm:"primaryKey"`
	AmountBucket string `gorm:"primaryKey"`
	Score        float64
}

// TableName pins the gorm table name.
func (GatewayAmountFit) TableName() string { return "gateway_amount_fit" }

// GatewayTimePenalty is a per-(gateway, hour-of-day[, day-of-month])
// multiplier override; gateways with no matching row default to 1.0.
// A nil DayOfMonth row applies to every day of the month.
type GatewayTimePenalty struct {
	GatewayID  string `gorm:"primaryKey"`
	HourOfDay  int    `gorm:"primaryKey"`
	DayOfMonth *int   `gorm:"primaryKey"`
	Multiplier float64
}

// TableName pins the gorm table name.
func (GatewayTimePenalty) TableName() string { return "gateway_time_penalty" }

// BinBankMap resolves a card's 6-digit BIN prefix to an issuing bank
// code.
type BinBankMap struct {
	BinPrefix string `gorm:"primaryKey"`
	BankCode  string
}

// TableName pins the gorm table name.
func (BinBankMap) TableName() string { return "bin_bank_map" }
