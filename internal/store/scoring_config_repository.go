package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/scoring"
)

// ScoringConfigRepository owns the scorer's weights, per-gateway
// method-affinity and amount-fit overrides, per-hour time penalties, and
// the BIN-to-bank lookup table.
type ScoringConfigRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewScoringConfigRepository builds a ScoringConfigRepository.
func NewScoringConfigRepository(db *DB, logger *zap.Logger) *ScoringConfigRepository {
	return &ScoringConfigRepository{db: db, logger: logger.Named("scoring-config-repository")}
}

// LoadWeights returns the "default" weights row, falling back to the
// nominal weights 0.35/0.25/0.15/0.10/0.10/0.05 when unconfigured.
func (r *ScoringConfigRepository) LoadWeights(ctx context.Context) (scoring.Weights, error) {
	var row model.ScoringConfig
	err := r.db.WithContext(ctx).First(&row, "config_id = ?", model.DefaultScoringConfigID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return scoring.Weights{
			SuccessRateWeight:    0.35,
			LatencyWeight:        0.25,
			MethodAffinityWeight: 0.15,
			BankAffinityWeight:   0.10,
			AmountFitWeight:      0.10,
			TimeWeight:           0.05,
		}, nil
	}
	if err != nil {
		return scoring.Weights{}, fmt.Errorf("loading scoring weights: %w", err)
	}
	return scoring.Weights{
		SuccessRateWeight:    row.SuccessRateWeight,
		LatencyWeight:        row.LatencyWeight,
		MethodAffinityWeight: row.MethodAffinityWeight,
		BankAffinityWeight:   row.BankAffinityWeight,
		AmountFitWeight:      row.AmountFitWeight,
		TimeWeight:           row.TimeWeight,
	}, nil
}

// UpsertWeights creates or replaces the "default" weights row.
func (r *ScoringConfigRepository) UpsertWeights(ctx context.Context, weights scoring.Weights) error {
	row := model.ScoringConfig{
		ConfigID:             model.DefaultScoringConfigID,
		SuccessRateWeight:    weights.SuccessRateWeight,
		LatencyWeight:        weights.LatencyWeight,
		MethodAffinityWeight: weights.MethodAffinityWeight,
		BankAffinityWeight:   weights.BankAffinityWeight,
		AmountFitWeight:      weights.AmountFitWeight,
		TimeWeight:           weights.TimeWeight,
	}
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("saving scoring weights: %w", err)
	}
	return nil
}

// MethodAffinity returns a gateway's configured affinity for a payment
// method, defaulting to 0.7 when unconfigured.
func (r *ScoringConfigRepository) MethodAffinity(ctx context.Context, gatewayID, method string) (float64, error) {
	var row model.GatewayMethodAffinity
	err := r.db.WithContext(ctx).First(&row, "gateway_id = ? AND payment_method = ?", gatewayID, method).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0.7, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading method affinity: %w", err)
	}
	return row.Score, nil
}

// AmountFit returns a gateway's configured fit for an amount bucket,
// defaulting to 0.7 when unconfigured.
func (r *ScoringConfigRepository) AmountFit(ctx context.Context, gatewayID, amountBucket string) (float64, error) {
	var row model.GatewayAmountFit
	err := r.db.WithContext(ctx).First(&row, "gateway_id = ? AND amount_bucket = ?", gatewayID, amountBucket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0.7, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading amount fit: %w", err)
	}
	return row.Score, nil
}

// TimeMultiplier returns a gateway's time-of-day multiplier for now,
// preferring a day-of-month-specific row over the day-agnostic one,
// defaulting to 1.0 when unconfigured.
func (r *ScoringConfigRepository) TimeMultiplier(ctx context.Context, gatewayID string, now time.Time) (float64, error) {
	var row model.GatewayTimePenalty
	err := r.db.WithContext(ctx).
		Where("gateway_id = ? AND hour_of_day = ? AND (day_of_month = ? OR day_of_month IS NULL)", gatewayID, now.Hour(), now.Day()).
		Order("day_of_month DESC NULLS LAST").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 1.0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading time multiplier: %w", err)
	}
	return row.Multiplier, nil
}

// ResolveBankFromBIN returns the bank code for a card's six-digit
// prefix, or ("", false, nil) when no mapping exists.
func (r *ScoringConfigRepository) ResolveBankFromBIN(ctx context.Context, binPrefix string) (string, bool, error) {
	var row model.BinBankMap
	err := r.db.WithContext(ctx).First(&row, "bin_prefix = ?", binPrefix).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("resolving BIN: %w", err)
	}
	return row.BankCode, true, nil
}
