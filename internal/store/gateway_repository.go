package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

// GatewayRepository owns gateway configuration, per-merchant retry
// policy, and per-(gateway, error code) classification rows.
type GatewayRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewGatewayRepository builds a GatewayRepository.
func NewGatewayRepository(db *DB, logger *zap.Logger) *GatewayRepository {
	return &GatewayRepository{db: db, logger: logger.Named("gateway-repository")}
}

// ListEnabledForMethod returns every enabled gateway that supports method,
// ordered by priority for display purposes (scoring re-ranks regardless).
func (r *GatewayRepository) ListEnabledForMethod(ctx context.Context, method model.PaymentMethod) ([]model.GatewayConfig, error) {
	var all []model.GatewayConfig
	if err := r.db.WithContext(ctx).
		Where("is_enabled = ?", true).
		Order("priority ASC").
		Find(&all).Error; err != nil {
		return nil, fmt.Errorf("listing gateways: %w", err)
	}

	out := make([]model.GatewayConfig, 0, len(all))
	for _, gw := range all {
		if gw.SupportsMethod(method) {
			out = append(out, gw)
		}
	}
	return out, nil
}

// Get returns one gateway's configuration by id, or (nil, nil) if it
// doesn't exist.
func (r *GatewayRepository) Get(ctx context.Context, gatewayID string) (*model.GatewayConfig, error) {
	var gw model.GatewayConfig
	err := r.db.WithContext(ctx).First(&gw, "gateway_id = ?", gatewayID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading gateway config: %w", err)
	}
	return &gw, nil
}

// ListAll returns every configured gateway, enabled or not.
func (r *GatewayRepository) ListAll(ctx context.Context) ([]model.GatewayConfig, error) {
	var all []model.GatewayConfig
	if err := r.db.WithContext(ctx).Find(&all).Error; err != nil {
		return nil, fmt.Errorf("listing all gateways: %w", err)
	}
	return all, nil
}

// Upsert creates or updates a gateway's configuration row.
func (r *GatewayRepository) Upsert(ctx context.Context, gw model.GatewayConfig) error {
	if err := r.db.WithContext(ctx).Save(&gw).Error; err != nil {
		return fmt.Errorf("upserting gateway config: %w", err)
	}
	return nil
}

// RetryPolicyFor returns the merchant's configured retry policy, or the
// package default if none has been set.
func (r *GatewayRepository) RetryPolicyFor(ctx context.Context, merchantID string) (model.RetryPolicy, error) {
	var policy model.RetryPolicy
	err := r.db.WithContext(ctx).First(&policy, "merchant_id = ?", merchantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DefaultRetryPolicy(merchantID), nil
	}
	if err != nil {
		return model.RetryPolicy{}, fmt.Errorf("reading retry policy: %w", err)
	}
	return policy, nil
}

// UpsertRetryPolicy creates or updates a merchant's retry policy.
func (r *GatewayRepository) UpsertRetryPolicy(ctx context.Context, policy model.RetryPolicy) error {
	if err := r.db.WithContext(ctx).Save(&policy).Error; err != nil {
		return fmt.Errorf("upserting retry policy: %w", err)
	}
	return nil
}

// ClassifyError returns the stored classification for a (gateway, error
// code) pair, defaulting to all-false (FAIL_NOW) for unknown codes.
func (r *GatewayRepository) ClassifyError(ctx context.Context, gatewayID, errorCode string) (model.ErrorClassification, error) {
	var classification model.ErrorClassification
	err := r.db.WithContext(ctx).First(&classification, "gateway_id = ? AND error_code = ?", gatewayID, errorCode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ErrorClassification{GatewayID: gatewayID, ErrorCode: errorCode}, nil
	}
	if err != nil {
		return model.ErrorClassification{}, fmt.Errorf("reading error classification: %w", err)
	}
	return classification, nil
}

// UpsertErrorClassification creates or updates a classification row.
func (r *GatewayRepository) UpsertErrorClassification(ctx context.Context, c model.ErrorClassification) error {
	if err := r.db.WithContext(ctx).Save(&c).Error; err != nil {
		return fmt.Errorf("upserting error classification: %w", err)
	}
	return nil
}
