package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
)

// PaymentRepository persists Payment, Attempt, RoutingDecision, and
// OutboxRecord rows inside a single transaction per CreatePayment call.
type PaymentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewPaymentRepository builds a PaymentRepository.
func NewPaymentRepository(db *DB, logger *zap.Logger) *PaymentRepository {
	return &PaymentRepository{db: db, logger: logger.Named("payment-repository")}
}

// FindByIdempotencyKey returns the existing payment for (merchantID, key),
// or (nil, nil) if none exists yet — the caller replays its response on a
// hit instead of re-running the routing pipeline.
func (r *PaymentRepository) FindByIdempotencyKey(ctx context.Context, merchantID, key string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND idempotency_key = ?", merchantID, key).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding payment by idempotency key: %w", err)
	}
	return &payment, nil
}

// FindByID returns a payment by its primary key.
func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).First(&payment, "payment_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding payment by id: %w", err)
	}
	return &payment, nil
}

// Commit persists a completed CreatePayment call's full result set in one
// transaction, so a crash between inserts never leaves a payment without
// its outbox event.
func (r *PaymentRepository) Commit(ctx context.Context, result ports.PaymentCommit) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&result.Payment).Error; err != nil {
			return fmt.Errorf("inserting payment: %w", err)
		}
		if len(result.Attempts) > 0 {
			if err := tx.Create(&result.Attempts).Error; err != nil {
				return fmt.Errorf("inserting attempts: %w", err)
			}
		}
		if err := tx.Create(&result.RoutingDecision).Error; err != nil {
			return fmt.Errorf("inserting routing decision: %w", err)
		}
		if len(result.OutboxRecords) > 0 {
			if err := tx.Create(&result.OutboxRecords).Error; err != nil {
				return fmt.Errorf("inserting outbox records: %w", err)
			}
		}
		if result.Verification != nil {
			if err := tx.Create(result.Verification).Error; err != nil {
				return fmt.Errorf("inserting verification row: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("commit failed", zap.String("payment_id", result.Payment.PaymentID.String()), zap.Error(err))
		return err
	}
	return nil
}

// ListAttempts returns every recorded attempt for a payment, ordered by
// attempt number.
func (r *PaymentRepository) ListAttempts(ctx context.Context, paymentID uuid.UUID) ([]model.Attempt, error) {
	var attempts []model.Attempt
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("attempt_number ASC").
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}
	return attempts, nil
}

// GetRoutingDecision returns the one routing decision recorded for a
// payment, or (nil, nil) if none was recorded.
func (r *PaymentRepository) GetRoutingDecision(ctx context.Context, paymentID uuid.UUID) (*model.RoutingDecision, error) {
	var decision model.RoutingDecision
	err := r.db.WithContext(ctx).First(&decision, "payment_id = ?", paymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading routing decision: %w", err)
	}
	return &decision, nil
}
