package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

// VerificationRepository owns the reconciliation queue for payments that
// returned PENDING_VERIFICATION.
type VerificationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewVerificationRepository builds a VerificationRepository.
func NewVerificationRepository(db *DB, logger *zap.Logger) *VerificationRepository {
	return &VerificationRepository{db: db, logger: logger.Named("verification-repository")}
}

// FindByPaymentID returns the verification row for a payment, or
// (nil, nil) if the payment never entered PENDING_VERIFICATION.
func (r *VerificationRepository) FindByPaymentID(ctx context.Context, paymentID string) (*model.PaymentVerification, error) {
	var row model.PaymentVerification
	err := r.db.WithContext(ctx).First(&row, "payment_id = ?", paymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading verification row: %w", err)
	}
	return &row, nil
}

// ClaimDue locks up to batchSize rows due for a check, the same
// SKIP LOCKED pattern the outbox relay uses so multiple worker instances
// never double-check the same payment.
func (r *VerificationRepository) ClaimDue(ctx context.Context, batchSize int) ([]model.PaymentVerification, error) {
	var claimed []model.PaymentVerification

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []model.PaymentVerification
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND next_check_at <= ?", model.VerificationPending, time.Now()).
			Limit(batchSize).
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("selecting due verifications: %w", err)
		}
		claimed = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Reschedule pushes a verification row's next check out and increments
// its attempt count, or marks it EXHAUSTED once the attempt budget is
// spent.
func (r *VerificationRepository) Reschedule(ctx context.Context, paymentID string, attempts int, now time.Time) error {
	status := model.VerificationPending
	if attempts >= model.MaxVerificationAttempts {
		status = model.VerificationExhausted
	}

	err := r.db.WithContext(ctx).Model(&model.PaymentVerification{}).
		Where("payment_id = ?", paymentID).
		Updates(map[string]interface{}{
			"attempts":      attempts,
			"status":        status,
			"next_check_at": now.Add(model.VerificationRetryInterval),
			"updated_at":    now,
		}).Error
	if err != nil {
		return fmt.Errorf("rescheduling verification: %w", err)
	}
	return nil
}

// Resolve marks a verification row RESOLVED once the gateway's true final
// status has been confirmed.
func (r *VerificationRepository) Resolve(ctx context.Context, paymentID string, now time.Time) error {
	err := r.db.WithContext(ctx).Model(&model.PaymentVerification{}).
		Where("payment_id = ?", paymentID).
		Updates(map[string]interface{}{"status": model.VerificationResolved, "updated_at": now}).Error
	if err != nil {
		return fmt.Errorf("resolving verification: %w", err)
	}
	return nil
}
