package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

// OutboxRepository implements ports.OutboxStore: claiming due rows for
// the relay, and marking them published or scheduling a retry.
type OutboxRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewOutboxRepository builds an OutboxRepository.
func NewOutboxRepository(db *DB, logger *zap.Logger) *OutboxRepository {
	return &OutboxRepository{db: db, logger: logger.Named("outbox-repository")}
}

// LockPending claims up to batchSize due PENDING rows, transitioning them
// to PROCESSING under FOR UPDATE SKIP LOCKED so concurrent relay
// instances never double-publish the same row.
func (r *OutboxRepository) LockPending(ctx context.Context, batchSize int) ([]model.OutboxRecord, error) {
	var claimed []model.OutboxRecord

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []model.OutboxRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND next_attempt_at <= ?", model.OutboxPending, time.Now()).
			Order("next_attempt_at ASC").
			Limit(batchSize).
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("selecting pending outbox rows: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]int64, len(rows))
		for i, row := range rows {
			ids[i] = row.ID
			rows[i].Status = model.OutboxProcessing
		}
		if err := tx.Model(&model.OutboxRecord{}).
			Where("id IN ?", ids).
			Update("status", model.OutboxProcessing).Error; err != nil {
			return fmt.Errorf("marking outbox rows processing: %w", err)
		}

		claimed = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// MarkPublished marks a claimed row PUBLISHED with its publish timestamp.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id int64) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&model.OutboxRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": model.OutboxPublished, "published_at": now}).Error
	if err != nil {
		return fmt.Errorf("marking outbox row published: %w", err)
	}
	return nil
}

// MarkRetry returns a claimed row to PENDING with its attempt count
// incremented and next_attempt_at pushed out by the relay's backoff.
func (r *OutboxRepository) MarkRetry(ctx context.Context, id int64, attempts int, nextAttemptAt time.Time) error {
	err := r.db.WithContext(ctx).Model(&model.OutboxRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          model.OutboxPending,
			"attempts":        attempts,
			"next_attempt_at": nextAttemptAt,
		}).Error
	if err != nil {
		return fmt.Errorf("marking outbox row for retry: %w", err)
	}
	return nil
}
