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

// ExperimentRepository owns experiments, their stable assignments, hourly
// results, and the bandit's per-segment Beta posteriors.
type ExperimentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewExperimentRepository builds an ExperimentRepository.
func NewExperimentRepository(db *DB, logger *zap.Logger) *ExperimentRepository {
	return &ExperimentRepository{db: db, logger: logger.Named("experiment-repository")}
}

// ListRunning returns every experiment currently in the RUNNING state.
func (r *ExperimentRepository) ListRunning(ctx context.Context) ([]model.Experiment, error) {
	var experiments []model.Experiment
	if err := r.db.WithContext(ctx).
		Where("status = ?", model.ExperimentRunning).
		Find(&experiments).Error; err != nil {
		return nil, fmt.Errorf("listing running experiments: %w", err)
	}
	return experiments, nil
}

// List returns every configured experiment, regardless of status, for the
// admin listing endpoint.
func (r *ExperimentRepository) List(ctx context.Context) ([]model.Experiment, error) {
	var experiments []model.Experiment
	if err := r.db.WithContext(ctx).Find(&experiments).Error; err != nil {
		return nil, fmt.Errorf("listing experiments: %w", err)
	}
	return experiments, nil
}

// Get returns one experiment by ID.
func (r *ExperimentRepository) Get(ctx context.Context, experimentID string) (*model.Experiment, error) {
	var experiment model.Experiment
	err := r.db.WithContext(ctx).First(&experiment, "experiment_id = ?", experimentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading experiment: %w", err)
	}
	return &experiment, nil
}

// Create inserts a new experiment.
func (r *ExperimentRepository) Create(ctx context.Context, experiment model.Experiment) error {
	if err := r.db.WithContext(ctx).Create(&experiment).Error; err != nil {
		return fmt.Errorf("creating experiment: %w", err)
	}
	return nil
}

// Stop marks an experiment COMPLETED and stamps its end time.
func (r *ExperimentRepository) Stop(ctx context.Context, experimentID string, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Experiment{}).
		Where("experiment_id = ?", experimentID).
		Updates(map[string]interface{}{"status": model.ExperimentCompleted, "end_at": now})
	if result.Error != nil {
		return fmt.Errorf("stopping experiment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AssignmentFor returns the stable assignment for (experimentID,
// customerID), or (nil, nil) if the customer has never been assigned.
func (r *ExperimentRepository) AssignmentFor(ctx context.Context, experimentID, customerID string) (*model.ExperimentAssignment, error) {
	var assignment model.ExperimentAssignment
	err := r.db.WithContext(ctx).First(&assignment, "experiment_id = ? AND customer_id = ?", experimentID, customerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading experiment assignment: %w", err)
	}
	return &assignment, nil
}

// SaveAssignment persists a new (experiment, customer) assignment,
// leaving any existing row untouched on conflict — assignments are
// immutable once made.
func (r *ExperimentRepository) SaveAssignment(ctx context.Context, assignment model.ExperimentAssignment) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&assignment).Error
	if err != nil {
		return fmt.Errorf("saving experiment assignment: %w", err)
	}
	return nil
}

// Results returns every hourly result row for an experiment, for the
// winner-analysis endpoint.
func (r *ExperimentRepository) Results(ctx context.Context, experimentID string) ([]model.ExperimentResult, error) {
	var results []model.ExperimentResult
	if err := r.db.WithContext(ctx).
		Where("experiment_id = ?", experimentID).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("reading experiment results: %w", err)
	}
	return results, nil
}

// RecordOutcome upserts the current hour's (experiment, variant) rollup,
// incrementing counters atomically so concurrent payments never race.
func (r *ExperimentRepository) RecordOutcome(ctx context.Context, experimentID, variant string, hour time.Time, success bool, latencyMS int32, revenueMinor int64) error {
	row := model.ExperimentResult{
		ExperimentID: experimentID,
		Variant:      variant,
		Hour:         hour,
		Total:        1,
		RevenueMinor: revenueMinor,
	}
	if success {
		row.Successes = 1
	} else {
		row.Failures = 1
	}
	row.AvgLatencyMS = float64(latencyMS)
	row.P95LatencyMS = latencyMS

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "experiment_id"}, {Name: "variant"}, {Name: "hour"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total":          gorm.Expr("experiment_results.total + 1"),
			"successes":      gorm.Expr("experiment_results.successes + ?", row.Successes),
			"failures":       gorm.Expr("experiment_results.failures + ?", row.Failures),
			"revenue_minor":  gorm.Expr("experiment_results.revenue_minor + ?", revenueMinor),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("recording experiment outcome: %w", err)
	}
	return nil
}

// BanditStatesFor returns every gateway's posterior for a segment.
func (r *ExperimentRepository) BanditStatesFor(ctx context.Context, segment string) ([]model.BanditState, error) {
	var states []model.BanditState
	if err := r.db.WithContext(ctx).Where("segment = ?", segment).Find(&states).Error; err != nil {
		return nil, fmt.Errorf("reading bandit states: %w", err)
	}
	return states, nil
}

// SaveBanditState upserts one (segment, gateway) posterior.
func (r *ExperimentRepository) SaveBanditState(ctx context.Context, state model.BanditState) error {
	if err := r.db.WithContext(ctx).Save(&state).Error; err != nil {
		return fmt.Errorf("saving bandit state: %w", err)
	}
	return nil
}

// BanditPolicyFor returns whether Thompson sampling is enabled for a
// segment; disabled by default for segments with no stored row.
func (r *ExperimentRepository) BanditPolicyFor(ctx context.Context, segment string) (bool, error) {
	var policy model.BanditPolicy
	err := r.db.WithContext(ctx).First(&policy, "segment = ?", segment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading bandit policy: %w", err)
	}
	return policy.Enabled, nil
}

// SetBanditPolicy creates or updates a segment's enable flag.
func (r *ExperimentRepository) SetBanditPolicy(ctx context.Context, segment string, enabled bool) error {
	policy := model.BanditPolicy{Segment: segment, Enabled: enabled}
	if err := r.db.WithContext(ctx).Save(&policy).Error; err != nil {
		return fmt.Errorf("setting bandit policy: %w", err)
	}
	return nil
}
