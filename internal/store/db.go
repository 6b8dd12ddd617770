// Package store implements the relational persistence layer: the gorm
// connection and one repository per aggregate the gateway persists
// (payments, attempts, routing decisions, gateway/retry configuration,
// experiments, bandit state, the outbox, and verification queue).
package store

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/config"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

// DB wraps *gorm.DB so it can be constructed once and injected everywhere
// a repository needs it.
type DB struct {
	*gorm.DB
}

// NewDB opens the Postgres connection configured by cfg.DatabaseURL and
// verifies it with a ping.
func NewDB(cfg *config.Config, logger *zap.Logger) (*DB, error) {
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrapping sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to postgres")
	return &DB{DB: db}, nil
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate creates/updates every table this gateway owns. Intended for
// local development; production migrations are expected to run through a
// dedicated migration tool ahead of deploy.
func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(
		&model.Payment{},
		&model.Attempt{},
		&model.RoutingDecision{},
		&model.GatewayConfig{},
		&model.RetryPolicy{},
		&model.ErrorClassification{},
		&model.Experiment{},
		&model.ExperimentAssignment{},
		&model.ExperimentResult{},
		&model.BanditState{},
		&model.BanditPolicy{},
		&model.OutboxRecord{},
		&model.PaymentVerification{},
		&model.MetricHistoryRow{},
		&model.ScoringConfig{},
		&model.GatewayMethodAffinity{},
		&model.GatewayAmountFit{},
		&model.GatewayTimePenalty{},
		&model.BinBankMap{},
	)
}
