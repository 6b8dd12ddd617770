// Package verification reconciles payments that returned
// PENDING_VERIFICATION: a provider accepted the request but couldn't
// confirm its outcome before the gateway timeout budget ran out.
package verification

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
)

// Store is the repository surface the worker needs, narrowed so it
// doesn't depend on the store package directly.
type Store interface {
	ClaimDue(ctx context.Context, batchSize int) ([]model.PaymentVerification, error)
	Reschedule(ctx context.Context, paymentID string, attempts int, now time.Time) error
	Resolve(ctx context.Context, paymentID string, now time.Time) error
}

// Worker periodically claims due verification rows and asks the owning
// gateway's adapter to resolve their true final status.
type Worker struct {
	store    Store
	adapters map[string]ports.ProviderAdapter
	interval time.Duration
	batch    int
	clock    ports.Clock
	logger   *zap.Logger
}

// NewWorker builds a Worker polling at interval, dispatching status
// checks by gateway id.
func NewWorker(store Store, adapters map[string]ports.ProviderAdapter, interval time.Duration, clock ports.Clock, logger *zap.Logger) *Worker {
	return &Worker{
		store:    store,
		adapters: adapters,
		interval: interval,
		batch:    50,
		clock:    clock,
		logger:   logger.Named("verification-worker"),
	}
}

// Run starts the polling loop. It blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("verification worker started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("verification worker shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := w.tick(ctx); err != nil {
				w.logger.Error("error reconciling pending verifications", zap.Error(err))
			}
		}
	}
}

func (w *Worker) tick(ctx context.Context) error {
	rows, err := w.store.ClaimDue(ctx, w.batch)
	if err != nil {
		return err
	}

	now := w.clock.Now()
	for _, row := range rows {
		w.reconcile(ctx, row, now)
	}
	return nil
}

func (w *Worker) reconcile(ctx context.Context, row model.PaymentVerification, now time.Time) {
	adapter, ok := w.adapters[row.GatewayID]
	if !ok {
		w.logger.Error("no adapter configured for verification row", zap.String("gateway", row.GatewayID), zap.String("payment_id", row.PaymentID))
		if err := w.store.Reschedule(ctx, row.PaymentID, row.Attempts+1, now); err != nil {
			w.logger.Error("error rescheduling verification row", zap.Error(err))
		}
		return
	}

	status, err := adapter.CheckStatus(ctx, row.PaymentID)
	if err != nil {
		w.logger.Warn("status check failed, will retry", zap.Error(err), zap.String("payment_id", row.PaymentID))
		if rerr := w.store.Reschedule(ctx, row.PaymentID, row.Attempts+1, now); rerr != nil {
			w.logger.Error("error rescheduling verification row", zap.Error(rerr))
		}
		return
	}

	if status == model.StatusPendingVerification {
		if err := w.store.Reschedule(ctx, row.PaymentID, row.Attempts+1, now); err != nil {
			w.logger.Error("error rescheduling verification row", zap.Error(err))
		}
		return
	}

	if err := w.store.Resolve(ctx, row.PaymentID, now); err != nil {
		w.logger.Error("error resolving verification row", zap.Error(err), zap.String("payment_id", row.PaymentID))
	}
}
