// Package outbox implements the relay half of the transactional outbox
// pattern: rows committed alongside a payment are picked up here and
// published to the event stream at least once.
package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
)

// Relay polls the outbox table at a fixed interval, publishing each due
// row to the event stream and marking it published, or scheduling a
// backed-off retry on failure.
type Relay struct {
	store    ports.OutboxStore
	sink     ports.EventSink
	interval time.Duration
	batch    int
	clock    ports.Clock
	logger   *zap.Logger
}

// NewRelay builds a Relay polling at interval.
func NewRelay(store ports.OutboxStore, sink ports.EventSink, interval time.Duration, clock ports.Clock, logger *zap.Logger) *Relay {
	return &Relay{
		store:    store,
		sink:     sink,
		interval: interval,
		batch:    100,
		clock:    clock,
		logger:   logger.Named("outbox-relay"),
	}
}

// Run starts the polling loop. It blocks until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info("outbox relay started", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := r.tick(ctx); err != nil {
				r.logger.Error("error relaying outbox batch", zap.Error(err))
			}
		}
	}
}

func (r *Relay) tick(ctx context.Context) error {
	rows, err := r.store.LockPending(ctx, r.batch)
	if err != nil {
		return err
	}

	for _, row := range rows {
		var event model.PaymentEvent
		if err := unmarshalPayload(row.PayloadJSON, &event); err != nil {
			r.logger.Error("dropping malformed outbox row", zap.Error(err), zap.Int64("id", row.ID))
			if markErr := r.store.MarkPublished(ctx, row.ID); markErr != nil {
				r.logger.Error("error marking malformed row published", zap.Error(markErr))
			}
			continue
		}

		if err := r.sink.Publish(ctx, event); err != nil {
			r.logger.Error("error publishing outbox row", zap.Error(err), zap.Int64("id", row.ID))
			attempts := row.Attempts + 1
			nextAttempt := r.clock.Now().Add(backoff(attempts))
			if markErr := r.store.MarkRetry(ctx, row.ID, attempts, nextAttempt); markErr != nil {
				r.logger.Error("error scheduling outbox retry", zap.Error(markErr))
			}
			continue
		}

		if err := r.store.MarkPublished(ctx, row.ID); err != nil {
			r.logger.Error("error marking outbox row published", zap.Error(err), zap.Int64("id", row.ID))
		}
	}
	return nil
}

// backoff implements next_attempt_at = now + min(300s, 2^min(attempts,8)s):
// exponential growth in the attempt count, with the exponent itself capped
// at 8 (so the delay tops out at 256s) and the outer 300s bound kept as the
// formula's stated ceiling.
func backoff(attempts int) time.Duration {
	exp := attempts
	if exp > 8 {
		exp = 8
	}
	if exp < 0 {
		exp = 0
	}
	delay := time.Duration(1<<uint(exp)) * time.Second
	const ceiling = 300 * time.Second
	if delay > ceiling {
		return ceiling
	}
	return delay
}
