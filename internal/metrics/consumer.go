package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
)

// HistoryStore is the durable counterpart the consumer upserts into
// alongside the hot store, kept as a narrow interface so the consumer
// doesn't depend on the store package directly.
type HistoryStore interface {
	InsertSnapshot(ctx context.Context, snapshotMinute time.Time, key model.MetricKey, windowMinutes int, metric model.AggregatedMetric) error
}

// Consumer reads the payment event stream into the in-process sliding
// aggregator, and on every batch republishes every standard window for
// every key touched, to both the hot store and the historical store.
type Consumer struct {
	sink     ports.EventSink
	hot      ports.MetricsHotStore
	history  HistoryStore
	sliding  *SlidingMetrics
	group    string
	consumer string
	batch    int64
	block    time.Duration
	clock    ports.Clock
	logger   *zap.Logger
}

// NewConsumer builds a Consumer bound to a single stream/group/consumer.
func NewConsumer(sink ports.EventSink, hot ports.MetricsHotStore, history HistoryStore, sliding *SlidingMetrics, group, consumer string, block time.Duration, clock ports.Clock, logger *zap.Logger) *Consumer {
	return &Consumer{
		sink:     sink,
		hot:      hot,
		history:  history,
		sliding:  sliding,
		group:    group,
		consumer: consumer,
		batch:    100,
		block:    block,
		clock:    clock,
		logger:   logger.Named("metrics-consumer"),
	}
}

// Run ensures the consumer group exists, then blocks consuming the stream
// until ctx is cancelled. Failures on a single batch are logged, not
// fatal: at-least-once delivery means the next read picks up the backlog.
func (c *Consumer) Run(ctx context.Context) error {
	ensurer, ok := c.sink.(interface {
		EnsureGroup(ctx context.Context, group string) error
	})
	if ok {
		if err := ensurer.EnsureGroup(ctx, c.group); err != nil {
			return err
		}
	}

	c.logger.Info("metrics consumer started", zap.String("group", c.group), zap.String("consumer", c.consumer))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("metrics consumer shutting down")
			return ctx.Err()
		default:
		}

		messages, err := c.sink.ConsumeGroup(ctx, c.group, c.consumer, c.batch, c.block)
		if err != nil {
			c.logger.Error("error consuming event stream", zap.Error(err))
			continue
		}
		if len(messages) == 0 {
			continue
		}

		touched := map[model.MetricKey]bool{}
		ids := make([]string, 0, len(messages))
		for _, msg := range messages {
			c.sliding.Ingest(msg.Event)
			touched[model.MetricKey{Gateway: msg.Event.GatewayUsed, Method: msg.Event.PaymentMethod, Bank: msg.Event.IssuingBank}] = true
			ids = append(ids, msg.ID)
		}

		now := c.clock.Now()
		for key := range touched {
			c.publishWindows(ctx, key, now)
		}

		if err := c.sink.Ack(ctx, c.group, ids...); err != nil {
			c.logger.Error("error acking event batch", zap.Error(err))
		}
	}
}

func (c *Consumer) publishWindows(ctx context.Context, key model.MetricKey, now time.Time) {
	snapshotMinute := time.Unix(MinuteEpoch(now.Unix()), 0).UTC()

	for _, window := range model.StandardWindows {
		metric, ok := c.sliding.Compute(key, window, now)
		if !ok {
			continue
		}
		if err := c.hot.WriteMetric(ctx, key, window, metric); err != nil {
			c.logger.Error("error writing hot metric", zap.Error(err), zap.String("gateway", key.Gateway), zap.Int64("window", window))
		}
		if err := c.history.InsertSnapshot(ctx, snapshotMinute, key, int(window), metric); err != nil {
			c.logger.Error("error inserting metric history", zap.Error(err), zap.String("gateway", key.Gateway), zap.Int64("window", window))
		}
	}
}
