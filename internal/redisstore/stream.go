package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
)

// EventStream is the Redis Streams-backed ports.EventSink the outbox relay
// publishes into and the metrics consumer group reads from.
type EventStream struct {
	client *redis.Client
	stream string
}

// NewEventStream wraps a Redis client bound to a single stream key.
func NewEventStream(client *redis.Client, stream string) *EventStream {
	return &EventStream{client: client, stream: stream}
}

// EnsureGroup creates the consumer group at the start of the stream if it
// doesn't already exist; BUSYGROUP is treated as success.
func (e *EventStream) EnsureGroup(ctx context.Context, group string) error {
	err := e.client.XGroupCreateMkStream(ctx, e.stream, group, "0").Err()
	if err != nil && !isBusyGroupErr(err) {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

func isBusyGroupErr(err error) bool {
	return strings.HasPrefix(err.Error(), "BUSYGROUP")
}

// Publish appends one payment event to the stream as a single JSON field.
func (e *EventStream) Publish(ctx context.Context, event model.PaymentEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if err := e.client.XAdd(ctx, &redis.XAddArgs{
		Stream: e.stream,
		Values: map[string]interface{}{"payload": raw},
	}).Err(); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}
	return nil
}

// ConsumeGroup reads up to count pending/new messages for a consumer
// within group, blocking for up to block before returning empty.
func (e *EventStream) ConsumeGroup(ctx context.Context, group, consumer string, count int64, block time.Duration) ([]ports.StreamMessage, error) {
	res, err := e.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{e.stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading consumer group: %w", err)
	}

	var out []ports.StreamMessage
	for _, stream := range res {
		for _, msg := range stream.Messages {
			raw, ok := msg.Values["payload"].(string)
			if !ok {
				continue
			}
			var event model.PaymentEvent
			if err := json.Unmarshal([]byte(raw), &event); err != nil {
				continue
			}
			out = append(out, ports.StreamMessage{ID: msg.ID, Event: event})
		}
	}
	return out, nil
}

// Ack acknowledges delivered message ids within group.
func (e *EventStream) Ack(ctx context.Context, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := e.client.XAck(ctx, e.stream, group, ids...).Err(); err != nil {
		return fmt.Errorf("acking messages: %w", err)
	}
	return nil
}
