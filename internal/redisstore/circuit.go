package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/circuit"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

// CircuitStore is the Redis-backed ports.CircuitStore: one snapshot key,
// one rolling-bucket hash, and one optional override key per
// (gateway, method) pair.
type CircuitStore struct {
	client     *redis.Client
	thresholds model.CircuitThresholds
}

// NewCircuitStore builds a CircuitStore using the built-in default
// thresholds for every (gateway, method) pair; per-pair overrides are a
// possible future extension, not exercised by any current caller.
func NewCircuitStore(client *redis.Client) *CircuitStore {
	return &CircuitStore{client: client, thresholds: model.DefaultCircuitThresholds()}
}

func snapshotKey(gatewayID, method string) string {
	return fmt.Sprintf("circuit:snapshot:%s:%s", gatewayID, method)
}

func bucketsKey(gatewayID, method string) string {
	return fmt.Sprintf("circuit:buckets:%s:%s", gatewayID, method)
}

func overrideKey(gatewayID, method string) string {
	return fmt.Sprintf("circuit:override:%s:%s", gatewayID, method)
}

// GetSnapshot returns the stored snapshot, or the zero-value Closed
// snapshot if this (gateway, method) pair has never been observed.
func (s *CircuitStore) GetSnapshot(ctx context.Context, gatewayID, method string) (model.CircuitSnapshot, error) {
	raw, err := s.client.Get(ctx, snapshotKey(gatewayID, method)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.NewCircuitSnapshot(gatewayID, method, time.Now()), nil
	}
	if err != nil {
		return model.CircuitSnapshot{}, fmt.Errorf("reading circuit snapshot: %w", err)
	}

	var snap model.CircuitSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return model.CircuitSnapshot{}, fmt.Errorf("decoding circuit snapshot: %w", err)
	}
	return snap, nil
}

func (s *CircuitStore) putSnapshot(ctx context.Context, snap model.CircuitSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding circuit snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey(snap.GatewayID, snap.PaymentMethod), raw, 0).Err(); err != nil {
		return fmt.Errorf("writing circuit snapshot: %w", err)
	}
	return nil
}

// GetOverride returns the manual override set for a (gateway, method)
// pair, if any.
func (s *CircuitStore) GetOverride(ctx context.Context, gatewayID, method string) (model.OverrideMode, bool, error) {
	raw, err := s.client.Get(ctx, overrideKey(gatewayID, method)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading circuit override: %w", err)
	}
	return model.OverrideMode(raw), true, nil
}

// SetOverride persists a manual override until explicitly cleared.
func (s *CircuitStore) SetOverride(ctx context.Context, gatewayID, method string, mode model.OverrideMode) error {
	if err := s.client.Set(ctx, overrideKey(gatewayID, method), string(mode), 0).Err(); err != nil {
		return fmt.Errorf("writing circuit override: %w", err)
	}

	snap, err := s.GetSnapshot(ctx, gatewayID, method)
	if err != nil {
		return err
	}
	return s.putSnapshot(ctx, circuit.ApplyOverride(snap, mode, time.Now()))
}

// ClearOverride removes a manual override, leaving the breaker's
// automatic state machine in control again.
func (s *CircuitStore) ClearOverride(ctx context.Context, gatewayID, method string) error {
	if err := s.client.Del(ctx, overrideKey(gatewayID, method)).Err(); err != nil {
		return fmt.Errorf("clearing circuit override: %w", err)
	}
	return nil
}

// GetThresholds returns the thresholds used for every (gateway, method)
// pair this store manages.
func (s *CircuitStore) GetThresholds(ctx context.Context, gatewayID, method string) (model.CircuitThresholds, error) {
	return s.thresholds, nil
}

// RecordAndTransition records one call outcome into the rolling minute
// buckets, recomputes the 2m/5m rates, and applies the pure state
// transition, persisting both the updated snapshot and bucket map.
func (s *CircuitStore) RecordAndTransition(ctx context.Context, gatewayID, method string, status model.Status, wasProbe bool, now time.Time) (model.CircuitSnapshot, error) {
	buckets, err := s.readBuckets(ctx, gatewayID, method)
	if err != nil {
		return model.CircuitSnapshot{}, err
	}

	nowMinute := circuit.MinuteEpoch(now.Unix())
	bucket := buckets[nowMinute]
	bucket.Minute = nowMinute
	buckets[nowMinute] = circuit.RecordOutcome(bucket, status)

	failureRate2m, _ := circuit.AggregateRates(buckets, nowMinute, 2)
	_, timeoutRate5m := circuit.AggregateRates(buckets, nowMinute, 5)

	if err := s.writeBuckets(ctx, gatewayID, method, buckets); err != nil {
		return model.CircuitSnapshot{}, err
	}

	snap, err := s.GetSnapshot(ctx, gatewayID, method)
	if err != nil {
		return model.CircuitSnapshot{}, err
	}
	snap.FailureRate2m = failureRate2m
	snap.TimeoutRate5m = timeoutRate5m

	snap = circuit.ApplyTransition(snap, s.thresholds, failureRate2m, timeoutRate5m, status, wasProbe, now)
	if err := s.putSnapshot(ctx, snap); err != nil {
		return model.CircuitSnapshot{}, err
	}
	return snap, nil
}

// AllSnapshots scans every stored snapshot, for the breaker admin listing
// endpoint.
func (s *CircuitStore) AllSnapshots(ctx context.Context) ([]model.CircuitSnapshot, error) {
	var snapshots []model.CircuitSnapshot
	iter := s.client.Scan(ctx, 0, "circuit:snapshot:*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var snap model.CircuitSnapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			continue
		}
		snapshots = append(snapshots, snap)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning circuit snapshots: %w", err)
	}
	return snapshots, nil
}

func (s *CircuitStore) readBuckets(ctx context.Context, gatewayID, method string) (map[int64]model.MinuteBucket, error) {
	raw, err := s.client.HGetAll(ctx, bucketsKey(gatewayID, method)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading circuit buckets: %w", err)
	}

	out := make(map[int64]model.MinuteBucket, len(raw))
	for field, value := range raw {
		var bucket model.MinuteBucket
		if err := json.Unmarshal([]byte(value), &bucket); err != nil {
			continue
		}
		minute, err := parseMinuteField(field)
		if err != nil {
			continue
		}
		out[minute] = bucket
	}
	return out, nil
}

func (s *CircuitStore) writeBuckets(ctx context.Context, gatewayID, method string, buckets map[int64]model.MinuteBucket) error {
	key := bucketsKey(gatewayID, method)
	pipe := s.client.TxPipeline()

	floor := circuit.MinuteEpoch(time.Now().Unix()) - (9 * 60)
	for minute, bucket := range buckets {
		if minute < floor {
			pipe.HDel(ctx, key, minuteField(minute))
			continue
		}
		raw, err := json.Marshal(bucket)
		if err != nil {
			return fmt.Errorf("encoding circuit bucket: %w", err)
		}
		pipe.HSet(ctx, key, minuteField(minute), raw)
	}
	pipe.Expire(ctx, key, 15*time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing circuit buckets: %w", err)
	}
	return nil
}

func minuteField(minute int64) string {
	return fmt.Sprintf("%d", minute)
}

func parseMinuteField(field string) (int64, error) {
	var minute int64
	_, err := fmt.Sscanf(field, "%d", &minute)
	return minute, err
}
