package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/model"
)

func newTestStore(t *testing.T) (*CircuitStore, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	return NewCircuitStore(client), client
}

func TestCircuitStoreGetSnapshotDefaultsToClosed(t *testing.T) {
	store, _ := newTestStore(t)
	snap, err := store.GetSnapshot(context.Background(), "g1", "UPI")
	require.NoError(t, err)
	assert.Equal(t, model.CircuitClosed, snap.State)
}

func TestCircuitStoreRecordAndTransitionPersists(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	var snap model.CircuitSnapshot
	var err error
	for i := 0; i < model.DefaultCircuitThresholds().ConsecutiveFailureThreshold; i++ {
		snap, err = store.RecordAndTransition(ctx, "g1", "UPI", model.StatusFailure, false, now)
		require.NoError(t, err)
	}

	assert.Equal(t, model.CircuitOpen, snap.State)

	reloaded, err := store.GetSnapshot(ctx, "g1", "UPI")
	require.NoError(t, err)
	assert.Equal(t, model.CircuitOpen, reloaded.State)
}

func TestCircuitStoreOverrideRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.GetOverride(ctx, "g1", "UPI")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetOverride(ctx, "g1", "UPI", model.ForceOpen))
	mode, ok, err := store.GetOverride(ctx, "g1", "UPI")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.ForceOpen, mode)

	snap, err := store.GetSnapshot(ctx, "g1", "UPI")
	require.NoError(t, err)
	assert.Equal(t, model.CircuitOpen, snap.State)

	require.NoError(t, store.ClearOverride(ctx, "g1", "UPI"))
	_, ok, err = store.GetOverride(ctx, "g1", "UPI")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCircuitStoreAllSnapshotsListsEverySeenPair(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	_, err := store.RecordAndTransition(ctx, "g1", "UPI", model.StatusSuccess, false, now)
	require.NoError(t, err)
	_, err = store.RecordAndTransition(ctx, "g2", "CARD", model.StatusSuccess, false, now)
	require.NoError(t, err)

	snapshots, err := store.AllSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, snapshots, 2)
}
