package service

import (
	"context"
	"sync"
	"time"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/ports"
	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/scoring"
)

// WeightsCache is the single-writer/many-readers scoring-weights cache:
// one writer refreshes it from the scoring config store on a TTL, every
// request reads the current value without blocking on a store round
// trip. A stale value is served if the refresh itself fails.
type WeightsCache struct {
	mu        sync.RWMutex
	weights   scoring.Weights
	expiresAt time.Time
	ttl       time.Duration
	clock     ports.Clock
	store     ports.ScoringConfigStore
}

// NewWeightsCache seeds the cache already expired, so the first Get
// loads weights from the store.
func NewWeightsCache(ttl time.Duration, clock ports.Clock, store ports.ScoringConfigStore) *WeightsCache {
	return &WeightsCache{ttl: ttl, clock: clock, store: store}
}

// Get returns the current weights, refreshing from the store once the
// TTL has lapsed.
func (c *WeightsCache) Get(ctx context.Context) scoring.Weights {
	c.mu.RLock()
	if c.clock.Now().Before(c.expiresAt) {
		w := c.weights
		c.mu.RUnlock()
		return w
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clock.Now().Before(c.expiresAt) {
		return c.weights
	}
	loaded, err := c.store.LoadWeights(ctx)
	if err != nil {
		c.expiresAt = c.clock.Now().Add(c.ttl)
		return c.weights
	}
	c.weights = loaded
	c.expiresAt = c.clock.Now().Add(c.ttl)
	return c.weights
}
