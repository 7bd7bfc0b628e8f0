package memory

import (
	"context"
	"sync"
	"time"

	"github.com/openforecast/marketd/internal/domain"
)

// OddsCache implements domain.OddsCache with an in-memory TTL map.
type OddsCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   domain.Clock
	entries map[int64]oddsEntry
}

type oddsEntry struct {
	odds      domain.MarketOdds
	expiresAt time.Time
}

// NewOddsCache creates an OddsCache with the given entry TTL.
func NewOddsCache(ttl time.Duration, clock domain.Clock) *OddsCache {
	return &OddsCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[int64]oddsEntry),
	}
}

// Set stores the odds for a market.
func (c *OddsCache) Set(_ context.Context, odds domain.MarketOdds) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[odds.MarketID] = oddsEntry{
		odds:      odds,
		expiresAt: c.clock.Now().Add(c.ttl),
	}
	return nil
}

// Get returns the cached odds for a market, or ErrNotFound when absent or
// expired.
func (c *OddsCache) Get(_ context.Context, marketID int64) (domain.MarketOdds, error) {
	c.mu.RLock()
	e, ok := c.entries[marketID]
	c.mu.RUnlock()

	if !ok || c.clock.Now().After(e.expiresAt) {
		return domain.MarketOdds{}, domain.ErrNotFound
	}
	return e.odds, nil
}

// Invalidate drops the cached odds for a market.
func (c *OddsCache) Invalidate(_ context.Context, marketID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, marketID)
	return nil
}

var _ domain.OddsCache = (*OddsCache)(nil)
