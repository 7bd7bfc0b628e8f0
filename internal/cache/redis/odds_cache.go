package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openforecast/marketd/internal/domain"
)

// OddsCache implements domain.OddsCache using Redis string values holding the
// JSON-encoded odds view, expiring after a configurable TTL.
type OddsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewOddsCache creates an OddsCache backed by the given Client.
func NewOddsCache(c *Client, ttl time.Duration) *OddsCache {
	return &OddsCache{rdb: c.rdb, ttl: ttl}
}

func oddsKey(marketID int64) string {
	return "odds:" + strconv.FormatInt(marketID, 10)
}

// Set stores the computed odds for a market.
func (oc *OddsCache) Set(ctx context.Context, odds domain.MarketOdds) error {
	data, err := json.Marshal(odds)
	if err != nil {
		return fmt.Errorf("redis: marshal odds %d: %w", odds.MarketID, err)
	}
	if err := oc.rdb.Set(ctx, oddsKey(odds.MarketID), data, oc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set odds %d: %w", odds.MarketID, err)
	}
	return nil
}

// Get retrieves the cached odds for a market. It returns domain.ErrNotFound
// when the key does not exist or has expired.
func (oc *OddsCache) Get(ctx context.Context, marketID int64) (domain.MarketOdds, error) {
	data, err := oc.rdb.Get(ctx, oddsKey(marketID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.MarketOdds{}, domain.ErrNotFound
		}
		return domain.MarketOdds{}, fmt.Errorf("redis: get odds %d: %w", marketID, err)
	}

	var odds domain.MarketOdds
	if err := json.Unmarshal(data, &odds); err != nil {
		return domain.MarketOdds{}, fmt.Errorf("redis: unmarshal odds %d: %w", marketID, err)
	}
	return odds, nil
}

// Invalidate drops the cached odds for a market.
func (oc *OddsCache) Invalidate(ctx context.Context, marketID int64) error {
	if err := oc.rdb.Del(ctx, oddsKey(marketID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate odds %d: %w", marketID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.OddsCache = (*OddsCache)(nil)
