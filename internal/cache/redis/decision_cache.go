package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/kalshibot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// decisionTTL bounds how long a stale decision survives; a live evaluator
// refreshes it every poll anyway.
const decisionTTL = 24 * time.Hour

// DecisionCache implements domain.DecisionCache using one JSON value per
// ticker under decision:{ticker}.
type DecisionCache struct {
	rdb *redis.Client
}

// NewDecisionCache creates a DecisionCache backed by the given Client.
func NewDecisionCache(c *Client) *DecisionCache {
	return &DecisionCache{rdb: c.Underlying()}
}

func decisionKey(ticker string) string { return "decision:" + ticker }

// Set stores the latest decision for its ticker.
func (dc *DecisionCache) Set(ctx context.Context, dec domain.QuoteDecision) error {
	data, err := json.Marshal(dec)
	if err != nil {
		return fmt.Errorf("redis: marshal decision %s: %w", dec.Ticker, err)
	}
	if err := dc.rdb.Set(ctx, decisionKey(dec.Ticker), data, decisionTTL).Err(); err != nil {
		return fmt.Errorf("redis: set decision %s: %w", dec.Ticker, err)
	}
	return nil
}

// Get returns the latest decision for a ticker, or domain.ErrNotFound when
// no decision has been cached.
func (dc *DecisionCache) Get(ctx context.Context, ticker string) (domain.QuoteDecision, error) {
	data, err := dc.rdb.Get(ctx, decisionKey(ticker)).Bytes()
	if err == redis.Nil {
		return domain.QuoteDecision{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.QuoteDecision{}, fmt.Errorf("redis: get decision %s: %w", ticker, err)
	}

	var dec domain.QuoteDecision
	if err := json.Unmarshal(data, &dec); err != nil {
		return domain.QuoteDecision{}, fmt.Errorf("redis: unmarshal decision %s: %w", ticker, err)
	}
	return dec, nil
}

// Compile-time interface check.
var _ domain.DecisionCache = (*DecisionCache)(nil)
