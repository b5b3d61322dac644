package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/budgetly/backend/pkg/logger"
)

const (
	// DefaultTTL bounds how long a remaining amount may be served after an
	// invalidation was missed
	DefaultTTL = 5 * time.Minute

	// KeyPrefix is the prefix for balance cache keys
	KeyPrefix = "remaining:"

	// GenerationPrefix is the prefix for the per-debt invalidation counters
	GenerationPrefix = "remaining-gen:"

	// generationTTL outlives any balance entry so a counter never resets
	// underneath a read that is still in flight
	generationTTL = 24 * time.Hour
)

// BalanceCache is a Redis-backed cache of debt remaining amounts
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewBalanceCache creates a balance cache. A non-positive ttl uses DefaultTTL.
func NewBalanceCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *BalanceCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &BalanceCache{
		client: client,
		ttl:    ttl,
		logger: log.WithField("component", "balance_cache"),
	}
}

// cachedBalance is the stored value; the amount is kept as a decimal string
type cachedBalance struct {
	DebtID    int64     `json:"debt_id"`
	Remaining string    `json:"remaining"`
	CachedAt  time.Time `json:"cached_at"`
}

func key(ownerID, debtID int64) string {
	return fmt.Sprintf("%s%d:%d", KeyPrefix, ownerID, debtID)
}

func generationKey(ownerID, debtID int64) string {
	return fmt.Sprintf("%s%d:%d", GenerationPrefix, ownerID, debtID)
}

// GetRemaining returns the cached remaining amount, if any, and the debt's
// current generation. A missing counter is generation 0.
func (c *BalanceCache) GetRemaining(ctx context.Context, ownerID, debtID int64) (decimal.Decimal, int64, bool, error) {
	vals, err := c.client.MGet(ctx, key(ownerID, debtID), generationKey(ownerID, debtID)).Result()
	if err != nil {
		c.logger.Error("cache error", "operation", "get", "debt_id", debtID, "error", err)
		return decimal.Zero, 0, false, fmt.Errorf("failed to get cached balance: %w", err)
	}

	generation, err := parseGeneration(vals[1])
	if err != nil {
		return decimal.Zero, 0, false, err
	}

	val, ok := vals[0].(string)
	if !ok {
		c.logger.Debug("cache miss", "debt_id", debtID)
		return decimal.Zero, generation, false, nil
	}

	var cached cachedBalance
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return decimal.Zero, 0, false, fmt.Errorf("failed to unmarshal cached balance: %w", err)
	}

	remaining, err := decimal.NewFromString(cached.Remaining)
	if err != nil {
		return decimal.Zero, 0, false, fmt.Errorf("failed to parse cached balance: %w", err)
	}

	c.logger.Debug("cache hit", "debt_id", debtID)
	return remaining, generation, true, nil
}

// SetRemaining stores a remaining amount with the cache TTL, but only while the
// debt is still at generation. The counter is watched, so an Invalidate that
// lands between the check and the write aborts the write as well.
func (c *BalanceCache) SetRemaining(ctx context.Context, ownerID, debtID, generation int64, amount decimal.Decimal) error {
	data, err := json.Marshal(cachedBalance{
		DebtID:    debtID,
		Remaining: amount.String(),
		CachedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal balance: %w", err)
	}

	genKey := generationKey(ownerID, debtID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			c.logger.Debug("stale balance not cached", "debt_id", debtID, "generation", generation, "current", current)
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(ownerID, debtID), data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	if errors.Is(err, redis.TxFailedErr) {
		c.logger.Debug("stale balance not cached", "debt_id", debtID, "generation", generation)
		return nil
	}
	if err != nil {
		c.logger.Error("cache error", "operation", "set", "debt_id", debtID, "error", err)
		return fmt.Errorf("failed to set cached balance: %w", err)
	}
	return nil
}

// Invalidate advances the debt's generation and drops its cached remaining amount
func (c *BalanceCache) Invalidate(ctx context.Context, ownerID, debtID int64) error {
	genKey := generationKey(ownerID, debtID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, key(ownerID, debtID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate cached balance: %w", err)
	}
	return nil
}

func parseGeneration(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil
	}
	generation, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse cache generation: %w", err)
	}
	return generation, nil
}

// Ping checks the Redis connection; used by the readiness probe
func (c *BalanceCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
