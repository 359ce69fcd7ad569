package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"vocalys/internal/domain"
)

// StatsCache keeps computed per-user stats in Redis for a short TTL so the
// dashboard refresh does not re-aggregate on every pull.
type StatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStatsCache(rdb *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{rdb: rdb, ttl: ttl}
}

func statsKey(userID string) string { return "stats:" + userID }

func (c *StatsCache) GetStats(ctx context.Context, userID string) (domain.Stats, bool, error) {
	raw, err := c.rdb.Get(ctx, statsKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Stats{}, false, nil
		}
		return domain.Stats{}, false, err
	}
	var out domain.Stats
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.Stats{}, false, err
	}
	return out, true, nil
}

func (c *StatsCache) SetStats(ctx context.Context, userID string, s domain.Stats) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, statsKey(userID), b, c.ttl).Err()
}
