package cache

import (
	"context"
	"fmt"
	"time"
)

// BriefingCache provides caching for morning briefing runs: per-account
// delivery markers (so a restarted cycle never double-sends) and the
// winning candidate of the day (shared by every account).
type BriefingCache struct {
	redis *RedisClient
}

// NewBriefingCache creates a new briefing cache instance
func NewBriefingCache(redis *RedisClient) *BriefingCache {
	return &BriefingCache{
		redis: redis,
	}
}

// WasSent reports whether an account already received today's briefing.
// Without Redis it always returns false, which degrades to at-least-once.
func (c *BriefingCache) WasSent(ctx context.Context, accountID int64, day string) bool {
	if c.redis == nil {
		return false
	}
	return c.redis.Exists(ctx, sentKey(accountID, day))
}

// MarkSent records a delivered briefing for an account.
func (c *BriefingCache) MarkSent(ctx context.Context, accountID int64, day string, ttl time.Duration) error {
	if c.redis == nil {
		return fmt.Errorf("redis client not available")
	}
	return c.redis.Set(ctx, sentKey(accountID, day), time.Now().Unix(), ttl)
}

// GetDailyWinner loads a previously selected winning candidate into dest.
// Returns true on a cache hit.
func (c *BriefingCache) GetDailyWinner(ctx context.Context, day string, dest interface{}) bool {
	if c.redis == nil {
		return false
	}
	return c.redis.Get(ctx, winnerKey(day), dest) == nil
}

// SetDailyWinner caches the winning candidate for the day.
func (c *BriefingCache) SetDailyWinner(ctx context.Context, day string, winner interface{}, ttl time.Duration) error {
	if c.redis == nil {
		return fmt.Errorf("redis client not available")
	}
	return c.redis.Set(ctx, winnerKey(day), winner, ttl)
}

func sentKey(accountID int64, day string) string {
	return fmt.Sprintf("briefing:sent:%d:%s", accountID, day)
}

func winnerKey(day string) string {
	return fmt.Sprintf("briefing:winner:%s", day)
}
