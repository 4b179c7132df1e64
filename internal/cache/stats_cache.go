// Package cache stores computed habit stats in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sampleapps/internal/model"
)

const defaultStatsTTL = 10 * time.Minute

type StatsCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewStatsCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *StatsCache {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	return &StatsCache{rdb: rdb, ttl: ttl, logger: logger}
}

// StatsKey includes the day because "current streak" depends on today.
func StatsKey(habitID int, today time.Time) string {
	return fmt.Sprintf("habit:stats:%d:%s", habitID, today.Format(model.DateLayout))
}

func statsPattern(habitID int) string {
	return fmt.Sprintf("habit:stats:%d:*", habitID)
}

// Get returns (nil, nil) on a miss. Redis failures are logged and treated as a miss.
func (c *StatsCache) Get(ctx context.Context, habitID int, today time.Time) (*model.HabitStats, error) {
	if c == nil || c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, StatsKey(habitID, today)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn("Stats cache read failed", zap.Int("habit_id", habitID), zap.Error(err))
		return nil, nil
	}

	var stats model.HabitStats
	if err := json.Unmarshal(data, &stats); err != nil {
		// 脏数据直接丢弃
		c.rdb.Del(ctx, StatsKey(habitID, today))
		return nil, nil
	}
	return &stats, nil
}

func (c *StatsCache) Set(ctx context.Context, stats model.HabitStats, today time.Time) {
	if c == nil || c.rdb == nil {
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, StatsKey(stats.HabitID, today), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Stats cache write failed", zap.Int("habit_id", stats.HabitID), zap.Error(err))
	}
}

// Invalidate drops every cached day for the habit.
func (c *StatsCache) Invalidate(ctx context.Context, habitID int) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	iter := c.rdb.Scan(ctx, 0, statsPattern(habitID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan stats keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete stats keys: %w", err)
	}
	c.logger.Debug("Stats cache invalidated", zap.Int("habit_id", habitID), zap.Int("keys", len(keys)))
	return nil
}
