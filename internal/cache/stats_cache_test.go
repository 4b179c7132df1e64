package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sampleapps/internal/model"
)

func TestStatsKey(t *testing.T) {
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "habit:stats:42:2026-10-18", StatsKey(42, day))
	assert.Equal(t, "habit:stats:42:*", statsPattern(42))
}

func TestNilCacheIsANoop(t *testing.T) {
	var c *StatsCache
	ctx := context.Background()

	got, err := c.Get(ctx, 1, time.Now())
	require.NoError(t, err)
	assert.Nil(t, got)

	c.Set(ctx, model.HabitStats{HabitID: 1}, time.Now())
	assert.NoError(t, c.Invalidate(ctx, 1))
}
