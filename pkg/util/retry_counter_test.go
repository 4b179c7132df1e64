package util

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryCounter_ReportsRedisErrors(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	n, err := NewRetryCounter(rdb, time.Minute).IncrementAndGet(context.Background(), "retry:q:m1")
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Contains(t, err.Error(), "retry:q:m1")
}
