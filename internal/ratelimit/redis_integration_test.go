//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillchain/pkg/testutil/containers"
)

func TestRedisStoreSlidingWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()

	client := rc.Client
	require.NoError(t, client.FlushDB(ctx).Err())

	store := NewRedisStore(client)
	now := time.Now()
	store.now = func() time.Time { return now }

	for i := range 2 {
		res, err := store.Allow(ctx, "caller:a", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 1-i, res.Remaining)
		now = now.Add(time.Second)
	}

	res, err := store.Allow(ctx, "caller:a", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.WithinDuration(t, now.Add(-2*time.Second).Add(time.Minute), res.ResetAt, 5*time.Millisecond)

	ttl, err := client.PTTL(ctx, "skillchain:ratelimit:caller:a").Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)

	now = now.Add(time.Minute)
	res, err = store.Allow(ctx, "caller:a", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
