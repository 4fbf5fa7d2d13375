package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockerExcludesSecondHolder(t *testing.T) {
	client := testRedis(t)
	ctx := context.Background()
	l := NewLocker(client)

	release, ok, err := l.Acquire(ctx, "weekly", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.Acquire(ctx, "weekly", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	release()

	release2, ok, err := l.Acquire(ctx, "weekly", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	release2()
}

func TestLockerReleaseKeepsForeignLock(t *testing.T) {
	client := testRedis(t)
	ctx := context.Background()
	l := NewLocker(client)

	release, ok, err := l.Acquire(ctx, "churn", 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(100 * time.Millisecond)
	_, ok, err = l.Acquire(ctx, "churn", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// The expired holder must not delete the new holder's lock.
	release()
	exists, err := client.Exists(ctx, lockPrefix+"churn").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)
}
