package counter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ManuelReschke/Candor/internal/pkg/env"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", env.GetEnv("CACHE_HOST", "localhost"), env.GetEnv("CACHE_PORT", "6379")),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       12,
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Skipping Redis-dependent test: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Del(context.Background(), Key("weekly")).Err()
		_ = client.Close()
	})
	return client
}

func TestRecordRunAccumulates(t *testing.T) {
	client := testRedis(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)

	require.NoError(t, RecordRun(ctx, client, "weekly", map[string]int{"sent": 3, "failed": 1, "skipped": 0}, at))
	require.NoError(t, RecordRun(ctx, client, "weekly", map[string]int{"sent": 2}, at.Add(7*24*time.Hour)))

	totals, last, err := Totals(ctx, client, "weekly")
	require.NoError(t, err)
	assert.Equal(t, int64(2), totals["runs"])
	assert.Equal(t, int64(5), totals["sent"])
	assert.Equal(t, int64(1), totals["failed"])
	_, hasSkipped := totals["skipped"]
	assert.False(t, hasSkipped)
	assert.True(t, last.Equal(at.Add(7*24*time.Hour)))
}
