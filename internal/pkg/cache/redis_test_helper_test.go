package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ManuelReschke/Candor/internal/pkg/env"
	"github.com/redis/go-redis/v9"
)

const isolatedCacheTestRedisDB = 13

// testRedis returns a client on an isolated DB or skips the test when no
// Redis is reachable.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()

	hosts := []string{env.GetEnv("CACHE_HOST", ""), "cache", "localhost", "127.0.0.1"}
	port := env.GetEnv("CACHE_PORT", "6379")

	var lastErr error
	seen := map[string]bool{}
	for _, host := range hosts {
		if host == "" || seen[host] {
			continue
		}
		seen[host] = true

		client := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", host, port),
			Password: env.GetEnv("CACHE_PASSWORD", ""),
			DB:       isolatedCacheTestRedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err == nil {
			t.Cleanup(func() {
				_ = client.FlushDB(context.Background()).Err()
				_ = client.Close()
			})
			return client
		}
		_ = client.Close()
		lastErr = err
	}

	t.Skipf("Skipping Redis-dependent test: no reachable Redis endpoint (%v)", lastErr)
	return nil
}
