// Package counter keeps running totals of scheduled job outcomes in Redis.
package counter

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "candor:runs:"

// Key returns the Redis hash holding the totals of job.
func Key(job string) string {
	return keyPrefix + job
}

// RecordRun adds one run and its per-outcome counts to the totals of job.
func RecordRun(ctx context.Context, client *redis.Client, job string, outcomes map[string]int, at time.Time) error {
	key := Key(job)
	pipe := client.TxPipeline()
	pipe.HIncrBy(ctx, key, "runs", 1)
	for outcome, n := range outcomes {
		if n == 0 {
			continue
		}
		pipe.HIncrBy(ctx, key, outcome, int64(n))
	}
	pipe.HSet(ctx, key, "last_run_at", at.UTC().Format(time.RFC3339))
	_, err := pipe.Exec(ctx)
	return err
}

// Totals returns the numeric fields of job's hash. last_run_at is returned
// separately.
func Totals(ctx context.Context, client *redis.Client, job string) (map[string]int64, time.Time, error) {
	raw, err := client.HGetAll(ctx, Key(job)).Result()
	if err != nil {
		return nil, time.Time{}, err
	}

	totals := make(map[string]int64, len(raw))
	var last time.Time
	for field, val := range raw {
		if field == "last_run_at" {
			last, _ = time.Parse(time.RFC3339, val)
			continue
		}
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			continue
		}
		totals[field] = n
	}
	return totals, last, nil
}
