// Package scheduler runs the weekly email job and the churn sweep, either on
// demand from the cron endpoints or from an in-process clock.
package scheduler

import (
	"context"
	"time"

	"github.com/ManuelReschke/Candor/internal/pkg/archive"
	"github.com/ManuelReschke/Candor/internal/pkg/churn"
	"github.com/ManuelReschke/Candor/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/Candor/internal/pkg/weekly"
	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	JobWeekly = "weekly"
	JobChurn  = "churn"
)

// WeeklyRunner runs the weekly email job.
type WeeklyRunner interface {
	Run(ctx context.Context) ([]weekly.Result, error)
}

// ChurnRunner runs the churn sweep.
type ChurnRunner interface {
	Run(ctx context.Context) ([]churn.Result, error)
}

// Jobs wraps both jobs with run statistics and report archiving. Stats and
// archive failures are logged and never fail the job.
type Jobs struct {
	Weekly  WeeklyRunner
	Churn   ChurnRunner
	Archive archive.Archiver
	Redis   *redis.Client

	now func() time.Time
}

func NewJobs(w WeeklyRunner, c ChurnRunner, a archive.Archiver, rdb *redis.Client) *Jobs {
	if a == nil {
		a = archive.Noop{}
	}
	return &Jobs{Weekly: w, Churn: c, Archive: a, Redis: rdb, now: time.Now}
}

// RunWeekly runs the weekly job once.
func (j *Jobs) RunWeekly(ctx context.Context) ([]weekly.Result, error) {
	report := archive.NewReport(JobWeekly, j.now())
	results, err := j.Weekly.Run(ctx)
	summary := weekly.Summarize(results)

	j.finish(ctx, report, summary.Outcomes(), summary, results, err)
	return results, err
}

// RunChurn runs the churn sweep once.
func (j *Jobs) RunChurn(ctx context.Context) ([]churn.Result, error) {
	report := archive.NewReport(JobChurn, j.now())
	results, err := j.Churn.Run(ctx)
	cancelled, warned := churn.Count(results)
	outcomes := map[string]int{
		string(churn.ActionCancelled): cancelled,
		string(churn.ActionWarned):    warned,
	}

	j.finish(ctx, report, outcomes, outcomes, results, err)
	return results, err
}

func (j *Jobs) finish(ctx context.Context, report *archive.Report, outcomes map[string]int, summary, results any, runErr error) {
	report.FinishedAt = j.now()
	report.Summary = summary
	report.Results = results
	if runErr != nil {
		report.Error = runErr.Error()
		outcomes = mergeOutcome(outcomes, "errors", 1)
	}

	if j.Redis != nil {
		if err := counter.RecordRun(ctx, j.Redis, report.Job, outcomes, report.FinishedAt); err != nil {
			log.Warnf("[Scheduler] Could not record %s run stats: %v", report.Job, err)
		}
	}
	if j.Archive != nil {
		if _, err := j.Archive.Store(ctx, report); err != nil {
			log.Warnf("[Scheduler] Could not archive %s run %s: %v", report.Job, report.RunID, err)
		}
	}
}

func mergeOutcome(outcomes map[string]int, key string, n int) map[string]int {
	out := make(map[string]int, len(outcomes)+1)
	for k, v := range outcomes {
		out[k] = v
	}
	out[key] += n
	return out
}

// Stats returns the run totals of job. It returns nil totals when Redis is
// not configured.
func (j *Jobs) Stats(ctx context.Context, job string) (map[string]int64, time.Time, error) {
	if j.Redis == nil {
		return nil, time.Time{}, nil
	}
	return counter.Totals(ctx, j.Redis, job)
}
