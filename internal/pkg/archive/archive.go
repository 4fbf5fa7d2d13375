// Package archive uploads weekly and churn run reports to S3-compatible
// storage.
package archive

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Report is the JSON document written for one job run.
type Report struct {
	RunID      string    `json:"run_id"`
	Job        string    `json:"job"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
	Summary    any       `json:"summary,omitempty"`
	Results    any       `json:"results"`
}

// NewReport starts a report with a fresh run id.
func NewReport(job string, startedAt time.Time) *Report {
	return &Report{RunID: uuid.NewString(), Job: job, StartedAt: startedAt}
}

// Archiver stores run reports and returns the object key.
type Archiver interface {
	Store(ctx context.Context, report *Report) (string, error)
}

// Noop discards reports. It is used when the archive is disabled.
type Noop struct{}

func (Noop) Store(context.Context, *Report) (string, error) {
	return "", nil
}

// NewFromEnv returns the S3 archiver when enabled and reachable, otherwise
// Noop.
func NewFromEnv(ctx context.Context) Archiver {
	cfg, err := LoadConfig()
	if err != nil {
		log.Warnf("[Archive] Invalid configuration, archive disabled: %v", err)
		return Noop{}
	}
	if !cfg.IsEnabled() {
		return Noop{}
	}
	client, err := NewClient(ctx, cfg)
	if err != nil {
		log.Warnf("[Archive] S3 unavailable, archive disabled: %v", err)
		return Noop{}
	}
	return client
}
