package weekly

import (
	"context"
	"time"

	"github.com/ManuelReschke/Candor/app/models"
	"github.com/ManuelReschke/Candor/internal/pkg/digest"
	"github.com/ManuelReschke/Candor/internal/pkg/judgment"
	"github.com/ManuelReschke/Candor/internal/pkg/metrics"
	"github.com/ManuelReschke/Candor/internal/pkg/revenue"
	"github.com/ManuelReschke/Candor/internal/pkg/trialgate"
)

type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result is the terminal outcome for one company in one run.
type Result struct {
	CompanyID string `json:"company_id"`
	Status    Status `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// Summary counts results by status.
type Summary struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusSent:
			s.Sent++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

// Outcomes maps the summary onto counter fields.
func (s Summary) Outcomes() map[string]int {
	return map[string]int{
		string(StatusSent):    s.Sent,
		string(StatusSkipped): s.Skipped,
		string(StatusFailed):  s.Failed,
	}
}

// Composed is everything computed for one company before sending.
type Composed struct {
	CompanyID string          `json:"company_id"`
	Revenue   revenue.Revenue `json:"revenue"`
	Metrics   metrics.Set     `json:"metrics"`
	Judgment  string          `json:"judgment"`
	Health    judgment.Health `json:"health"`
	Email     digest.Email    `json:"email"`
}

// Store is the storage the job reads and writes.
type Store interface {
	ListTrialsByStatus(ctx context.Context, status models.TrialStatus) ([]models.Trial, error)
	GetConnection(ctx context.Context, companyID string) (*models.Connection, error)
	MarkTrialStarted(ctx context.Context, companyID string, at time.Time) (bool, error)
	AppendSnapshot(ctx context.Context, snap *models.Snapshot) error
	AppendEmailSent(ctx context.Context, sent *models.EmailSent) error
	IncrementEmailsSent(ctx context.Context, companyID string) error
	SetNextEmailAt(ctx context.Context, companyID string, at time.Time) error
}

type StatusSource interface {
	Status(ctx context.Context, companyID string) (trialgate.Status, error)
}

type RevenueSource interface {
	Fetch(ctx context.Context, accountID string) (revenue.Revenue, error)
}

// Locker guards against overlapping runs. See cache.Locker.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(), acquired bool, err error)
}
