// Package weekly runs the weekly email job over all active trials.
package weekly

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuelReschke/Candor/app/models"
	"github.com/ManuelReschke/Candor/app/repository"
	"github.com/ManuelReschke/Candor/internal/pkg/digest"
	"github.com/ManuelReschke/Candor/internal/pkg/judgment"
	"github.com/ManuelReschke/Candor/internal/pkg/mail"
	"github.com/ManuelReschke/Candor/internal/pkg/metrics"
	"github.com/ManuelReschke/Candor/internal/pkg/payments"
	"github.com/ManuelReschke/Candor/internal/pkg/trialgate"
	"github.com/gofiber/fiber/v2/log"
)

const (
	DefaultBatchSize  = 5
	DefaultBatchDelay = time.Second

	lockName = "weekly"
	lockTTL  = 30 * time.Minute
)

var ErrAlreadyRunning = errors.New("weekly job already running")

// Runner sends the weekly email to every active trial in paced batches.
type Runner struct {
	store   Store
	gate    StatusSource
	revenue RevenueSource
	sender  mail.Sender

	BatchSize  int
	BatchDelay time.Duration
	Locker     Locker

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRunner(store Store, gate StatusSource, rev RevenueSource, sender mail.Sender) *Runner {
	return &Runner{
		store:      store,
		gate:       gate,
		revenue:    rev,
		sender:     sender,
		BatchSize:  DefaultBatchSize,
		BatchDelay: DefaultBatchDelay,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run processes every active trial. The returned results keep candidate
// order. A candidate load failure aborts the run with no results.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	if r.Locker != nil {
		release, acquired, err := r.Locker.Acquire(ctx, lockName, lockTTL)
		switch {
		case err != nil:
			log.Warnf("[WeeklyJob] Lock unavailable, continuing without it: %v", err)
		case !acquired:
			return nil, ErrAlreadyRunning
		default:
			defer release()
		}
	}

	log.Infof("[WeeklyJob] Starting at %s", r.now().UTC().Format(time.RFC3339))
	trials, err := r.store.ListTrialsByStatus(ctx, models.TrialStatusActive)
	if err != nil {
		log.Errorf("[WeeklyJob] Failed to load trials: %v", err)
		return nil, fmt.Errorf("load active trials: %w", err)
	}
	log.Infof("[WeeklyJob] Processing %d active trials", len(trials))

	size := r.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	results := make([]Result, len(trials))
	for start := 0; start < len(trials); start += size {
		end := min(start+size, len(trials))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = r.processSafely(ctx, trials[i].CompanyID)
			}(i)
		}
		wg.Wait()

		if end < len(trials) {
			if err := r.sleep(ctx, r.BatchDelay); err != nil {
				for i := end; i < len(trials); i++ {
					results[i] = Result{CompanyID: trials[i].CompanyID, Status: StatusFailed, Reason: "Run cancelled: " + err.Error()}
				}
				break
			}
		}
	}

	s := Summarize(results)
	log.Infof("[WeeklyJob] Done. Sent: %d | Failed: %d | Skipped: %d", s.Sent, s.Failed, s.Skipped)
	return results, nil
}

func (r *Runner) processSafely(ctx context.Context, companyID string) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			log.Errorf("[WeeklyJob] Panic while processing %s: %v", companyID, p)
			res = Result{CompanyID: companyID, Status: StatusFailed, Reason: fmt.Sprintf("panic: %v", p)}
		}
	}()
	return r.ProcessCompany(ctx, companyID)
}

// ProcessCompany runs the full pipeline for one company. Trial start and
// log rows are only written after the email was accepted.
func (r *Runner) ProcessCompany(ctx context.Context, companyID string) Result {
	result := func(s Status, reason string) Result {
		return Result{CompanyID: companyID, Status: s, Reason: reason}
	}

	status, err := r.gate.Status(ctx, companyID)
	if err != nil {
		return result(StatusFailed, "Trial state lookup failed: "+err.Error())
	}
	if !trialgate.ReceivesWeeklyEmail(status.State) {
		return result(StatusSkipped, fmt.Sprintf("Trial state %s does not receive email", status.State))
	}

	conn, err := r.store.GetConnection(ctx, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return result(StatusFailed, "Compute failed: company not found")
		}
		return result(StatusFailed, "Compute failed: "+err.Error())
	}
	to := conn.RecipientEmail()
	if to == "" {
		return result(StatusSkipped, "No email address on file")
	}

	composed, err := r.Compose(ctx, conn)
	if err != nil {
		return result(StatusFailed, "Compute failed: "+err.Error())
	}
	if !composed.Metrics.Usable() {
		return result(StatusSkipped, "Insufficient data - not sending noise")
	}

	sent, err := r.sender.Send(ctx, mail.Message{
		To:      to,
		Subject: composed.Email.Subject,
		Text:    composed.Email.Text,
		HTML:    composed.Email.HTML,
	})
	if err != nil {
		log.Warnf("[WeeklyJob] Send to %s failed: %v", companyID, err)
		return result(StatusFailed, err.Error())
	}

	if errs := r.recordSend(ctx, composed, sent.ID); errs != nil {
		log.Errorf("[WeeklyJob] Sent to %s but bookkeeping failed: %v", companyID, errs)
		return result(StatusSent, "Bookkeeping incomplete: "+errs.Error())
	}

	log.Infof("[WeeklyJob] Sent to %s (%s)", companyID, composed.Health)
	return result(StatusSent, "")
}

// Compose fetches revenue for conn and renders the email without sending.
func (r *Runner) Compose(ctx context.Context, conn *models.Connection) (*Composed, error) {
	if r.revenue == nil {
		return nil, fmt.Errorf("fetch revenue for %s: %w", conn.CompanyID, payments.ErrNotConfigured)
	}
	rev, err := r.revenue.Fetch(ctx, conn.StripeAccountID)
	if err != nil {
		return nil, err
	}
	set := metrics.Compute(rev.Inputs(conn.Burn()))
	verdict := judgment.Judge(set)
	health := judgment.Score(set)

	email, err := digest.Render(set, verdict.Sentence, health, r.now())
	if err != nil {
		return nil, err
	}
	return &Composed{
		CompanyID: conn.CompanyID,
		Revenue:   rev,
		Metrics:   set,
		Judgment:  verdict.Sentence,
		Health:    health,
		Email:     email,
	}, nil
}

// recordSend performs the independent post-send writes. Each write is
// attempted even when an earlier one failed.
func (r *Runner) recordSend(ctx context.Context, c *Composed, messageID string) error {
	now := r.now().UTC()
	var errs []error

	if _, err := r.store.MarkTrialStarted(ctx, c.CompanyID, now); err != nil {
		errs = append(errs, fmt.Errorf("mark trial started: %w", err))
	}
	if err := r.store.AppendSnapshot(ctx, c.Metrics.Snapshot(c.CompanyID, now, string(c.Health))); err != nil {
		errs = append(errs, fmt.Errorf("append snapshot: %w", err))
	}
	if err := r.store.AppendEmailSent(ctx, &models.EmailSent{
		CompanyID:         c.CompanyID,
		SentAt:            now,
		Subject:           c.Email.Subject,
		Judgment:          c.Judgment,
		HealthScore:       string(c.Health),
		ProviderMessageID: messageID,
	}); err != nil {
		errs = append(errs, fmt.Errorf("append email log: %w", err))
	}
	if err := r.store.IncrementEmailsSent(ctx, c.CompanyID); err != nil {
		errs = append(errs, fmt.Errorf("increment emails sent: %w", err))
	}
	if err := r.store.SetNextEmailAt(ctx, c.CompanyID, NextMonday(now, SendHour)); err != nil {
		errs = append(errs, fmt.Errorf("set next email: %w", err))
	}
	return errors.Join(errs...)
}
