// Package churn cancels trials that stopped showing any intent to pay.
package churn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuelReschke/Candor/app/models"
	"github.com/ManuelReschke/Candor/app/repository"
	"github.com/gofiber/fiber/v2/log"
)

type Action string

const (
	ActionCancelled Action = "cancelled"
	ActionWarned    Action = "warned"
)

const (
	PaymentGrace  = 24 * time.Hour
	BurnGrace     = 48 * time.Hour
	SilenceWindow = 21 * 24 * time.Hour
	WarningGrace  = 7 * 24 * time.Hour
	MinEmailsSent = 3
)

// Result is one action taken by a sweep.
type Result struct {
	CompanyID string `json:"company_id"`
	Reason    string `json:"reason"`
	Action    Action `json:"action"`
}

// Store is the storage the sweep reads and writes.
type Store interface {
	ListActiveTrialsStartedBefore(ctx context.Context, before time.Time) ([]models.Trial, error)
	ListActiveTrialsWithEmailsSent(ctx context.Context, min int) ([]models.Trial, error)
	ListConnectionsWithoutBurn(ctx context.Context, connectedBefore time.Time) ([]models.Connection, error)
	GetTrial(ctx context.Context, companyID string) (*models.Trial, error)
	GetSubscription(ctx context.Context, companyID string) (*models.Subscription, error)
	GetConnection(ctx context.Context, companyID string) (*models.Connection, error)
	SetTrialStatus(ctx context.Context, companyID string, status models.TrialStatus) error
	SetLastWarningAt(ctx context.Context, companyID string, at time.Time) error
	AppendChurnLog(ctx context.Context, entry *models.ChurnLog) error
}

// Sweeper runs the daily churn rules.
type Sweeper struct {
	store Store
	now   func() time.Time
}

// collector is the result list shared by the concurrently running rules.
type collector struct {
	mu      sync.Mutex
	results []Result
}

func (c *collector) add(r Result) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
}

func NewSweeper(store Store) *Sweeper {
	return &Sweeper{store: store, now: time.Now}
}

// WithClock replaces the time source.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

type sweepRule struct {
	name string
	run  func(ctx context.Context, now time.Time, out *collector) error
}

// Run applies all rules concurrently. A failing rule does not stop the
// others; its error is joined into the returned error and the results of the
// remaining rules are still returned.
func (s *Sweeper) Run(ctx context.Context) ([]Result, error) {
	now := s.now()
	log.Infof("[Churn] Running at %s", now.UTC().Format(time.RFC3339))

	rules := []sweepRule{
		{name: "no_payment", run: s.enforceNoPayment},
		{name: "no_burn_input", run: s.enforceNoBurnInput},
		{name: "emails_ignored", run: s.enforceEmailsIgnored},
	}

	out := &collector{}
	errs := make([]error, len(rules))
	var wg sync.WaitGroup
	for i, rl := range rules {
		wg.Add(1)
		go func(i int, rl sweepRule) {
			defer wg.Done()
			if err := rl.run(ctx, now, out); err != nil {
				log.Errorf("[Churn] Rule %s failed: %v", rl.name, err)
				errs[i] = fmt.Errorf("%s: %w", rl.name, err)
			}
		}(i, rl)
	}
	wg.Wait()

	results := out.results

	cancelled, warned := Count(results)
	log.Infof("[Churn] Cancelled %d accounts, warned %d", cancelled, warned)
	return results, errors.Join(errs...)
}

// Count returns the number of cancelled and warned results.
func Count(results []Result) (cancelled, warned int) {
	for _, r := range results {
		switch r.Action {
		case ActionCancelled:
			cancelled++
		case ActionWarned:
			warned++
		}
	}
	return cancelled, warned
}

// enforceNoPayment cancels active trials older than a day with no subscription.
func (s *Sweeper) enforceNoPayment(ctx context.Context, now time.Time, out *collector) error {
	trials, err := s.store.ListActiveTrialsStartedBefore(ctx, now.Add(-PaymentGrace))
	if err != nil {
		return err
	}
	for _, trial := range trials {
		_, err := s.store.GetSubscription(ctx, trial.CompanyID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			log.Warnf("[Churn] Subscription lookup failed for %s: %v", trial.CompanyID, err)
			continue
		}
		if s.cancel(ctx, trial.CompanyID, "No payment after 24 hours", now) {
			out.add(Result{CompanyID: trial.CompanyID, Reason: "No payment within 24h", Action: ActionCancelled})
		}
	}
	return nil
}

// enforceNoBurnInput cancels active trials whose connection never got a burn figure.
func (s *Sweeper) enforceNoBurnInput(ctx context.Context, now time.Time, out *collector) error {
	conns, err := s.store.ListConnectionsWithoutBurn(ctx, now.Add(-BurnGrace))
	if err != nil {
		return err
	}
	for _, conn := range conns {
		trial, err := s.store.GetTrial(ctx, conn.CompanyID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				log.Warnf("[Churn] Trial lookup failed for %s: %v", conn.CompanyID, err)
			}
			continue
		}
		if trial.Status != models.TrialStatusActive {
			continue
		}
		if s.cancel(ctx, conn.CompanyID, "No burn input after 48 hours", now) {
			out.add(Result{CompanyID: conn.CompanyID, Reason: "No burn input within 48h", Action: ActionCancelled})
		}
	}
	return nil
}

// enforceEmailsIgnored warns silent trials first and cancels them a week later.
func (s *Sweeper) enforceEmailsIgnored(ctx context.Context, now time.Time, out *collector) error {
	trials, err := s.store.ListActiveTrialsWithEmailsSent(ctx, MinEmailsSent)
	if err != nil {
		return err
	}
	for _, trial := range trials {
		engaged, err := s.engaged(ctx, trial.CompanyID, now)
		if err != nil {
			log.Warnf("[Churn] Connection lookup failed for %s: %v", trial.CompanyID, err)
			continue
		}
		if engaged {
			continue
		}

		switch {
		case trial.LastWarningAt == nil:
			if err := s.store.SetLastWarningAt(ctx, trial.CompanyID, now); err != nil {
				log.Warnf("[Churn] Could not warn %s: %v", trial.CompanyID, err)
				continue
			}
			out.add(Result{CompanyID: trial.CompanyID, Reason: "3+ emails sent, no engagement - warned", Action: ActionWarned})
		case !trial.LastWarningAt.After(now.Add(-WarningGrace)):
			if s.cancel(ctx, trial.CompanyID, "3+ emails sent, ignored warnings for 7+ days", now) {
				out.add(Result{
					CompanyID: trial.CompanyID,
					Reason:    "3+ emails sent, warned 7+ days ago, still no engagement - cancelled",
					Action:    ActionCancelled,
				})
			}
		}
	}
	return nil
}

// engaged reports whether the company visited the app inside the silence
// window. A missing connection counts as not engaged; other lookup errors are
// returned.
func (s *Sweeper) engaged(ctx context.Context, companyID string, now time.Time) (bool, error) {
	conn, err := s.store.GetConnection(ctx, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if conn.LastSeenAt == nil {
		return false, nil
	}
	return !conn.LastSeenAt.Before(now.Add(-SilenceWindow)), nil
}

func (s *Sweeper) cancel(ctx context.Context, companyID, reason string, now time.Time) bool {
	if err := s.store.SetTrialStatus(ctx, companyID, models.TrialStatusCancelled); err != nil {
		log.Errorf("[Churn] Could not cancel %s: %v", companyID, err)
		return false
	}
	entry := &models.ChurnLog{CompanyID: companyID, Reason: reason, CancelledAt: now}
	if err := s.store.AppendChurnLog(ctx, entry); err != nil {
		log.Warnf("[Churn] Cancelled %s but could not write churn log: %v", companyID, err)
	}
	return true
}
