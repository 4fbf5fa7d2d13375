// Package trialgate derives the access state of a company from its trial
// and subscription rows.
package trialgate

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/ManuelReschke/Candor/app/models"
	"github.com/ManuelReschke/Candor/app/repository"
)

type State string

const (
	StateUnknown  State = "unknown"
	StateDemo     State = "demo"
	StatePaid     State = "paid"
	StatePreTrial State = "pre_trial"
	StateActive   State = "active"
	StateExpired  State = "expired"
)

const (
	TrialLength = 7 * 24 * time.Hour
	DemoPrefix  = "demo_"
)

// Status is a derived state plus the trial window when one exists.
type Status struct {
	State         State      `json:"status"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	DaysRemaining int        `json:"days_remaining,omitempty"`
}

// Derive is the pure state function. An active subscription wins over any
// trial state.
func Derive(companyID string, trial *models.Trial, sub *models.Subscription, now time.Time) Status {
	if companyID == "" {
		return Status{State: StateUnknown}
	}
	if IsDemo(companyID) {
		return Status{State: StateDemo}
	}
	if sub.IsPaid() {
		return Status{State: StatePaid}
	}
	if trial == nil || trial.TrialStartedAt == nil {
		return Status{State: StatePreTrial}
	}

	started := *trial.TrialStartedAt
	expires := started.Add(TrialLength)
	if now.Before(expires) {
		remaining := expires.Sub(now)
		return Status{
			State:         StateActive,
			StartedAt:     &started,
			ExpiresAt:     &expires,
			DaysRemaining: int(math.Ceil(remaining.Hours() / 24)),
		}
	}
	return Status{State: StateExpired, StartedAt: &started, ExpiresAt: &expires}
}

func IsDemo(companyID string) bool {
	return strings.HasPrefix(companyID, DemoPrefix)
}

// ReceivesWeeklyEmail reports whether the weekly job may send to a company
// in state s. Pre-trial companies get the email that starts their trial.
func ReceivesWeeklyEmail(s State) bool {
	switch s {
	case StatePaid, StateActive, StatePreTrial, StateDemo:
		return true
	default:
		return false
	}
}

type Store interface {
	GetTrial(ctx context.Context, companyID string) (*models.Trial, error)
	GetSubscription(ctx context.Context, companyID string) (*models.Subscription, error)
}

// Gate loads the rows Derive needs.
type Gate struct {
	store Store
	now   func() time.Time
}

func NewGate(store Store) *Gate {
	return &Gate{store: store, now: time.Now}
}

// WithClock replaces the time source.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Status returns the state of companyID. Missing rows are not errors; any
// other storage error is returned so callers can pick their own policy.
func (g *Gate) Status(ctx context.Context, companyID string) (Status, error) {
	if companyID == "" || IsDemo(companyID) {
		return Derive(companyID, nil, nil, g.now()), nil
	}

	sub, err := g.store.GetSubscription(ctx, companyID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return Status{}, err
	}
	if sub.IsPaid() {
		return Derive(companyID, nil, sub, g.now()), nil
	}

	trial, err := g.store.GetTrial(ctx, companyID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return Status{}, err
	}
	return Derive(companyID, trial, sub, g.now()), nil
}
