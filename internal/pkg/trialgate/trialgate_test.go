package trialgate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ManuelReschke/Candor/app/models"
	"github.com/ManuelReschke/Candor/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func startedAt(t time.Time) *models.Trial {
	return &models.Trial{CompanyID: "co_1", Status: models.TrialStatusActive, TrialStartedAt: &t}
}

func TestDerive(t *testing.T) {
	paid := &models.Subscription{Status: models.SubscriptionStatusActive}
	pastDue := &models.Subscription{Status: models.SubscriptionStatusPastDue}

	tests := []struct {
		name    string
		company string
		trial   *models.Trial
		sub     *models.Subscription
		want    State
	}{
		{"no session", "", nil, nil, StateUnknown},
		{"demo prefix", "demo_abc", nil, paid, StateDemo},
		{"paid beats expired trial", "co_1", startedAt(now.Add(-30 * 24 * time.Hour)), paid, StatePaid},
		{"no trial row", "co_1", nil, nil, StatePreTrial},
		{"trial not started", "co_1", &models.Trial{CompanyID: "co_1"}, nil, StatePreTrial},
		{"within window", "co_1", startedAt(now.Add(-6 * 24 * time.Hour)), pastDue, StateActive},
		{"exactly seven days", "co_1", startedAt(now.Add(-TrialLength)), nil, StateExpired},
		{"past due does not count as paid", "co_1", startedAt(now.Add(-8 * 24 * time.Hour)), pastDue, StateExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Derive(tt.company, tt.trial, tt.sub, now).State)
		})
	}
}

func TestDeriveDaysRemainingRoundsUp(t *testing.T) {
	s := Derive("co_1", startedAt(now.Add(-2*24*time.Hour-time.Hour)), nil, now)
	require.Equal(t, StateActive, s.State)
	assert.Equal(t, 5, s.DaysRemaining)
	require.NotNil(t, s.ExpiresAt)
	assert.Equal(t, now.Add(5*24*time.Hour-time.Hour), *s.ExpiresAt)

	s = Derive("co_1", startedAt(now.Add(-TrialLength+time.Minute)), nil, now)
	assert.Equal(t, 1, s.DaysRemaining)
}

func TestReceivesWeeklyEmail(t *testing.T) {
	assert.True(t, ReceivesWeeklyEmail(StatePreTrial))
	assert.True(t, ReceivesWeeklyEmail(StateActive))
	assert.True(t, ReceivesWeeklyEmail(StatePaid))
	assert.False(t, ReceivesWeeklyEmail(StateExpired))
	assert.False(t, ReceivesWeeklyEmail(StateUnknown))
}

type failingStore struct{ err error }

func (f failingStore) GetTrial(context.Context, string) (*models.Trial, error) { return nil, f.err }
func (f failingStore) GetSubscription(context.Context, string) (*models.Subscription, error) {
	return nil, f.err
}

func TestGateStatus(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	g := NewGate(store)
	g.now = func() time.Time { return now }

	s, err := g.Status(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, StatePreTrial, s.State)

	require.NoError(t, store.UpsertTrial(ctx, &models.Trial{CompanyID: "co_1", StartedAt: now, NextEmailAt: now}))
	_, err = store.MarkTrialStarted(ctx, "co_1", now.Add(-10*24*time.Hour))
	require.NoError(t, err)

	s, err = g.Status(ctx, "co_1")
	require.NoError(t, err)
	assert.Equal(t, StateExpired, s.State)

	require.NoError(t, store.UpsertSubscription(ctx, &models.Subscription{
		CompanyID: "co_1", Status: models.SubscriptionStatusActive, Plan: models.PlanMonthly,
	}))
	s, err = g.Status(ctx, "co_1")
	require.NoError(t, err)
	assert.Equal(t, StatePaid, s.State)

	boom := errors.New("db down")
	_, err = NewGate(failingStore{err: boom}).Status(ctx, "co_1")
	assert.ErrorIs(t, err, boom)
}
