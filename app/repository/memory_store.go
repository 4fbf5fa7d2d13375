package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ManuelReschke/Candor/app/models"
)

// MemoryStore is an in-process Store. It backs demo mode and the tests of
// packages that should not need a database.
type MemoryStore struct {
	mu            sync.Mutex
	connections   map[string]models.Connection
	trials        map[string]models.Trial
	subscriptions map[string]models.Subscription
	snapshots     []models.Snapshot
	emails        []models.EmailSent
	churnLogs     []models.ChurnLog
	events        []models.BillingWebhookEvent
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		connections:   make(map[string]models.Connection),
		trials:        make(map[string]models.Trial),
		subscriptions: make(map[string]models.Subscription),
	}
}

func (s *MemoryStore) UpsertConnection(_ context.Context, conn *models.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if conn.Status == "" {
		conn.Status = models.ConnectionStatusConnected
	}
	existing, ok := s.connections[conn.CompanyID]
	if ok {
		existing.StripeAccountID = conn.StripeAccountID
		existing.ConnectedAt = conn.ConnectedAt
		existing.Status = conn.Status
		existing.UpdatedAt = now
		s.connections[conn.CompanyID] = existing
		*conn = existing
		return nil
	}
	conn.CreatedAt = now
	conn.UpdatedAt = now
	s.connections[conn.CompanyID] = *conn
	return nil
}

func (s *MemoryStore) GetConnection(_ context.Context, companyID string) (*models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.connections[companyID]
	if !ok {
		return nil, ErrNotFound
	}
	return &conn, nil
}

func (s *MemoryStore) UpdateConnectionEmail(_ context.Context, companyID, email string) error {
	normalized := strings.ToLower(strings.TrimSpace(email))
	return s.withConnection(companyID, func(c *models.Connection) { c.Email = &normalized })
}

func (s *MemoryStore) UpdateConnectionBurn(_ context.Context, companyID string, burn float64) error {
	return s.withConnection(companyID, func(c *models.Connection) { c.MonthlyBurn = &burn })
}

func (s *MemoryStore) MarkConnectionVerified(_ context.Context, companyID, chargeID string, at time.Time) error {
	return s.withConnection(companyID, func(c *models.Connection) {
		c.VerificationChargeID = &chargeID
		c.VerifiedAt = &at
	})
}

func (s *MemoryStore) TouchConnection(_ context.Context, companyID string, at time.Time) error {
	return s.withConnection(companyID, func(c *models.Connection) { c.LastSeenAt = &at })
}

func (s *MemoryStore) ListConnectionsWithoutBurn(_ context.Context, connectedBefore time.Time) ([]models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Connection
	for _, c := range s.connections {
		if c.MonthlyBurn == nil && c.ConnectedAt.Before(connectedBefore) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyID < out[j].CompanyID })
	return out, nil
}

func (s *MemoryStore) withConnection(companyID string, fn func(*models.Connection)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.connections[companyID]
	if !ok {
		return ErrNotFound
	}
	fn(&conn)
	conn.UpdatedAt = time.Now()
	s.connections[companyID] = conn
	return nil
}

func (s *MemoryStore) UpsertTrial(_ context.Context, trial *models.Trial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if trial.Status == "" {
		trial.Status = models.TrialStatusActive
	}
	existing, ok := s.trials[trial.CompanyID]
	if ok {
		existing.StartedAt = trial.StartedAt
		existing.NextEmailAt = trial.NextEmailAt
		existing.Status = trial.Status
		existing.EmailsSent = trial.EmailsSent
		existing.UpdatedAt = now
		s.trials[trial.CompanyID] = existing
		*trial = existing
		return nil
	}
	trial.CreatedAt = now
	trial.UpdatedAt = now
	s.trials[trial.CompanyID] = *trial
	return nil
}

func (s *MemoryStore) GetTrial(_ context.Context, companyID string) (*models.Trial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trial, ok := s.trials[companyID]
	if !ok {
		return nil, ErrNotFound
	}
	return &trial, nil
}

func (s *MemoryStore) ListTrialsByStatus(_ context.Context, status models.TrialStatus) ([]models.Trial, error) {
	return s.filterTrials(func(t models.Trial) bool { return t.Status == status }), nil
}

func (s *MemoryStore) ListActiveTrialsStartedBefore(_ context.Context, before time.Time) ([]models.Trial, error) {
	return s.filterTrials(func(t models.Trial) bool {
		return t.Status == models.TrialStatusActive && t.StartedAt.Before(before)
	}), nil
}

func (s *MemoryStore) ListActiveTrialsWithEmailsSent(_ context.Context, min int) ([]models.Trial, error) {
	return s.filterTrials(func(t models.Trial) bool {
		return t.Status == models.TrialStatusActive && t.EmailsSent >= min
	}), nil
}

func (s *MemoryStore) filterTrials(keep func(models.Trial) bool) []models.Trial {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Trial
	for _, t := range s.trials {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyID < out[j].CompanyID })
	return out
}

func (s *MemoryStore) MarkTrialStarted(_ context.Context, companyID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trial, ok := s.trials[companyID]
	if !ok || trial.TrialStartedAt != nil {
		return false, nil
	}
	trial.TrialStartedAt = &at
	s.trials[companyID] = trial
	return true, nil
}

func (s *MemoryStore) IncrementEmailsSent(_ context.Context, companyID string) error {
	return s.withTrial(companyID, func(t *models.Trial) { t.EmailsSent++ })
}

func (s *MemoryStore) SetNextEmailAt(_ context.Context, companyID string, at time.Time) error {
	return s.withTrial(companyID, func(t *models.Trial) { t.NextEmailAt = at })
}

func (s *MemoryStore) SetTrialStatus(_ context.Context, companyID string, status models.TrialStatus) error {
	return s.withTrial(companyID, func(t *models.Trial) { t.Status = status })
}

func (s *MemoryStore) SetLastWarningAt(_ context.Context, companyID string, at time.Time) error {
	return s.withTrial(companyID, func(t *models.Trial) { t.LastWarningAt = &at })
}

func (s *MemoryStore) withTrial(companyID string, fn func(*models.Trial)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trial, ok := s.trials[companyID]
	if !ok {
		return ErrNotFound
	}
	fn(&trial)
	trial.UpdatedAt = time.Now()
	s.trials[companyID] = trial
	return nil
}

func (s *MemoryStore) UpsertSubscription(_ context.Context, sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.subscriptions[sub.CompanyID]; ok {
		sub.CreatedAt = existing.CreatedAt
	} else {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	s.subscriptions[sub.CompanyID] = *sub
	return nil
}

func (s *MemoryStore) GetSubscription(_ context.Context, companyID string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscriptions[companyID]
	if !ok {
		return nil, ErrNotFound
	}
	return &sub, nil
}

func (s *MemoryStore) GetSubscriptionByStripeID(_ context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subscriptions {
		if sub.StripeSubscriptionID == stripeSubscriptionID {
			found := sub
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CancelSubscription(_ context.Context, companyID string, at time.Time) error {
	return s.withSubscription(companyID, func(sub *models.Subscription) {
		sub.Status = models.SubscriptionStatusCancelled
		sub.CancelledAt = &at
	})
}

func (s *MemoryStore) SetSubscriptionStatus(_ context.Context, companyID string, status models.SubscriptionStatus) error {
	return s.withSubscription(companyID, func(sub *models.Subscription) { sub.Status = status })
}

func (s *MemoryStore) withSubscription(companyID string, fn func(*models.Subscription)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscriptions[companyID]
	if !ok {
		return ErrNotFound
	}
	fn(&sub)
	sub.UpdatedAt = time.Now()
	s.subscriptions[companyID] = sub
	return nil
}

func (s *MemoryStore) AppendSnapshot(_ context.Context, snap *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.ID = uint(len(s.snapshots) + 1)
	s.snapshots = append(s.snapshots, *snap)
	return nil
}

func (s *MemoryStore) LatestSnapshot(_ context.Context, companyID string) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.snapshots) - 1; i >= 0; i-- {
		if s.snapshots[i].CompanyID == companyID {
			snap := s.snapshots[i]
			return &snap, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) AppendEmailSent(_ context.Context, sent *models.EmailSent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sent.ID = uint(len(s.emails) + 1)
	s.emails = append(s.emails, *sent)
	return nil
}

func (s *MemoryStore) LatestEmailSent(_ context.Context, companyID string) (*models.EmailSent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.emails) - 1; i >= 0; i-- {
		if s.emails[i].CompanyID == companyID {
			sent := s.emails[i]
			return &sent, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) AppendChurnLog(_ context.Context, entry *models.ChurnLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = uint(len(s.churnLogs) + 1)
	s.churnLogs = append(s.churnLogs, *entry)
	return nil
}

func (s *MemoryStore) CreateWebhookEventIfNotExists(_ context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.events {
		if e.ProviderEventID == event.ProviderEventID {
			stored := e
			return false, &stored, nil
		}
	}
	event.ID = uint(len(s.events) + 1)
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	s.events = append(s.events, *event)
	stored := *event
	return true, &stored, nil
}

func (s *MemoryStore) MarkWebhookProcessed(_ context.Context, id uint, processingError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.events {
		if s.events[i].ID == id {
			now := time.Now()
			s.events[i].ProcessedAt = &now
			s.events[i].ProcessingError = processingError
			return nil
		}
	}
	return ErrNotFound
}

// Snapshots returns a copy of every appended snapshot.
func (s *MemoryStore) Snapshots() []models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Snapshot(nil), s.snapshots...)
}

// EmailsSent returns a copy of every appended email log row.
func (s *MemoryStore) EmailsSent() []models.EmailSent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.EmailSent(nil), s.emails...)
}

// ChurnLogs returns a copy of every appended churn log row.
func (s *MemoryStore) ChurnLogs() []models.ChurnLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChurnLog(nil), s.churnLogs...)
}

// WebhookEvents returns a copy of the webhook idempotency log.
func (s *MemoryStore) WebhookEvents() []models.BillingWebhookEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.BillingWebhookEvent(nil), s.events...)
}
