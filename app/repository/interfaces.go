package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/Candor/app/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned by every lookup that matches no row. It is the GORM
// sentinel so callers can keep using errors.Is with either name.
var ErrNotFound = gorm.ErrRecordNotFound

// ConnectionRepository stores the Stripe connection of each company.
type ConnectionRepository interface {
	UpsertConnection(ctx context.Context, conn *models.Connection) error
	GetConnection(ctx context.Context, companyID string) (*models.Connection, error)
	UpdateConnectionEmail(ctx context.Context, companyID, email string) error
	UpdateConnectionBurn(ctx context.Context, companyID string, burn float64) error
	MarkConnectionVerified(ctx context.Context, companyID, chargeID string, at time.Time) error
	TouchConnection(ctx context.Context, companyID string, at time.Time) error
	ListConnectionsWithoutBurn(ctx context.Context, connectedBefore time.Time) ([]models.Connection, error)
}

// TrialRepository stores trial lifecycle rows. Counter and start-date writes
// are single conditional statements so concurrent runs cannot lose updates.
type TrialRepository interface {
	UpsertTrial(ctx context.Context, trial *models.Trial) error
	GetTrial(ctx context.Context, companyID string) (*models.Trial, error)
	ListTrialsByStatus(ctx context.Context, status models.TrialStatus) ([]models.Trial, error)
	ListActiveTrialsStartedBefore(ctx context.Context, before time.Time) ([]models.Trial, error)
	ListActiveTrialsWithEmailsSent(ctx context.Context, min int) ([]models.Trial, error)
	MarkTrialStarted(ctx context.Context, companyID string, at time.Time) (bool, error)
	IncrementEmailsSent(ctx context.Context, companyID string) error
	SetNextEmailAt(ctx context.Context, companyID string, at time.Time) error
	SetTrialStatus(ctx context.Context, companyID string, status models.TrialStatus) error
	SetLastWarningAt(ctx context.Context, companyID string, at time.Time) error
}

// SubscriptionRepository stores paid subscriptions, written by webhooks only.
type SubscriptionRepository interface {
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error
	GetSubscription(ctx context.Context, companyID string) (*models.Subscription, error)
	GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error)
	CancelSubscription(ctx context.Context, companyID string, at time.Time) error
	SetSubscriptionStatus(ctx context.Context, companyID string, status models.SubscriptionStatus) error
}

// LogRepository appends the audit tables and reads back their newest rows.
type LogRepository interface {
	AppendSnapshot(ctx context.Context, snap *models.Snapshot) error
	LatestSnapshot(ctx context.Context, companyID string) (*models.Snapshot, error)
	AppendEmailSent(ctx context.Context, sent *models.EmailSent) error
	LatestEmailSent(ctx context.Context, companyID string) (*models.EmailSent, error)
	AppendChurnLog(ctx context.Context, entry *models.ChurnLog) error
}

// WebhookEventRepository keeps the idempotency log for billing webhooks.
type WebhookEventRepository interface {
	CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error
}

// Store is the full storage collaborator. Packages depend on the narrow
// interfaces they need; Store exists for wiring.
type Store interface {
	ConnectionRepository
	TrialRepository
	SubscriptionRepository
	LogRepository
	WebhookEventRepository
}
