package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/Candor/app/models"
	"github.com/ManuelReschke/Candor/app/repository"
	"github.com/ManuelReschke/Candor/internal/pkg/payments"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// Repository is the storage the billing service writes.
type Repository interface {
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error
	GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error)
	CancelSubscription(ctx context.Context, companyID string, at time.Time) error
	SetSubscriptionStatus(ctx context.Context, companyID string, status models.SubscriptionStatus) error
	SetTrialStatus(ctx context.Context, companyID string, status models.TrialStatus) error
	CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error
}

// Service keeps local subscription state in sync with Stripe billing events.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(repository.NewGormStore(db))
}

// ProcessWebhook records the event and applies it once. Redelivered events
// that were already applied without error return OutcomeDuplicate.
func (s *Service) ProcessWebhook(ctx context.Context, ev *payments.Event) (Outcome, error) {
	created, stored, err := s.RecordWebhookEvent(ctx, WebhookEventInput{
		EventID:     ev.ID,
		EventType:   ev.Type,
		CompanyID:   ev.CompanyID,
		PayloadJSON: string(ev.Payload),
	})
	if err != nil {
		return "", fmt.Errorf("record webhook event: %w", err)
	}
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		log.Infof("[Webhook] Event %s already processed, skipping", stored.ProviderEventID)
		return OutcomeDuplicate, nil
	}

	outcome, handleErr := s.HandleEvent(ctx, ev)
	if err := s.MarkWebhookProcessed(ctx, stored.ID, handleErr); err != nil {
		log.Warnf("[Webhook] Could not mark event %s processed: %v", stored.ProviderEventID, err)
	}
	return outcome, handleErr
}

// HandleEvent applies one verified event. Unknown types and events without a
// company correlation are ignored without error.
func (s *Service) HandleEvent(ctx context.Context, ev *payments.Event) (Outcome, error) {
	switch ev.Type {
	case payments.EventCheckoutCompleted:
		if ev.CompanyID == "" {
			log.Warnf("[Webhook] %s without company_id in metadata", ev.Type)
			return OutcomeIgnored, nil
		}
		err := s.Activate(ctx, Activation{
			CompanyID:            ev.CompanyID,
			StripeSubscriptionID: ev.SubscriptionID,
			StripeCustomerID:     ev.CustomerID,
			AmountTotal:          ev.AmountTotal,
			ActivatedAt:          s.now(),
		})
		if err != nil {
			return "", err
		}
		log.Infof("[Webhook] Activated: %s", ev.CompanyID)
		return OutcomeActivated, nil

	case payments.EventSubscriptionDeleted:
		if ev.CompanyID == "" {
			log.Warnf("[Webhook] %s without company_id in metadata", ev.Type)
			return OutcomeIgnored, nil
		}
		if err := s.Cancel(ctx, ev.CompanyID); err != nil {
			return "", err
		}
		log.Infof("[Webhook] Cancelled: %s", ev.CompanyID)
		return OutcomeCancelled, nil

	case payments.EventPaymentFailed:
		if ev.SubscriptionID == "" {
			return OutcomeIgnored, nil
		}
		sub, err := s.repo.GetSubscriptionByStripeID(ctx, ev.SubscriptionID)
		if errors.Is(err, repository.ErrNotFound) {
			log.Warnf("[Webhook] Payment failed for unknown subscription %s", ev.SubscriptionID)
			return OutcomeIgnored, nil
		}
		if err != nil {
			return "", fmt.Errorf("lookup subscription %s: %w", ev.SubscriptionID, err)
		}
		if err := s.repo.SetSubscriptionStatus(ctx, sub.CompanyID, models.SubscriptionStatusPastDue); err != nil {
			return "", fmt.Errorf("mark past due: %w", err)
		}
		log.Warnf("[Webhook] Payment failed: %s", sub.CompanyID)
		return OutcomePastDue, nil

	default:
		return OutcomeIgnored, nil
	}
}

// Activate upserts the company's subscription as active.
func (s *Service) Activate(ctx context.Context, in Activation) error {
	companyID := strings.TrimSpace(in.CompanyID)
	if companyID == "" {
		return errors.New("company_id is required")
	}
	activatedAt := in.ActivatedAt
	sub := &models.Subscription{
		CompanyID:            companyID,
		StripeSubscriptionID: in.StripeSubscriptionID,
		StripeCustomerID:     in.StripeCustomerID,
		Status:               models.SubscriptionStatusActive,
		Plan:                 PlanForAmount(in.AmountTotal),
		ActivatedAt:          &activatedAt,
	}
	if err := s.repo.UpsertSubscription(ctx, sub); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// Cancel marks the subscription cancelled and stops the weekly emails. Both
// writes are attempted; a missing subscription row is not an error.
func (s *Service) Cancel(ctx context.Context, companyID string) error {
	var errs []error
	if err := s.repo.CancelSubscription(ctx, companyID, s.now()); err != nil && !errors.Is(err, repository.ErrNotFound) {
		errs = append(errs, fmt.Errorf("cancel subscription: %w", err))
	}
	if err := s.repo.SetTrialStatus(ctx, companyID, models.TrialStatusCancelled); err != nil && !errors.Is(err, repository.ErrNotFound) {
		errs = append(errs, fmt.Errorf("cancel trial: %w", err))
	}
	return errors.Join(errs...)
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	eventID := strings.TrimSpace(in.EventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		CompanyID:       strings.TrimSpace(in.CompanyID),
		PayloadJSON:     in.PayloadJSON,
	}
	return s.repo.CreateWebhookEventIfNotExists(ctx, event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(ctx, webhookEventID, errMsg)
}
