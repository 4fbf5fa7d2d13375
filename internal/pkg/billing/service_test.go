package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ManuelReschke/Candor/app/models"
	"github.com/ManuelReschke/Candor/app/repository"
	"github.com/ManuelReschke/Candor/internal/pkg/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

func newTestService() (*Service, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	svc := NewService(store)
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func checkoutEvent(id, companyID string, amount int64) *payments.Event {
	return &payments.Event{
		ID:             id,
		Type:           payments.EventCheckoutCompleted,
		Payload:        []byte(`{"id":"` + id + `"}`),
		CompanyID:      companyID,
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		AmountTotal:    amount,
	}
}

func TestCheckoutCompletedActivatesSubscription(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	outcome, err := svc.ProcessWebhook(ctx, checkoutEvent("evt_1", "co_1", 9900))
	require.NoError(t, err)
	assert.Equal(t, OutcomeActivated, outcome)

	sub, err := store.GetSubscription(ctx, "co_1")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, models.PlanMonthly, sub.Plan)
	assert.Equal(t, "sub_1", sub.StripeSubscriptionID)
	assert.Equal(t, "cus_1", sub.StripeCustomerID)
	require.NotNil(t, sub.ActivatedAt)
	assert.True(t, sub.ActivatedAt.Equal(fixedNow))

	events := store.WebhookEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "evt_1", events[0].ProviderEventID)
	assert.Equal(t, "co_1", events[0].CompanyID)
	assert.NotNil(t, events[0].ProcessedAt)
	assert.Empty(t, events[0].ProcessingError)
}

func TestCheckoutCompletedAnnualPlan(t *testing.T) {
	svc, store := newTestService()

	_, err := svc.ProcessWebhook(context.Background(), checkoutEvent("evt_2", "co_2", 99000))
	require.NoError(t, err)

	sub, err := store.GetSubscription(context.Background(), "co_2")
	require.NoError(t, err)
	assert.Equal(t, models.PlanAnnual, sub.Plan)
}

func TestRedeliveredEventIsAppliedOnce(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.ProcessWebhook(ctx, checkoutEvent("evt_1", "co_1", 9900))
	require.NoError(t, err)
	require.NoError(t, store.SetSubscriptionStatus(ctx, "co_1", models.SubscriptionStatusPastDue))

	outcome, err := svc.ProcessWebhook(ctx, checkoutEvent("evt_1", "co_1", 9900))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	sub, err := store.GetSubscription(ctx, "co_1")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusPastDue, sub.Status)
	assert.Len(t, store.WebhookEvents(), 1)
}

func TestMissingCompanyIDIsIgnored(t *testing.T) {
	svc, store := newTestService()

	outcome, err := svc.ProcessWebhook(context.Background(), checkoutEvent("evt_3", "", 9900))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)

	_, err = store.GetSubscription(context.Background(), "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSubscriptionDeletedCancelsSubscriptionAndTrial(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	require.NoError(t, store.UpsertTrial(ctx, &models.Trial{
		CompanyID:   "co_1",
		StartedAt:   fixedNow.Add(-72 * time.Hour),
		NextEmailAt: fixedNow.Add(72 * time.Hour),
		Status:      models.TrialStatusActive,
	}))
	_, err := svc.ProcessWebhook(ctx, checkoutEvent("evt_1", "co_1", 9900))
	require.NoError(t, err)

	outcome, err := svc.ProcessWebhook(ctx, &payments.Event{
		ID:             "evt_2",
		Type:           payments.EventSubscriptionDeleted,
		CompanyID:      "co_1",
		SubscriptionID: "sub_1",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, outcome)

	sub, err := store.GetSubscription(ctx, "co_1")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCancelled, sub.Status)
	require.NotNil(t, sub.CancelledAt)
	assert.True(t, sub.CancelledAt.Equal(fixedNow))

	trial, err := store.GetTrial(ctx, "co_1")
	require.NoError(t, err)
	assert.Equal(t, models.TrialStatusCancelled, trial.Status)
}

func TestSubscriptionDeletedWithoutRowsIsNotAnError(t *testing.T) {
	svc, _ := newTestService()

	outcome, err := svc.HandleEvent(context.Background(), &payments.Event{
		Type:      payments.EventSubscriptionDeleted,
		CompanyID: "co_missing",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, outcome)
}

func TestPaymentFailedMarksPastDue(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.ProcessWebhook(ctx, checkoutEvent("evt_1", "co_1", 9900))
	require.NoError(t, err)

	outcome, err := svc.ProcessWebhook(ctx, &payments.Event{
		ID:             "evt_4",
		Type:           payments.EventPaymentFailed,
		SubscriptionID: "sub_1",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomePastDue, outcome)

	sub, err := store.GetSubscription(ctx, "co_1")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusPastDue, sub.Status)
	assert.False(t, sub.IsPaid())
}

func TestPaymentFailedUnknownSubscription(t *testing.T) {
	svc, _ := newTestService()

	outcome, err := svc.HandleEvent(context.Background(), &payments.Event{
		Type:           payments.EventPaymentFailed,
		SubscriptionID: "sub_unknown",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)

	outcome, err = svc.HandleEvent(context.Background(), &payments.Event{Type: payments.EventPaymentFailed})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
}

func TestUnknownEventTypeIsIgnored(t *testing.T) {
	svc, store := newTestService()

	outcome, err := svc.ProcessWebhook(context.Background(), &payments.Event{ID: "evt_5", Type: "customer.created"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Len(t, store.WebhookEvents(), 1)
}

type failingUpsertStore struct {
	*repository.MemoryStore
}

func (failingUpsertStore) UpsertSubscription(context.Context, *models.Subscription) error {
	return errors.New("deadlock")
}

func TestFailedEventIsRetriedOnRedelivery(t *testing.T) {
	mem := repository.NewMemoryStore()
	svc := NewService(failingUpsertStore{mem})
	ctx := context.Background()

	_, err := svc.ProcessWebhook(ctx, checkoutEvent("evt_1", "co_1", 9900))
	require.Error(t, err)

	events := mem.WebhookEvents()
	require.Len(t, events, 1)
	assert.Contains(t, events[0].ProcessingError, "deadlock")

	svc = NewService(mem)
	outcome, err := svc.ProcessWebhook(ctx, checkoutEvent("evt_1", "co_1", 9900))
	require.NoError(t, err)
	assert.Equal(t, OutcomeActivated, outcome)
}

func TestRecordWebhookEventHashesMissingID(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, first, err := svc.RecordWebhookEvent(ctx, WebhookEventInput{EventType: "x", PayloadJSON: `{"a":1}`})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, first.ProviderEventID, "hash:")

	created, second, err := svc.RecordWebhookEvent(ctx, WebhookEventInput{EventType: "x", PayloadJSON: `{"a":1}`})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestMarkWebhookProcessedRequiresID(t *testing.T) {
	svc, _ := newTestService()
	assert.Error(t, svc.MarkWebhookProcessed(context.Background(), 0, nil))
}
