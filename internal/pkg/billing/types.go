package billing

import "time"

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	EventID     string
	EventType   string
	CompanyID   string
	PayloadJSON string
}

// Outcome describes what a webhook event changed locally.
type Outcome string

const (
	OutcomeActivated Outcome = "activated"
	OutcomeCancelled Outcome = "cancelled"
	OutcomePastDue   Outcome = "past_due"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeDuplicate Outcome = "duplicate"
)

// Activation is the subscription state written after a completed checkout.
type Activation struct {
	CompanyID            string
	StripeSubscriptionID string
	StripeCustomerID     string
	AmountTotal          int64
	ActivatedAt          time.Time
}
