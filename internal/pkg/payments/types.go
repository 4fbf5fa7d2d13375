package payments

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotConfigured  = errors.New("payments not configured")
	ErrAccountInvalid = errors.New("account cannot accept charges")
	ErrCardDeclined   = errors.New("verification charge declined")
)

// Charge is the subset of a Stripe charge the revenue fetcher needs.
// Amount is in minor currency units.
type Charge struct {
	ID         string
	Amount     int64
	Status     string
	Refunded   bool
	CustomerID string
	Created    time.Time
}

// Counts reports whether the charge contributes to revenue.
func (c Charge) Counts() bool {
	return c.Status == "succeeded" && !c.Refunded
}

// Account describes a connected Stripe account.
type Account struct {
	ID               string
	ChargesEnabled   bool
	DetailsSubmitted bool
	Country          string
	Currency         string
}

// Complete reports whether the account is set up far enough to reflect real
// revenue.
func (a Account) Complete() bool {
	return a.ChargesEnabled || a.DetailsSubmitted
}

type VerificationCharge struct {
	ID     string
	Status string
}

func (v VerificationCharge) Succeeded() bool {
	return v.Status == "succeeded"
}

// Window is a created-at range. To is exclusive unless Closed is set.
type Window struct {
	From   time.Time
	To     time.Time
	Closed bool
}

// CheckoutRequest describes a subscription checkout for one company.
type CheckoutRequest struct {
	CompanyID  string
	Email      string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// Client is the payments collaborator.
type Client interface {
	ListCharges(ctx context.Context, accountID string, w Window) ([]Charge, error)
	RetrieveAccount(ctx context.Context, accountID string) (*Account, error)
	CreateVerificationCharge(ctx context.Context, accountID, companyID string) (*VerificationCharge, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
}

// Event types handled by billing.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentFailed       = "invoice.payment_failed"
)

// Event is a verified webhook event reduced to the fields billing acts on.
type Event struct {
	ID               string
	Type             string
	Payload          []byte
	CompanyID        string
	CustomerID       string
	SubscriptionID   string
	AmountTotal      int64
	CurrentPeriodEnd *time.Time
}
