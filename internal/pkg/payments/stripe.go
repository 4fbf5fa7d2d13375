package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

const (
	verificationAmount = 100
	pageSize           = 100
)

// StripeClient implements Client with the Stripe API.
type StripeClient struct {
	api *client.API
}

func NewStripeClient(cfg Config) (*StripeClient, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: STRIPE_SECRET_KEY is empty", ErrNotConfigured)
	}
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeClient{api: api}, nil
}

// ListCharges pages through every charge created in w on the connected
// account. Pages are fetched sequentially; the iterator follows the cursor.
func (s *StripeClient) ListCharges(ctx context.Context, accountID string, w Window) ([]Charge, error) {
	rng := &stripe.RangeQueryParams{GreaterThanOrEqual: w.From.Unix()}
	if w.Closed {
		rng.LesserThanOrEqual = w.To.Unix()
	} else {
		rng.LesserThan = w.To.Unix()
	}

	params := &stripe.ChargeListParams{CreatedRange: rng}
	params.Context = ctx
	params.Limit = stripe.Int64(pageSize)
	params.SetStripeAccount(accountID)

	var charges []Charge
	iter := s.api.Charges.List(params)
	for iter.Next() {
		ch := iter.Charge()
		c := Charge{
			ID:       ch.ID,
			Amount:   ch.Amount,
			Status:   string(ch.Status),
			Refunded: ch.Refunded,
			Created:  time.Unix(ch.Created, 0).UTC(),
		}
		if ch.Customer != nil {
			c.CustomerID = ch.Customer.ID
		}
		charges = append(charges, c)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list charges for %s: %w", accountID, err)
	}
	return charges, nil
}

func (s *StripeClient) RetrieveAccount(ctx context.Context, accountID string) (*Account, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx
	acct, err := s.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve account %s: %w", accountID, err)
	}
	return &Account{
		ID:               acct.ID,
		ChargesEnabled:   acct.ChargesEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
		Country:          acct.Country,
		Currency:         string(acct.DefaultCurrency),
	}, nil
}

// CreateVerificationCharge runs a $1 charge on the connected account to prove
// it can move money. Known Stripe error codes map to ErrAccountInvalid and
// ErrCardDeclined.
func (s *StripeClient) CreateVerificationCharge(ctx context.Context, accountID, companyID string) (*VerificationCharge, error) {
	params := &stripe.ChargeParams{
		Amount:      stripe.Int64(verificationAmount),
		Currency:    stripe.String(string(stripe.CurrencyUSD)),
		Description: stripe.String("Candor account verification"),
		Source:      &stripe.PaymentSourceSourceParams{Token: stripe.String("tok_bypassPending")},
	}
	params.Context = ctx
	params.SetStripeAccount(accountID)
	params.AddMetadata("type", "verification")
	params.AddMetadata("company_id", companyID)

	ch, err := s.api.Charges.New(params)
	if err != nil {
		return nil, mapChargeError(err)
	}
	return &VerificationCharge{ID: ch.ID, Status: string(ch.Status)}, nil
}

func mapChargeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Code {
		case stripe.ErrorCodeAccountInvalid:
			return fmt.Errorf("%w: %s", ErrAccountInvalid, stripeErr.Msg)
		case stripe.ErrorCodeCardDeclined:
			return fmt.Errorf("%w: %s", ErrCardDeclined, stripeErr.Msg)
		}
	}
	return fmt.Errorf("verification charge: %w", err)
}

// CreateCheckoutSession starts a subscription checkout and returns its URL.
// company_id is stored on both the session and the subscription so every
// later webhook can be correlated.
func (s *StripeClient) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	if req.PriceID == "" {
		return "", fmt.Errorf("%w: missing price id", ErrNotConfigured)
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"company_id": req.CompanyID},
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.Context = ctx
	params.AddMetadata("company_id", req.CompanyID)

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}
