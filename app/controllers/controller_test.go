package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ManuelReschke/Candor/app/models"
	"github.com/ManuelReschke/Candor/app/repository"
	"github.com/ManuelReschke/Candor/internal/pkg/payments"
	"github.com/ManuelReschke/Candor/internal/pkg/revenue"
	"github.com/ManuelReschke/Candor/internal/pkg/trialgate"
	"github.com/ManuelReschke/Candor/internal/pkg/usercontext"
	"github.com/ManuelReschke/Candor/views"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// testNow is a Wednesday.
var testNow = time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)

type fakePayments struct {
	account      *payments.Account
	accountErr   error
	charge       *payments.VerificationCharge
	chargeErr    error
	checkoutURL  string
	checkoutErr  error
	lastCheckout payments.CheckoutRequest
}

func (f *fakePayments) ListCharges(context.Context, string, payments.Window) ([]payments.Charge, error) {
	return nil, nil
}

func (f *fakePayments) RetrieveAccount(_ context.Context, accountID string) (*payments.Account, error) {
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	if f.account == nil {
		return &payments.Account{ID: accountID, ChargesEnabled: true, DetailsSubmitted: true}, nil
	}
	return f.account, nil
}

func (f *fakePayments) CreateVerificationCharge(context.Context, string, string) (*payments.VerificationCharge, error) {
	return f.charge, f.chargeErr
}

func (f *fakePayments) CreateCheckoutSession(_ context.Context, req payments.CheckoutRequest) (string, error) {
	f.lastCheckout = req
	return f.checkoutURL, f.checkoutErr
}

type fakeRevenue struct {
	rev revenue.Revenue
	err error
}

func (f fakeRevenue) Fetch(context.Context, string) (revenue.Revenue, error) {
	return f.rev, f.err
}

type fixture struct {
	store    *repository.MemoryStore
	payments *fakePayments
	ctl      *Controller
}

func newFixture() *fixture {
	store := repository.NewMemoryStore()
	pay := &fakePayments{}
	ctl := New(Deps{
		Store:    store,
		Gate:     trialgate.NewGate(store).WithClock(func() time.Time { return testNow }),
		Payments: pay,
		Stripe:   payments.Config{AppURL: "https://candor.test"},
	}).WithClock(func() time.Time { return testNow })
	return &fixture{store: store, payments: pay, ctl: ctl}
}

func (f *fixture) connect(t *testing.T, companyID string) {
	t.Helper()
	require.NoError(t, f.store.UpsertConnection(context.Background(), &models.Connection{
		CompanyID:       companyID,
		StripeAccountID: companyID,
		Status:          models.ConnectionStatusConnected,
		ConnectedAt:     testNow.Add(-time.Hour),
	}))
}

// newApp returns an app whose requests belong to companyID ("" for none).
func newApp(companyID string) *fiber.App {
	app := fiber.New(fiber.Config{Views: views.NewEngine()})
	app.Use(func(c *fiber.Ctx) error {
		usercontext.Set(c, usercontext.CompanyContext{CompanyID: companyID})
		return c.Next()
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers ...string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func get(t *testing.T, app *fiber.App, path string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}
