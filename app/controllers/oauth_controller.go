package controllers

import (
	"context"
	"errors"
	"strings"

	"github.com/ManuelReschke/Candor/app/models"
	"github.com/ManuelReschke/Candor/internal/pkg/payments"
	"github.com/ManuelReschke/Candor/internal/pkg/session"
	"github.com/ManuelReschke/Candor/internal/pkg/trialgate"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	gothfiber "github.com/shareed2k/goth_fiber"
	"github.com/sujit-baniya/flash"
)

var (
	errAccountIncomplete = errors.New("stripe account incomplete")
	errTestMode          = errors.New("stripe test mode in production")
	errNoAccount         = errors.New("no stripe account returned")
)

// connectMessage turns a connect failure into the text shown on the connect
// page.
func connectMessage(err error) string {
	switch {
	case errors.Is(err, errAccountIncomplete):
		return "Your Stripe account isn't complete enough to reflect reality. Finish Stripe setup, then return."
	case errors.Is(err, errTestMode):
		return "Test mode account detected. Connect your live Stripe account."
	case errors.Is(err, errNoAccount):
		return "No Stripe account returned."
	case errors.Is(err, payments.ErrNotConfigured):
		return "Stripe is not configured."
	default:
		return "Stripe connection failed: " + err.Error()
	}
}

// HandleStripeCallback completes Stripe Connect, validates the account and
// signs the company in. The company id is the Stripe account id.
func (ctl *Controller) HandleStripeCallback(c *fiber.Ctx) error {
	if oauthErr := strings.TrimSpace(c.Query("error")); oauthErr != "" {
		msg := c.Query("error_description", oauthErr)
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Stripe connection failed: " + msg}).Redirect(trialgate.ConnectPath)
	}

	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Stripe connection failed: " + err.Error()}).Redirect(trialgate.ConnectPath)
	}

	companyID, err := ctl.ConnectAccount(c.UserContext(), u.UserID)
	if err != nil {
		log.Warnf("[Connect] Rejected account %s: %v", u.UserID, err)
		return flash.WithError(c, fiber.Map{"type": "error", "message": connectMessage(err)}).Redirect(trialgate.ConnectPath)
	}

	if err := session.SignIn(c, companyID); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Session could not be saved"}).Redirect(trialgate.ConnectPath)
	}
	return c.Redirect("/snapshot", fiber.StatusSeeOther)
}

// ConnectAccount checks that accountID can reflect real revenue and stores
// the connection. It returns the company id.
func (ctl *Controller) ConnectAccount(ctx context.Context, accountID string) (string, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", errNoAccount
	}
	if ctl.Payments == nil {
		return "", payments.ErrNotConfigured
	}

	account, err := ctl.Payments.RetrieveAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	if !account.Complete() {
		return "", errAccountIncomplete
	}
	if ctl.Production && !ctl.Stripe.LiveMode() {
		return "", errTestMode
	}

	conn := &models.Connection{
		CompanyID:       accountID,
		StripeAccountID: accountID,
		Status:          models.ConnectionStatusConnected,
		ConnectedAt:     ctl.now().UTC(),
	}
	if err := ctl.Store.UpsertConnection(ctx, conn); err != nil {
		return "", err
	}
	log.Infof("[Connect] Connected %s (%s)", accountID, account.Country)
	return conn.CompanyID, nil
}
