package controllers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ManuelReschke/Candor/internal/pkg/billing"
	"github.com/ManuelReschke/Candor/internal/pkg/payments"
	"github.com/ManuelReschke/Candor/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

type checkoutRequest struct {
	Billing string `json:"billing"`
}

// HandleCheckout creates a Stripe Checkout session for the monthly or
// annual plan and returns its URL.
func (ctl *Controller) HandleCheckout(c *fiber.Ctx) error {
	cc := usercontext.GetCompanyContext(c)
	if !cc.HasSession() {
		return jsonError(c, fiber.StatusUnauthorized, "No session.")
	}
	if cc.IsDemo() {
		return jsonError(c, fiber.StatusBadRequest, "Connect Stripe before subscribing.")
	}

	var req checkoutRequest
	_ = c.BodyParser(&req)
	plan := billing.NormalizePlan(req.Billing)

	priceID := ctl.Stripe.PriceFor(string(plan))
	if priceID == "" {
		return jsonError(c, fiber.StatusInternalServerError,
			fmt.Sprintf("STRIPE_PRICE_%s not set in env vars", strings.ToUpper(string(plan))))
	}
	if ctl.Payments == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "Stripe is not configured.")
	}

	ctx := c.UserContext()
	email := cc.Email
	if conn, err := ctl.Store.GetConnection(ctx, cc.CompanyID); err == nil && conn.RecipientEmail() != "" {
		email = conn.RecipientEmail()
	}

	url, err := ctl.Payments.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		CompanyID:  cc.CompanyID,
		Email:      email,
		PriceID:    priceID,
		SuccessURL: ctl.Stripe.AppURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  ctl.Stripe.AppURL + "/pricing",
	})
	if err != nil {
		log.Errorf("[Checkout] Session for %s failed: %v", cc.CompanyID, err)
		return jsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"url": url})
}

// HandleBillingWebhook verifies and applies a Stripe billing event. Ignored
// and duplicate events are acknowledged with 200 so Stripe stops retrying.
func (ctl *Controller) HandleBillingWebhook(c *fiber.Ctx) error {
	signature := c.Get("Stripe-Signature")
	if signature == "" {
		return jsonError(c, fiber.StatusBadRequest, "No signature.")
	}

	ev, err := payments.ParseWebhook(c.Body(), signature, ctl.Stripe.WebhookSecret)
	if err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			log.Error("[Webhook] STRIPE_WEBHOOK_SECRET is not set")
			return jsonError(c, fiber.StatusInternalServerError, "Webhook not configured.")
		}
		log.Warnf("[Webhook] Signature verification failed: %v", err)
		return jsonError(c, fiber.StatusBadRequest, "Invalid signature.")
	}

	outcome, err := ctl.Billing.ProcessWebhook(c.UserContext(), ev)
	if err != nil {
		log.Errorf("[Webhook] Handling %s (%s) failed: %v", ev.ID, ev.Type, err)
		return jsonError(c, fiber.StatusInternalServerError, "Handler failed.")
	}
	return c.JSON(fiber.Map{"received": true, "outcome": outcome})
}
