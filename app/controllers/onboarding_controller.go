package controllers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ManuelReschke/Candor/app/models"
	"github.com/ManuelReschke/Candor/app/repository"
	"github.com/ManuelReschke/Candor/internal/pkg/payments"
	"github.com/ManuelReschke/Candor/internal/pkg/session"
	"github.com/ManuelReschke/Candor/internal/pkg/usercontext"
	"github.com/ManuelReschke/Candor/internal/pkg/weekly"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

type emailRequest struct {
	Email string `json:"email" validate:"required,email,max=200"`
}

type burnRequest struct {
	MonthlyBurn float64 `json:"monthly_burn" validate:"gt=0"`
}

// HandleSetupEmail stores the address the weekly email goes to.
func (ctl *Controller) HandleSetupEmail(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid email address.")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid email address.")
	}

	cc := usercontext.GetCompanyContext(c)
	if !cc.HasSession() {
		return jsonError(c, fiber.StatusUnauthorized, "No session found. Please reconnect Stripe.")
	}

	if !cc.IsDemo() {
		if err := ctl.Store.UpdateConnectionEmail(c.UserContext(), cc.CompanyID, req.Email); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return jsonError(c, fiber.StatusNotFound, "Stripe account not found.")
			}
			log.Errorf("[Onboarding] Saving email for %s failed: %v", cc.CompanyID, err)
			return jsonError(c, fiber.StatusInternalServerError, "Failed to save: "+err.Error())
		}
	}

	if err := session.SetSessionValue(c, usercontext.KeyEmail, req.Email); err != nil {
		log.Debugf("[Onboarding] Could not keep email in session: %v", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleBurn stores the monthly burn used for burn multiple.
func (ctl *Controller) HandleBurn(c *fiber.Ctx) error {
	var req burnRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid burn amount.")
	}
	if err := validate.Struct(req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid burn amount.")
	}

	cc := usercontext.GetCompanyContext(c)
	if !cc.HasSession() {
		return jsonError(c, fiber.StatusUnauthorized, "No session.")
	}
	if cc.IsDemo() {
		return c.JSON(fiber.Map{"ok": true, "demo": true})
	}

	if err := ctl.Store.UpdateConnectionBurn(c.UserContext(), cc.CompanyID, req.MonthlyBurn); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, fiber.StatusNotFound, "Stripe account not found.")
		}
		log.Errorf("[Onboarding] Saving burn for %s failed: %v", cc.CompanyID, err)
		return jsonError(c, fiber.StatusInternalServerError, "Failed to save: "+err.Error())
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleTrialStart schedules the first weekly email. The trial clock itself
// starts with that first send.
func (ctl *Controller) HandleTrialStart(c *fiber.Ctx) error {
	cc := usercontext.GetCompanyContext(c)
	if !cc.HasSession() {
		return jsonError(c, fiber.StatusUnauthorized, "No session.")
	}

	now := ctl.now().UTC()
	next := weekly.NextMonday(now, weekly.TrialStartHour)
	if cc.IsDemo() {
		return c.JSON(fiber.Map{"ok": true, "next_email_at": next, "demo": true})
	}

	trial := &models.Trial{
		CompanyID:   cc.CompanyID,
		StartedAt:   now,
		NextEmailAt: next,
		Status:      models.TrialStatusActive,
		EmailsSent:  0,
	}
	if err := ctl.Store.UpsertTrial(c.UserContext(), trial); err != nil {
		log.Errorf("[Onboarding] Starting trial for %s failed: %v", cc.CompanyID, err)
		return jsonError(c, fiber.StatusInternalServerError, "Failed to start trial: "+err.Error())
	}
	return c.JSON(fiber.Map{"ok": true, "next_email_at": next})
}

// HandleVerifyCharge runs the $1 verification charge on the connected
// account.
func (ctl *Controller) HandleVerifyCharge(c *fiber.Ctx) error {
	cc := usercontext.GetCompanyContext(c)
	if !cc.HasSession() {
		return jsonError(c, fiber.StatusUnauthorized, "No session found.")
	}

	ctx := c.UserContext()
	conn, err := ctl.Store.GetConnection(ctx, cc.CompanyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, fiber.StatusNotFound, "Stripe account not found.")
		}
		return jsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	if ctl.Payments == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "Stripe is not configured.")
	}

	charge, err := ctl.Payments.CreateVerificationCharge(ctx, conn.StripeAccountID, cc.CompanyID)
	if err != nil {
		log.Warnf("[Onboarding] Verification charge for %s failed: %v", cc.CompanyID, err)
		return jsonError(c, fiber.StatusBadRequest, verifyChargeMessage(err))
	}
	if !charge.Succeeded() {
		return jsonError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Charge failed with status: %s. Fix your Stripe account and try again.", charge.Status))
	}

	if err := ctl.Store.MarkConnectionVerified(ctx, cc.CompanyID, charge.ID, ctl.now().UTC()); err != nil {
		log.Errorf("[Onboarding] Charge %s succeeded but marking %s verified failed: %v", charge.ID, cc.CompanyID, err)
	}
	return c.JSON(fiber.Map{"ok": true, "charge_id": charge.ID})
}

func verifyChargeMessage(err error) string {
	switch {
	case errors.Is(err, payments.ErrAccountInvalid):
		return "Your Stripe account can't accept charges yet. Complete your Stripe setup first."
	case errors.Is(err, payments.ErrCardDeclined):
		return "Verification charge declined. Check your Stripe account is fully set up."
	default:
		return err.Error()
	}
}
