package router

import (
	"strings"
	"time"

	"github.com/ManuelReschke/Candor/internal/pkg/env"
	"github.com/ManuelReschke/Candor/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
	cfg Config
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	ctl := h.cfg.Controller

	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        env.GetInt("API_RATE_LIMIT", 60),
		Expiration: 1 * time.Minute,
		// Stripe and the cron caller retry on 429, so they are not limited.
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/api/billing/webhook" || strings.HasPrefix(c.Path(), "/api/cron/")
		},
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// Onboarding
	api.Post("/setup/email", ctl.HandleSetupEmail)
	api.Post("/burn", ctl.HandleBurn)
	api.Post("/trial/start", ctl.HandleTrialStart)
	api.Post("/onboarding/verify-charge", ctl.HandleVerifyCharge)

	// Dashboard
	api.Get("/home", middleware.RequireCompany, ctl.HandleHomeAPI)
	api.Get("/snapshot", ctl.HandleSnapshotAPI)

	// Billing
	api.Post("/billing/checkout", middleware.RequireCompany, ctl.HandleCheckout)
	api.Post("/billing/webhook", ctl.HandleBillingWebhook)

	// Jobs
	cron := api.Group("/cron", middleware.CronAuth(h.cfg.CronSecret))
	cron.Get("/weekly", ctl.HandleCronWeekly)
	cron.Get("/churn", ctl.HandleCronChurn)
	cron.Get("/trigger", ctl.HandleCronTrigger)
	cron.Post("/trigger", ctl.HandleCronTriggerCompany)
	cron.Get("/stats/:job", ctl.HandleCronStats)
}

func NewApiRouter(cfg Config) *ApiRouter {
	return &ApiRouter{cfg: cfg}
}
