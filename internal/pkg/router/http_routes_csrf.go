package router

import (
	"strings"
	"time"

	"github.com/ManuelReschke/Candor/app/controllers"
	"github.com/ManuelReschke/Candor/internal/pkg/env"
	"github.com/ManuelReschke/Candor/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	ctl := h.cfg.Controller

	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     controllers.CSRFContextKey,
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
	}

	group := app.Group("", csrf.New(csrfConf))
	group.Get("/", controllers.HandleLanding)
	group.Get("/connect-stripe", controllers.HandleConnectStripe)
	group.Get("/pricing", controllers.HandlePricing)
	group.Get("/expired", middleware.RequireCompanyPage, controllers.HandleExpired)
	group.Get("/billing/success", middleware.RequireCompanyPage, controllers.HandleBillingSuccess)
	group.Post("/logout", ctl.HandleLogout)

	// Pages behind the trial gate. Expired trials keep read-only /home.
	gate := h.gated()
	group.Get("/home", gate, ctl.HandleHomePage)
	group.Get("/snapshot", gate, controllers.HandleSnapshotPage)
	group.Get("/burn-input", gate, controllers.HandleBurnInput)
	group.Get("/email-preview", gate, ctl.HandleEmailPreview)
}
