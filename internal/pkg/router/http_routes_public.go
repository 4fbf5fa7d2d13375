package router

import (
	"github.com/ManuelReschke/Candor/internal/pkg/oauth"
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	ctl := h.cfg.Controller

	// Stripe Connect OAuth
	app.Get("/auth/"+oauth.ProviderName+"/callback", ctl.HandleStripeCallback)
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)

	// Demo mode
	app.Get("/demo", ctl.HandleDemo)
}
