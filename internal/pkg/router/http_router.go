package router

import (
	"github.com/ManuelReschke/Candor/internal/pkg/middleware"
	"github.com/ManuelReschke/Candor/internal/pkg/oauth"
	"github.com/ManuelReschke/Candor/internal/pkg/session"
	"github.com/ManuelReschke/Candor/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
	cfg Config
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	ctl := h.cfg.Controller

	// init session and oauth state storage
	if h.cfg.InMemorySessions {
		session.NewMemorySessionStore()
		oauth.SetupWithStorage(ctl.Stripe, nil)
	} else {
		session.NewSessionStore()
		oauth.Setup(ctl.Stripe)
	}

	// Apply company context middleware globally as first middleware
	app.Use(middleware.CompanyContextMiddleware)

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter(cfg Config) *HttpRouter {
	return &HttpRouter{cfg: cfg}
}

// gated enforces the trial state machine on a page and records activity.
func (h HttpRouter) gated() fiber.Handler {
	ctl := h.cfg.Controller
	return ctl.Gate.Middleware(usercontext.CompanyID, ctl.Store)
}
