package router

import (
	"github.com/ManuelReschke/Candor/app/controllers"
	"github.com/gofiber/fiber/v2"
)

// Config carries what the routers need besides the app.
type Config struct {
	Controller *controllers.Controller
	CronSecret string
	// InMemorySessions keeps sessions and OAuth state in process memory
	// instead of Redis.
	InMemorySessions bool
}

type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App, cfg Config) {
	// Install HttpRouter first to initialize session store, oauth providers,
	// and the global company context middleware. API handlers read the
	// company set by that middleware.
	setup(app, NewHttpRouter(cfg), NewApiRouter(cfg))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
