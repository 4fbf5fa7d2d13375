package controllers

import (
	"time"

	"github.com/ManuelReschke/Candor/app/repository"
	"github.com/ManuelReschke/Candor/internal/pkg/billing"
	"github.com/ManuelReschke/Candor/internal/pkg/payments"
	"github.com/ManuelReschke/Candor/internal/pkg/scheduler"
	"github.com/ManuelReschke/Candor/internal/pkg/trialgate"
	"github.com/ManuelReschke/Candor/internal/pkg/usercontext"
	"github.com/ManuelReschke/Candor/internal/pkg/viewmodel"
	"github.com/ManuelReschke/Candor/internal/pkg/weekly"
	"github.com/ManuelReschke/Candor/views"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
)

// CSRFContextKey is where the csrf middleware leaves the form token.
const CSRFContextKey = "csrf"

var validate = validator.New()

// Deps are the collaborators of every handler. Payments and Revenue are nil
// when Stripe is not configured.
type Deps struct {
	Store      repository.Store
	Gate       *trialgate.Gate
	Payments   payments.Client
	Revenue    weekly.RevenueSource
	Stripe     payments.Config
	Runner     *weekly.Runner
	Jobs       *scheduler.Jobs
	Billing    *billing.Service
	Production bool
}

// Controller serves pages and the JSON API.
type Controller struct {
	Deps
	now func() time.Time
}

// New creates a controller with the wall clock.
func New(d Deps) *Controller {
	return &Controller{Deps: d, now: time.Now}
}

// WithClock replaces the time source.
func (ctl *Controller) WithClock(now func() time.Time) *Controller {
	ctl.now = now
	return ctl
}

func jsonError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// layout builds the shared page model from the request.
func layout(c *fiber.Ctx, page, title string) viewmodel.Layout {
	cc := usercontext.GetCompanyContext(c)
	l := viewmodel.Layout{
		Page:      page,
		Title:     title,
		CompanyID: cc.CompanyID,
		IsDemo:    cc.IsDemo(),
		Msg:       flash.Get(c),
	}
	if token, ok := c.Locals(CSRFContextKey).(string); ok {
		l.CSRF = token
	}
	if status, ok := trialgate.FromLocals(c); ok {
		l.Trial = &status
	}
	if l.Msg != nil {
		if t, _ := l.Msg["type"].(string); t == "error" {
			l.IsError = true
		}
	}
	return l
}

func render(c *fiber.Ctx, name string, l viewmodel.Layout, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["Layout"] = l
	return c.Render(name, data, views.DefaultLayout)
}
