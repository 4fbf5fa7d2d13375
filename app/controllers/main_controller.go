package controllers

import (
	"time"

	"github.com/ManuelReschke/Candor/internal/pkg/usercontext"
	"github.com/ManuelReschke/Candor/internal/pkg/viewmodel"
	"github.com/gofiber/fiber/v2"
)

const pageTimeLayout = "Mon, Jan 2 2006 15:04 MST"

func HandleLanding(c *fiber.Ctx) error {
	return render(c, "index", layout(c, "landing", ""), nil)
}

func HandleConnectStripe(c *fiber.Ctx) error {
	return render(c, "connect-stripe", layout(c, "connect", "Connect Stripe"), nil)
}

func HandleSnapshotPage(c *fiber.Ctx) error {
	return render(c, "snapshot", layout(c, "snapshot", "Snapshot"), nil)
}

func HandleBurnInput(c *fiber.Ctx) error {
	return render(c, "burn-input", layout(c, "burn", "Monthly burn"), nil)
}

func HandleExpired(c *fiber.Ctx) error {
	return render(c, "expired", layout(c, "expired", "Trial ended"), nil)
}

func HandlePricing(c *fiber.Ctx) error {
	return render(c, "pricing", layout(c, "pricing", "Pricing"), nil)
}

func HandleBillingSuccess(c *fiber.Ctx) error {
	return render(c, "billing-success", layout(c, "billing-success", "Subscribed"), nil)
}

// HandleHomePage renders the home page. Expired trials land here read-only.
func (ctl *Controller) HandleHomePage(c *fiber.Ctx) error {
	var home viewmodel.Home
	if id := usercontext.CompanyID(c); id != "" {
		home = homeView(ctl.loadHome(c.UserContext(), id))
	}
	return render(c, "home", layout(c, "home", "Home"), fiber.Map{"Home": home})
}

func homeView(h homeResponse) viewmodel.Home {
	v := viewmodel.Home{EmailsSent: h.EmailsSent}
	if h.LastEmailAt != nil {
		v.LastEmailAt = formatPageTime(*h.LastEmailAt)
	}
	if h.LastSubject != nil {
		v.LastSubject = *h.LastSubject
	}
	if h.LastConstraint != nil {
		v.LastConstraint = *h.LastConstraint
	}
	if h.NextEmailAt != nil {
		v.NextEmailAt = formatPageTime(*h.NextEmailAt)
	}
	if h.HealthScore != nil {
		v.HealthScore = *h.HealthScore
	}
	return v
}

func formatPageTime(t time.Time) string {
	return t.UTC().Format(pageTimeLayout)
}
