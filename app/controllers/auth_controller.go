package controllers

import (
	"strconv"

	"github.com/ManuelReschke/Candor/internal/pkg/session"
	"github.com/ManuelReschke/Candor/internal/pkg/trialgate"
	"github.com/ManuelReschke/Candor/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	DemoMRR = 12500.0
	DemoNRR = 89.6
)

// HandleDemo starts a demo session with illustrative revenue.
func (ctl *Controller) HandleDemo(c *fiber.Ctx) error {
	id := trialgate.DemoPrefix + uuid.NewString()
	err := session.SetSessionValues(c, map[string]string{
		usercontext.KeyCompanyID: id,
		usercontext.KeyDemoMRR:   strconv.FormatFloat(DemoMRR, 'f', -1, 64),
		usercontext.KeyDemoNRR:   strconv.FormatFloat(DemoNRR, 'f', -1, 64),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Session could not be saved")
	}
	return c.Redirect("/snapshot", fiber.StatusSeeOther)
}

// HandleLogout ends the session.
func (ctl *Controller) HandleLogout(c *fiber.Ctx) error {
	_ = session.SignOut(c)
	return c.Redirect("/", fiber.StatusSeeOther)
}

// demoFigures reads the demo revenue from the session. ok is false when the
// demo session has expired.
func demoFigures(c *fiber.Ctx) (mrr, nrr float64, ok bool) {
	mrr, err := strconv.ParseFloat(session.GetSessionValue(c, usercontext.KeyDemoMRR), 64)
	if err != nil {
		return 0, 0, false
	}
	nrr, err = strconv.ParseFloat(session.GetSessionValue(c, usercontext.KeyDemoNRR), 64)
	if err != nil {
		return 0, 0, false
	}
	return mrr, nrr, true
}
