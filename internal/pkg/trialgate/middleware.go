package trialgate

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

const (
	ConnectPath   = "/connect-stripe"
	ExpiredPath   = "/expired"
	ReadOnlyPath  = "/home"
	ExpiredHeader = "X-Trial-Expired"

	// LocalsKey holds the derived Status for handlers behind the middleware.
	LocalsKey = "trial_status"
)

// Toucher records request activity for churn rule C.
type Toucher interface {
	TouchConnection(ctx context.Context, companyID string, at time.Time) error
}

// Middleware enforces the gate on protected pages. companyID resolves the
// session company, "" when there is none. Storage failures fail open.
func (g *Gate) Middleware(companyID func(c *fiber.Ctx) string, toucher Toucher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := companyID(c)
		if id == "" {
			return c.Redirect(ConnectPath)
		}

		status, err := g.Status(c.UserContext(), id)
		if err != nil {
			log.Warnf("[TrialGate] Status lookup failed for %s, allowing request: %v", id, err)
			return c.Next()
		}
		c.Locals(LocalsKey, status)

		switch status.State {
		case StateDemo, StatePaid, StateActive, StatePreTrial:
		case StateExpired:
			if c.Path() != ReadOnlyPath {
				return c.Redirect(ExpiredPath)
			}
			c.Set(ExpiredHeader, "true")
		default:
			return c.Redirect(ConnectPath)
		}

		if toucher != nil && status.State != StateDemo {
			if err := toucher.TouchConnection(c.UserContext(), id, g.now()); err != nil {
				log.Debugf("[TrialGate] Could not record activity for %s: %v", id, err)
			}
		}
		return c.Next()
	}
}

// FromLocals returns the Status stored by Middleware.
func FromLocals(c *fiber.Ctx) (Status, bool) {
	s, ok := c.Locals(LocalsKey).(Status)
	return s, ok
}
