package middleware

import (
	"strings"

	"github.com/ManuelReschke/Candor/internal/pkg/session"
	"github.com/ManuelReschke/Candor/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

// CompanyContextMiddleware loads the company bound to the session and puts
// it on the request for every later handler.
func CompanyContextMiddleware(c *fiber.Ctx) error {
	// Goth keeps its own session store on /auth/*; reading ours there would
	// hand out a second cookie mid-flow.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	store := session.GetSessionStore()
	if store == nil {
		usercontext.Set(c, usercontext.CompanyContext{})
		return c.Next()
	}

	sess, err := store.Get(c)
	if err != nil {
		usercontext.Set(c, usercontext.CompanyContext{})
		return c.Next()
	}

	companyID, _ := sess.Get(usercontext.KeyCompanyID).(string)
	email, _ := sess.Get(usercontext.KeyEmail).(string)
	usercontext.Set(c, usercontext.CompanyContext{CompanyID: companyID, Email: email})
	return c.Next()
}
