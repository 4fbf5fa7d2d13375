package middleware

import (
	"github.com/ManuelReschke/Candor/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

// RequireCompany ensures a company session for API routes and returns JSON
// 401 instead of redirect.
func RequireCompany(c *fiber.Ctx) error {
	if !usercontext.GetCompanyContext(c).HasSession() {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "No session.",
		})
	}
	return c.Next()
}

// RequireCompanyPage ensures a company session for pages; redirects to the
// connect page if missing.
func RequireCompanyPage(c *fiber.Ctx) error {
	if !usercontext.GetCompanyContext(c).HasSession() {
		return c.Redirect("/connect-stripe", fiber.StatusSeeOther)
	}
	return c.Next()
}
