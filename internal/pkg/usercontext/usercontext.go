package usercontext

import (
	"github.com/ManuelReschke/Candor/internal/pkg/trialgate"
	"github.com/gofiber/fiber/v2"
)

// CompanyContext is the company identity attached to a request
type CompanyContext struct {
	CompanyID string `json:"company_id"`
	Email     string `json:"email,omitempty"`
}

// HasSession reports whether the request belongs to a company
func (c CompanyContext) HasSession() bool {
	return c.CompanyID != ""
}

// IsDemo reports whether the company was created by demo mode
func (c CompanyContext) IsDemo() bool {
	return trialgate.IsDemo(c.CompanyID)
}

// Set stores the company context on the request
func Set(c *fiber.Ctx, cc CompanyContext) {
	c.Locals(KeyCompanyContext, cc)
}

// GetCompanyContext retrieves the company context from fiber context
// Returns an empty context if none is set
func GetCompanyContext(c *fiber.Ctx) CompanyContext {
	if cc, ok := c.Locals(KeyCompanyContext).(CompanyContext); ok {
		return cc
	}
	return CompanyContext{}
}

// CompanyID returns the current company id, or "" without a session
func CompanyID(c *fiber.Ctx) string {
	return GetCompanyContext(c).CompanyID
}
