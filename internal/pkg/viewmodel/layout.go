package viewmodel

import (
	"github.com/ManuelReschke/Candor/internal/pkg/trialgate"
	"github.com/gofiber/fiber/v2"
)

// Layout is shared by every page template.
type Layout struct {
	Page      string
	Title     string
	CompanyID string
	IsDemo    bool
	IsError   bool
	Msg       fiber.Map
	CSRF      string
	Trial     *trialgate.Status
}

// HasSession reports whether the page is rendered for a company.
func (l Layout) HasSession() bool {
	return l.CompanyID != ""
}

// TrialExpired is true on the read-only home page of an expired trial.
func (l Layout) TrialExpired() bool {
	return l.Trial != nil && l.Trial.State == trialgate.StateExpired
}

// Home is the data of the home page and the /api/home endpoint.
type Home struct {
	LastEmailAt    string
	LastSubject    string
	LastConstraint string
	NextEmailAt    string
	EmailsSent     int
	HealthScore    string
}
