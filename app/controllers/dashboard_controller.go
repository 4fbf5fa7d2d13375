package controllers

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/ManuelReschke/Candor/app/models"
	"github.com/ManuelReschke/Candor/app/repository"
	"github.com/ManuelReschke/Candor/internal/pkg/digest"
	"github.com/ManuelReschke/Candor/internal/pkg/judgment"
	"github.com/ManuelReschke/Candor/internal/pkg/metrics"
	"github.com/ManuelReschke/Candor/internal/pkg/payments"
	"github.com/ManuelReschke/Candor/internal/pkg/usercontext"
	"github.com/ManuelReschke/Candor/internal/pkg/weekly"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// homeResponse powers the home page. Missing rows are null, never errors.
type homeResponse struct {
	LastEmailAt    *time.Time `json:"last_email_at"`
	LastSubject    *string    `json:"last_subject"`
	LastConstraint *string    `json:"last_constraint"`
	NextEmailAt    *time.Time `json:"next_email_at"`
	EmailsSent     int        `json:"emails_sent"`
	HealthScore    *string    `json:"health_score"`
}

// snapshotResponse compares the last 30 days with the 30 days before.
type snapshotResponse struct {
	Current   float64 `json:"current_30d"`
	Previous  float64 `json:"previous_30d"`
	PctChange float64 `json:"pct_change"`
	IsDemo    bool    `json:"is_demo"`
	Note      string  `json:"note,omitempty"`
}

// demoSnapshot is shown whenever live data cannot be loaded.
var demoSnapshot = snapshotResponse{Current: 12500, Previous: 11200, PctChange: 11.6, IsDemo: true}

func demoSnapshotWithNote(note string) snapshotResponse {
	s := demoSnapshot
	s.Note = note
	return s
}

func round1(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}

// pctChange is 100 when there was no previous revenue.
func pctChange(current, previous float64) float64 {
	if previous == 0 {
		return 100
	}
	return round1((current - previous) / previous * 100)
}

// HandleHomeAPI returns the last email, the next slot and the latest health.
func (ctl *Controller) HandleHomeAPI(c *fiber.Ctx) error {
	cc := usercontext.GetCompanyContext(c)
	if !cc.HasSession() {
		return jsonError(c, fiber.StatusUnauthorized, "No session.")
	}
	return c.JSON(ctl.loadHome(c.UserContext(), cc.CompanyID))
}

func (ctl *Controller) loadHome(ctx context.Context, companyID string) homeResponse {
	var out homeResponse

	trial, err := ctl.Store.GetTrial(ctx, companyID)
	switch {
	case err == nil:
		next := trial.NextEmailAt
		out.NextEmailAt = &next
		out.EmailsSent = trial.EmailsSent
	case !errors.Is(err, repository.ErrNotFound):
		log.Warnf("[Home] Trial lookup for %s failed: %v", companyID, err)
	}

	snap, err := ctl.Store.LatestSnapshot(ctx, companyID)
	switch {
	case err == nil:
		out.HealthScore = snap.HealthScore
	case !errors.Is(err, repository.ErrNotFound):
		log.Warnf("[Home] Snapshot lookup for %s failed: %v", companyID, err)
	}

	sent, err := ctl.Store.LatestEmailSent(ctx, companyID)
	switch {
	case err == nil:
		at, subject, constraint := sent.SentAt, sent.Subject, sent.Judgment
		out.LastEmailAt = &at
		out.LastSubject = &subject
		out.LastConstraint = &constraint
	case !errors.Is(err, repository.ErrNotFound):
		log.Warnf("[Home] Email lookup for %s failed: %v", companyID, err)
	}
	return out
}

// HandleSnapshotAPI returns live revenue for the session company. Anything
// that prevents a live read falls back to demo figures with a note.
func (ctl *Controller) HandleSnapshotAPI(c *fiber.Ctx) error {
	cc := usercontext.GetCompanyContext(c)
	if !cc.HasSession() {
		return c.JSON(demoSnapshot)
	}

	if cc.IsDemo() {
		mrr, nrr, ok := demoFigures(c)
		if !ok {
			return jsonError(c, fiber.StatusUnauthorized, "Demo session expired.")
		}
		previous := math.Floor(mrr*nrr/100 + 0.5)
		return c.JSON(snapshotResponse{
			Current:   mrr,
			Previous:  previous,
			PctChange: pctChange(mrr, previous),
			IsDemo:    true,
		})
	}

	ctx := c.UserContext()
	conn, err := ctl.Store.GetConnection(ctx, cc.CompanyID)
	if err != nil {
		log.Infof("[Snapshot] Connection %s not found, returning demo data: %v", cc.CompanyID, err)
		return c.JSON(demoSnapshotWithNote("Using demo data - Stripe connection not found"))
	}
	if ctl.Revenue == nil {
		return c.JSON(demoSnapshotWithNote("Using demo data - Stripe not configured"))
	}

	rev, err := ctl.Revenue.Fetch(ctx, conn.StripeAccountID)
	if err != nil {
		log.Errorf("[Snapshot] Fetch for %s failed: %v", cc.CompanyID, err)
		return c.JSON(demoSnapshotWithNote("Using demo data due to error: " + err.Error()))
	}

	// Only new net revenue is known here; the rest arrives with the weekly run.
	delta := rev.Current - rev.Previous
	if err := ctl.Store.AppendSnapshot(ctx, &models.Snapshot{
		CompanyID:  cc.CompanyID,
		ComputedAt: ctl.now().UTC(),
		NewNetARR:  &delta,
	}); err != nil {
		log.Warnf("[Snapshot] Could not save snapshot for %s: %v", cc.CompanyID, err)
	}

	return c.JSON(snapshotResponse{
		Current:   rev.Current,
		Previous:  rev.Previous,
		PctChange: pctChange(rev.Current, rev.Previous),
	})
}

// HandleEmailPreview renders this week's email for the session company
// without sending it. ?format=json returns the composed parts.
func (ctl *Controller) HandleEmailPreview(c *fiber.Ctx) error {
	cc := usercontext.GetCompanyContext(c)

	var (
		composed *weekly.Composed
		err      error
	)
	if cc.IsDemo() {
		composed, err = ctl.composeDemo(c)
	} else {
		composed, err = ctl.composeLive(c.UserContext(), cc.CompanyID)
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.Redirect("/connect-stripe", fiber.StatusSeeOther)
	case errors.Is(err, payments.ErrNotConfigured):
		return c.Status(fiber.StatusServiceUnavailable).SendString("Stripe is not configured.")
	case err != nil:
		log.Errorf("[Preview] Compose for %s failed: %v", cc.CompanyID, err)
		return c.Status(fiber.StatusBadGateway).SendString("Could not build this week's email: " + err.Error())
	}

	if c.Query("format") == "json" {
		return c.JSON(composed)
	}
	c.Type("html", "utf-8")
	return c.SendString(composed.Email.HTML)
}

func (ctl *Controller) composeLive(ctx context.Context, companyID string) (*weekly.Composed, error) {
	conn, err := ctl.Store.GetConnection(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if ctl.Runner == nil {
		return nil, errors.New("weekly runner not configured")
	}
	return ctl.Runner.Compose(ctx, conn)
}

// composeDemo builds the email from the demo session figures.
func (ctl *Controller) composeDemo(c *fiber.Ctx) (*weekly.Composed, error) {
	mrr, nrr, ok := demoFigures(c)
	if !ok {
		return nil, repository.ErrNotFound
	}
	previous := math.Floor(mrr*nrr/100 + 0.5)
	set := metrics.Compute(metrics.Inputs{
		Previous:   previous,
		Current:    mrr,
		NewRevenue: math.Max(mrr-previous, 0),
	})
	verdict := judgment.Judge(set)
	health := judgment.Score(set)
	email, err := digest.Render(set, verdict.Sentence, health, ctl.now())
	if err != nil {
		return nil, err
	}
	return &weekly.Composed{
		CompanyID: usercontext.CompanyID(c),
		Metrics:   set,
		Judgment:  verdict.Sentence,
		Health:    health,
		Email:     email,
	}, nil
}
