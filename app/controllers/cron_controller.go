package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/ManuelReschke/Candor/internal/pkg/churn"
	"github.com/ManuelReschke/Candor/internal/pkg/scheduler"
	"github.com/ManuelReschke/Candor/internal/pkg/weekly"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

type triggerRequest struct {
	CompanyID string `json:"company_id"`
}

// HandleCronWeekly runs the weekly email job over every active trial.
func (ctl *Controller) HandleCronWeekly(c *fiber.Ctx) error {
	results, err := ctl.Jobs.RunWeekly(c.UserContext())
	if err != nil {
		return weeklyError(c, err)
	}

	s := weekly.Summarize(results)
	return c.JSON(fiber.Map{
		"ok":        true,
		"ran_at":    ctl.now().UTC().Format(time.RFC3339),
		"processed": s.Total,
		"sent":      s.Sent,
		"failed":    s.Failed,
		"skipped":   s.Skipped,
		"companies": results,
	})
}

// HandleCronTrigger runs the weekly job by hand. ?company_id limits the run
// to one company.
func (ctl *Controller) HandleCronTrigger(c *fiber.Ctx) error {
	if id := strings.TrimSpace(c.Query("company_id")); id != "" {
		return ctl.triggerCompany(c, id)
	}

	results, err := ctl.Jobs.RunWeekly(c.UserContext())
	if err != nil {
		return weeklyError(c, err)
	}
	return c.JSON(fiber.Map{
		"ok":        true,
		"processed": len(results),
		"companies": results,
	})
}

// HandleCronTriggerCompany runs the weekly pipeline for the company named in
// the JSON body.
func (ctl *Controller) HandleCronTriggerCompany(c *fiber.Ctx) error {
	var req triggerRequest
	_ = c.BodyParser(&req)
	id := strings.TrimSpace(req.CompanyID)
	if id == "" {
		return jsonError(c, fiber.StatusBadRequest, "company_id required")
	}
	return ctl.triggerCompany(c, id)
}

func (ctl *Controller) triggerCompany(c *fiber.Ctx, companyID string) error {
	log.Infof("[Cron] Manual trigger for %s", companyID)
	return c.JSON(ctl.Runner.ProcessCompany(c.UserContext(), companyID))
}

func weeklyError(c *fiber.Ctx, err error) error {
	if errors.Is(err, weekly.ErrAlreadyRunning) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}
	log.Errorf("[Cron] Weekly job failed: %v", err)
	return jsonError(c, fiber.StatusInternalServerError, "Failed to run job: "+err.Error())
}

// HandleCronChurn runs the churn sweep. A failing rule still reports the
// results of the others.
func (ctl *Controller) HandleCronChurn(c *fiber.Ctx) error {
	results, err := ctl.Jobs.RunChurn(c.UserContext())
	if results == nil {
		results = []churn.Result{}
	}
	cancelled, warned := churn.Count(results)

	body := fiber.Map{
		"ok":        err == nil,
		"ran_at":    ctl.now().UTC().Format(time.RFC3339),
		"cancelled": cancelled,
		"warned":    warned,
		"results":   results,
	}
	if err != nil {
		log.Errorf("[Cron] Churn sweep failed: %v", err)
		body["error"] = err.Error()
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}
	return c.JSON(body)
}

// HandleCronStats returns the accumulated run counters of a job.
func (ctl *Controller) HandleCronStats(c *fiber.Ctx) error {
	job := c.Params("job")
	if job != scheduler.JobWeekly && job != scheduler.JobChurn {
		return jsonError(c, fiber.StatusNotFound, "Unknown job.")
	}

	totals, lastRun, err := ctl.Jobs.Stats(c.UserContext(), job)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	body := fiber.Map{"job": job, "totals": totals}
	if !lastRun.IsZero() {
		body["last_run_at"] = lastRun.UTC().Format(time.RFC3339)
	}
	return c.JSON(body)
}
