package billing

import (
	"strings"

	"github.com/ManuelReschke/Candor/app/models"
)

// MonthlyAmount is the checkout total, in cents, of the monthly plan.
const MonthlyAmount int64 = 9900

// PlanForAmount infers the plan from a checkout total. Anything that is not
// the monthly price is treated as annual.
func PlanForAmount(amountTotal int64) models.Plan {
	if amountTotal == MonthlyAmount {
		return models.PlanMonthly
	}
	return models.PlanAnnual
}

// NormalizePlan maps a requested plan name onto a known plan, defaulting to
// monthly.
func NormalizePlan(plan string) models.Plan {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case string(models.PlanAnnual), "year", "yearly":
		return models.PlanAnnual
	default:
		return models.PlanMonthly
	}
}
