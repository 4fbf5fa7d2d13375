package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	KeyCompanyContext = "COMPANY_CONTEXT"
	KeyCompanyID      = "company_id"
	KeyEmail          = "email"
	KeyDemoMRR        = "demo_mrr"
	KeyDemoNRR        = "demo_nrr"
)
