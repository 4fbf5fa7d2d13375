package models

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanAnnual  Plan = "annual"
)

// Subscription mirrors the paid Stripe subscription of a company. It is only
// written by billing webhooks.
type Subscription struct {
	CompanyID            string             `gorm:"primaryKey;type:varchar(191)" json:"company_id"`
	StripeSubscriptionID string             `gorm:"type:varchar(191);index" json:"stripe_subscription_id"`
	StripeCustomerID     string             `gorm:"type:varchar(191)" json:"stripe_customer_id"`
	Status               SubscriptionStatus `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	Plan                 Plan               `gorm:"type:varchar(16);not null;default:'monthly'" json:"plan"`
	ActivatedAt          *time.Time         `gorm:"type:timestamp;default:null" json:"activated_at,omitempty"`
	CancelledAt          *time.Time         `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	CurrentPeriodEnd     *time.Time         `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CreatedAt            time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// IsPaid reports whether the subscription grants full access.
func (s *Subscription) IsPaid() bool {
	return s != nil && s.Status == SubscriptionStatusActive
}
