package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// ConnectionStatus is the lifecycle of a linked Stripe account. Connections
// are never deleted, only moved between states.
type ConnectionStatus string

const (
	ConnectionStatusConnected    ConnectionStatus = "connected"
	ConnectionStatusDisconnected ConnectionStatus = "disconnected"
)

// Connection links a company to its Stripe account and stores the few manual
// inputs the metrics pipeline needs.
type Connection struct {
	CompanyID            string           `gorm:"primaryKey;type:varchar(191)" json:"company_id" validate:"required,max=191"`
	StripeAccountID      string           `gorm:"type:varchar(191);not null;index" json:"stripe_account_id" validate:"required,max=191"`
	Status               ConnectionStatus `gorm:"type:varchar(32);not null;default:'connected'" json:"status" validate:"omitempty,oneof=connected disconnected"`
	ConnectedAt          time.Time        `gorm:"type:timestamp;not null;index" json:"connected_at"`
	MonthlyBurn          *float64         `gorm:"default:null" json:"monthly_burn,omitempty" validate:"omitempty,gt=0"`
	Email                *string          `gorm:"type:varchar(200);default:null" json:"email,omitempty" validate:"omitempty,email,max=200"`
	VerificationChargeID *string          `gorm:"type:varchar(191);default:null" json:"verification_charge_id,omitempty"`
	VerifiedAt           *time.Time       `gorm:"type:timestamp;default:null" json:"verified_at,omitempty"`
	LastSeenAt           *time.Time       `gorm:"type:timestamp;default:null" json:"last_seen_at,omitempty"`
	CreatedAt            time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Connection) TableName() string {
	return "stripe_connections"
}

func (c *Connection) Validate() error {
	v := validator.New()

	return v.Struct(c)
}

// Burn returns the monthly burn, or 0 when the founder never entered one.
func (c *Connection) Burn() float64 {
	if c.MonthlyBurn == nil {
		return 0
	}
	return *c.MonthlyBurn
}

// RecipientEmail returns the stored email or "" when none is on file.
func (c *Connection) RecipientEmail() string {
	if c.Email == nil {
		return ""
	}
	return *c.Email
}
