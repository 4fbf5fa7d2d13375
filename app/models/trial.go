package models

import "time"

type TrialStatus string

const (
	TrialStatusActive    TrialStatus = "active"
	TrialStatusPaused    TrialStatus = "paused"
	TrialStatusCancelled TrialStatus = "cancelled"
)

// Valid reports whether s is one of the known trial states.
func (s TrialStatus) Valid() bool {
	switch s {
	case TrialStatusActive, TrialStatusPaused, TrialStatusCancelled:
		return true
	default:
		return false
	}
}

// Trial tracks the weekly email schedule of a company. TrialStartedAt is set
// by the first successful send and never changes afterwards.
type Trial struct {
	CompanyID      string      `gorm:"primaryKey;type:varchar(191)" json:"company_id"`
	StartedAt      time.Time   `gorm:"type:timestamp;not null;index" json:"started_at"`
	TrialStartedAt *time.Time  `gorm:"type:timestamp;default:null" json:"trial_started_at,omitempty"`
	NextEmailAt    time.Time   `gorm:"type:timestamp;not null" json:"next_email_at"`
	Status         TrialStatus `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	EmailsSent     int         `gorm:"not null;default:0" json:"emails_sent"`
	LastWarningAt  *time.Time  `gorm:"type:timestamp;default:null" json:"last_warning_at,omitempty"`
	CreatedAt      time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Trial) TableName() string {
	return "trials"
}
