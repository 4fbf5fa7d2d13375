package models

import "time"

// ChurnLog is the audit row written for every churn cancellation.
type ChurnLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CompanyID   string    `gorm:"type:varchar(191);not null;index" json:"company_id"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CancelledAt time.Time `gorm:"type:timestamp;not null" json:"cancelled_at"`
}

func (ChurnLog) TableName() string {
	return "churn_log"
}
