package models

import "time"

type EmailSent struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CompanyID         string    `gorm:"type:varchar(191);not null;index:idx_emails_sent_company_sent,priority:1" json:"company_id"`
	SentAt            time.Time `gorm:"type:timestamp;not null;index:idx_emails_sent_company_sent,priority:2" json:"sent_at"`
	Subject           string    `gorm:"type:varchar(255);not null" json:"subject"`
	Judgment          string    `gorm:"type:text" json:"judgment"`
	HealthScore       string    `gorm:"type:varchar(16)" json:"health_score"`
	ProviderMessageID string    `gorm:"type:varchar(191)" json:"provider_message_id"`
}

func (EmailSent) TableName() string {
	return "emails_sent"
}
