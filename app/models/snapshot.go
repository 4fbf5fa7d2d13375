package models

import "time"

// Snapshot is one computed metrics run. Nil columns mean the metric could
// not be computed for that run.
type Snapshot struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CompanyID      string    `gorm:"type:varchar(191);not null;index:idx_snapshots_company_computed,priority:1" json:"company_id"`
	ComputedAt     time.Time `gorm:"type:timestamp;not null;index:idx_snapshots_company_computed,priority:2" json:"computed_at"`
	NRR            *float64  `gorm:"column:nrr;default:null" json:"nrr"`
	NewNetARR      *float64  `gorm:"column:new_net_arr;default:null" json:"new_net_arr"`
	BurnMultiple   *float64  `gorm:"default:null" json:"burn_multiple"`
	CoreActionConv *float64  `gorm:"default:null" json:"core_action_conv"`
	ForwardSignal  *string   `gorm:"type:varchar(16);default:null" json:"forward_signal"`
	HealthScore    *string   `gorm:"type:varchar(16);default:null" json:"health_score"`
}

func (Snapshot) TableName() string {
	return "snapshots"
}
