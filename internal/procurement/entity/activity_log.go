package entity

import "time"

// ActivityLog is the audit trail behind the traceability view: one row per
// lifecycle transition, stamped with the acting user.
type ActivityLog struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	TenantID string `json:"tenant_id" gorm:"size:32;not null;index"`

	EntityType string `json:"entity_type" gorm:"size:50;not null;index:idx_proc_activity_entity"` // requisition/po/reception/rfq/supplier/attachment
	EntityID   string `json:"entity_id" gorm:"size:32;not null;index:idx_proc_activity_entity"`
	EntityCode string `json:"entity_code" gorm:"size:50"`

	Action     string `json:"action" gorm:"size:50;not null"`
	FromStatus string `json:"from_status" gorm:"size:30"`
	ToStatus   string `json:"to_status" gorm:"size:30"`
	Comment    string `json:"comment" gorm:"type:text"`

	OperatorID string    `json:"operator_id" gorm:"size:32"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "proc_activity_logs"
}
