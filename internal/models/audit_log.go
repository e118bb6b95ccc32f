package models

import "time"

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

// Entity types recorded in the audit trail.
const (
	AuditEntityProduct = "produto"
	AuditEntityReceipt = "recebimento"
	AuditEntityIssue   = "saida"
)

type AuditLog struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	UserID   int64  `json:"user_id"`
	UserName string `gorm:"size:255" json:"user_name"` // denormalized so the log survives user changes

	EntityType string `gorm:"size:50;index:idx_audit_entity,priority:1" json:"entity_type"`
	EntityID   int64  `gorm:"index:idx_audit_entity,priority:2" json:"entity_id"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	// JSON snapshots; "null" when there is no state on that side
	BeforeData string `gorm:"type:jsonb" json:"before_data"`
	AfterData  string `gorm:"type:jsonb" json:"after_data"`
}
