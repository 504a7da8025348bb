// internal/models/audit.go
package models

import (
	"github.com/google/uuid"
)

// AuditEvent is an append-only record of one entitlement state transition.
// Critical-severity events are exempt from age-based cleanup.
type AuditEvent struct {
	BaseModel
	TenantID  uuid.UUID      `json:"tenant_id" gorm:"type:uuid;not null;index"`
	ModuleKey string         `json:"module_key" gorm:"size:50;index"`
	EventType AuditEventType `json:"event_type" gorm:"type:varchar(50);not null;index"`
	Severity  AuditSeverity  `json:"severity" gorm:"type:varchar(20);not null;index"`
	Details   JSONB          `json:"details" gorm:"type:jsonb"`
}
