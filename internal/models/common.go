// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type LicenseStatus string

const (
	LicenseStatusActive    LicenseStatus = "active"
	LicenseStatusSuspended LicenseStatus = "suspended"
	LicenseStatusExpired   LicenseStatus = "expired"
	LicenseStatusCancelled LicenseStatus = "cancelled"
)

type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

type ModuleTier string

const (
	ModuleTierStarter    ModuleTier = "starter"
	ModuleTierGrowth     ModuleTier = "growth"
	ModuleTierEnterprise ModuleTier = "enterprise"
)

type DecisionSource string

const (
	DecisionSourceRemote        DecisionSource = "remote"
	DecisionSourceCache         DecisionSource = "cache"
	DecisionSourceGraceDegraded DecisionSource = "grace-degraded"
)

type AuditEventType string

const (
	AuditEventValidationSuccess AuditEventType = "validation_success"
	AuditEventValidationFailure AuditEventType = "validation_failure"
	AuditEventLimitWarning      AuditEventType = "limit_warning"
	AuditEventLimitExceeded     AuditEventType = "limit_exceeded"
	AuditEventModuleActivated   AuditEventType = "module_activated"
	AuditEventModuleDeactivated AuditEventType = "module_deactivated"
	AuditEventLicenseUpdated    AuditEventType = "license_updated"
	AuditEventLicenseExpired    AuditEventType = "license_expired"
)

type AuditSeverity string

const (
	AuditSeverityInfo     AuditSeverity = "info"
	AuditSeverityWarning  AuditSeverity = "warning"
	AuditSeverityError    AuditSeverity = "error"
	AuditSeverityCritical AuditSeverity = "critical"
)

type UserType string

const (
	UserTypeMember UserType = "member"
	UserTypeAdmin  UserType = "admin"
)
