// internal/models/license.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantLicense is the durable record issued by the license authority for one
// tenant subscription. It is read by the validation path and mutated only by
// the administrative module enable/disable surface.
type TenantLicense struct {
	BaseModel
	TenantID       uuid.UUID     `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex:idx_tenant_subscription"`
	SubscriptionID uuid.UUID     `json:"subscription_id" gorm:"type:uuid;not null;uniqueIndex:idx_tenant_subscription"`
	Status         LicenseStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`
	BillingCycle   BillingCycle  `json:"billing_cycle" gorm:"type:varchar(20);default:'monthly'"`
	ExpiresAt      *time.Time    `json:"expires_at"`

	// Relationships
	Grants []ModuleGrant `json:"grants,omitempty" gorm:"foreignKey:LicenseID"`
}

// ModuleGrant entitles a tenant to one module at a given tier, with optional
// numeric usage limits (e.g. {"employees": 50}).
type ModuleGrant struct {
	BaseModel
	LicenseID uuid.UUID  `json:"license_id" gorm:"type:uuid;not null;index"`
	ModuleKey string     `json:"module_key" gorm:"size:50;not null;index"`
	Enabled   bool       `json:"enabled" gorm:"default:true"`
	Tier      ModuleTier `json:"tier" gorm:"type:varchar(20);default:'starter'"`
	Limits    JSONB      `json:"limits" gorm:"type:jsonb"`
	Position  int        `json:"position" gorm:"default:0"`
}

// EnabledModuleKeys returns the keys of all enabled grants in grant order.
func (l *TenantLicense) EnabledModuleKeys() []string {
	keys := make([]string, 0, len(l.Grants))
	for _, g := range l.Grants {
		if g.Enabled {
			keys = append(keys, g.ModuleKey)
		}
	}
	return keys
}
