// internal/services/module_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/workstack/entitlement-backend/internal/models"
	"github.com/workstack/entitlement-backend/internal/modules"
)

func TestEnabledSetAlwaysIncludesCore(t *testing.T) {
	license := &models.TenantLicense{
		Grants: []models.ModuleGrant{
			{ModuleKey: "attendance", Enabled: true},
			{ModuleKey: "payroll", Enabled: false},
		},
	}

	keys := enabledSet(license)
	assert.Equal(t, []string{modules.CoreModuleKey, "attendance"}, keys)
}

func TestEnabledSetNoDuplicateCore(t *testing.T) {
	license := &models.TenantLicense{
		Grants: []models.ModuleGrant{
			{ModuleKey: modules.CoreModuleKey, Enabled: true},
			{ModuleKey: "documents", Enabled: true},
		},
	}

	keys := enabledSet(license)
	assert.Equal(t, []string{modules.CoreModuleKey, "documents"}, keys)
}

func TestEnabledModuleKeysSkipsDisabledGrants(t *testing.T) {
	license := &models.TenantLicense{
		Grants: []models.ModuleGrant{
			{ModuleKey: "attendance", Enabled: true},
			{ModuleKey: "leave", Enabled: false},
			{ModuleKey: "reports", Enabled: true},
		},
	}

	assert.Equal(t, []string{"attendance", "reports"}, license.EnabledModuleKeys())
}

func TestFindGrant(t *testing.T) {
	license := &models.TenantLicense{
		Grants: []models.ModuleGrant{
			{ModuleKey: "attendance", Tier: models.ModuleTierGrowth},
		},
	}

	grant := findGrant(license, "attendance")
	if assert.NotNil(t, grant) {
		assert.Equal(t, models.ModuleTierGrowth, grant.Tier)
	}
	assert.Nil(t, findGrant(license, "payroll"))
}

func TestTierOrDefault(t *testing.T) {
	assert.Equal(t, models.ModuleTierStarter, tierOrDefault(nil))
	assert.Equal(t, models.ModuleTierStarter, tierOrDefault(&EnableModuleRequest{}))
	assert.Equal(t, models.ModuleTierEnterprise, tierOrDefault(&EnableModuleRequest{Tier: "enterprise"}))
}
